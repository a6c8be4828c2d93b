package gcs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testSigner(t *testing.T) *signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return &signer{accessID: "signer@brewbar.iam.gserviceaccount.com", privateKey: pemBytes}
}

func TestSignedPutURL(t *testing.T) {
	client := &Client{defaultBucket: "brewbar-media", signer: testSigner(t)}

	raw, err := client.SignedPutURL("", "products/tra-sua.png", "image/png", 15*time.Minute)
	if err != nil {
		t.Fatalf("SignedPutURL returned error: %v", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if !strings.EqualFold(parsed.Host, "storage.googleapis.com") {
		t.Fatalf("unexpected host %s", parsed.Host)
	}
	if !strings.Contains(parsed.Path, "brewbar-media/products/tra-sua.png") {
		t.Fatalf("unexpected path %s", parsed.Path)
	}
	q := parsed.Query()
	if q.Get("X-Goog-Algorithm") != "GOOG4-RSA-SHA256" {
		t.Fatalf("expected v4 signing, got %q", q.Get("X-Goog-Algorithm"))
	}
	if q.Get("X-Goog-Expires") != "900" {
		t.Fatalf("unexpected expiry %q", q.Get("X-Goog-Expires"))
	}
	if !strings.Contains(q.Get("X-Goog-SignedHeaders"), "content-type") {
		t.Fatalf("expected content-type to be signed, got %q", q.Get("X-Goog-SignedHeaders"))
	}
}

func TestSignedURLValidation(t *testing.T) {
	client := &Client{defaultBucket: "bucket", signer: testSigner(t)}
	if _, err := client.SignedGetURL("", "", time.Minute); err == nil {
		t.Fatal("expected empty object to fail")
	}
	if _, err := client.SignedGetURL("", "a.png", 0); err == nil {
		t.Fatal("expected zero expiry to fail")
	}
	var nilClient *Client
	if _, err := nilClient.SignedGetURL("", "a.png", time.Minute); err == nil {
		t.Fatal("expected nil client to fail")
	}
}

func TestSignerFromJSON(t *testing.T) {
	raw, _ := json.Marshal(map[string]string{"client_email": "a@b.iam", "private_key": "pem"})
	s, err := signerFromJSON(raw)
	if err != nil || s == nil || s.accessID != "a@b.iam" {
		t.Fatalf("unexpected signer %+v err=%v", s, err)
	}

	userCreds, _ := json.Marshal(map[string]string{"type": "authorized_user"})
	s, err = signerFromJSON(userCreds)
	if err != nil || s != nil {
		t.Fatalf("expected no signer for user credentials, got %+v err=%v", s, err)
	}

	if _, err := signerFromJSON([]byte("{")); err == nil {
		t.Fatal("expected bad json to fail")
	}
}
