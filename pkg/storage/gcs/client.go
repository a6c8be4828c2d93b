package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/brewbar/bubbletea-backend/pkg/config"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"google.golang.org/api/option"
)

const pingTimeout = 5 * time.Second

// Client wraps the storage SDK with the bucket and signing identity the app uses.
type Client struct {
	storage       *storage.Client
	defaultBucket string
	signer        *signer
}

// signer holds service account material for offline V4 signing. When nil the
// SDK signs through the IAM credentials API with the ambient identity.
type signer struct {
	accessID   string
	privateKey []byte
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	var (
		opts     []option.ClientOption
		credJSON []byte
	)
	switch {
	case gcp.CredentialsJSON != "":
		credJSON = []byte(gcp.CredentialsJSON)
		opts = append(opts, option.WithCredentialsJSON(credJSON))
	case gcp.ApplicationCredentials != "":
		raw, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
		credJSON = raw
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}

	sdk, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	client := &Client{storage: sdk, defaultBucket: cfg.BucketName}
	if len(credJSON) > 0 {
		s, err := signerFromJSON(credJSON)
		if err != nil {
			_ = sdk.Close()
			return nil, err
		}
		client.signer = s
	}

	if err := client.Ping(ctx); err != nil {
		_ = sdk.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}
	return client, nil
}

func signerFromJSON(raw []byte) (*signer, error) {
	var key serviceAccountKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, fmt.Errorf("parsing service account json: %w", err)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		// user credentials cannot sign; fall back to IAM signing
		return nil, nil
	}
	return &signer{accessID: key.ClientEmail, privateKey: []byte(key.PrivateKey)}, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

func (c *Client) Close() error {
	if c == nil || c.storage == nil {
		return nil
	}
	return c.storage.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.storage == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.storage.Bucket(c.defaultBucket).Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %s: %w", c.defaultBucket, err)
	}
	return nil
}

// SignedPutURL returns a V4 URL that accepts a single PUT of contentType.
func (c *Client) SignedPutURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	return c.signedURL(bucket, object, http.MethodPut, contentType, expires)
}

// SignedGetURL returns a V4 URL for reading object.
func (c *Client) SignedGetURL(bucket, object string, expires time.Duration) (string, error) {
	return c.signedURL(bucket, object, http.MethodGet, "", expires)
}

func (c *Client) signedURL(bucket, object, method, contentType string, expires time.Duration) (string, error) {
	if c == nil {
		return "", errors.New("gcs client not initialized")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	object = strings.TrimPrefix(object, "/")
	if object == "" {
		return "", errors.New("object name is required")
	}
	if expires <= 0 {
		return "", errors.New("expiry must be positive")
	}

	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  method,
		Expires: time.Now().Add(expires),
	}
	if contentType != "" {
		opts.ContentType = contentType
	}

	if c.signer != nil {
		opts.GoogleAccessID = c.signer.accessID
		opts.PrivateKey = c.signer.privateKey
		return storage.SignedURL(bucket, object, opts)
	}
	if c.storage == nil {
		return "", errors.New("no signing identity available")
	}
	return c.storage.Bucket(bucket).SignedURL(object, opts)
}

// ObjectExists reports whether object is present in bucket.
func (c *Client) ObjectExists(ctx context.Context, bucket, object string) (bool, error) {
	if c == nil || c.storage == nil {
		return false, errors.New("gcs client not initialized")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	_, err := c.storage.Bucket(bucket).Object(object).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s/%s: %w", bucket, object, err)
	}
	return true, nil
}
