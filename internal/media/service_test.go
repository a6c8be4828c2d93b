package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brewbar/bubbletea-backend/pkg/db/dbtest"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	putErr   error
	existing map[string]bool
	puts     []string
}

func (f *fakeStore) SignedPutURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.puts = append(f.puts, object)
	return "https://storage.test/" + bucket + "/" + object + "?method=PUT", nil
}

func (f *fakeStore) SignedGetURL(bucket, object string, expires time.Duration) (string, error) {
	return "https://storage.test/" + bucket + "/" + object, nil
}

func (f *fakeStore) ObjectExists(ctx context.Context, bucket, object string) (bool, error) {
	return f.existing[object], nil
}

func newTestService(t *testing.T, store *fakeStore) (Service, *Repository) {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewService(Params{
		Repo:        repo,
		Store:       store,
		Bucket:      "brewbar-images",
		UploadTTL:   15 * time.Minute,
		DownloadTTL: time.Hour,
		MaxUploadMB: 1,
		Now:         func() time.Time { return now },
	})
	require.NoError(t, err)
	return svc, repo
}

func TestPresignUploadRegistersMedia(t *testing.T) {
	store := &fakeStore{}
	svc, repo := newTestService(t, store)
	userID := uuid.New()

	out, err := svc.PresignUpload(context.Background(), userID, PresignInput{
		FileName:    "trà sữa đào.PNG",
		ContentType: "image/png; charset=binary",
		SizeBytes:   2048,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Handle, "images/"+out.MediaID.String()+"/"))
	assert.True(t, strings.HasSuffix(out.Handle, "trà-sữa-đào.PNG"))
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC), out.ExpiresAt)
	assert.Equal(t, []string{out.Handle}, store.puts)

	stored, err := repo.FindByHandle(context.Background(), out.Handle)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.UploadedBy)
	assert.Equal(t, userID, *stored.UploadedBy)
}

func TestPresignUploadRejectsInput(t *testing.T) {
	svc, _ := newTestService(t, &fakeStore{})
	cases := map[string]PresignInput{
		"pdf":      {FileName: "menu.pdf", ContentType: "application/pdf", SizeBytes: 10},
		"blank":    {FileName: "a.png", ContentType: " ", SizeBytes: 10},
		"too big":  {FileName: "a.png", ContentType: "image/png", SizeBytes: 2 * 1024 * 1024},
		"no bytes": {FileName: "a.png", ContentType: "image/png"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.PresignUpload(context.Background(), uuid.New(), input)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestPresignUploadRemovesRecordWhenSigningFails(t *testing.T) {
	svc, repo := newTestService(t, &fakeStore{putErr: errors.New("signer offline")})

	_, err := svc.PresignUpload(context.Background(), uuid.New(), PresignInput{
		FileName: "a.png", ContentType: "image/png", SizeBytes: 10,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var count int64
	require.NoError(t, repo.db.Model(&models.Media{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestURLReturnsNilForUnknownOrMissingObjects(t *testing.T) {
	store := &fakeStore{existing: map[string]bool{}}
	svc, repo := newTestService(t, store)
	ctx := context.Background()

	uploaded := &models.Media{Handle: "images/a/cup.png", ContentType: "image/png"}
	pending := &models.Media{Handle: "images/b/lid.png", ContentType: "image/png"}
	_, err := repo.Create(ctx, uploaded)
	require.NoError(t, err)
	_, err = repo.Create(ctx, pending)
	require.NoError(t, err)
	store.existing[uploaded.Handle] = true

	url, err := svc.URL(ctx, uploaded.Handle)
	require.NoError(t, err)
	require.NotNil(t, url)
	assert.Equal(t, "https://storage.test/brewbar-images/images/a/cup.png", *url)

	url, err = svc.URL(ctx, pending.Handle)
	require.NoError(t, err)
	assert.Nil(t, url)

	url, err = svc.URL(ctx, "images/unknown.png")
	require.NoError(t, err)
	assert.Nil(t, url)

	urls, err := svc.URLs(ctx, []string{uploaded.Handle, pending.Handle, "nope", uploaded.Handle, ""})
	require.NoError(t, err)
	require.Len(t, urls, 3)
	require.NotNil(t, urls[uploaded.Handle])
	assert.Nil(t, urls[pending.Handle])
	assert.Nil(t, urls["nope"])
}

func TestURLsRejectsOversizedBatch(t *testing.T) {
	svc, _ := newTestService(t, &fakeStore{})
	handles := make([]string, MaxBatchHandles+1)
	for i := range handles {
		handles[i] = uuid.NewString()
	}
	_, err := svc.URLs(context.Background(), handles)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "evil.png", sanitizeFileName(`..\..\evil.png`))
	assert.Equal(t, "my-photo.jpg", sanitizeFileName("  dir/my photo.jpg "))
	assert.Equal(t, "", sanitizeFileName(""))
}
