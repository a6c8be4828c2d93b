package media

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/google/uuid"
)

// MaxBatchHandles bounds a single URL lookup.
const MaxBatchHandles = 100

var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/gif":  {},
}

type mediaRepository interface {
	Create(ctx context.Context, media *models.Media) (*models.Media, error)
	FindByHandle(ctx context.Context, handle string) (*models.Media, error)
	FindByHandles(ctx context.Context, handles []string) (map[string]models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type objectStore interface {
	SignedPutURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedGetURL(bucket, object string, expires time.Duration) (string, error)
	ObjectExists(ctx context.Context, bucket, object string) (bool, error)
}

// Service issues upload URLs and resolves image handles to readable URLs.
type Service interface {
	PresignUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error)
	URL(ctx context.Context, handle string) (*string, error)
	URLs(ctx context.Context, handles []string) (map[string]*string, error)
}

// PresignInput describes the object an admin intends to upload.
type PresignInput struct {
	FileName    string `json:"fileName" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,gt=0"`
}

// PresignOutput is returned to the uploader.
type PresignOutput struct {
	MediaID     uuid.UUID `json:"mediaId"`
	Handle      string    `json:"handle"`
	UploadURL   string    `json:"uploadUrl"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Params wires the media service.
type Params struct {
	Repo        mediaRepository
	Store       objectStore
	Bucket      string
	UploadTTL   time.Duration
	DownloadTTL time.Duration
	MaxUploadMB int
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	repo        mediaRepository
	store       objectStore
	bucket      string
	uploadTTL   time.Duration
	downloadTTL time.Duration
	maxBytes    int64
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs a media service backed by the repository and bucket signer.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if p.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if strings.TrimSpace(p.Bucket) == "" {
		return nil, fmt.Errorf("bucket required")
	}
	if p.UploadTTL <= 0 || p.DownloadTTL <= 0 {
		return nil, fmt.Errorf("signed url expiry must be positive")
	}
	if p.MaxUploadMB <= 0 {
		p.MaxUploadMB = 10
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{
		repo:        p.Repo,
		store:       p.Store,
		bucket:      p.Bucket,
		uploadTTL:   p.UploadTTL,
		downloadTTL: p.DownloadTTL,
		maxBytes:    int64(p.MaxUploadMB) * 1024 * 1024,
		logg:        p.Logger,
		now:         p.Now,
	}, nil
}

func (s *service) PresignUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	contentType, err := normalizeMime(input.ContentType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid content type")
	}
	if _, ok := allowedImageTypes[contentType]; !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "content type %s is not an allowed image type", contentType)
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size must be positive")
	}
	if input.SizeBytes > s.maxBytes {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "file exceeds %d bytes", s.maxBytes).
			WithDetails(map[string]any{"maxBytes": s.maxBytes})
	}

	id := uuid.New()
	uploader := userID
	record := &models.Media{
		ID:          id,
		Handle:      buildObjectKey(id, input.FileName),
		ContentType: contentType,
		UploadedBy:  &uploader,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create media record")
	}

	url, err := s.store.SignedPutURL(s.bucket, created.Handle, contentType, s.uploadTTL)
	if err != nil {
		if delErr := s.repo.Delete(ctx, created.ID); delErr != nil && s.logg != nil {
			s.logg.Error(ctx, "media.cleanup_failed", delErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		MediaID:     created.ID,
		Handle:      created.Handle,
		UploadURL:   url,
		ContentType: contentType,
		ExpiresAt:   s.now().UTC().Add(s.uploadTTL),
	}, nil
}

func (s *service) URL(ctx context.Context, handle string) (*string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "handle is required")
	}
	record, err := s.repo.FindByHandle(ctx, handle)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load media")
	}
	if record == nil {
		return nil, nil
	}
	return s.signExisting(ctx, handle)
}

func (s *service) URLs(ctx context.Context, handles []string) (map[string]*string, error) {
	if len(handles) > MaxBatchHandles {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "at most %d handles per request", MaxBatchHandles)
	}
	out := make(map[string]*string, len(handles))
	wanted := make([]string, 0, len(handles))
	for _, h := range handles {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, seen := out[h]; seen {
			continue
		}
		out[h] = nil
		wanted = append(wanted, h)
	}

	known, err := s.repo.FindByHandles(ctx, wanted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load media")
	}
	for _, h := range wanted {
		if _, ok := known[h]; !ok {
			continue
		}
		url, err := s.signExisting(ctx, h)
		if err != nil {
			return nil, err
		}
		out[h] = url
	}
	return out, nil
}

// signExisting returns nil when the object was registered but never uploaded.
func (s *service) signExisting(ctx context.Context, handle string) (*string, error) {
	exists, err := s.store.ObjectExists(ctx, s.bucket, handle)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check object")
	}
	if !exists {
		return nil, nil
	}
	url, err := s.store.SignedGetURL(s.bucket, handle, s.downloadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign download url")
	}
	return &url, nil
}

func normalizeMime(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", err
	}
	return strings.ToLower(mediaType), nil
}

func buildObjectKey(id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("images/%s/%s", id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(strings.ReplaceAll(name, "\\", "/")))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
