package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"lms/internal/event"
	"lms/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

func TestValidateUpload(t *testing.T) {
	settings := &model.TenantSettings{
		MaxUploadSizeMB:   10,
		AllowedMediaTypes: []string{"video/mp4", "application/pdf"},
	}

	tests := []struct {
		name        string
		filename    string
		contentType string
		sizeBytes   int64
		settings    *model.TenantSettings
		wantErr     bool
	}{
		{"valid video", "intro.mp4", "video/mp4", 5 * 1024 * 1024, settings, false},
		{"valid pdf", "slides.pdf", "application/pdf", 1024, settings, false},
		{"type compared case insensitively", "intro.mp4", "Video/MP4", 1024, settings, false},
		{"empty filename", "", "video/mp4", 1024, settings, true},
		{"path traversal slash", "../etc/passwd", "video/mp4", 1024, settings, true},
		{"path traversal backslash", "a\\b.mp4", "video/mp4", 1024, settings, true},
		{"zero size", "intro.mp4", "video/mp4", 0, settings, true},
		{"over size limit", "big.mp4", "video/mp4", 11 * 1024 * 1024, settings, true},
		{"exactly at limit", "edge.mp4", "video/mp4", 10 * 1024 * 1024, settings, false},
		{"disallowed type", "script.sh", "text/x-shellscript", 1024, settings, true},
		{"nil settings", "intro.mp4", "video/mp4", 1024, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.filename, tt.contentType, tt.sizeBytes, tt.settings)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("expected ErrInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

type fakeMediaRepo struct {
	items  map[string]*model.Media
	nextID int
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{items: make(map[string]*model.Media)}
}

func (r *fakeMediaRepo) CreateMedia(_ context.Context, m *model.Media) error {
	r.nextID++
	m.ID = fmt.Sprintf("media-%d", r.nextID)
	cp := *m
	r.items[m.ID] = &cp
	return nil
}

func (r *fakeMediaRepo) GetMediaByID(_ context.Context, _, mediaID string) (*model.Media, error) {
	m, ok := r.items[mediaID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMediaRepo) ListMediaByOwner(_ context.Context, _, ownerID string, _, _ int) ([]model.Media, error) {
	var out []model.Media
	for _, m := range r.items {
		if m.OwnerID == ownerID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) UpdateMedia(_ context.Context, m *model.Media) error {
	cp := *m
	r.items[m.ID] = &cp
	return nil
}

func (r *fakeMediaRepo) DeleteMedia(_ context.Context, _, mediaID string) error {
	delete(r.items, mediaID)
	return nil
}

// newMediaFixture backs the S3 client with a local server whose HeadObject
// response reports objectSize. A negative objectSize answers 404.
func newMediaFixture(t *testing.T, objectSize int64) (MediaService, *fakeMediaRepo, *[]event.Event) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead || objectSize < 0 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.FormatInt(objectSize, 10))
	}))
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("test", "test", ""),
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
	})

	var emitted []event.Event
	emitter := event.NewEmitter(zerolog.Nop())
	emitter.Subscribe("*", "capture", func(_ context.Context, ev event.Event) error {
		emitted = append(emitted, ev)
		return nil
	})

	repo := newFakeMediaRepo()
	settings := &fakeSettings{settings: model.TenantSettings{
		MaxUploadSizeMB:   100,
		AllowedMediaTypes: []string{"video/mp4"},
	}}
	svc := NewMediaService(repo, settings, client, "lms-media", 15*time.Minute, emitter, zerolog.Nop())
	return svc, repo, &emitted
}

func uploadingMedia(t *testing.T, repo *fakeMediaRepo, size int64) *model.Media {
	t.Helper()
	m := &model.Media{
		TenantID:    "t1",
		OwnerID:     "u1",
		Filename:    "intro.mp4",
		ContentType: "video/mp4",
		SizeBytes:   size,
		StorageKey:  "media/t1/abc/intro.mp4",
		Status:      model.MediaStatusUploading,
	}
	if err := repo.CreateMedia(context.Background(), m); err != nil {
		t.Fatalf("seed media: %v", err)
	}
	return m
}

func TestCompleteUploadMarksReady(t *testing.T) {
	svc, repo, emitted := newMediaFixture(t, 1024)
	seeded := uploadingMedia(t, repo, 1024)

	media, err := svc.CompleteUpload(context.Background(), "t1", seeded.ID, "u1")
	if err != nil {
		t.Fatalf("CompleteUpload: %v", err)
	}
	if media.Status != model.MediaStatusReady {
		t.Fatalf("expected ready, got %s", media.Status)
	}
	if len(*emitted) != 1 || (*emitted)[0].Name != event.MediaReady {
		t.Fatalf("expected media.ready event, got %v", *emitted)
	}
}

func TestCompleteUploadSizeMismatchFails(t *testing.T) {
	svc, repo, emitted := newMediaFixture(t, 512)
	seeded := uploadingMedia(t, repo, 1024)

	if _, err := svc.CompleteUpload(context.Background(), "t1", seeded.ID, "u1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on size mismatch, got %v", err)
	}
	stored := repo.items[seeded.ID]
	if stored.Status != model.MediaStatusFailed {
		t.Fatalf("expected media marked failed, got %s", stored.Status)
	}
	if stored.SizeBytes != 1024 {
		t.Fatalf("declared size must not be overwritten, got %d", stored.SizeBytes)
	}
	if len(*emitted) != 0 {
		t.Fatalf("no event expected on mismatch, got %v", *emitted)
	}
}

func TestCompleteUploadMissingObjectFails(t *testing.T) {
	svc, repo, _ := newMediaFixture(t, -1)
	seeded := uploadingMedia(t, repo, 1024)

	if _, err := svc.CompleteUpload(context.Background(), "t1", seeded.ID, "u1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for missing object, got %v", err)
	}
	if repo.items[seeded.ID].Status != model.MediaStatusFailed {
		t.Fatalf("expected media marked failed, got %s", repo.items[seeded.ID].Status)
	}
}
