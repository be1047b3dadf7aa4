package item

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stylit/service/internal/storage"
)

type fakeStore struct {
	items     map[string]*Item
	nextID    int
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]*Item{}}
}

func (s *fakeStore) Insert(_ context.Context, it *Item) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nextID++
	it.ID = fmt.Sprintf("item-%d", s.nextID)
	it.CreatedAt = time.Now()
	cp := *it
	s.items[it.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*Item, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s %w", id, ErrNotFound)
	}
	cp := *it
	return &cp, nil
}

func (s *fakeStore) ListByUser(_ context.Context, userID string, limit, offset int) ([]Item, error) {
	out := []Item{}
	for _, it := range s.items {
		if it.UserID == userID {
			out = append(out, *it)
		}
	}
	if offset >= len(out) {
		return []Item{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (s *fakeStore) CountByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for _, it := range s.items {
		if it.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeBlobs struct {
	uploads   []string
	signedTTL time.Duration
	issuedAt  time.Time
}

func (b *fakeBlobs) Upload(_ context.Context, bucket, key string, _ io.Reader, _ int64, _ string) error {
	b.uploads = append(b.uploads, bucket+"/"+key)
	return nil
}

func (b *fakeBlobs) Delete(_ context.Context, bucket, key string) error { return nil }

func (b *fakeBlobs) PublicURL(bucket, key string) (string, error) {
	return "https://cdn.test/" + bucket + "/" + key, nil
}

func (b *fakeBlobs) SignedURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	b.signedTTL = ttl
	b.issuedAt = time.Now()
	expiry := b.issuedAt.Add(ttl).Unix()
	return fmt.Sprintf("https://cdn.test/%s/%s?expires=%d", bucket, key, expiry), nil
}

func img() *storage.Object {
	return &storage.Object{Reader: strings.NewReader("png"), Size: 3, ContentType: "image/png"}
}

func TestCreateUploadsToDerivedKey(t *testing.T) {
	blobs := &fakeBlobs{}
	svc := NewService(newFakeStore(), blobs, "private-uploads")

	_, err := svc.Create(context.Background(), CreateParams{UserID: "u1", Name: "jacket"}, img())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "private-uploads/items/u1-jacket"; len(blobs.uploads) != 1 || blobs.uploads[0] != want {
		t.Errorf("uploads = %v, want exactly [%s]", blobs.uploads, want)
	}
}

func TestCreateSignsURLForOneHour(t *testing.T) {
	blobs := &fakeBlobs{}
	svc := NewService(newFakeStore(), blobs, "private-uploads")

	it, err := svc.Create(context.Background(), CreateParams{UserID: "u1", Name: "jacket"}, img())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blobs.signedTTL != 3600*time.Second {
		t.Errorf("signed TTL = %v, want 3600s", blobs.signedTTL)
	}
	wantExpiry := fmt.Sprintf("expires=%d", blobs.issuedAt.Add(3600*time.Second).Unix())
	if !strings.Contains(it.ImgURL, wantExpiry) {
		t.Errorf("ImgURL = %q, want expiry at issuance+3600s (%s)", it.ImgURL, wantExpiry)
	}
}

func TestCreateInsertFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.insertErr = ErrCreateFailed
	svc := NewService(store, &fakeBlobs{}, "private-uploads")

	_, err := svc.Create(context.Background(), CreateParams{UserID: "u1", Name: "jacket"}, img())
	if !errors.Is(err, ErrCreateFailed) {
		t.Fatalf("expected ErrCreateFailed, got %v", err)
	}
}

func TestGetByIDReturnsStoredURLUnchanged(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeBlobs{}, "private-uploads")

	created, err := svc.Create(context.Background(), CreateParams{UserID: "u1", Name: "jacket"}, img())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ImgURL != created.ImgURL {
		t.Errorf("ImgURL changed on read: %q != %q", got.ImgURL, created.ImgURL)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeBlobs{}, "private-uploads")

	if _, err := svc.GetByID(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByUserMeta(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeBlobs{}, "private-uploads")

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), CreateParams{UserID: "u1", Name: fmt.Sprintf("item%d", i)}, img())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	items, meta, err := svc.ListByUser(context.Background(), "u1", 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
	if meta.Total != 3 || meta.TotalPages != 2 {
		t.Errorf("meta = %+v, want total=3 total_pages=2", meta)
	}
}

func TestSameNameOverwritesImageKey(t *testing.T) {
	blobs := &fakeBlobs{}
	svc := NewService(newFakeStore(), blobs, "private-uploads")

	for i := 0; i < 2; i++ {
		if _, err := svc.Create(context.Background(), CreateParams{UserID: "u1", Name: "jacket"}, img()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if blobs.uploads[0] != blobs.uploads[1] {
		t.Errorf("same owner and name produced distinct keys: %v", blobs.uploads)
	}
}
