package item

import (
	"context"
	"fmt"
	"time"

	"github.com/stylit/service/internal/pagination"
	"github.com/stylit/service/internal/storage"
)

// signedURLTTL is how long an item image URL stays valid after issuance.
// The URL is persisted as issued; expired links are not refreshed on read.
const signedURLTTL = 3600 * time.Second

// imageFolder prefixes all item image keys inside the private bucket.
const imageFolder = "items"

// Store is the subset of repository behavior the service depends on.
type Store interface {
	Insert(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id string) (*Item, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Item, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// Service creates items whose images live in a private bucket, exposed only
// through short-lived signed URLs.
type Service struct {
	store         Store
	blobs         storage.Storage
	privateBucket string
}

// NewService creates an item Service.
func NewService(store Store, blobs storage.Storage, privateBucket string) *Service {
	return &Service{store: store, blobs: blobs, privateBucket: privateBucket}
}

// CreateParams carries the fields of a new item.
type CreateParams struct {
	UserID     string
	Name       string
	Category   string
	Style      string
	Season     string
	Color      string
	Visibility string
}

// imageKey derives the blob key for an item image from its owner and name.
// Two items with the same owner and name share a key, so the later upload
// overwrites the earlier image.
func imageKey(userID, name string) string {
	return fmt.Sprintf("%s/%s-%s", imageFolder, userID, name)
}

// Create uploads the image to the private bucket, issues a signed URL valid
// for signedURLTTL from now, and inserts the record with that URL snapshot.
func (s *Service) Create(ctx context.Context, params CreateParams, img *storage.Object) (*Item, error) {
	key := imageKey(params.UserID, params.Name)

	if err := s.blobs.Upload(ctx, s.privateBucket, key, img.Reader, img.Size, img.ContentType); err != nil {
		return nil, fmt.Errorf("upload item image: %w", err)
	}

	imgURL, err := s.blobs.SignedURL(ctx, s.privateBucket, key, signedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("sign item image url: %w", err)
	}

	it := &Item{
		UserID:     params.UserID,
		Name:       params.Name,
		Category:   params.Category,
		Style:      params.Style,
		Season:     params.Season,
		Color:      params.Color,
		Visibility: params.Visibility,
		ImgURL:     imgURL,
	}
	if err := s.store.Insert(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// GetByID returns a single item. The stored img_url is returned unchanged,
// even if its TTL has elapsed.
func (s *Service) GetByID(ctx context.Context, id string) (*Item, error) {
	return s.store.GetByID(ctx, id)
}

// ListByUser returns one page of a user's items plus pagination metadata.
// An empty result is not an error.
func (s *Service) ListByUser(ctx context.Context, userID string, page, limit int) ([]Item, pagination.Meta, error) {
	page, limit = pagination.Clamp(page, limit)

	total, err := s.store.CountByUser(ctx, userID)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	items, err := s.store.ListByUser(ctx, userID, limit, pagination.Offset(page, limit))
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return items, pagination.NewMeta(page, limit, total), nil
}
