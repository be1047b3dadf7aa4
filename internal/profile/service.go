package profile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/stylit/service/internal/pagination"
	"github.com/stylit/service/internal/storage"
)

// Store is the subset of repository behavior the service depends on.
// It is satisfied by *Repository and by in-memory doubles in tests.
type Store interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
	Insert(ctx context.Context, p *Profile) error
	Update(ctx context.Context, id string, params UpdateParams) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, prefix string, limit, offset int) ([]Profile, error)
	Count(ctx context.Context, prefix string) (int, error)
}

// Service coordinates profile records with their picture blobs. The two
// stores share no transaction: uniqueness checks run before any write, and
// uploads run before the record insert so a stored record never points at a
// missing blob. A failure in between leaves an orphaned blob at a
// deterministic path that the next attempt for the same id overwrites.
type Service struct {
	store         Store
	blobs         storage.Storage
	publicBucket  string
	defaultPfpURL string
}

// NewService creates a profile Service.
func NewService(store Store, blobs storage.Storage, publicBucket, defaultPfpURL string) *Service {
	return &Service{
		store:         store,
		blobs:         blobs,
		publicBucket:  publicBucket,
		defaultPfpURL: defaultPfpURL,
	}
}

// CreateParams carries the fields of a new profile.
type CreateParams struct {
	ID          string
	Username    string
	DisplayName *string
	Visibility  string
}

// pfpKey derives the blob key for a profile picture from the profile id.
// The derivation is deterministic so a retried create overwrites the blob
// left behind by an earlier partial failure instead of orphaning another one.
func pfpKey(id string) string {
	return id + "-pfp"
}

// Create registers a new profile. The id and username must both be unused.
// When img is non-nil it becomes the profile picture; otherwise the
// configured default picture URL is assigned.
func (s *Service) Create(ctx context.Context, params CreateParams, img *storage.Object) (*Profile, error) {
	if _, err := s.store.GetByID(ctx, params.ID); err == nil {
		return nil, fmt.Errorf("profile with id %s %w", params.ID, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if _, err := s.store.GetByUsername(ctx, params.Username); err == nil {
		return nil, fmt.Errorf("profile with username %s %w", params.Username, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	pfpURL := s.defaultPfpURL
	if img != nil {
		url, err := s.uploadPfp(ctx, params.ID, img)
		if err != nil {
			return nil, err
		}
		pfpURL = url
	}

	p := &Profile{
		ID:          params.ID,
		Username:    params.Username,
		DisplayName: params.DisplayName,
		PfpURL:      pfpURL,
		Visibility:  params.Visibility,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID returns a single profile.
func (s *Service) GetByID(ctx context.Context, id string) (*Profile, error) {
	return s.store.GetByID(ctx, id)
}

// List returns one page of profiles filtered by an optional username prefix,
// plus exact-count pagination metadata. A filter that matches nothing at all
// is reported as not found; an empty page past the end of a non-empty set is
// returned as empty data with correct metadata.
func (s *Service) List(ctx context.Context, usernamePrefix string, page, limit int) ([]Profile, pagination.Meta, error) {
	page, limit = pagination.Clamp(page, limit)

	total, err := s.store.Count(ctx, usernamePrefix)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	if total == 0 {
		return nil, pagination.Meta{}, fmt.Errorf("no profiles %w", ErrNotFound)
	}

	profiles, err := s.store.List(ctx, usernamePrefix, limit, pagination.Offset(page, limit))
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return profiles, pagination.NewMeta(page, limit, total), nil
}

// Update applies a partial update. Only non-nil fields are written; a request
// with no fields and no image succeeds without touching either store. A
// username change is checked for uniqueness against all other profiles —
// setting a profile's username to its own current value is permitted.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams, img *storage.Object) error {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if params.Username != nil && *params.Username != current.Username {
		other, err := s.store.GetByUsername(ctx, *params.Username)
		if err == nil && other.ID != id {
			return fmt.Errorf("profile with username %s %w", *params.Username, ErrAlreadyExists)
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	if img != nil {
		url, err := s.uploadPfp(ctx, id, img)
		if err != nil {
			return err
		}
		params.PfpURL = &url
	}

	if params.IsZero() {
		return nil
	}
	return s.store.Update(ctx, id, params)
}

// Delete removes a profile record and then its picture blob. The blob delete
// is best effort: a failure is logged and never surfaced, so a profile whose
// record is gone always reports a successful delete. Profiles still on the
// default picture never owned a blob, so nothing is attempted for them.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if current.PfpURL != s.defaultPfpURL {
		if err := s.blobs.Delete(ctx, s.publicBucket, pfpKey(id)); err != nil {
			log.Printf("profile: failed to delete pfp blob for %s: %v", id, err)
		}
	}
	return nil
}

// uploadPfp writes the picture to the deterministic key for id and returns
// its public URL.
func (s *Service) uploadPfp(ctx context.Context, id string, img *storage.Object) (string, error) {
	key := pfpKey(id)
	if err := s.blobs.Upload(ctx, s.publicBucket, key, img.Reader, img.Size, img.ContentType); err != nil {
		return "", fmt.Errorf("upload pfp: %w", err)
	}
	url, err := s.blobs.PublicURL(s.publicBucket, key)
	if err != nil {
		return "", fmt.Errorf("resolve pfp url: %w", err)
	}
	return url, nil
}
