package profile

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stylit/service/internal/pagination"
	"github.com/stylit/service/internal/response"
	"github.com/stylit/service/internal/storage"
)

// maxUploadSize bounds the in-memory portion of multipart parsing.
const maxUploadSize = 10 << 20 // 10 MiB

// Handler holds HTTP handlers for profile endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new profile Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListResponse is the payload of the profile listing endpoint.
type ListResponse struct {
	Data []Profile       `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// Create godoc
//
//	@Summary		Create user profile
//	@Description	Creates a profile. Accepts multipart form data with an optional picture under "img".
//	@Tags			profiles
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id			formData	string	true	"Profile id (issued by the auth provider)"
//	@Param			username	formData	string	true	"Unique username"
//	@Param			display_name	formData	string	false	"Display name"
//	@Param			visibility	formData	string	true	"public or private"
//	@Param			img			formData	file	false	"Profile picture"
//	@Success		201	{object}	response.Envelope{data=Profile}
//	@Failure		400	{object}	response.Envelope
//	@Failure		409	{object}	response.Envelope
//	@Router			/profiles [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	params := CreateParams{
		ID:          r.FormValue("id"),
		Username:    r.FormValue("username"),
		DisplayName: formValue(r, "display_name"),
		Visibility:  r.FormValue("visibility"),
	}
	if params.ID == "" || params.Username == "" || params.Visibility == "" {
		response.BadRequest(w, "id, username and visibility are required")
		return
	}

	img, err := formFile(r, "img")
	if err != nil {
		response.BadRequest(w, "invalid img upload")
		return
	}

	p, err := h.svc.Create(r.Context(), params, img)
	if err != nil {
		h.writeError(w, err, "failed to create profile")
		return
	}
	response.Created(w, p)
}

// List godoc
//
//	@Summary		List user profiles
//	@Description	Returns a page of profiles, optionally filtered by username prefix.
//	@Tags			profiles
//	@Produce		json
//	@Security		BearerAuth
//	@Param			username	query	string	false	"Username prefix filter"
//	@Param			page		query	int		false	"Page number (default 1)"
//	@Param			limit		query	int		false	"Page size (default 20)"
//	@Success		200	{object}	response.Envelope{data=ListResponse}
//	@Failure		404	{object}	response.Envelope
//	@Router			/profiles [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	profiles, meta, err := h.svc.List(r.Context(), r.URL.Query().Get("username"), page, limit)
	if err != nil {
		h.writeError(w, err, "failed to list profiles")
		return
	}
	response.OK(w, ListResponse{Data: profiles, Meta: meta})
}

// Get godoc
//
//	@Summary		Get user profile
//	@Description	Returns a single profile by id.
//	@Tags			profiles
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Profile id"
//	@Success		200	{object}	response.Envelope{data=Profile}
//	@Failure		404	{object}	response.Envelope
//	@Router			/profiles/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err, "failed to get profile")
		return
	}
	response.OK(w, p)
}

// Update godoc
//
//	@Summary		Update user profile
//	@Description	Partially updates a profile. Absent form fields are left untouched.
//	@Tags			profiles
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id			path		string	true	"Profile id"
//	@Param			username	formData	string	false	"New unique username"
//	@Param			display_name	formData	string	false	"New display name"
//	@Param			visibility	formData	string	false	"New visibility"
//	@Param			img			formData	file	false	"New profile picture"
//	@Success		200	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		409	{object}	response.Envelope
//	@Router			/profiles/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	params := UpdateParams{
		Username:    formValue(r, "username"),
		DisplayName: formValue(r, "display_name"),
		Visibility:  formValue(r, "visibility"),
	}

	img, err := formFile(r, "img")
	if err != nil {
		response.BadRequest(w, "invalid img upload")
		return
	}

	if err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), params, img); err != nil {
		h.writeError(w, err, "failed to update profile")
		return
	}
	response.OK(w, nil)
}

// Delete godoc
//
//	@Summary		Delete user profile
//	@Description	Removes a profile and, best effort, its picture blob.
//	@Tags			profiles
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Profile id"
//	@Success		204	{string}	string	"no content"
//	@Failure		404	{object}	response.Envelope
//	@Router			/profiles/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err, "failed to delete profile")
		return
	}
	response.NoContent(w)
}

// writeError maps service errors onto HTTP statuses: conflicts to 409,
// missing records to 404, anything else (storage and database faults) to 400
// with a generic message, keeping the underlying cause in the server log.
func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrAlreadyExists):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, err.Error())
	default:
		log.Printf("profile: %v", err)
		response.BadRequest(w, fallback)
	}
}

// formValue distinguishes an absent form field from a present-but-empty one:
// it returns nil when the key was not sent at all.
func formValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// formFile reads an optional multipart file field, returning nil when the
// field is absent.
func formFile(r *http.Request, key string) (*storage.Object, error) {
	file, header, err := r.FormFile(key)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &storage.Object{
		Reader:      file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}
