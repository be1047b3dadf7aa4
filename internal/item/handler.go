package item

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

// Handler holds HTTP handlers for item endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new item Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListResponse is the payload of the item listing endpoint.
type ListResponse struct {
	Data []Item          `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// Create godoc
//
//	@Summary		Create user item
//	@Description	Creates an item. Accepts multipart form data with a required image under "img".
//	@Tags			items
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			user_id		formData	string	true	"Owning profile id"
//	@Param			name		formData	string	true	"Item name"
//	@Param			category	formData	string	true	"Category"
//	@Param			style		formData	string	true	"Style"
//	@Param			season		formData	string	true	"Season"
//	@Param			color		formData	string	true	"Color"
//	@Param			visibility	formData	string	true	"public or private"
//	@Param			img			formData	file	true	"Item image"
//	@Success		201	{object}	response.Envelope{data=Item}
//	@Failure		400	{object}	response.Envelope
//	@Router			/items [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}

	params := CreateParams{
		UserID:     r.FormValue("user_id"),
		Name:       r.FormValue("name"),
		Category:   r.FormValue("category"),
		Style:      r.FormValue("style"),
		Season:     r.FormValue("season"),
		Color:      r.FormValue("color"),
		Visibility: r.FormValue("visibility"),
	}
	if params.UserID == "" || params.Name == "" {
		response.BadRequest(w, "user_id and name are required")
		return
	}

	file, header, err := r.FormFile("img")
	if err != nil {
		response.BadRequest(w, "img file is required")
		return
	}
	img := &storage.Object{
		Reader:      file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}

	it, err := h.svc.Create(r.Context(), params, img)
	if err != nil {
		log.Printf("item: %v", err)
		response.BadRequest(w, "failed to create item")
		return
	}
	response.Created(w, it)
}

// Get godoc
//
//	@Summary		Get item
//	@Description	Returns a single item by id. The stored img_url is returned as issued.
//	@Tags			items
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Item id"
//	@Success		200	{object}	response.Envelope{data=Item}
//	@Failure		404	{object}	response.Envelope
//	@Router			/items/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		log.Printf("item: %v", err)
		response.BadRequest(w, "failed to get item")
		return
	}
	response.OK(w, it)
}

// List godoc
//
//	@Summary		List items
//	@Description	Returns a page of items owned by a user, newest first.
//	@Tags			items
//	@Produce		json
//	@Security		BearerAuth
//	@Param			user_id	query	string	true	"Owning profile id"
//	@Param			page	query	int		false	"Page number (default 1)"
//	@Param			limit	query	int		false	"Page size (default 20)"
//	@Success		200	{object}	response.Envelope{data=ListResponse}
//	@Failure		400	{object}	response.Envelope
//	@Router			/items [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		response.BadRequest(w, "user_id is required")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, meta, err := h.svc.ListByUser(r.Context(), userID, page, limit)
	if err != nil {
		log.Printf("item: %v", err)
		response.BadRequest(w, "failed to list items")
		return
	}
	response.OK(w, ListResponse{Data: items, Meta: meta})
}
