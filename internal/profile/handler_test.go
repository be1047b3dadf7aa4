package profile

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/stylit/service/internal/pagination"
)

func newTestRouter(store *fakeStore, blobs *fakeBlobs) chi.Router {
	h := NewHandler(newTestService(store, blobs))
	r := chi.NewRouter()
	r.Route("/profiles", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func TestHandlerCreateProfile(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeBlobs{})

	body, contentType := multipartBody(t, map[string]string{
		"id": "u1", "username": "alice", "visibility": "public",
	})
	req := httptest.NewRequest(http.MethodPost, "/profiles", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Success bool    `json:"success"`
		Data    Profile `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.PfpURL != defaultPfp {
		t.Errorf("PfpURL = %q, want default", envelope.Data.PfpURL)
	}
}

func TestHandlerCreateDuplicateIDMapsToConflict(t *testing.T) {
	router := newTestRouter(newFakeStore(seedProfile("u1", "alice")), &fakeBlobs{})

	body, contentType := multipartBody(t, map[string]string{
		"id": "u1", "username": "bob", "visibility": "public",
	})
	req := httptest.NewRequest(http.MethodPost, "/profiles", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already exists") {
		t.Errorf("body %q does not name the conflict", rec.Body.String())
	}
}

func TestHandlerCreateMissingFields(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeBlobs{})

	body, contentType := multipartBody(t, map[string]string{"username": "alice"})
	req := httptest.NewRequest(http.MethodPost, "/profiles", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerListReturnsMeta(t *testing.T) {
	router := newTestRouter(newFakeStore(seedProfile("u1", "alice"), seedProfile("u2", "bob")), &fakeBlobs{})

	req := httptest.NewRequest(http.MethodGet, "/profiles?username=ali&page=1&limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Data []Profile       `json:"data"`
			Meta pagination.Meta `json:"meta"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Data) != 1 || envelope.Data.Data[0].Username != "alice" {
		t.Errorf("data = %v, want just alice", envelope.Data.Data)
	}
	want := pagination.Meta{Page: 1, Limit: 10, Total: 1, TotalPages: 1}
	if envelope.Data.Meta != want {
		t.Errorf("meta = %+v, want %+v", envelope.Data.Meta, want)
	}
}

func TestHandlerListNoMatchesMapsToNotFound(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeBlobs{})

	req := httptest.NewRequest(http.MethodGet, "/profiles?username=zzz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerUpdateLeavesAbsentFieldsUntouched(t *testing.T) {
	store := newFakeStore(seedProfile("u1", "alice"))
	router := newTestRouter(store, &fakeBlobs{})

	body, contentType := multipartBody(t, map[string]string{"display_name": "Alice A."})
	req := httptest.NewRequest(http.MethodPatch, "/profiles/u1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	p := store.profiles["u1"]
	if p.Username != "alice" {
		t.Errorf("username changed to %q by a partial update", p.Username)
	}
	if p.DisplayName == nil || *p.DisplayName != "Alice A." {
		t.Errorf("display_name = %v, want Alice A.", p.DisplayName)
	}
}

func TestHandlerDeleteNoContent(t *testing.T) {
	router := newTestRouter(newFakeStore(seedProfile("u1", "alice")), &fakeBlobs{})

	req := httptest.NewRequest(http.MethodDelete, "/profiles/u1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestHandlerGetNotFound(t *testing.T) {
	router := newTestRouter(newFakeStore(), &fakeBlobs{})

	req := httptest.NewRequest(http.MethodGet, "/profiles/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
