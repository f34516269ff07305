package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/getlost/portal/internal/apperr"
	"github.com/getlost/portal/internal/contentservice"
	"github.com/getlost/portal/internal/models"
)

const maxUploadBytes = 100 << 20 // 100 MB

// Handler holds API route handlers.
type Handler struct {
	svc *contentservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *contentservice.Service) *Handler {
	return &Handler{svc: svc}
}

// kindParam reads and validates the optional ?kind= query parameter.
// Empty means "all kinds".
func kindParam(r *http.Request) (models.Kind, bool) {
	k := models.Kind(r.URL.Query().Get("kind"))
	if k == "" || k.Valid() {
		return k, true
	}
	return "", false
}

// UploadReport handles POST /api/reports/upload.
//
//	@Summary		Upload a manuscript report (HTML, zip bundle or PDF)
//	@Tags			reports
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			book_id	formData	string	true	"Book the report belongs to"
//	@Param			file	formData	file	true	"Report file"
//	@Success		201		{object}	UploadDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reports/upload [post]
func (h *Handler) UploadReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid multipart")
		return
	}

	bookID := r.FormValue("book_id")
	if bookID == "" {
		writeError(w, http.StatusBadRequest, "book_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' field in multipart form")
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	detail, err := h.svc.UploadReport(r.Context(), bookID, header.Filename, payload)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "no html document found in upload")
			return
		}
		slog.Error("upload report failed",
			slog.String("book_id", bookID),
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// GetRecord handles GET /api/content/{id}.
//
//	@Summary		Get a single content record by id
//	@Tags			content
//	@Produce		json
//	@Param			id	path		string	true	"Record id"
//	@Success		200	{object}	models.Record
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/content/{id} [get]
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
		} else {
			slog.Error("get record failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListBookContent handles GET /api/books/{bookID}/content.
//
//	@Summary		List content records linked to a book
//	@Tags			content
//	@Produce		json
//	@Param			bookID	path		string	true	"Book id"
//	@Param			kind	query		string	false	"Filter by kind"	Enums(report, marketing_asset, book_cover, landing_page)
//	@Success		200		{object}	RecordListResponse
//	@Security		BearerAuth
//	@Router			/books/{bookID}/content [get]
func (h *Handler) ListBookContent(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown kind")
		return
	}
	records, err := h.svc.ListByBook(r.Context(), bookID, kind)
	if err != nil {
		slog.Error("list book content failed", slog.String("book_id", bookID), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: records, Total: len(records)})
}

// ListSeeded handles GET /api/seeded.
//
//	@Summary		List seeded (pre-made) content records
//	@Tags			seeded
//	@Produce		json
//	@Param			kind	query		string	false	"Filter by kind"	Enums(report, marketing_asset, book_cover, landing_page)
//	@Success		200		{object}	RecordListResponse
//	@Security		BearerAuth
//	@Router			/seeded [get]
func (h *Handler) ListSeeded(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown kind")
		return
	}
	records, err := h.svc.ListSeeded(r.Context(), kind)
	if err != nil {
		slog.Error("list seeded failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Records: records, Total: len(records)})
}

// LinkSeeded handles POST /api/seeded/{id}/link.
//
//	@Summary		Link a seeded record to a book (copy-on-link)
//	@Tags			seeded
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Seeded record id"
//	@Param			body	body		LinkRequest	true	"Target book"
//	@Success		201		{object}	models.Record
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/seeded/{id}/link [post]
func (h *Handler) LinkSeeded(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.BookID == "" {
		writeError(w, http.StatusBadRequest, "book_id is required")
		return
	}

	rec, err := h.svc.LinkSeeded(r.Context(), id, req.BookID)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Match handles GET /api/seeded/match.
//
//	@Summary		Check whether an upload filename matches seeded content
//	@Tags			seeded
//	@Produce		json
//	@Param			filename	query		string	true	"Upload filename"
//	@Param			kind		query		string	false	"Content kind"	Enums(report, marketing_asset, book_cover, landing_page)
//	@Success		200			{object}	MatchResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/seeded/match [get]
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'filename' is required")
		return
	}
	kind, ok := kindParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown kind")
		return
	}
	m, err := h.svc.FindSeededMatch(r.Context(), filename, kind)
	if err != nil {
		slog.Error("seeded match failed", slog.String("filename", filename), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if m == nil {
		writeJSON(w, http.StatusOK, MatchResponse{Matched: false})
		return
	}
	writeJSON(w, http.StatusOK, MatchResponse{
		Matched:          true,
		Record:           &m.Record,
		MatchedCandidate: m.MatchedCandidate,
	})
}
