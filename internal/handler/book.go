package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mootify/routinestars/internal/model"
	"github.com/mootify/routinestars/internal/points"
	"github.com/mootify/routinestars/internal/recurrence"
	"github.com/mootify/routinestars/internal/store"
	"github.com/mootify/routinestars/internal/validate"
	"github.com/mootify/routinestars/internal/websocket"
)

type BookHandler struct {
	books   *store.BookStore
	awarder *points.Awarder
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewBookHandler(bs *store.BookStore, awarder *points.Awarder, hub *websocket.Hub, logger *slog.Logger) *BookHandler {
	return &BookHandler{books: bs, awarder: awarder, hub: hub, logger: logger}
}

func (h *BookHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type bookRequest struct {
	Title       string `json:"title" validate:"required,max=256"`
	Author      string `json:"author" validate:"max=128"`
	TotalPages  int    `json:"total_pages" validate:"required,min=1"`
	BonusPoints int    `json:"bonus_points" validate:"min=0,max=1000"`
}

// ListByChild returns the child's books with cumulative reading progress.
func (h *BookHandler) ListByChild(w http.ResponseWriter, r *http.Request) {
	childID, err := parsePathInt(r, "childID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	books, err := h.books.ListByChild(childID)
	if err != nil {
		h.logger.Error("list books", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}
	if books == nil {
		books = []model.BookProgress{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	childID, err := parsePathInt(r, "childID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid child id")
		return
	}
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	book, err := h.books.Create(childID, req.Title, req.Author, req.TotalPages, req.BonusPoints)
	if err != nil {
		h.logger.Error("create book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create book")
		return
	}
	h.broadcast(websocket.NewMessage("book", "created", book.ID, nil))
	writeJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	book, err := h.books.Update(id, req.Title, req.Author, req.TotalPages, req.BonusPoints)
	if err != nil {
		h.logger.Error("update book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update book")
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	h.broadcast(websocket.NewMessage("book", "updated", book.ID, nil))
	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.books.Delete(id); err != nil {
		h.logger.Error("delete book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}
	h.broadcast(websocket.NewMessage("book", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// LogReading records pages read on a date. Same-day logs accumulate.
func (h *BookHandler) LogReading(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Date  string `json:"date"`
		Pages int    `json:"pages" validate:"required,min=1"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if fields := validate.Struct(req); fields != nil {
		writeFieldErrors(w, fields)
		return
	}

	date := recurrence.DayOf(time.Now())
	if req.Date != "" {
		date, err = time.ParseInLocation(recurrence.DateLayout, req.Date, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
	}

	book, err := h.books.GetByID(id)
	if err != nil {
		h.logger.Error("get book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	entry, err := h.books.LogReading(id, date, req.Pages)
	if err != nil {
		h.logger.Error("log reading", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log reading")
		return
	}
	h.broadcast(websocket.NewMessage("book", "logged", id, map[string]any{
		"child_id": book.ChildID,
		"pages":    req.Pages,
	}))
	writeJSON(w, http.StatusCreated, entry)
}

func (h *BookHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	logs, err := h.books.ListLogs(id)
	if err != nil {
		h.logger.Error("list reading logs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reading logs")
		return
	}
	if logs == nil {
		logs = []model.ReadingLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// Finish marks a book read. The bonus points and badge fire on the first
// call only; finishing an already-finished book is a 409.
func (h *BookHandler) Finish(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	book, err := h.books.GetByID(id)
	if err != nil {
		h.logger.Error("get book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	finished, err := h.books.Finish(id, time.Now())
	if err != nil {
		h.logger.Error("finish book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to finish book")
		return
	}
	if !finished {
		writeError(w, http.StatusConflict, "book already finished")
		return
	}

	h.broadcast(websocket.BookFinished(id, book.ChildID))
	for _, kind := range h.awarder.AfterBookFinished(book.ChildID) {
		h.broadcast(websocket.BadgeEarned(book.ChildID, string(kind)))
	}

	book, err = h.books.GetByID(id)
	if err != nil {
		h.logger.Error("get book", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	writeJSON(w, http.StatusOK, book)
}
