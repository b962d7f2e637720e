package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bookstore/pkg/catalog"
	"bookstore/pkg/otel"
)

// addBookRequest describes a new catalog entry.
type addBookRequest struct {
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price" swaggertype:"string" example:"10.00"`
}

// addBookInfoRequest describes metadata for a book.
type addBookInfoRequest struct {
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	Year        int    `json:"year"`
	Description string `json:"description"`
}

// writeCatalogError maps catalog failures onto a response.
func (s *Server) writeCatalogError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, catalog.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, catalog.ErrInvalidBook):
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	default:
		s.log.Error(ctx, op, "error", err)
		writeError(w, http.StatusServiceUnavailable, "unavailable", "catalog unavailable")
	}
}

func bookID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "invalid book id")
		return uuid.Nil, false
	}
	return id, true
}

// listBooksHandler lists the catalog.
// @Summary List books
// @Produce json
// @Success 200 {array} catalog.Book
// @Security ApiKeyAuth
// @Router /books [get]
func (s *Server) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listBooksHandler")
	defer span.End()

	books, err := s.books.ListBooks(ctx)
	if err != nil {
		s.writeCatalogError(ctx, w, "list books", err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// addBookHandler adds a book to the catalog.
// @Summary Add book
// @Description Requires the manager role
// @Accept json
// @Produce json
// @Param book body addBookRequest true "Book"
// @Success 201 {object} catalog.Book
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /books [post]
func (s *Server) addBookHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addBookHandler")
	defer span.End()

	var req addBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}
	b := catalog.Book{ID: uuid.New(), Title: req.Title, Price: req.Price}
	if err := s.books.AddBook(ctx, b); err != nil {
		s.writeCatalogError(ctx, w, "add book", err)
		return
	}
	s.log.Info(ctx, "book added", "book_id", b.ID.String(), "title", b.Title)
	writeJSON(w, http.StatusCreated, b)
}

// getBookHandler retrieves a book by ID.
// @Summary Get book
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} catalog.Book
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /books/{id} [get]
func (s *Server) getBookHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getBookHandler")
	defer span.End()

	id, ok := bookID(w, r)
	if !ok {
		return
	}
	b, err := s.books.GetBookByID(ctx, id)
	if err != nil {
		s.writeCatalogError(ctx, w, "get book", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// getBookByTitleHandler retrieves a book by its exact title.
// @Summary Find book by title
// @Produce json
// @Param title query string true "Title"
// @Success 200 {object} catalog.Book
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /books/search [get]
func (s *Server) getBookByTitleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getBookByTitleHandler")
	defer span.End()

	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "invalid_argument", "title is required")
		return
	}
	b, err := s.books.GetBookByTitle(ctx, title)
	if err != nil {
		s.writeCatalogError(ctx, w, "get book by title", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// getBookInfoHandler returns the metadata of a book.
// @Summary Get book info
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {array} catalog.BookInfo
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /books/{id}/info [get]
func (s *Server) getBookInfoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getBookInfoHandler")
	defer span.End()

	id, ok := bookID(w, r)
	if !ok {
		return
	}
	info, err := s.books.GetBookInfo(ctx, id)
	if err != nil {
		s.writeCatalogError(ctx, w, "get book info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// addBookInfoHandler attaches metadata to a book.
// @Summary Add book info
// @Description Requires the manager role
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Param info body addBookInfoRequest true "Book info"
// @Success 201 {object} catalog.BookInfo
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /books/{id}/info [post]
func (s *Server) addBookInfoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "addBookInfoHandler")
	defer span.End()

	id, ok := bookID(w, r)
	if !ok {
		return
	}
	var req addBookInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}
	info := catalog.BookInfo{
		ID:          uuid.New(),
		BookID:      id,
		Author:      req.Author,
		Publisher:   req.Publisher,
		Year:        req.Year,
		Description: req.Description,
	}
	if err := s.books.AddBookInfo(ctx, info); err != nil {
		s.writeCatalogError(ctx, w, "add book info", err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}
