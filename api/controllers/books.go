package controllers

import (
	"net/http"

	"github.com/usxc/classroom-library-backend/api/responses"
	"github.com/usxc/classroom-library-backend/api/validators"
	"github.com/usxc/classroom-library-backend/internal/inventory"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
	"github.com/usxc/classroom-library-backend/pkg/logger"
)

type createBookRequest struct {
	Title       string  `json:"title" validate:"required"`
	Author      *string `json:"author"`
	ISBN        *string `json:"isbn"`
	Publisher   *string `json:"publisher"`
	PublishedAt *string `json:"publishedAt"`
}

// CreateBook registers a title together with its first copy.
func CreateBook(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var req createBookRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.CreateBook(r.Context(), inventory.CreateBookInput{
			Title:       req.Title,
			Author:      req.Author,
			ISBN:        req.ISBN,
			Publisher:   req.Publisher,
			PublishedAt: req.PublishedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, bookView(book))
	}
}

// WithdrawBook removes a title from circulation without touching its
// loan history.
func WithdrawBook(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		bookID, err := validators.UUIDParam(r, "bookID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.WithdrawBook(r.Context(), bookID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"id": bookID, "withdrawn": true})
	}
}
