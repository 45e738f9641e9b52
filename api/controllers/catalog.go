package controllers

import (
	"net/http"

	"github.com/usxc/classroom-library-backend/api/responses"
	"github.com/usxc/classroom-library-backend/internal/inventory"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
	"github.com/usxc/classroom-library-backend/pkg/logger"
)

// ListCatalog returns every circulating title with its copies.
func ListCatalog(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		books, err := svc.ListCatalog(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]BookView, 0, len(books))
		for i := range books {
			views = append(views, bookView(&books[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

// ListAvailableCopies returns the copies a student can borrow right now.
func ListAvailableCopies(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		copies, err := svc.ListAvailableCopies(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]CopyView, 0, len(copies))
		for i := range copies {
			views = append(views, copyView(&copies[i]))
		}
		responses.WriteSuccess(w, views)
	}
}
