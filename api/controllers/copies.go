package controllers

import (
	"net/http"

	"github.com/usxc/classroom-library-backend/api/responses"
	"github.com/usxc/classroom-library-backend/api/validators"
	"github.com/usxc/classroom-library-backend/internal/inventory"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
	"github.com/usxc/classroom-library-backend/pkg/logger"
)

type addCopiesRequest struct {
	Count int `json:"count" validate:"required,min=1,max=20"`
}

// AddCopies stocks additional copies of an existing title.
func AddCopies(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		var req addCopiesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.AddCopies(r.Context(), bookID, req.Count)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]CopyView, 0, len(created))
		for i := range created {
			views = append(views, copyView(&created[i]))
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, views)
	}
}

// RetireCopy pulls a damaged or missing copy out of circulation for good.
func RetireCopy(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		copyID, err := validators.UUIDParam(r, "copyID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RetireCopy(r.Context(), copyID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"id": copyID, "status": "LOST"})
	}
}
