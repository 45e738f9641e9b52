package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/usxc/classroom-library-backend/api/middleware"
	"github.com/usxc/classroom-library-backend/api/responses"
	"github.com/usxc/classroom-library-backend/api/validators"
	"github.com/usxc/classroom-library-backend/internal/loans"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
	"github.com/usxc/classroom-library-backend/pkg/logger"
)

type checkoutRequest struct {
	CopyID uuid.UUID `json:"copyId" validate:"required"`
}

// Checkout borrows a copy for the authenticated student.
func Checkout(svc loans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loan service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.Checkout(r.Context(), req.CopyID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, loanView(loan))
	}
}

// Return closes one of the authenticated student's open loans.
func Return(svc loans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loan service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		loanID, err := validators.UUIDParam(r, "loanID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loan, err := svc.Return(r.Context(), loanID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loanView(loan))
	}
}

// MyLoans lists the authenticated student's open loans, newest first.
func MyLoans(svc loans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loan service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		open, err := svc.ListMyLoans(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]LoanView, 0, len(open))
		for i := range open {
			views = append(views, loanView(&open[i]))
		}
		responses.WriteSuccess(w, views)
	}
}
