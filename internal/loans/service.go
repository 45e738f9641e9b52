package loans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/usxc/classroom-library-backend/internal/users"
	"github.com/usxc/classroom-library-backend/pkg/db/models"
	"github.com/usxc/classroom-library-backend/pkg/enums"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
	"github.com/usxc/classroom-library-backend/pkg/logger"
	"github.com/usxc/classroom-library-backend/pkg/metrics"
	"github.com/usxc/classroom-library-backend/pkg/realtime"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the borrow/return engine. Both transitions are a single
// database transaction whose first statement is a conditional update,
// so when several students race for the same copy exactly one wins and
// the rest see a clean rejection.
type Service interface {
	Checkout(ctx context.Context, copyID uuid.UUID, userID string) (*models.Loan, error)
	Return(ctx context.Context, loanID uuid.UUID, userID string) (*models.Loan, error)
	ListMyLoans(ctx context.Context, userID string) ([]models.Loan, error)
}

type service struct {
	tx        txRunner
	repo      Repository
	users     users.Service
	publisher realtime.Publisher
	metrics   *metrics.LoanMetrics
	logg      *logger.Logger
}

// NewService wires the loan engine. The publisher may be realtime.Nop
// when broadcasting is disabled; metrics may be nil.
func NewService(
	tx txRunner,
	repo Repository,
	usersSvc users.Service,
	publisher realtime.Publisher,
	loanMetrics *metrics.LoanMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("loan repository required")
	}
	if usersSvc == nil {
		return nil, fmt.Errorf("users service required")
	}
	if publisher == nil {
		publisher = realtime.Nop{}
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		users:     usersSvc,
		publisher: publisher,
		metrics:   loanMetrics,
		logg:      logg,
	}, nil
}

// Checkout borrows the copy for the user. The copy flip is the first
// statement in the transaction, so concurrent checkouts of the same
// copy serialize on its row and losers fail the status guard.
func (s *service) Checkout(ctx context.Context, copyID uuid.UUID, userID string) (*models.Loan, error) {
	if copyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "copy id required")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}

	if _, err := s.users.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	var loan *models.Loan
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.MarkCopyLoaned(ctx, copyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark copy loaned")
		}
		if rows == 0 {
			if _, err := repo.FindCopyByID(ctx, copyID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "copy not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load copy")
			}
			return pkgerrors.New(pkgerrors.CodeNotAvailable, "copy is not available")
		}

		loan = &models.Loan{UserID: userID, CopyID: copyID}
		if err := repo.CreateLoan(ctx, loan); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create loan")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncTransition("checkout", "rejected")
		return nil, err
	}

	s.metrics.IncTransition("checkout", "ok")
	s.broadcast(ctx, copyID, enums.CopyStatusLoaned)
	return loan, nil
}

// Return closes the loan and frees its copy. Every rejection maps to
// the same error on purpose: callers cannot probe whether a loan id
// exists or whose it is.
func (s *service) Return(ctx context.Context, loanID uuid.UUID, userID string) (*models.Loan, error) {
	if loanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidLoan, "loan is not returnable")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}

	var loan *models.Loan
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		returnedAt := time.Now().UTC()
		rows, err := repo.CloseLoan(ctx, loanID, userID, returnedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close loan")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidLoan, "loan is not returnable")
		}

		loan, err = repo.FindLoanByID(ctx, loanID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load loan")
		}

		if _, err := repo.MarkCopyAvailable(ctx, loan.CopyID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark copy available")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncTransition("return", "rejected")
		return nil, err
	}

	s.metrics.IncTransition("return", "ok")
	s.broadcast(ctx, loan.CopyID, enums.CopyStatusAvailable)
	return loan, nil
}

func (s *service) ListMyLoans(ctx context.Context, userID string) ([]models.Loan, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity required")
	}
	loans, err := s.repo.ListOpenLoansByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open loans")
	}
	return loans, nil
}

// broadcast runs after commit. A publish failure is logged and counted
// but never surfaced: the transition already happened.
func (s *service) broadcast(ctx context.Context, copyID uuid.UUID, status enums.CopyStatus) {
	event := realtime.CopyStatusEvent{CopyID: copyID, Status: status}
	if err := s.publisher.PublishCopyStatus(ctx, event); err != nil {
		s.metrics.IncPublishFailure()
		s.logg.Warn(ctx, fmt.Sprintf("copy status broadcast failed for %s: %v", copyID, err))
	}
}
