package loans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/usxc/classroom-library-backend/pkg/db/models"
	"github.com/usxc/classroom-library-backend/pkg/enums"
)

// Repository exposes the loan ledger plus the conditional copy-status
// writes the engine is built on. The MarkCopy* and CloseLoan methods
// report affected rows so the caller can tell a lost race from success.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	MarkCopyLoaned(ctx context.Context, copyID uuid.UUID) (int64, error)
	MarkCopyAvailable(ctx context.Context, copyID uuid.UUID) (int64, error)
	FindCopyByID(ctx context.Context, copyID uuid.UUID) (*models.Copy, error)
	CreateLoan(ctx context.Context, loan *models.Loan) error
	FindLoanByID(ctx context.Context, loanID uuid.UUID) (*models.Loan, error)
	CloseLoan(ctx context.Context, loanID uuid.UUID, userID string, returnedAt time.Time) (int64, error)
	ListOpenLoansByUser(ctx context.Context, userID string) ([]models.Loan, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a loan repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// MarkCopyLoaned flips an AVAILABLE copy to LOANED. Zero affected rows
// means the copy is missing or not currently borrowable.
func (r *repository) MarkCopyLoaned(ctx context.Context, copyID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Copy{}).
		Where("id = ?", copyID).
		Where("status = ?", enums.CopyStatusAvailable).
		Update("status", enums.CopyStatusLoaned)
	return result.RowsAffected, result.Error
}

func (r *repository) MarkCopyAvailable(ctx context.Context, copyID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Copy{}).
		Where("id = ?", copyID).
		Where("status = ?", enums.CopyStatusLoaned).
		Update("status", enums.CopyStatusAvailable)
	return result.RowsAffected, result.Error
}

func (r *repository) FindCopyByID(ctx context.Context, copyID uuid.UUID) (*models.Copy, error) {
	var copy models.Copy
	err := r.db.WithContext(ctx).
		Where("id = ?", copyID).
		First(&copy).Error
	if err != nil {
		return nil, err
	}
	return &copy, nil
}

func (r *repository) CreateLoan(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *repository) FindLoanByID(ctx context.Context, loanID uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("id = ?", loanID).
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// CloseLoan stamps ReturnedAt on an open loan owned by userID. Zero
// affected rows covers every rejection at once: unknown loan, someone
// else's loan, or a loan already closed.
func (r *repository) CloseLoan(ctx context.Context, loanID uuid.UUID, userID string, returnedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ?", loanID).
		Where("user_id = ?", userID).
		Where("returned_at IS NULL").
		Update("returned_at", returnedAt)
	return result.RowsAffected, result.Error
}

func (r *repository) ListOpenLoansByUser(ctx context.Context, userID string) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Preload("Copy").
		Preload("Copy.Book").
		Where("user_id = ?", userID).
		Where("returned_at IS NULL").
		Order("checkout_at desc").
		Find(&loans).Error
	if err != nil {
		return nil, err
	}
	return loans, nil
}
