package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/usxc/classroom-library-backend/pkg/db/models"
	"github.com/usxc/classroom-library-backend/pkg/enums"
)

// Repository exposes book/copy persistence for the inventory store.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBook(ctx context.Context, book *models.Book) error
	FindBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	WithdrawBook(ctx context.Context, id uuid.UUID) (bool, error)
	CreateCopy(ctx context.Context, copy *models.Copy) error
	FindCopyByID(ctx context.Context, id uuid.UUID) (*models.Copy, error)
	RetireCopy(ctx context.Context, id uuid.UUID) (int64, error)
	ListCatalog(ctx context.Context) ([]models.Book, error)
	ListAvailableCopies(ctx context.Context) ([]models.Copy, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBook(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *repository) FindBookByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// WithdrawBook flips is_withdrawn and reports whether the book existed.
// Copies and loans are untouched; only catalog visibility changes.
func (r *repository) WithdrawBook(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Update("is_withdrawn", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CreateCopy(ctx context.Context, copy *models.Copy) error {
	return r.db.WithContext(ctx).Create(copy).Error
}

func (r *repository) FindCopyByID(ctx context.Context, id uuid.UUID) (*models.Copy, error) {
	var copy models.Copy
	if err := r.db.WithContext(ctx).First(&copy, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &copy, nil
}

// RetireCopy marks the copy LOST unless an open loan exists. The open-loan
// guard rides inside the UPDATE so a checkout racing this call cannot slip a
// loan in between a read and the write.
func (r *repository) RetireCopy(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Copy{}).
		Where("id = ?", id).
		Where("NOT EXISTS (SELECT 1 FROM loans WHERE loans.copy_id = copies.id AND loans.returned_at IS NULL)").
		Update("status", enums.CopyStatusLost)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) ListCatalog(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	err := r.db.WithContext(ctx).
		Preload("Copies").
		Where("is_withdrawn = ?", false).
		Order("title asc").
		Find(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repository) ListAvailableCopies(ctx context.Context) ([]models.Copy, error) {
	var copies []models.Copy
	err := r.db.WithContext(ctx).
		Preload("Book").
		Joins("JOIN books ON books.id = copies.book_id").
		Where("copies.status = ?", enums.CopyStatusAvailable).
		Where("books.is_withdrawn = ?", false).
		Order("copies.code asc").
		Find(&copies).Error
	if err != nil {
		return nil, err
	}
	return copies, nil
}
