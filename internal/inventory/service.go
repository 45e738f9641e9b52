package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/usxc/classroom-library-backend/pkg/db/models"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
)

// MaxCopiesPerRequest caps a single AddCopies call.
const MaxCopiesPerRequest = 20

const publishedAtLayout = "2006-01-02"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes book/copy lifecycle management and catalog reads.
type Service interface {
	CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error)
	WithdrawBook(ctx context.Context, bookID uuid.UUID) error
	AddCopies(ctx context.Context, bookID uuid.UUID, count int) ([]models.Copy, error)
	RetireCopy(ctx context.Context, copyID uuid.UUID) error
	ListCatalog(ctx context.Context) ([]models.Book, error)
	ListAvailableCopies(ctx context.Context) ([]models.Copy, error)
}

// CreateBookInput captures the admin-provided book attributes. Only the
// title is required; PublishedAt is a calendar date in YYYY-MM-DD form.
type CreateBookInput struct {
	Title       string
	Author      *string
	ISBN        *string
	Publisher   *string
	PublishedAt *string
}

type service struct {
	tx   txRunner
	repo Repository
}

// NewService wires the inventory service.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

// CreateBook stores the book together with its first copy; the pair commits
// or rolls back as one unit.
func (s *service) CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	var publishedAt *time.Time
	if input.PublishedAt != nil && strings.TrimSpace(*input.PublishedAt) != "" {
		parsed, err := time.Parse(publishedAtLayout, strings.TrimSpace(*input.PublishedAt))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "publishedAt must be a YYYY-MM-DD date")
		}
		publishedAt = &parsed
	}

	book := &models.Book{
		Title:       title,
		Author:      normalizeOptional(input.Author),
		ISBN:        normalizeOptional(input.ISBN),
		Publisher:   normalizeOptional(input.Publisher),
		PublishedAt: publishedAt,
		Copies:      []models.Copy{{Code: NewCopyCode()}},
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateBook(ctx, book)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create book")
	}
	return book, nil
}

func (s *service) WithdrawBook(ctx context.Context, bookID uuid.UUID) error {
	if bookID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}

	found, err := s.repo.WithdrawBook(ctx, bookID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "withdraw book")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	return nil
}

func (s *service) AddCopies(ctx context.Context, bookID uuid.UUID, count int) ([]models.Copy, error) {
	if bookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	if count < 1 || count > MaxCopiesPerRequest {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("count must be between 1 and %d", MaxCopiesPerRequest))
	}

	created := make([]models.Copy, 0, count)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		book, err := repo.FindBookByID(ctx, bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeBookNotAvailable, "book is not available")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
		}
		if book.IsWithdrawn {
			return pkgerrors.New(pkgerrors.CodeBookNotAvailable, "book is not available")
		}

		for i := 0; i < count; i++ {
			copy := models.Copy{BookID: bookID, Code: NewCopyCode()}
			if err := repo.CreateCopy(ctx, &copy); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create copy")
			}
			created = append(created, copy)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RetireCopy marks the copy LOST. There is no reverse path: a retired copy
// never becomes borrowable again.
func (s *service) RetireCopy(ctx context.Context, copyID uuid.UUID) error {
	if copyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "copy id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rows, err := repo.RetireCopy(ctx, copyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire copy")
		}
		if rows > 0 {
			return nil
		}

		// The guarded update matched nothing: either the copy is unknown or
		// it has an open loan.
		if _, err := repo.FindCopyByID(ctx, copyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "copy not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load copy")
		}
		return pkgerrors.New(pkgerrors.CodeCopyLoaned, "copy has an open loan")
	})
}

func (s *service) ListCatalog(ctx context.Context) ([]models.Book, error) {
	books, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	return books, nil
}

func (s *service) ListAvailableCopies(ctx context.Context) ([]models.Copy, error) {
	copies, err := s.repo.ListAvailableCopies(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available copies")
	}
	return copies, nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
