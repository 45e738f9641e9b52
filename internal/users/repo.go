package users

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/usxc/classroom-library-backend/pkg/db/models"
	"github.com/usxc/classroom-library-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the user with the default role if absent and returns the
// stored row either way. An existing row is never modified, so replayed
// identity events and concurrent first requests are both no-ops.
func (r *Repository) Upsert(ctx context.Context, id string, role enums.UserRole) (*models.User, error) {
	user := models.User{ID: id, Role: role}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return nil, err
	}

	var stored models.User
	if err := r.db.WithContext(ctx).First(&stored, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// FindByID loads a user by their external identifier.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
