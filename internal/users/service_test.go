package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/usxc/classroom-library-backend/pkg/db/models"
	"github.com/usxc/classroom-library-backend/pkg/enums"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestEnsureUserProvisionsWithDefaultRole(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	user, err := svc.EnsureUser(context.Background(), "user_2abc")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if user.ID != "user_2abc" {
		t.Fatalf("unexpected id %q", user.ID)
	}
	if user.Role != enums.UserRoleStudent {
		t.Fatalf("expected default STUDENT role, got %s", user.Role)
	}
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.EnsureUser(context.Background(), "user_2abc"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}

	// Promote out of band; a replayed event must not demote.
	if err := db.Model(&models.User{}).Where("id = ?", "user_2abc").
		Update("role", enums.UserRoleAdmin).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}

	user, err := svc.EnsureUser(context.Background(), "user_2abc")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if user.Role != enums.UserRoleAdmin {
		t.Fatalf("replay must not touch existing row, got role %s", user.Role)
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one user row, got %d", count)
	}
}

func TestEnsureUserRejectsEmptyID(t *testing.T) {
	svc, err := NewService(NewRepository(newTestDB(t)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.EnsureUser(context.Background(), "  ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
