package users

import (
	"context"
	"strings"

	"github.com/usxc/classroom-library-backend/pkg/db/models"
	"github.com/usxc/classroom-library-backend/pkg/enums"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
)

// Service resolves external principals to local user records.
type Service interface {
	// EnsureUser provisions the user with the STUDENT role on first sight
	// and is a no-op for known users. It backs both the auth boundary (a
	// safety net for missed identity events) and the identity webhook.
	EnsureUser(ctx context.Context, externalID string) (*models.User, error)
}

type repository interface {
	Upsert(ctx context.Context, id string, role enums.UserRole) (*models.User, error)
}

type service struct {
	repo repository
}

// NewService wires the identity resolver.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) EnsureUser(ctx context.Context, externalID string) (*models.User, error) {
	id := strings.TrimSpace(externalID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	user, err := s.repo.Upsert(ctx, id, enums.UserRoleStudent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision user")
	}
	return user, nil
}
