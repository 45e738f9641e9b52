package identitywebhook

import (
	"context"
	"strings"

	"github.com/usxc/classroom-library-backend/pkg/db/models"
	pkgerrors "github.com/usxc/classroom-library-backend/pkg/errors"
)

type userResolver interface {
	EnsureUser(ctx context.Context, externalID string) (*models.User, error)
}

type Service struct {
	users userResolver
}

func NewService(users userResolver) (*Service, error) {
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users service required")
	}
	return &Service{users: users}, nil
}

// Event is the identity-provider webhook envelope. Only the subject id
// is extracted; everything else about the user lives upstream.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	ID string `json:"id"`
}

const (
	eventUserCreated = "user.created"
	eventUserUpdated = "user.updated"
)

// HandleEvent provisions the local user record for creation events.
// Event types the service does not care about are acknowledged without
// side effects so the provider stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "identity event required")
	}

	switch event.Type {
	case eventUserCreated, eventUserUpdated:
		id := strings.TrimSpace(event.Data.ID)
		if id == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "identity event missing user id")
		}
		if _, err := s.users.EnsureUser(ctx, id); err != nil {
			return err
		}
		return nil
	default:
		return nil
	}
}
