// Package realtime fans copy-status transitions out to connected clients.
// Delivery is at-most-once with no persistence or replay; a subscriber that
// misses an event reconciles on its next full catalog refresh.
package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/usxc/classroom-library-backend/pkg/enums"
)

// EventLoanUpdate is the broadcast event name clients subscribe to.
const EventLoanUpdate = "loan:update"

// CopyStatusEvent is the payload published after a committed status change.
type CopyStatusEvent struct {
	CopyID uuid.UUID        `json:"copyId"`
	Status enums.CopyStatus `json:"status"`
}

// Publisher broadcasts copy-status events. Implementations must treat
// publishing as fire-and-forget: a failure never influences the state
// transition that triggered it.
type Publisher interface {
	PublishCopyStatus(ctx context.Context, event CopyStatusEvent) error
}

// Nop is a Publisher that drops every event.
type Nop struct{}

func (Nop) PublishCopyStatus(context.Context, CopyStatusEvent) error {
	return nil
}
