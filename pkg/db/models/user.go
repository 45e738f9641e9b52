package models

import (
	"time"

	"github.com/usxc/classroom-library-backend/pkg/enums"
)

// User mirrors a principal issued by the external identity provider. The ID
// is the provider's identifier, not a locally generated one; rows are
// provisioned lazily on first authenticated contact or by identity webhooks.
type User struct {
	ID        string         `gorm:"type:text;primaryKey"`
	Role      enums.UserRole `gorm:"type:text;not null;default:'STUDENT'"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
