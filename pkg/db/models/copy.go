package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/usxc/classroom-library-backend/pkg/enums"
)

// Copy is one physical, trackable instance of a Book. A copy belongs to
// exactly one book for its lifetime.
type Copy struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey"`
	BookID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	Book      *Book            `gorm:"foreignKey:BookID"`
	Code      string           `gorm:"type:text;not null;uniqueIndex"`
	Status    enums.CopyStatus `gorm:"type:text;not null;default:'AVAILABLE'"`
	Loans     []Loan           `gorm:"foreignKey:CopyID"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Copy) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = enums.CopyStatusAvailable
	}
	return nil
}
