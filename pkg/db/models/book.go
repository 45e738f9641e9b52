package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book is a catalog title. Withdrawn books disappear from listings but are
// never deleted; their copies and loan history stay intact.
type Book struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title       string     `gorm:"type:text;not null"`
	Author      *string    `gorm:"type:text"`
	ISBN        *string    `gorm:"type:text"`
	Publisher   *string    `gorm:"type:text"`
	PublishedAt *time.Time `gorm:"type:date"`
	IsWithdrawn bool       `gorm:"column:is_withdrawn;not null;default:false"`
	Copies      []Copy     `gorm:"foreignKey:BookID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Book) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
