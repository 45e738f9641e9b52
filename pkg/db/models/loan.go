package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Loan is one borrow/return ledger entry. An open loan has a null ReturnedAt;
// at most one open loan may exist per copy, and an open loan always means the
// copy's status is LOANED. Loans are closed, never deleted.
type Loan struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID     string     `gorm:"type:text;not null;index"`
	User       *User      `gorm:"foreignKey:UserID"`
	CopyID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Copy       *Copy      `gorm:"foreignKey:CopyID"`
	CheckoutAt time.Time  `gorm:"column:checkout_at;not null;autoCreateTime"`
	ReturnedAt *time.Time `gorm:"column:returned_at"`
}

func (l *Loan) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Open reports whether the loan is still outstanding.
func (l *Loan) Open() bool {
	return l != nil && l.ReturnedAt == nil
}
