package inventory

import (
	"strings"

	"github.com/google/uuid"
)

const copyCodePrefix = "CP-"

// NewCopyCode generates a human-readable copy code like CP-9F1A04C2.
// Uniqueness rides on the random identifier's entropy; the unique index on
// copies.code catches the astronomically unlikely collision.
func NewCopyCode() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return copyCodePrefix + suffix
}
