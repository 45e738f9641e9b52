package enums

import "fmt"

// CopyStatus maps to the copy_status enum in Postgres. It is the single
// source of truth for whether a copy can be borrowed.
type CopyStatus string

const (
	CopyStatusAvailable CopyStatus = "AVAILABLE"
	CopyStatusLoaned    CopyStatus = "LOANED"
	CopyStatusLost      CopyStatus = "LOST"
	// CopyStatusRepair is representable but has no automated transition into
	// or out of it; it is reserved for manual intervention.
	CopyStatusRepair CopyStatus = "REPAIR"
)

var validCopyStatuses = []CopyStatus{
	CopyStatusAvailable,
	CopyStatusLoaned,
	CopyStatusLost,
	CopyStatusRepair,
}

// String implements fmt.Stringer.
func (s CopyStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CopyStatus.
func (s CopyStatus) IsValid() bool {
	for _, candidate := range validCopyStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCopyStatus converts raw input into a CopyStatus.
func ParseCopyStatus(value string) (CopyStatus, error) {
	for _, candidate := range validCopyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid copy status %q", value)
}
