package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PresenceStatus string

const (
	StatusPresent   PresenceStatus = "present"
	StatusRemote    PresenceStatus = "remote"
	StatusAbsent    PresenceStatus = "absent"
	StatusSickLeave PresenceStatus = "sick_leave"
	StatusVacation  PresenceStatus = "vacation"
	StatusDayOff    PresenceStatus = "day_off"
)

func ParsePresenceStatus(s string) (PresenceStatus, error) {
	switch status := PresenceStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case StatusPresent, StatusRemote, StatusAbsent, StatusSickLeave, StatusVacation, StatusDayOff:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown presence status %q", ErrCorruptFact, s)
	}
}

// CountsAsWorked reports whether hours under this status are paid.
func (s PresenceStatus) CountsAsWorked() bool {
	return s == StatusPresent || s == StatusRemote
}

// Fact is one day of attendance for one employee, owned by the ledger.
type Fact struct {
	EmployeeID     string
	Date           time.Time
	WorkedHours    decimal.Decimal
	PresenceStatus PresenceStatus
}
