package audit

import (
	"context"
	"time"
)

const (
	EventPayrollRecalculated = "payroll.recalculated"
	EventPayrollFinalized    = "payroll.record_finalized"
	EventRateChanged         = "compensation.rate_changed"
	EventProfileUpdated      = "compensation.profile_updated"
)

const (
	ObjectPayrollMonth  = "payroll_month"
	ObjectPayrollRecord = "payroll_record"
	ObjectEmployee      = "employee"
)

// SystemActor is used for scheduler-initiated operations.
const SystemActor = "system"

type Event struct {
	Name       string         `json:"event_name"`
	ActorID    string         `json:"actor_id"`
	ObjectType string         `json:"object_type"`
	ObjectID   string         `json:"object_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Sink consumes audit events. Callers treat failures as non-fatal.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}
