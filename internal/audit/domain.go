package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds recorded by the auth API.
const (
	KindUserRegistered    = "user.registered"
	KindBiometricEnrolled = "biometric.enrolled"
	KindPasswordLogin     = "login.password"
	KindBiometricLogin    = "login.biometric"
)

// Event outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeDenied = "denied"
)

// Event is one recorded register or login attempt. UserID is zero when the
// attempt never resolved to an account.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Kind       string    `json:"kind"`
	Outcome    string    `json:"outcome"`
	Email      string    `json:"email"`
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TimelineFilters narrows the timeline listing.
type TimelineFilters struct {
	Kind     string
	Email    string
	Page     int
	PageSize int
}

// PagingInfo carries pagination metadata for the timeline.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
}

// Result bundles timeline events with paging info.
type Result struct {
	Events []Event    `json:"events"`
	Paging PagingInfo `json:"paging"`
}
