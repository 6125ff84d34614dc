package contracts

// Plan is a billing tier. Issuance and payment live in the external billing
// layer; this core only reads the tier to size quotas and stream access.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// MaxConnections is the per-user cap on concurrent stream connections.
func (p Plan) MaxConnections() int {
	switch p {
	case PlanEnterprise:
		return 20
	case PlanPro:
		return 5
	default:
		return 2
	}
}

// RequestsPerMinute is the API quota enforced by the rate-limit middleware.
func (p Plan) RequestsPerMinute() int {
	switch p {
	case PlanEnterprise:
		return 600
	case PlanPro:
		return 120
	default:
		return 30
	}
}

// StreamMinScore is the lowest impact score pushed to this tier's stream
// subscriptions. Paid tiers receive everything.
func (p Plan) StreamMinScore() int {
	if p == PlanFree || p == "" {
		return 50
	}
	return 0
}

// Caller is the authenticated identity attached to a request. The admin flag
// comes from authoritative user state, never from a claim inside the
// credential itself.
type Caller struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	Plan    Plan   `json:"plan"`
}

// SystemCaller is the actor recorded for scheduler-initiated work.
func SystemCaller() Caller {
	return Caller{UserID: 0, Email: "system", IsAdmin: true, Plan: PlanEnterprise}
}

// Actor returns the identity string written to the audit log.
func (c Caller) Actor() string {
	if c.Email != "" {
		return c.Email
	}
	return "anonymous"
}
