package domain

// SessionState is the per-user image flow state. The zero value is StateIdle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingImage
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingImage:
		return "awaiting_image"
	default:
		return "idle"
	}
}
