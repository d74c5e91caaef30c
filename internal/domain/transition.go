package domain

// SessionEvent is a command applied to a workout session.
type SessionEvent string

const (
	EventStart    SessionEvent = "start"
	EventCancel   SessionEvent = "cancel"
	EventComplete SessionEvent = "complete"
)

// Transition is one allowed edge of the session state machine.
type Transition struct {
	Event SessionEvent
	From  SessionStatus
	To    SessionStatus
	// Ends marks transitions that set EndedAt and trigger score completion.
	Ends bool
}

var sessionTransitions = []Transition{
	{Event: EventStart, From: SessionPending, To: SessionActive},

	{Event: EventCancel, From: SessionPending, To: SessionCancelled, Ends: true},
	{Event: EventCancel, From: SessionActive, To: SessionCancelled, Ends: true},

	{Event: EventComplete, From: SessionActive, To: SessionCompleted, Ends: true},
}

// TransitionFor returns the allowed transition for a status and event.
func TransitionFor(from SessionStatus, ev SessionEvent) (Transition, bool) {
	for _, tr := range sessionTransitions {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// AllowedFrom lists the statuses an event may be applied to, in table order.
func AllowedFrom(ev SessionEvent) []SessionStatus {
	var out []SessionStatus
	for _, tr := range sessionTransitions {
		if tr.Event == ev {
			out = append(out, tr.From)
		}
	}
	return out
}
