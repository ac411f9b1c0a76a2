package combat

// EventKind classifies event-log entries for the presentation layer.
type EventKind int

const (
	EventBattleStart EventKind = iota
	EventRoundStart
	EventTurnStart
	EventTurnSkipped
	EventActionResolved
	EventActionRejected
	EventAIFallback
	EventStatusTick
	EventFallen
	EventBattleEnd
)

// String returns the snake_case event name.
func (k EventKind) String() string {
	switch k {
	case EventBattleStart:
		return "battle_start"
	case EventRoundStart:
		return "round_start"
	case EventTurnStart:
		return "turn_start"
	case EventTurnSkipped:
		return "turn_skipped"
	case EventActionResolved:
		return "action_resolved"
	case EventActionRejected:
		return "action_rejected"
	case EventAIFallback:
		return "ai_fallback"
	case EventStatusTick:
		return "status_tick"
	case EventFallen:
		return "fallen"
	case EventBattleEnd:
		return "battle_end"
	default:
		return "unknown"
	}
}

// Event is one entry in the encounter log: one per resolved Outcome, per
// status tick and per lifecycle transition.
type Event struct {
	Seq     int
	Round   int
	Kind    EventKind
	ActorID string
	Action  ActionKind
	Outcome *Outcome
	Tick    *StatusTick
	Phase   Phase
	Message string
}

// EventLog is the ordered record of everything that happened in an encounter.
type EventLog struct {
	events      []Event
	subscribers []func(Event)
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Subscribe registers fn to receive every event appended from now on.
func (l *EventLog) Subscribe(fn func(Event)) {
	l.subscribers = append(l.subscribers, fn)
}

// Append assigns e the next sequence number, records it and notifies subscribers.
//
// Postcondition: the returned event's Seq == Len() before the call.
func (l *EventLog) Append(e Event) Event {
	e.Seq = len(l.events)
	l.events = append(l.events, e)
	for _, fn := range l.subscribers {
		fn(e)
	}
	return e
}

// Len returns the number of recorded events.
func (l *EventLog) Len() int {
	return len(l.events)
}

// Events returns a copy of every recorded event.
func (l *EventLog) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Since returns a copy of the events with Seq >= seq, for pollers.
func (l *EventLog) Since(seq int) []Event {
	if seq < 0 {
		seq = 0
	}
	if seq >= len(l.events) {
		return nil
	}
	out := make([]Event, len(l.events)-seq)
	copy(out, l.events[seq:])
	return out
}
