package domain

import "time"

// TurnRecord is the persisted text of one rendered turn.
type TurnRecord struct {
	ID        string    `json:"id"`
	Step      int       `json:"step"`
	ToolCall  int       `json:"tool_call"`
	Prompt    string    `json:"prompt"`
	System    string    `json:"system,omitempty"`
	Actions   []string  `json:"actions,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Coordinate returns the render coordinate of the record.
func (r TurnRecord) Coordinate() Coordinate {
	return Coordinate{Step: r.Step, ToolCall: r.ToolCall}
}

// Transcript is the text-only history of a thread.
// Resolved trees hold live hook state and are never persisted.
type Transcript struct {
	Thread string       `json:"thread"`
	Turns  []TurnRecord `json:"turns"`
}

// NewTranscript creates an empty transcript for a thread.
func NewTranscript(thread string) *Transcript {
	return &Transcript{Thread: thread, Turns: []TurnRecord{}}
}

// Latest returns the most recent turn, if any.
func (t *Transcript) Latest() (TurnRecord, bool) {
	if len(t.Turns) == 0 {
		return TurnRecord{}, false
	}
	return t.Turns[len(t.Turns)-1], true
}

// Clone returns a deep copy of the transcript.
func (t *Transcript) Clone() *Transcript {
	out := &Transcript{Thread: t.Thread, Turns: make([]TurnRecord, len(t.Turns))}
	for i, turn := range t.Turns {
		turn.Actions = append([]string(nil), turn.Actions...)
		out.Turns[i] = turn
	}
	return out
}
