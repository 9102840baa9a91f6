package domain

import "fmt"

// RenderMode selects how a reference tree seeds the render cache.
type RenderMode string

const (
	// ModeNext renders a new coordinate: matched state is kept, cached reads are discarded.
	ModeNext RenderMode = "next"
	// ModeCached replays a coordinate that was already rendered: cached reads are reused.
	ModeCached RenderMode = "cached"
)

// DefaultThread is the thread name used when none is given.
const DefaultThread = "main"

// ThreadState is the read-only view of a thread handed to one resolution pass.
type ThreadState struct {
	// Thread is the name of the conversation thread being rendered.
	Thread string `json:"thread"`

	// Step is the index of the conversation turn within the thread.
	Step int `json:"step"`

	// ToolCall is the sub-step within a turn, incremented for each executed tool call.
	ToolCall int `json:"tool_call"`
}

// NewThreadState returns the state of the first turn of a thread.
func NewThreadState(thread string) ThreadState {
	if thread == "" {
		thread = DefaultThread
	}
	return ThreadState{Thread: thread}
}

// Coordinate returns the render coordinate of the state.
func (s ThreadState) Coordinate() Coordinate {
	return Coordinate{Step: s.Step, ToolCall: s.ToolCall}
}

// Next returns the state of the following step, keeping the thread and tool call.
func (s ThreadState) Next() ThreadState {
	s.Step++
	return s
}

// Coordinate identifies a specific pass for cache-scoping purposes.
type Coordinate struct {
	Step     int `json:"step"`
	ToolCall int `json:"tool_call"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%d:%d", c.Step, c.ToolCall)
}
