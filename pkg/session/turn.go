package session

import (
	"time"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/prompt"
	"github.com/aretw0/weft/pkg/serializer"
)

// Turn is one rendered coordinate of a thread.
type Turn struct {
	ID        string
	State     domain.ThreadState
	Output    *prompt.Output
	Text      serializer.Output
	CreatedAt time.Time
}

// Record returns the persisted form of the turn.
func (t *Turn) Record() domain.TurnRecord {
	return domain.TurnRecord{
		ID:        t.ID,
		Step:      t.State.Step,
		ToolCall:  t.State.ToolCall,
		Prompt:    t.Text.Prompt,
		System:    t.Text.System,
		Actions:   append([]string(nil), t.Text.Actions...),
		CreatedAt: t.CreatedAt,
	}
}

// Actions returns the actions the turn exposes, sorted by name.
func (t *Turn) Actions() []domain.ActionDescriptor {
	return t.Output.Actions.Descriptors()
}

// thread is the in-memory history of one thread, ordered by coordinate.
type thread struct {
	name  string
	turns []*Turn
}

func (th *thread) latest() *Turn {
	if len(th.turns) == 0 {
		return nil
	}
	return th.turns[len(th.turns)-1]
}

// next returns the step following the latest one.
func (th *thread) next() int {
	if t := th.latest(); t != nil {
		return t.State.Step + 1
	}
	return 0
}

// at returns the first sub-step rendered for step.
func (th *thread) at(step int) *Turn {
	for _, t := range th.turns {
		if t.State.Step == step && t.State.ToolCall == 0 {
			return t
		}
	}
	return nil
}

// before returns the turns of the steps preceding step.
func (th *thread) before(step int) []*Turn {
	var out []*Turn
	for _, t := range th.turns {
		if t.State.Step < step {
			out = append(out, t)
		}
	}
	return out
}

func (th *thread) transcript() *domain.Transcript {
	tr := domain.NewTranscript(th.name)
	for _, t := range th.turns {
		tr.Turns = append(tr.Turns, t.Record())
	}
	return tr
}
