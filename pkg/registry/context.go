package registry

import (
	"context"
	"sync"

	"github.com/aretw0/weft/pkg/domain"
)

type actionContextKey struct{}

type actionContext struct {
	mu    sync.Mutex
	state domain.ActionState
}

func fromContext(ctx context.Context) (*actionContext, error) {
	actx, ok := ctx.Value(actionContextKey{}).(*actionContext)
	if !ok {
		return nil, domain.ErrOutsideAction
	}
	return actx, nil
}

// Redirect asks the orchestrator to continue the conversation on another thread.
// It is only valid while an action executes.
func Redirect(ctx context.Context, thread string) error {
	actx, err := fromContext(ctx)
	if err != nil {
		return err
	}
	actx.mu.Lock()
	defer actx.mu.Unlock()
	actx.state = domain.ActionState{Outcome: domain.OutcomeRedirect, Thread: thread}
	return nil
}

// Terminate asks the orchestrator to stop the conversation with a final response.
// It is only valid while an action executes.
func Terminate(ctx context.Context, response any) error {
	actx, err := fromContext(ctx)
	if err != nil {
		return err
	}
	actx.mu.Lock()
	defer actx.mu.Unlock()
	actx.state = domain.ActionState{Outcome: domain.OutcomeTerminate, Response: response}
	return nil
}

// InAction reports whether ctx belongs to an executing action.
func InAction(ctx context.Context) bool {
	_, err := fromContext(ctx)
	return err == nil
}
