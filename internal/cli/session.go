package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/presentation/tui"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
)

// Session commands. Any other line is the input of the next step.
const (
	cmdQuit     = "/quit"
	cmdExit     = "/exit"
	cmdActions  = "/actions"
	cmdCall     = "/call"
	cmdThread   = "/thread"
	cmdRerender = "/rerender"
	cmdHelp     = "/help"
)

const sessionHelp = `/call <action> [json args]  run an action and continue the step
/actions                    list the actions of the latest turn
/thread <name>              switch to another thread
/rerender [start]           re-derive steps from start (default -1)
/quit                       leave`

// session drives one engine from lines of input.
type session struct {
	engine  *weft.Engine
	printer *tui.Printer
	thread  string
	json    bool
}

// RunSession renders the entry for opts.Thread and then reads commands from in
// until EOF, /quit or a terminate outcome.
func RunSession(ctx context.Context, engine *weft.Engine, opts Options, in io.Reader, p *tui.Printer) error {
	s := &session{engine: engine, printer: p, thread: opts.Thread, json: opts.JSON}
	if s.thread == "" {
		s.thread = domain.DefaultThread
	}

	if opts.Watch {
		changes, err := engine.Watch(ctx)
		if err != nil {
			p.Info("watch disabled: %v", err)
		} else {
			go func() {
				for name := range changes {
					p.Info("%s changed, next render uses the new version", name)
				}
			}()
		}
	}

	if err := s.render(ctx, ports.RenderRequest{Thread: s.thread}); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		done, err := s.handle(ctx, strings.TrimSpace(scanner.Text()))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.Error(err)
			continue
		}
		if done {
			return nil
		}
	}
	return handleExecutionError(scanner.Err())
}

// handle runs one line. It reports whether the session is over.
func (s *session) handle(ctx context.Context, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case cmdQuit, cmdExit:
		return true, nil
	case cmdHelp:
		s.printer.Info("%s", sessionHelp)
		return false, nil
	case cmdActions:
		return false, s.actions(ctx)
	case cmdThread:
		if rest == "" {
			return false, fmt.Errorf("usage: %s <name>", cmdThread)
		}
		s.thread = rest
		return false, s.render(ctx, ports.RenderRequest{Thread: s.thread})
	case cmdRerender:
		start := -1
		if rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil {
				return false, fmt.Errorf("invalid start %q", rest)
			}
			start = n
		}
		return false, s.render(ctx, ports.RenderRequest{Thread: s.thread, Mutable: true, Start: start})
	case cmdCall:
		return s.call(ctx, rest)
	}

	var input any
	if line != "" {
		input = line
	}
	return false, s.render(ctx, ports.RenderRequest{Thread: s.thread, Input: input})
}

func (s *session) render(ctx context.Context, req ports.RenderRequest) error {
	turn, err := s.engine.Render(ctx, req)
	if err != nil {
		return err
	}
	return s.show(turn)
}

func (s *session) show(turn ports.RenderedTurn) error {
	if s.json {
		return s.printer.JSON(turn)
	}
	return s.printer.Turn(turn)
}

func (s *session) actions(ctx context.Context) error {
	turn, err := s.engine.Latest(ctx, s.thread)
	if err != nil {
		return err
	}
	if s.json {
		return s.printer.JSON(turn.Descriptors)
	}
	if len(turn.Descriptors) == 0 {
		s.printer.Info("no actions")
	}
	for _, d := range turn.Descriptors {
		s.printer.Info("%s: %s", d.Name, d.Description)
	}
	return nil
}

// call executes an action and applies its outcome.
func (s *session) call(ctx context.Context, rest string) (bool, error) {
	name, raw, _ := strings.Cut(rest, " ")
	if name == "" {
		return false, fmt.Errorf("usage: %s <action> [json args]", cmdCall)
	}
	args := map[string]any{}
	if raw = strings.TrimSpace(raw); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return false, fmt.Errorf("invalid arguments: %w", err)
		}
	}

	res, err := s.engine.Execute(ctx, s.thread, name, args)
	if err != nil {
		return false, err
	}
	if s.json {
		if err := s.printer.JSON(res); err != nil {
			return false, err
		}
	} else if res.Value != nil {
		s.printer.Info("%s -> %v", name, res.Value)
	}

	switch res.State.Outcome {
	case domain.OutcomeTerminate:
		if !s.json {
			s.printer.Info("terminated: %v", res.State.Response)
		}
		return true, nil
	case domain.OutcomeRedirect:
		s.thread = res.State.Thread
		if !s.json {
			s.printer.Info("moved to thread %s", s.thread)
		}
		return false, s.render(ctx, ports.RenderRequest{Thread: s.thread})
	}

	turn, err := s.engine.Continue(ctx, s.thread, nil)
	if err != nil {
		return false, err
	}
	return false, s.show(turn)
}
