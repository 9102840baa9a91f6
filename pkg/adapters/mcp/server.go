package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
)

// ActionToolPrefix prefixes the tools generated from the actions of the latest turn.
const ActionToolPrefix = "action_"

// RenderArgs are the arguments of the render_thread tool.
type RenderArgs struct {
	Thread  string `json:"thread,omitempty"`
	Mutable bool   `json:"mutable,omitempty"`
	Start   int    `json:"start,omitempty"`
	Input   any    `json:"input,omitempty"`
}

// ContinueArgs are the arguments of the continue_thread tool.
type ContinueArgs struct {
	Thread string `json:"thread,omitempty"`
	Input  any    `json:"input,omitempty"`
}

// ThreadArgs are the arguments of the list_actions tool.
type ThreadArgs struct {
	Thread string `json:"thread,omitempty"`
}

// CallArgs are the arguments of the call_action tool.
type CallArgs struct {
	Thread    string         `json:"thread,omitempty"`
	Action    string         `json:"action"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Action describes an action of the latest turn.
type Action struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"input_schema"`
}

// ActionList is the structured result of list_actions.
type ActionList struct {
	Thread  string   `json:"thread"`
	Actions []Action `json:"actions"`
}

// Server exposes a ports.Engine as an MCP server.
type Server struct {
	engine    ports.Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger

	// actionThread is the thread whose actions are mirrored as tools.
	actionThread string
	mu           sync.Mutex
	exposed      []string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithActionTools mirrors the actions of thread's latest turn as individual tools.
func WithActionTools(thread string) Option {
	return func(s *Server) {
		s.actionThread = thread
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("weft-mcp", strings.TrimSpace(weft.Version),
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()
	s.registerPrompts()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func threadOrDefault(thread string) string {
	if thread == "" {
		return domain.DefaultThread
	}
	return thread
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("render_thread",
		mcp.WithDescription("Render the next step of a thread and return the prompt text."),
		mcp.WithString("thread", mcp.Description("Thread name (default \"main\")")),
		mcp.WithBoolean("mutable", mcp.Description("Re-derive earlier steps starting at start")),
		mcp.WithNumber("start", mcp.Description("First re-derived step; negative values count back from the next step")),
		mcp.WithString("input", mcp.Description("Input available to the components of this render")),
	), mcp.NewStructuredToolHandler(s.handleRender))

	s.mcpServer.AddTool(mcp.NewTool("continue_thread",
		mcp.WithDescription("Render the next tool-call sub-step of the latest step, after actions ran."),
		mcp.WithString("thread", mcp.Description("Thread name (default \"main\")")),
		mcp.WithString("input", mcp.Description("Input available to the components of this render")),
	), mcp.NewStructuredToolHandler(s.handleContinue))

	s.mcpServer.AddTool(mcp.NewTool("list_actions",
		mcp.WithDescription("List the actions exposed by the latest turn of a thread."),
		mcp.WithString("thread", mcp.Description("Thread name (default \"main\")")),
	), mcp.NewStructuredToolHandler(s.handleListActions))

	s.mcpServer.AddTool(mcp.NewTool("call_action",
		mcp.WithDescription("Execute an action of the latest turn of a thread."),
		mcp.WithString("thread", mcp.Description("Thread name (default \"main\")")),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name")),
		mcp.WithObject("arguments", mcp.Description("Action arguments, validated against its schema")),
	), mcp.NewStructuredToolHandler(s.handleCallAction))
}

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt("render",
		mcp.WithPromptDescription("Render the next step of a thread as a prompt."),
		mcp.WithArgument("thread", mcp.ArgumentDescription("Thread name (default \"main\")")),
		mcp.WithArgument("input", mcp.ArgumentDescription("Input available to the components")),
		mcp.WithArgument("start", mcp.ArgumentDescription("Re-derive from this step (mutable render)")),
	), s.handleRenderPrompt)
}

func (s *Server) handleRender(ctx context.Context, _ mcp.CallToolRequest, args RenderArgs) (ports.RenderedTurn, error) {
	req := ports.RenderRequest{
		Thread:  threadOrDefault(args.Thread),
		Mutable: args.Mutable,
		Start:   args.Start,
		Input:   args.Input,
	}
	turn, err := s.engine.Render(ctx, req)
	if err != nil {
		return ports.RenderedTurn{}, fmt.Errorf("render failed: %w", err)
	}
	s.syncActionTools(turn)
	return turn, nil
}

func (s *Server) handleContinue(ctx context.Context, _ mcp.CallToolRequest, args ContinueArgs) (ports.RenderedTurn, error) {
	turn, err := s.engine.Continue(ctx, threadOrDefault(args.Thread), args.Input)
	if err != nil {
		return ports.RenderedTurn{}, fmt.Errorf("continue failed: %w", err)
	}
	s.syncActionTools(turn)
	return turn, nil
}

func (s *Server) handleListActions(ctx context.Context, _ mcp.CallToolRequest, args ThreadArgs) (ActionList, error) {
	thread := threadOrDefault(args.Thread)
	turn, err := s.engine.Latest(ctx, thread)
	if err != nil {
		return ActionList{}, err
	}
	list := ActionList{Thread: thread, Actions: make([]Action, 0, len(turn.Descriptors))}
	for _, d := range turn.Descriptors {
		list.Actions = append(list.Actions, Action{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.Parameters.OpenAPI(),
		})
	}
	return list, nil
}

func (s *Server) handleCallAction(ctx context.Context, _ mcp.CallToolRequest, args CallArgs) (domain.ActionResult, error) {
	thread := threadOrDefault(args.Thread)
	result, err := s.engine.Execute(ctx, thread, args.Action, args.Arguments)
	if err != nil {
		s.logger.Warn("MCP action failed", "thread", thread, "action", args.Action, "err", err)
		return domain.ActionResult{}, err
	}
	return result, nil
}

func (s *Server) handleRenderPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	req := ports.RenderRequest{Thread: threadOrDefault(request.Params.Arguments["thread"])}
	if input, ok := request.Params.Arguments["input"]; ok {
		req.Input = input
	}
	if start := request.Params.Arguments["start"]; start != "" {
		n, err := strconv.Atoi(start)
		if err != nil {
			return nil, fmt.Errorf("invalid start %q: %w", start, err)
		}
		req.Mutable, req.Start = true, n
	}

	turn, err := s.engine.Render(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}
	s.syncActionTools(turn)

	return mcp.NewGetPromptResult(turn.System, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(turn.Prompt)),
	}), nil
}

// syncActionTools replaces the mirrored action tools with the actions of turn.
func (s *Server) syncActionTools(turn ports.RenderedTurn) {
	if s.actionThread == "" || turn.Thread != s.actionThread {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.exposed) > 0 {
		s.mcpServer.DeleteTools(s.exposed...)
	}
	s.exposed = s.exposed[:0]

	tools := make([]server.ServerTool, 0, len(turn.Descriptors))
	for _, d := range turn.Descriptors {
		in, err := d.Parameters.JSONSchema()
		if err != nil {
			s.logger.Error("MCP action schema failed", "action", d.Name, "err", err)
			continue
		}
		name := ActionToolPrefix + d.Name
		tools = append(tools, server.ServerTool{
			Tool:    mcp.NewTool(name, mcp.WithDescription(d.Description), mcp.WithRawInputSchema(in)),
			Handler: s.actionHandler(turn.Thread, d.Name),
		})
		s.exposed = append(s.exposed, name)
	}
	if len(tools) > 0 {
		s.mcpServer.AddTools(tools...)
	}
}

func (s *Server) actionHandler(thread, action string) server.ToolHandlerFunc {
	return mcp.NewStructuredToolHandler(func(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (domain.ActionResult, error) {
		return s.engine.Execute(ctx, thread, action, args)
	})
}
