package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/prompt"
	"github.com/aretw0/weft/pkg/schema"
	"github.com/aretw0/weft/pkg/session"
)

func agent() prompt.Node {
	return prompt.Func("Agent", func(s *prompt.Scope) prompt.Node {
		notes := prompt.UseSignal(s, []string{})
		return prompt.Fragment{
			prompt.System(prompt.Text("You take notes.")),
			prompt.Textf("step %d notes %d", s.Thread().Step, len(notes.Get())),
			prompt.Action(domain.ActionDescriptor{
				Name:        "note",
				Description: "Store a note",
				Parameters:  schema.Schema{"text": schema.String()},
				Execute: func(ctx context.Context, args map[string]any) (any, error) {
					text := args["text"].(string)
					notes.Update(func(n []string) []string { return append(n, text) })
					return text, nil
				},
			}),
		}
	})
}

func newServer(opts ...Option) *Server {
	return NewServer(session.NewEngine(session.NewManager(agent())), opts...)
}

func TestServer_RegistersToolsAndPrompt(t *testing.T) {
	s := newServer()
	tools := s.MCPServer().ListTools()
	for _, name := range []string{"render_thread", "continue_thread", "list_actions", "call_action"} {
		assert.Contains(t, tools, name)
	}
}

func TestServer_RenderAndCall(t *testing.T) {
	s := newServer()
	ctx := context.Background()

	turn, err := s.handleRender(ctx, mcp.CallToolRequest{}, RenderArgs{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultThread, turn.Thread)
	assert.Equal(t, "step 0 notes 0", turn.Prompt)
	assert.Equal(t, "You take notes.", turn.System)

	list, err := s.handleListActions(ctx, mcp.CallToolRequest{}, ThreadArgs{})
	require.NoError(t, err)
	require.Len(t, list.Actions, 1)
	assert.Equal(t, "note", list.Actions[0].Name)

	res, err := s.handleCallAction(ctx, mcp.CallToolRequest{}, CallArgs{Action: "note", Arguments: map[string]any{"text": "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Value)

	turn, err = s.handleContinue(ctx, mcp.CallToolRequest{}, ContinueArgs{})
	require.NoError(t, err)
	assert.Equal(t, "step 0 notes 1", turn.Prompt)
	assert.Equal(t, 1, turn.ToolCall)
}

func TestServer_CallActionErrors(t *testing.T) {
	s := newServer()
	ctx := context.Background()

	_, err := s.handleCallAction(ctx, mcp.CallToolRequest{}, CallArgs{Action: "note"})
	assert.ErrorIs(t, err, domain.ErrThreadNotFound)

	_, err = s.handleRender(ctx, mcp.CallToolRequest{}, RenderArgs{})
	require.NoError(t, err)

	_, err = s.handleCallAction(ctx, mcp.CallToolRequest{}, CallArgs{Action: "missing"})
	assert.ErrorIs(t, err, domain.ErrActionNotFound)

	_, err = s.handleCallAction(ctx, mcp.CallToolRequest{}, CallArgs{Action: "note"})
	var validation *schema.AggregateError
	assert.ErrorAs(t, err, &validation)
}

func TestServer_StructuredHandlerReportsErrors(t *testing.T) {
	s := newServer()
	tool := s.MCPServer().GetTool("continue_thread")
	require.NotNil(t, tool)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "continue_thread", Arguments: map[string]any{"thread": "ghost"}},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_RenderPrompt(t *testing.T) {
	s := newServer()
	ctx := context.Background()

	req := mcp.GetPromptRequest{}
	req.Params.Name = "render"
	req.Params.Arguments = map[string]string{"thread": "notes"}

	res, err := s.handleRenderPrompt(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "You take notes.", res.Description)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, mcp.RoleUser, res.Messages[0].Role)
	text, ok := res.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "step 0 notes 0", text.Text)

	req.Params.Arguments["start"] = "nope"
	_, err = s.handleRenderPrompt(ctx, req)
	assert.Error(t, err)
}

func TestServer_ActionTools(t *testing.T) {
	s := newServer(WithActionTools(domain.DefaultThread))
	ctx := context.Background()

	_, err := s.handleRender(ctx, mcp.CallToolRequest{}, RenderArgs{Thread: "other"})
	require.NoError(t, err)
	assert.Nil(t, s.MCPServer().GetTool(ActionToolPrefix+"note"))

	_, err = s.handleRender(ctx, mcp.CallToolRequest{}, RenderArgs{})
	require.NoError(t, err)
	tool := s.MCPServer().GetTool(ActionToolPrefix + "note")
	require.NotNil(t, tool)
	assert.Equal(t, "Store a note", tool.Tool.Description)
	assert.Contains(t, string(tool.Tool.RawInputSchema), `"required":["text"]`)

	res, err := tool.Handler(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: ActionToolPrefix + "note", Arguments: map[string]any{"text": "remember"}},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	// Re-rendering replaces the mirrored tools rather than duplicating them.
	_, err = s.handleRender(ctx, mcp.CallToolRequest{}, RenderArgs{})
	require.NoError(t, err)
	assert.Len(t, s.MCPServer().ListTools(), 5)
}
