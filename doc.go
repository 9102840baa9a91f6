/*
Package weft renders prompt component trees into the text an LLM reads, turn after turn.

An application is a tree of components. Each render resolves the tree for one
coordinate of a thread (step, tool call), keeping component state between turns,
and serializes the result into a prompt, a system prompt and the actions the
model may call. Actions run on the host; their outcome decides whether the
conversation continues, moves to another thread or terminates.

# Concept

Components are declared in Go (package prompt) or in prompt documents: YAML
files or markdown files with frontmatter, compiled by package document. The
Engine compiles an entry document, renders it per thread through
session.Manager and persists text-only transcripts through a
ports.TranscriptStore (memory, file, redis, bbolt).

# Usage

	eng, err := weft.New("./prompts")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	turn, err := eng.Render(ctx, ports.RenderRequest{Thread: "main", Input: "hi"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(turn.Prompt)

	// Let the model pick an action, then render the next tool-call sub-step.
	if _, err := eng.Execute(ctx, "main", "search", map[string]any{"query": "refund"}); err != nil {
		log.Fatal(err)
	}
	turn, err = eng.Continue(ctx, "main", nil)

# Documents

	name: support
	system: You are a support agent.
	body:
	  - p: Hello!
	  - x-rules:
	      - ul: [Be brief, Be kind]
	  - input: "The user said: %v"
	actions:
	  - name: search
	    description: Search the knowledge base
	    executor: kb.search
	    parameters:
	      query: string

Executors are bound with WithExecutor. The built-in executors "terminate" and
"redirect:<thread>" end the conversation or hand it to another thread.
The CLI also registers every command of tools.yaml as "process:<name>"
(see pkg/adapters/process).

# Surfaces

The same Engine backs the CLI (cmd/weft), the HTTP API (pkg/adapters/http)
and the MCP server (pkg/adapters/mcp).
*/
package weft
