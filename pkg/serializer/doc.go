// Package serializer turns resolved prompt trees into text.
//
// Every node renders to a fragment that remembers whether its edges are
// block-like. Joining fragments inserts a blank line wherever a block edge
// meets another fragment, so paragraphs, lists and named blocks stay separated
// while inline text runs together:
//
//	out, err := serializer.Stringify(resolved.Tree)
//	// out.Prompt, out.System, out.Actions
package serializer
