// Package prompt builds prompts from declarative component trees.
//
// A tree is made of Nodes: text, numbers, fragments, asynchronous producers and
// elements. Elements are either components defined with Define or Func, tags
// such as P, Ul or Block, context providers, or action declarations.
//
//	Greeting := prompt.Define("Greeting", func(s *prompt.Scope, name string) prompt.Node {
//	    visits := prompt.UseSignal(s, 0)
//	    visits.Update(func(n int) int { return n + 1 })
//	    return prompt.P(prompt.Text("Hello "+name), prompt.Int(visits.Get()))
//	})
//
//	out, err := prompt.NewResolver().Resolve(ctx, Greeting.New("Ada"), prompt.Pass{
//	    Thread: domain.NewThreadState("main"),
//	})
//
// The Resolver evaluates the tree into a Resolved tree. Components are matched by
// name and key against the tree of the previous pass, so their hook state
// survives across turns as long as they keep their position, or their key.
// The resolved tree is turned into text by the serializer package.
package prompt
