/*
Package document compiles declarative prompt documents into component trees.

A document is YAML (or JSON, which is valid YAML):

	name: support
	description: Support agent prompt
	system:
	  - You are a support agent.
	body:
	  - p: Hello!
	  - x-rules:
	      - ul: [Be brief, Be kind]
	  - input: "The user said: %v"
	  - include: footer
	actions:
	  - name: search
	    description: Search the knowledge base
	    executor: kb.search
	    parameters:
	      query: string

Body nodes are strings, numbers, lists or single-tag maps. The tags are p, li, ul,
ol, br, div, a, system, block (or the x-<name> shorthand), action, input, thread,
include, provide and use. Any tag map may also carry a key.

Executors are Go functions registered on a Library by name. The built-in names
"redirect:<thread>" and "terminate" end an action with the matching outcome.
*/
package document
