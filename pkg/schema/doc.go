// Package schema describes and validates the parameters an action accepts.
//
// A Schema maps parameter names to types. The model's arguments are checked
// against it before an executor runs, and the same schema is exported as an
// OpenAPI/JSON schema object when actions are listed to a model or an MCP client.
//
//	params := schema.Schema{
//	    "query": schema.Describe(schema.String(), "Search terms"),
//	    "limit": schema.Optional(schema.Int()),
//	    "tags":  schema.Slice(schema.String()),
//	}
//
//	if err := schema.Validate(params, args); err != nil {
//	    // every failing field is reported in a single *AggregateError
//	}
//
// Schemas can also be written as type strings, which is how prompt documents
// declare them: {"query": "string", "limit": "int?", "tags": "[string]"}.
package schema
