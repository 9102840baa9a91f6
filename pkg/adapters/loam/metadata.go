package loam

// PromptMetadata is the frontmatter of a prompt document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
// The markdown body of the file becomes the document content.
type PromptMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`

	// System and Body follow the node grammar of pkg/document.
	System any `json:"system" mapstructure:"system"`
	Body   any `json:"body" mapstructure:"body"`

	// Actions are decoded by pkg/document into ActionSpec values.
	Actions []any `json:"actions" mapstructure:"actions"`
}
