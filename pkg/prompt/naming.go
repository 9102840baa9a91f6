package prompt

import (
	"regexp"
	"strings"
)

var (
	invalidActionChars = regexp.MustCompile(`[^a-zA-Z0-9-]`)
	repeatedUnderscore = regexp.MustCompile(`__+`)
)

// blockSegment is the action-naming path segment of a named block.
func blockSegment(name, id string) string {
	if id == "" {
		return name
	}
	if name == "" {
		return id
	}
	return name + "#" + id
}

// actionName derives the registered name of an action from the segments of its
// enclosing blocks. Only blocks with an id contribute.
func actionName(path []string, name string) string {
	var ids []string
	for _, seg := range path {
		if parts := strings.Split(seg, "#"); len(parts) > 1 && parts[1] != "" {
			ids = append(ids, parts[1])
		}
	}
	var parts []string
	if prefix := strings.ToLower(strings.Join(ids, "_")); prefix != "" {
		parts = append(parts, prefix)
	}
	if name != "" {
		parts = append(parts, name)
	}
	out := invalidActionChars.ReplaceAllString(strings.Join(parts, "_"), "_")
	out = repeatedUnderscore.ReplaceAllString(out, "-")
	out = strings.TrimPrefix(out, "_")
	return strings.TrimSuffix(out, "_")
}
