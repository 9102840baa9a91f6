package prompt

import "testing"

func TestActionName(t *testing.T) {
	tests := []struct {
		name string
		path []string
		in   string
		want string
	}{
		{"no blocks", nil, "search", "search"},
		{"blocks without id", []string{"tools", "web"}, "search", "search"},
		{"ids are lower-cased", []string{"tools#Web", "group#API"}, "search", "web_api_search"},
		{"ids only", []string{"tools#web"}, "", "web"},
		{"invalid characters", nil, "send mail!", "send_mail"},
		{"repeated underscores collapse", []string{"x#a_"}, "_b", "a-b"},
		{"hyphens kept", nil, "get-user", "get-user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := actionName(tt.path, tt.in); got != tt.want {
				t.Errorf("actionName(%v, %q) = %q, want %q", tt.path, tt.in, got, tt.want)
			}
		})
	}
}

func TestBlockSegment(t *testing.T) {
	if got := blockSegment("tools", "web"); got != "tools#web" {
		t.Errorf("got %q", got)
	}
	if got := blockSegment("tools", ""); got != "tools" {
		t.Errorf("got %q", got)
	}
}
