package news

import "testing"

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Markets rallied on Tuesday.", "Markets rallied on Tuesday."},
		{"collapses whitespace", "  Markets \n\t rallied   today ", "Markets rallied today"},
		{"strips urls", "Read more at https://example.com/a?b=c now", "Read more at now"},
		{"strips www urls", "Visit www.example.org for details", "Visit for details"},
		{"strips emails", "Contact press@example.com for comment", "Contact for comment"},
		{"strips markup", "Shares <b>rose</b> 5% &amp; more", "Shares rose 5% & more"},
		{"line breaks keep words apart", "first<br>second", "first second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanContent(tt.in); got != tt.want {
				t.Errorf("CleanContent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTopicOutcome_Status(t *testing.T) {
	if got := (TopicOutcome{Topic: "a", Error: "boom"}).Status(); got != StatusFailed {
		t.Errorf("expected failed, got %s", got)
	}
	if got := (TopicOutcome{Topic: "a"}).Status(); got != StatusNoNews {
		t.Errorf("expected no_news, got %s", got)
	}
	if got := (TopicOutcome{Topic: "a", Items: []Item{{Link: "x"}}}).Status(); got != StatusOK {
		t.Errorf("expected ok, got %s", got)
	}
}
