package llm

import "testing"

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     string
		sawBrace bool
	}{
		{
			name:     "bare object",
			text:     `{"a": 1}`,
			want:     `{"a": 1}`,
			sawBrace: true,
		},
		{
			name:     "object with prose around it",
			text:     "Here is the result:\n{\"a\": 1}\nHope that helps!",
			want:     `{"a": 1}`,
			sawBrace: true,
		},
		{
			name:     "first of several objects wins",
			text:     `{"first": true} {"second": true}`,
			want:     `{"first": true}`,
			sawBrace: true,
		},
		{
			name:     "braces inside string literals are ignored",
			text:     `{"text": "use {curly} braces", "n": 2}`,
			want:     `{"text": "use {curly} braces", "n": 2}`,
			sawBrace: true,
		},
		{
			name:     "escaped quote inside string",
			text:     `{"text": "a \"quoted\" {brace}"}`,
			want:     `{"text": "a \"quoted\" {brace}"}`,
			sawBrace: true,
		},
		{
			name:     "nested object",
			text:     `prefix {"outer": {"inner": 1}} suffix`,
			want:     `{"outer": {"inner": 1}}`,
			sawBrace: true,
		},
		{
			name:     "unbalanced open brace",
			text:     `{"a": 1`,
			want:     "",
			sawBrace: true,
		},
		{
			name:     "no object at all",
			text:     "just prose, no json here",
			want:     "",
			sawBrace: false,
		},
		{
			name:     "empty text",
			text:     "",
			want:     "",
			sawBrace: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, sawBrace := extractObject(tt.text)
			if got != tt.want {
				t.Fatalf("extractObject(%q) = %q, want %q", tt.text, got, tt.want)
			}
			if sawBrace != tt.sawBrace {
				t.Fatalf("extractObject(%q) sawBrace = %v, want %v", tt.text, sawBrace, tt.sawBrace)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	parsed, compact, err := canonicalize([]byte("{\n  \"b\": 2,\n  \"a\": 1\n}"))
	if err != nil {
		t.Fatalf("canonicalize failed: %v", err)
	}
	if parsed["a"] != float64(1) || parsed["b"] != float64(2) {
		t.Fatalf("unexpected parsed map: %v", parsed)
	}
	// encoding/json sorts map keys, so the compact form is stable.
	if string(compact) != `{"a":1,"b":2}` {
		t.Fatalf("unexpected compact form: %s", compact)
	}
}

func TestCanonicalizeRejectsNonObject(t *testing.T) {
	if _, _, err := canonicalize([]byte(`[1,2,3]`)); err == nil {
		t.Fatal("expected error for non-object JSON")
	}
}

func TestDedupeCitations(t *testing.T) {
	in := []Citation{
		{Label: "article", URL: "https://a.example/1"},
		{Label: "article", URL: "https://a.example/2"},
		{Label: "article", URL: "https://a.example/1"},
		{Label: "article", URL: ""},
		{Label: "article", URL: "https://a.example/3"},
		{Label: "article", URL: "https://a.example/4"},
	}
	got := dedupeCitations(in, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 citations, got %d: %v", len(got), got)
	}
	want := []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"}
	for i, u := range want {
		if got[i].URL != u {
			t.Fatalf("citation %d = %q, want %q", i, got[i].URL, u)
		}
	}
}

func TestDedupeCitationsNoBound(t *testing.T) {
	in := []Citation{{URL: "https://x"}, {URL: "https://y"}}
	if got := dedupeCitations(in, 0); len(got) != 2 {
		t.Fatalf("expected all citations kept when max is zero, got %d", len(got))
	}
}
