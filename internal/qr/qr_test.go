package qr

import (
	"bytes"
	"context"
	"testing"
)

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "structured payload",
			raw:  `{"id":"abc-123","name":"Ada","email":"ada@example.com","event":"GopherCon"}`,
			want: "abc-123",
		},
		{
			name: "bare token",
			raw:  "abc-123",
			want: "abc-123",
		},
		{
			name: "token with surrounding whitespace",
			raw:  "  abc-123\n",
			want: "abc-123",
		},
		{
			name: "json without id falls through to raw",
			raw:  `{"name":"Ada"}`,
			want: `{"name":"Ada"}`,
		},
		{
			name: "malformed json falls through to raw",
			raw:  `{"id":`,
			want: `{"id":`,
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractToken(tt.raw); got != tt.want {
				t.Fatalf("ExtractToken(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	p := Payload{ID: "tok-1", Name: "Grace", Email: "grace@example.com", Event: "Meetup"}
	if got := ExtractToken(p.Encode()); got != "tok-1" {
		t.Fatalf("ExtractToken(Encode()) = %q, want tok-1", got)
	}
}

func TestRendererPNG(t *testing.T) {
	r := NewRenderer(2, 128)
	png, err := r.PNG(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("output missing PNG signature: % x", png[:4])
	}
}

func TestRendererCancelledContext(t *testing.T) {
	r := NewRenderer(1, 128)
	// Hold the only pool slot so the render must wait on the context.
	r.sem <- struct{}{}
	defer func() { <-r.sem }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.PNG(ctx, "tok-1"); err == nil {
		t.Fatal("PNG with cancelled context succeeded, want error")
	}
}

func TestDataURLPrefix(t *testing.T) {
	r := NewRenderer(2, 128)
	url, err := r.DataURL(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("DataURL: %v", err)
	}
	const prefix = "data:image/png;base64,"
	if len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		t.Fatalf("DataURL = %q, want %q prefix", url[:min(len(url), 40)], prefix)
	}
}
