package joinlink

import (
	"errors"
	"strings"
	"testing"

	"github.com/atotto/clipboard"
)

func TestSessionURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty uses default", raw: "  ", want: DefaultSessionURL},
		{name: "fragment stripped", raw: "http://qa.example.com/board#questions", want: "http://qa.example.com/board"},
		{name: "query kept", raw: "https://qa.example.com/?room=7#x", want: "https://qa.example.com/?room=7"},
		{name: "already clean", raw: "http://localhost:5173", want: "http://localhost:5173"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SessionURL(tt.raw)
			if err != nil {
				t.Fatalf("SessionURL returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("SessionURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSessionURL_RejectsRelative(t *testing.T) {
	if _, err := SessionURL("/board"); err == nil {
		t.Fatalf("SessionURL(/board) returned nil error")
	}
}

func TestRenderQR(t *testing.T) {
	out, err := RenderQR("http://localhost:5173")
	if err != nil {
		t.Fatalf("RenderQR returned error: %v", err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) < 10 {
		t.Fatalf("QR has %d lines, want a full code", len(lines))
	}
	if !strings.ContainsAny(out, "█▀▄") {
		t.Fatalf("QR output has no block runes: %q", out)
	}
	if _, err := RenderQR(""); err == nil {
		t.Fatalf("RenderQR(\"\") returned nil error")
	}
}

func TestCopy(t *testing.T) {
	if clipboard.Unsupported {
		if err := Copy("x"); !errors.Is(err, ErrClipboardUnavailable) {
			t.Fatalf("Copy error = %v, want ErrClipboardUnavailable", err)
		}
		return
	}

	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })

	var got string
	writeClipboard = func(text string) error {
		got = text
		return nil
	}
	if err := Copy("http://localhost:5173"); err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}
	if got != "http://localhost:5173" {
		t.Fatalf("clipboard text = %q", got)
	}

	writeClipboard = func(string) error { return errors.New("no xclip") }
	if err := Copy("x"); !errors.Is(err, ErrClipboardUnavailable) {
		t.Fatalf("Copy error = %v, want ErrClipboardUnavailable", err)
	}
}
