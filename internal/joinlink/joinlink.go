// Package joinlink prepares the link attendees use to join a board: the
// normalized session URL, a terminal QR code, and a clipboard copy.
package joinlink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/atotto/clipboard"
	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSessionURL is used when no session URL is configured.
const DefaultSessionURL = "http://localhost:5173"

// ErrClipboardUnavailable reports that no system clipboard can be reached.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// SessionURL strips the fragment from raw and returns the shareable form.
func SessionURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultSessionURL, nil
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse session url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("session url %q must be absolute", trimmed)
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// RenderQR encodes link as a compact QR code drawn with half-block runes.
func RenderQR(link string) (string, error) {
	if strings.TrimSpace(link) == "" {
		return "", fmt.Errorf("render qr: link is empty")
	}
	code, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return strings.TrimRight(code.ToSmallString(false), "\n"), nil
}

// Copier writes text to a clipboard.
type Copier func(text string) error

var writeClipboard Copier = clipboard.WriteAll

// Copy places link on the system clipboard.
func Copy(link string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	if err := writeClipboard(link); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}
