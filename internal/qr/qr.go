// Package qr encodes scan payloads and renders QR code PNGs.
package qr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Payload is the structured form embedded in issued QR codes. ID is the
// user's qr_code_data token; the rest is display metadata for scanners.
type Payload struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Event string `json:"event,omitempty"`
}

// Encode returns the compact JSON form of the payload.
func (p Payload) Encode() string {
	b, err := json.Marshal(p)
	if err != nil {
		return p.ID
	}
	return string(b)
}

// ExtractToken parses a scanned string into its identity token. Scanners
// may send either the structured JSON payload or the bare token: try the
// structured decode first, fall back to treating the whole input as the
// token.
func ExtractToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var p Payload
		if err := json.Unmarshal([]byte(raw), &p); err == nil && p.ID != "" {
			return p.ID
		}
	}
	return raw
}

// Renderer renders QR PNGs on a bounded pool. Rendering is the one
// CPU-bound operation in the system and must not stall request handling,
// so concurrent renders beyond the pool size queue on the semaphore.
type Renderer struct {
	size int
	sem  chan struct{}
}

// NewRenderer creates a renderer with the given pool size and PNG edge
// length in pixels.
func NewRenderer(workers, size int) *Renderer {
	if workers <= 0 {
		workers = 4
	}
	if size <= 0 {
		size = 256
	}
	return &Renderer{size: size, sem: make(chan struct{}, workers)}
}

// PNG renders data as a QR code PNG.
func (r *Renderer) PNG(ctx context.Context, data string) ([]byte, error) {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-r.sem }()
	return qrcode.Encode(data, qrcode.Medium, r.size)
}

// DataURL renders data as a base64 PNG data URL suitable for embedding
// in email HTML.
func (r *Renderer) DataURL(ctx context.Context, data string) (string, error) {
	png, err := r.PNG(ctx, data)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
