package redis

import (
	"context"
	"testing"
	"time"
)

func TestNewClientUnreachableWithNilLogger(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// A nil logger must be tolerated like every other constructor here.
	c, err := NewClient(ctx, "127.0.0.1:1", "", 0, nil)
	if err == nil {
		c.Close()
		t.Fatal("NewClient connected to a closed port")
	}
}
