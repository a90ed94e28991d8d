package main

import (
	"testing"

	"chandler/internal/chat"
)

// Chat turns buffer the SSE response until the pipeline finishes, so a write
// deadline at or below the turn deadline would drop every slow turn before
// the first byte reaches the client.
func TestServerConfigWriteDeadlineOutlivesTurn(t *testing.T) {
	cfg := serverConfig("8080")
	if cfg.WriteTimeout <= chat.TurnTimeout {
		t.Fatalf("write timeout %v must exceed the turn deadline %v", cfg.WriteTimeout, chat.TurnTimeout)
	}
}
