package llm

import (
	"context"

	"github.com/yoockh/yootranslate/internal/models"
)

// Request is one model invocation: the committed call history plus the
// caller's staged utterance for the current turn.
type Request struct {
	History   []models.Turn
	Utterance string
}

// Reply is either plain text or text paired with a tool call.
type Reply struct {
	Text     string
	ToolCall *models.ToolCall
}

type Provider interface {
	Respond(ctx context.Context, req Request) (Reply, error)
	Close() error
}
