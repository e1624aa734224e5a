package tts

import "context"

// Synthesis is raw PCM16 audio plus the language and voice it was spoken in.
type Synthesis struct {
	Audio    []byte
	Language string
	Voice    string
}

type Provider interface {
	// Synthesize speaks text in the language the text is written in.
	Synthesize(ctx context.Context, text string) (Synthesis, error)
	Close() error
}
