package stt

import "context"

// Transcript is the recognizer's best hypothesis for one utterance.
type Transcript struct {
	Text       string
	Confidence float64
	// Language is the BCP-47 code the recognizer settled on.
	Language string
}

type Provider interface {
	Transcribe(ctx context.Context, audio []byte) (Transcript, error)
	Close() error
}
