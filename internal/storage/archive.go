package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yoockh/yootranslate/internal/models"
)

// Transcript is the archived form of a finished call.
type Transcript struct {
	models.CallSnapshot
	History []models.Turn `json:"history"`
}

// TranscriptArchive writes a finished call as one JSON object.
type TranscriptArchive struct {
	w      ObjectWriter
	prefix string
}

func NewTranscriptArchive(w ObjectWriter, prefix string) *TranscriptArchive {
	if prefix == "" {
		prefix = "transcripts"
	}
	return &TranscriptArchive{w: w, prefix: prefix}
}

func (a *TranscriptArchive) ObjectName(snap models.CallSnapshot) string {
	day := snap.StartedAt.UTC().Format("2006/01/02")
	return fmt.Sprintf("%s/%s/%s/%s.json", a.prefix, snap.Room, day, snap.SessionID)
}

func (a *TranscriptArchive) Store(ctx context.Context, snap models.CallSnapshot, history []models.Turn) (string, error) {
	body, err := json.Marshal(Transcript{CallSnapshot: snap, History: history})
	if err != nil {
		return "", err
	}
	return a.w.Put(ctx, Object{
		Name:        a.ObjectName(snap),
		ContentType: "application/json",
		Metadata: map[string]string{
			"session_id": snap.SessionID,
			"room":       snap.Room,
			"end_reason": snap.EndReason,
		},
		Body: body,
	})
}
