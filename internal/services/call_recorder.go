package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yoockh/yootranslate/internal/events"
	"github.com/yoockh/yootranslate/internal/models"
	mongorepo "github.com/yoockh/yootranslate/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yootranslate/internal/repositories/postgres"
	"github.com/yoockh/yootranslate/internal/utils"
	"gorm.io/datatypes"
)

// CallRecorder persists a call's lifecycle and transcript. Every backend is
// optional; a failing backend never affects the call itself.
type CallRecorder interface {
	CallStarted(ctx context.Context, snap models.CallSnapshot) error
	TurnsCommitted(ctx context.Context, snap models.CallSnapshot, turns []models.Turn) error
	CallEnded(ctx context.Context, snap models.CallSnapshot, history []models.Turn) error
}

type TranscriptStore interface {
	Store(ctx context.Context, snap models.CallSnapshot, history []models.Turn) (string, error)
}

type RecorderDeps struct {
	Sessions mongorepo.CallSessionRepository
	Turns    mongorepo.TurnRepository
	Records  pgrepo.CallRecordRepo
	Archive  TranscriptStore
	Events   events.Publisher
	TurnTTL  time.Duration
}

type callRecorder struct {
	d RecorderDeps
}

func NewCallRecorder(d RecorderDeps) CallRecorder {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.TurnTTL <= 0 {
		d.TurnTTL = 30 * 24 * time.Hour
	}
	return &callRecorder{d: d}
}

func (r *callRecorder) CallStarted(ctx context.Context, snap models.CallSnapshot) error {
	const op = "CallRecorder.CallStarted"

	var errs []error
	if r.d.Sessions != nil {
		doc := &models.CallSessionDoc{
			SessionID: snap.SessionID,
			Room:      snap.Room,
			Identity:  snap.Identity,
			Status:    "active",
			StartedAt: snap.StartedAt,
		}
		if err := r.d.Sessions.Create(ctx, doc); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.d.Events.Publish(ctx, events.Event{
		Type:      events.CallStarted,
		SessionID: snap.SessionID,
		Room:      snap.Room,
		At:        snap.StartedAt,
	}); err != nil {
		errs = append(errs, err)
	}
	return wrapAll(op, "failed to record call start", errs)
}

func (r *callRecorder) TurnsCommitted(ctx context.Context, snap models.CallSnapshot, turns []models.Turn) error {
	const op = "CallRecorder.TurnsCommitted"
	if len(turns) == 0 {
		return nil
	}

	var errs []error
	if r.d.Turns != nil {
		docs := make([]models.TurnDoc, 0, len(turns))
		for _, t := range turns {
			docs = append(docs, turnDoc(snap.SessionID, t, r.d.TurnTTL))
		}
		if err := r.d.Turns.InsertMany(ctx, docs); err != nil {
			errs = append(errs, err)
		}
	}
	for i := range turns {
		t := turns[i]
		if err := r.d.Events.Publish(ctx, events.Event{
			Type:      events.TurnAdded,
			SessionID: snap.SessionID,
			Room:      snap.Room,
			Turn:      &t,
			At:        t.Timestamp,
		}); err != nil {
			errs = append(errs, err)
			break
		}
	}
	return wrapAll(op, "failed to record turns", errs)
}

func (r *callRecorder) CallEnded(ctx context.Context, snap models.CallSnapshot, history []models.Turn) error {
	const op = "CallRecorder.CallEnded"

	endedAt := time.Now().UTC()
	if snap.EndedAt != nil {
		endedAt = *snap.EndedAt
	}
	dur := int64(endedAt.Sub(snap.StartedAt).Seconds())
	if dur < 0 {
		dur = 0
	}

	var errs []error
	if r.d.Sessions != nil {
		if err := r.d.Sessions.End(ctx, snap.SessionID, snap.EndReason, endedAt, dur); err != nil && !errors.Is(err, utils.ErrNotFound) {
			errs = append(errs, err)
		}
	}

	var archivePath string
	if r.d.Archive != nil {
		p, err := r.d.Archive.Store(ctx, snap, history)
		if err != nil {
			errs = append(errs, err)
		}
		archivePath = p
	}

	if r.d.Records != nil {
		rec := &models.CallRecord{
			ID:           uuid.NewString(),
			SessionID:    snap.SessionID,
			Room:         snap.Room,
			Identity:     snap.Identity,
			TurnCount:    len(history),
			ToolsInvoked: toolsInvoked(history),
			EndReason:    snap.EndReason,
			StartedAt:    snap.StartedAt,
			EndedAt:      endedAt,
			Metadata:     recordMetadata(dur, archivePath),
		}
		if err := r.d.Records.Upsert(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}

	if err := r.d.Events.Publish(ctx, events.Event{
		Type:      events.CallEnded,
		SessionID: snap.SessionID,
		Room:      snap.Room,
		Reason:    snap.EndReason,
		At:        endedAt,
	}); err != nil {
		errs = append(errs, err)
	}
	return wrapAll(op, "failed to record call end", errs)
}

func turnDoc(sessionID string, t models.Turn, ttl time.Duration) models.TurnDoc {
	doc := models.TurnDoc{
		SessionID: sessionID,
		Seq:       t.Seq,
		Role:      string(t.Role),
		Content:   t.Content,
		Language:  t.Language,
		Timestamp: t.Timestamp,
		ExpiresAt: t.Timestamp.Add(ttl),
	}
	if t.ToolCall != nil {
		doc.ToolName = t.ToolCall.Name
	}
	return doc
}

func toolsInvoked(history []models.Turn) []string {
	var out []string
	for _, t := range history {
		if t.ToolCall != nil {
			out = append(out, t.ToolCall.Name)
		}
	}
	return out
}

func recordMetadata(durationSeconds int64, archivePath string) datatypes.JSON {
	md := map[string]any{"duration_seconds": durationSeconds}
	if archivePath != "" {
		md["transcript"] = archivePath
	}
	b, _ := json.Marshal(md)
	return datatypes.JSON(b)
}

func wrapAll(op, msg string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return utils.E(utils.CodeUnavailable, op, msg, errors.Join(errs...))
}
