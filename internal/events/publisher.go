// Package events fans call lifecycle changes out over Redis pub/sub so
// dashboards and other processes can follow a call live.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yoockh/yootranslate/internal/models"
)

type Type string

const (
	CallStarted Type = "call_started"
	TurnAdded   Type = "turn"
	CallEnded   Type = "call_ended"
)

type Event struct {
	Type      Type         `json:"type"`
	SessionID string       `json:"session_id"`
	Room      string       `json:"room"`
	Turn      *models.Turn `json:"turn,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	At        time.Time    `json:"at"`
}

func Channel(sessionID string) string {
	return "call:" + sessionID + ":events"
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type redisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) Publisher {
	return &redisPublisher{rdb: rdb}
}

func (p *redisPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, Channel(ev.SessionID), b).Err()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
