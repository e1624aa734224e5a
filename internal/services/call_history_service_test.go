package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/yoockh/yootranslate/internal/models"
	"github.com/yoockh/yootranslate/internal/utils"
)

func TestCallHistorySession(t *testing.T) {
	sessions := &fakeSessions{created: []*models.CallSessionDoc{{SessionID: "s-1", Room: "call-main"}}}
	svc := NewCallHistoryService(sessions, &fakeTurns{}, &fakeRecords{})
	ctx := context.Background()

	got, err := svc.Session(ctx, "s-1")
	if err != nil || got.Room != "call-main" {
		t.Fatalf("Session() = %+v, %v", got, err)
	}

	_, err = svc.Session(ctx, "s-2")
	if !errors.Is(err, utils.ErrNotFound) || utils.HTTPStatus(err) != http.StatusNotFound {
		t.Fatalf("missing session err = %v", err)
	}
	if _, err := svc.Session(ctx, ""); utils.HTTPStatus(err) != http.StatusBadRequest {
		t.Fatalf("empty id err = %v", err)
	}
}

func TestCallHistoryTurns(t *testing.T) {
	turns := &fakeTurns{docs: []models.TurnDoc{{SessionID: "s-1", Seq: 1}, {SessionID: "s-1", Seq: 2}}}
	svc := NewCallHistoryService(nil, turns, nil)

	got, err := svc.Turns(context.Background(), "s-1", 10)
	if err != nil || len(got) != 2 {
		t.Fatalf("Turns() = %v, %v", got, err)
	}
}

func TestCallHistoryValidatesRoom(t *testing.T) {
	svc := NewCallHistoryService(&fakeSessions{}, nil, &fakeRecords{})
	ctx := context.Background()

	if _, err := svc.SessionsByRoom(ctx, "lobby", 10); !errors.Is(err, utils.ErrInvalidRoomName) {
		t.Fatalf("SessionsByRoom err = %v", err)
	}
	if _, err := svc.Records(ctx, "lobby", 10); !errors.Is(err, utils.ErrInvalidRoomName) {
		t.Fatalf("Records err = %v", err)
	}
	if _, err := svc.Records(ctx, "", 10); err != nil {
		t.Fatalf("Records without room filter err = %v", err)
	}
}

func TestCallHistoryMissingBackends(t *testing.T) {
	svc := NewCallHistoryService(nil, nil, nil)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["session"] = svc.Session(ctx, "s-1")
	_, checks["turns"] = svc.Turns(ctx, "s-1", 10)
	_, checks["by room"] = svc.SessionsByRoom(ctx, "call-main", 10)
	_, checks["records"] = svc.Records(ctx, "", 10)
	for name, err := range checks {
		if utils.HTTPStatus(err) != http.StatusServiceUnavailable {
			t.Fatalf("%s status = %d", name, utils.HTTPStatus(err))
		}
	}
}
