package services

import (
	"context"
	"errors"

	"github.com/yoockh/yootranslate/internal/models"
	mongorepo "github.com/yoockh/yootranslate/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yootranslate/internal/repositories/postgres"
	"github.com/yoockh/yootranslate/internal/utils"
)

// CallHistoryService reads finished and recorded calls back for operators.
type CallHistoryService interface {
	Session(ctx context.Context, sessionID string) (*models.CallSessionDoc, error)
	Turns(ctx context.Context, sessionID string, limit int64) ([]models.TurnDoc, error)
	SessionsByRoom(ctx context.Context, room string, limit int64) ([]models.CallSessionDoc, error)
	Records(ctx context.Context, room string, limit int) ([]models.CallRecord, error)
}

type callHistoryService struct {
	sessions mongorepo.CallSessionRepository
	turns    mongorepo.TurnRepository
	records  pgrepo.CallRecordRepo
}

func NewCallHistoryService(sessions mongorepo.CallSessionRepository, turns mongorepo.TurnRepository, records pgrepo.CallRecordRepo) CallHistoryService {
	return &callHistoryService{sessions: sessions, turns: turns, records: records}
}

func notConfigured(op, what string) error {
	return utils.E(utils.CodeUnavailable, op, what+" store is not configured", nil)
}

func (s *callHistoryService) Session(ctx context.Context, sessionID string) (*models.CallSessionDoc, error) {
	const op = "CallHistoryService.Session"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if s.sessions == nil {
		return nil, notConfigured(op, "session")
	}
	out, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

func (s *callHistoryService) Turns(ctx context.Context, sessionID string, limit int64) ([]models.TurnDoc, error) {
	const op = "CallHistoryService.Turns"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}
	if s.turns == nil {
		return nil, notConfigured(op, "transcript")
	}
	out, err := s.turns.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list turns", err)
	}
	return out, nil
}

func (s *callHistoryService) SessionsByRoom(ctx context.Context, room string, limit int64) ([]models.CallSessionDoc, error) {
	const op = "CallHistoryService.SessionsByRoom"

	if !ValidRoomName(room) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid room name format", utils.ErrInvalidRoomName)
	}
	if s.sessions == nil {
		return nil, notConfigured(op, "session")
	}
	out, err := s.sessions.ListByRoom(ctx, room, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return out, nil
}

func (s *callHistoryService) Records(ctx context.Context, room string, limit int) ([]models.CallRecord, error) {
	const op = "CallHistoryService.Records"

	if room != "" && !ValidRoomName(room) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid room name format", utils.ErrInvalidRoomName)
	}
	if s.records == nil {
		return nil, notConfigured(op, "record")
	}
	out, err := s.records.LatestN(ctx, room, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list records", err)
	}
	return out, nil
}
