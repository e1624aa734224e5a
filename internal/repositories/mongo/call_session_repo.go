package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/yootranslate/internal/models"
	"github.com/yoockh/yootranslate/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CallSessionRepository interface {
	Create(ctx context.Context, s *models.CallSessionDoc) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.CallSessionDoc, error)
	End(ctx context.Context, sessionID, reason string, endedAt time.Time, durationSeconds int64) error
	ListByRoom(ctx context.Context, room string, limit int64) ([]models.CallSessionDoc, error)
}

type callSessionRepo struct {
	col *mongo.Collection
}

func NewCallSessionRepo(db *mongo.Database) CallSessionRepository {
	return &callSessionRepo{col: db.Collection("call_sessions")}
}

func (r *callSessionRepo) Create(ctx context.Context, s *models.CallSessionDoc) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = "active"
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *callSessionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.CallSessionDoc, error) {
	var s models.CallSessionDoc
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *callSessionRepo) End(ctx context.Context, sessionID, reason string, endedAt time.Time, durationSeconds int64) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "status": "active"},
		bson.M{"$set": bson.M{
			"status":           "ended",
			"end_reason":       reason,
			"ended_at":         endedAt.UTC(),
			"duration_seconds": durationSeconds,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *callSessionRepo) ListByRoom(ctx context.Context, room string, limit int64) ([]models.CallSessionDoc, error) {
	if limit <= 0 {
		limit = 50
	}
	cur, err := r.col.Find(ctx,
		bson.M{"room": room},
		options.Find().
			SetSort(bson.D{{Key: "started_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.CallSessionDoc
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
