package mongo

import (
	"context"

	"github.com/yoockh/yootranslate/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TurnRepository interface {
	// InsertMany writes turns in order. Duplicate (session_id, seq) pairs are skipped.
	InsertMany(ctx context.Context, turns []models.TurnDoc) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.TurnDoc, error)
}

type turnRepo struct {
	col *mongo.Collection
}

func NewTurnRepo(db *mongo.Database) TurnRepository {
	return &turnRepo{col: db.Collection("call_turns")}
}

func (r *turnRepo) InsertMany(ctx context.Context, turns []models.TurnDoc) error {
	if len(turns) == 0 {
		return nil
	}
	docs := make([]any, 0, len(turns))
	for i := range turns {
		docs = append(docs, turns[i])
	}
	_, err := r.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (r *turnRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.TurnDoc, error) {
	if limit <= 0 {
		limit = 500
	}

	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().
			SetSort(bson.D{{Key: "seq", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.TurnDoc
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
