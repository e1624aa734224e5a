package postgres

import (
	"context"

	"github.com/yoockh/yootranslate/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CallRecordRepo interface {
	Upsert(ctx context.Context, rec *models.CallRecord) error
	LatestN(ctx context.Context, room string, n int) ([]models.CallRecord, error)
}

type callRecordRepo struct {
	db *gorm.DB
}

func NewCallRecordRepo(db *gorm.DB) CallRecordRepo {
	return &callRecordRepo{db: db}
}

func (r *callRecordRepo) Upsert(ctx context.Context, rec *models.CallRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"turn_count", "tools_invoked", "end_reason", "ended_at", "metadata"}),
		}).
		Create(rec).Error
}

func (r *callRecordRepo) LatestN(ctx context.Context, room string, n int) ([]models.CallRecord, error) {
	if n <= 0 {
		n = 20
	}
	q := r.db.WithContext(ctx)
	if room != "" {
		q = q.Where("room = ?", room)
	}
	var rows []models.CallRecord
	err := q.Order("ended_at DESC").Limit(n).Find(&rows).Error
	return rows, err
}
