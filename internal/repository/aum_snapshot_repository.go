package repository

import (
	"context"
	"fmt"

	"github.com/vipul43/portfolio-sync-worker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const aumBatchSize = 500

type AumSnapshotRepository struct {
	db *gorm.DB
}

func NewAumSnapshotRepository(db *gorm.DB) *AumSnapshotRepository {
	return &AumSnapshotRepository{db: db}
}

// BulkUpsert stores snapshots in batches; a snapshot for an existing client
// and date overwrites the stored value
func (r *AumSnapshotRepository) BulkUpsert(ctx context.Context, snapshots []models.AumSnapshot) (int, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "as_of_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"market_value", "currency", "integration_config_id", "updated_at"}),
		}).
		CreateInBatches(&snapshots, aumBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to store aum snapshots: %w", result.Error)
	}
	return len(snapshots), nil
}

// GetByClientID retrieves a client's history ordered by date
func (r *AumSnapshotRepository) GetByClientID(ctx context.Context, clientID string) ([]models.AumSnapshot, error) {
	var snapshots []models.AumSnapshot
	result := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("as_of_date ASC").
		Find(&snapshots)
	return snapshots, result.Error
}
