// internal/repositories/position_repository.go
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/csma94/guard-sub008/internal/models"
)

type PositionRepository struct {
	db *sql.DB
}

func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) Save(ctx context.Context, pos *models.GeoUpdate) error {
	query := `
		INSERT INTO positions (agent_id, lat, lon, speed, accuracy, battery, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		pos.AgentID,
		pos.Lat,
		pos.Lon,
		pos.Speed,
		pos.Accuracy,
		pos.Battery,
		time.Now(),
	).Scan(&pos.ID, &pos.CreatedAt)
}

// GetLastPositions returns the freshest position per agent seen within the
// last five minutes.
func (r *PositionRepository) GetLastPositions(ctx context.Context) ([]models.LastLocation, error) {
	query := `
		SELECT DISTINCT ON (agent_id) agent_id, lat, lon, COALESCE(battery, 0), created_at AS ts
		FROM positions
		WHERE created_at > NOW() - INTERVAL '5 minutes'
		ORDER BY agent_id, created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.LastLocation
	for rows.Next() {
		var loc models.LastLocation
		if err := rows.Scan(&loc.AgentID, &loc.Lat, &loc.Lon, &loc.Battery, &loc.Ts); err != nil {
			return nil, err
		}
		result = append(result, loc)
	}
	return result, rows.Err()
}

func (r *PositionRepository) GetHistoryByAgent(ctx context.Context, agentID int, from, to time.Time) ([]models.GeoUpdate, error) {
	query := `
		SELECT agent_id, lat, lon, COALESCE(speed, 0), COALESCE(accuracy, 0), COALESCE(battery, 0), created_at
		FROM positions
		WHERE agent_id = $1 AND created_at BETWEEN $2 AND $3
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, agentID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []models.GeoUpdate
	for rows.Next() {
		var u models.GeoUpdate
		if err := rows.Scan(&u.AgentID, &u.Lat, &u.Lon, &u.Speed, &u.Accuracy, &u.Battery, &u.CreatedAt); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}
