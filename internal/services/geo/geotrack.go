// internal/services/geo/geotrack.go
package geo

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/repositories"
	"github.com/csma94/guard-sub008/internal/services/notify"
)

const lastLocationTTL = 5 * time.Minute

type GeoTrackService struct {
	posRepo *repositories.PositionRepository
	redis   *redis.Client
	hub     *notify.Hub
}

func NewGeoTrackService(
	posRepo *repositories.PositionRepository,
	redisClient *redis.Client,
	hub *notify.Hub,
) *GeoTrackService {
	return &GeoTrackService{
		posRepo: posRepo,
		redis:   redisClient,
		hub:     hub,
	}
}

// HandleUpdate persists a position report, refreshes the live-location
// cache and relays the update to the portals.
func (s *GeoTrackService) HandleUpdate(ctx context.Context, update *models.GeoUpdate) error {
	if err := s.posRepo.Save(ctx, update); err != nil {
		log.Printf("Failed to save position for agent %d: %v", update.AgentID, err)
		return err
	}

	key := "agent:last:" + strconv.Itoa(update.AgentID)
	data, _ := json.Marshal(map[string]interface{}{
		"lat":     update.Lat,
		"lon":     update.Lon,
		"battery": update.Battery,
		"ts":      update.CreatedAt.Format(time.RFC3339),
	})
	if err := s.redis.Set(ctx, key, data, lastLocationTTL).Err(); err != nil {
		log.Printf("Failed to update last-location cache: %v", err)
		return err
	}

	if err := s.redis.SAdd(ctx, "active_agents", update.AgentID).Err(); err != nil {
		log.Printf("Redis SAdd warning: %v", err)
	}
	if err := s.redis.Expire(ctx, "active_agents", lastLocationTTL).Err(); err != nil {
		log.Printf("Redis Expire warning: %v", err)
	}

	s.hub.BroadcastToRoles(models.EventLocationUpdate, update,
		"superadmin", "admin", "supervisor", "client")

	return nil
}

func (s *GeoTrackService) GetLastLocations(ctx context.Context) ([]models.LastLocation, error) {
	locations, err := s.posRepo.GetLastPositions(ctx)
	if err != nil {
		log.Printf("Failed to fetch last positions: %v", err)
		return nil, err
	}
	return locations, nil
}

func (s *GeoTrackService) GetHistory(ctx context.Context, agentID int, from, to time.Time) ([]models.GeoUpdate, error) {
	return s.posRepo.GetHistoryByAgent(ctx, agentID, from, to)
}
