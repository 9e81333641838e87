package models

import "time"

// GeoUpdate is a single position report from the mobile app.
type GeoUpdate struct {
	ID        int       `json:"id,omitempty"`
	AgentID   int       `json:"agent_id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Speed     float64   `json:"speed,omitempty"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Battery   int       `json:"battery,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// LastLocation is the freshest known position of an agent.
type LastLocation struct {
	AgentID int       `json:"agent_id"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	Battery int       `json:"battery"`
	Ts      time.Time `json:"ts"`
}
