package models

import "time"

type Site struct {
	ID              int       `json:"id"`
	ClientID        int       `json:"client_id"`
	ClientName      string    `json:"client_name,omitempty"`
	Name            string    `json:"name"`
	Address         string    `json:"address,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	GeofenceRadiusM float64   `json:"geofence_radius_m"`
	Instructions    string    `json:"instructions,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}
