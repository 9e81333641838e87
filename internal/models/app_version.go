package models

type AppVersion struct {
	ID          int    `json:"id"`
	Platform    string `json:"platform"`
	Version     string `json:"version"`
	BuildNumber int    `json:"build_number"`
	DownloadURL string `json:"download_url,omitempty"`
	ForceUpdate bool   `json:"force_update"`
	Changelog   string `json:"changelog,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type VersionCheckRequest struct {
	Platform       string `json:"platform"`
	CurrentVersion string `json:"current_version"`
	BuildNumber    int    `json:"build_number"`
}

type VersionCheckResponse struct {
	HasUpdate     bool   `json:"has_update"`
	ForceUpdate   bool   `json:"force_update"`
	LatestVersion string `json:"latest_version,omitempty"`
	DownloadURL   string `json:"download_url,omitempty"`
	Changelog     string `json:"changelog,omitempty"`
}
