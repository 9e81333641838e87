// internal/repositories/app_version_repository.go
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/csma94/guard-sub008/internal/models"
)

type AppVersionRepository struct {
	DB *sql.DB
}

func NewAppVersionRepository(db *sql.DB) *AppVersionRepository {
	return &AppVersionRepository{DB: db}
}

// GetLatestVersion returns the newest build for the platform.
func (r *AppVersionRepository) GetLatestVersion(platform string) (*models.AppVersion, error) {
	query := `
		SELECT id, platform, version, build_number, COALESCE(download_url, ''), force_update, COALESCE(changelog, ''), created_at
		FROM app_versions
		WHERE platform = $1
		ORDER BY build_number DESC
		LIMIT 1
	`

	var version models.AppVersion
	err := r.DB.QueryRow(query, platform).Scan(
		&version.ID,
		&version.Platform,
		&version.Version,
		&version.BuildNumber,
		&version.DownloadURL,
		&version.ForceUpdate,
		&version.Changelog,
		&version.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no version found for platform %s", platform)
		}
		return nil, fmt.Errorf("failed to get latest version: %w", err)
	}

	return &version, nil
}

// CheckVersion compares the caller's build against the newest one.
func (r *AppVersionRepository) CheckVersion(platform, currentVersion string, buildNumber int) (*models.VersionCheckResponse, error) {
	latest, err := r.GetLatestVersion(platform)
	if err != nil {
		return &models.VersionCheckResponse{HasUpdate: false}, nil
	}

	hasUpdate := buildNumber < latest.BuildNumber
	resp := &models.VersionCheckResponse{
		HasUpdate:   hasUpdate,
		ForceUpdate: hasUpdate && latest.ForceUpdate,
	}
	if hasUpdate {
		resp.LatestVersion = latest.Version
		resp.DownloadURL = latest.DownloadURL
		resp.Changelog = latest.Changelog
	}
	return resp, nil
}

func (r *AppVersionRepository) GetAllVersions(platform string) ([]models.AppVersion, error) {
	query := `
		SELECT id, platform, version, build_number, COALESCE(download_url, ''), force_update, COALESCE(changelog, ''), created_at
		FROM app_versions
		WHERE platform = $1
		ORDER BY build_number DESC
	`

	rows, err := r.DB.Query(query, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to query versions: %w", err)
	}
	defer rows.Close()

	var versions []models.AppVersion
	for rows.Next() {
		var v models.AppVersion
		err := rows.Scan(&v.ID, &v.Platform, &v.Version, &v.BuildNumber, &v.DownloadURL, &v.ForceUpdate, &v.Changelog, &v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (r *AppVersionRepository) CreateVersion(version *models.AppVersion) error {
	query := `
		INSERT INTO app_versions (platform, version, build_number, download_url, force_update, changelog)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRow(
		query,
		version.Platform,
		version.Version,
		version.BuildNumber,
		version.DownloadURL,
		version.ForceUpdate,
		version.Changelog,
	).Scan(&version.ID)
	if err != nil {
		return fmt.Errorf("failed to create version: %w", err)
	}
	return nil
}

func (r *AppVersionRepository) UpdateVersion(version *models.AppVersion) error {
	query := `
		UPDATE app_versions
		SET platform = $1, version = $2, build_number = $3, download_url = $4, force_update = $5, changelog = $6
		WHERE id = $7
	`
	_, err := r.DB.Exec(
		query,
		version.Platform,
		version.Version,
		version.BuildNumber,
		version.DownloadURL,
		version.ForceUpdate,
		version.Changelog,
		version.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update version: %w", err)
	}
	return nil
}

func (r *AppVersionRepository) DeleteVersion(id int) error {
	if _, err := r.DB.Exec(`DELETE FROM app_versions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}
	return nil
}
