// internal/handlers/appversion/app_version.go
package appversion

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/csma94/guard-sub008/internal/models"
	"github.com/csma94/guard-sub008/internal/pkg/response"
	"github.com/csma94/guard-sub008/internal/repositories"
)

type versionStore interface {
	CheckVersion(platform, currentVersion string, buildNumber int) (*models.VersionCheckResponse, error)
	GetLatestVersion(platform string) (*models.AppVersion, error)
	GetAllVersions(platform string) ([]models.AppVersion, error)
	CreateVersion(version *models.AppVersion) error
	UpdateVersion(version *models.AppVersion) error
	DeleteVersion(id int) error
}

type Handler struct {
	repo versionStore
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{repo: repositories.NewAppVersionRepository(db)}
}

// CheckVersionHandler tells the mobile app whether it must update.
func (h *Handler) CheckVersionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.VersionCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Platform == "" {
		req.Platform = detectPlatform(r)
	}

	resp, err := h.repo.CheckVersion(req.Platform, req.CurrentVersion, req.BuildNumber)
	if err != nil {
		log.Printf("Version check failed: %v", err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to check version")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, resp)
}

// GetLatestVersionHandler returns the newest build for ?platform.
func (h *Handler) GetLatestVersionHandler(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")
	if platform == "" {
		platform = detectPlatform(r)
	}

	version, err := h.repo.GetLatestVersion(platform)
	if err != nil {
		response.RespondWithError(w, http.StatusNotFound, "No version found for platform "+platform)
		return
	}

	response.RespondWithJSON(w, http.StatusOK, version)
}

func (h *Handler) ListVersionsHandler(w http.ResponseWriter, r *http.Request) {
	platform := r.URL.Query().Get("platform")

	var versions []models.AppVersion
	var err error
	if platform != "" {
		versions, err = h.repo.GetAllVersions(platform)
	} else {
		var iosVersions []models.AppVersion
		versions, err = h.repo.GetAllVersions("android")
		if err == nil {
			iosVersions, err = h.repo.GetAllVersions("ios")
			versions = append(versions, iosVersions...)
		}
	}
	if err != nil {
		log.Printf("Failed to list app versions: %v", err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to list versions")
		return
	}
	if versions == nil {
		versions = []models.AppVersion{}
	}

	response.RespondWithJSON(w, http.StatusOK, versions)
}

func (h *Handler) CreateVersionHandler(w http.ResponseWriter, r *http.Request) {
	var version models.AppVersion
	if err := json.NewDecoder(r.Body).Decode(&version); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if version.Platform == "" || version.Version == "" || version.BuildNumber == 0 {
		response.RespondWithError(w, http.StatusBadRequest, "platform, version and build_number are required")
		return
	}

	if err := h.repo.CreateVersion(&version); err != nil {
		log.Printf("Failed to create app version: %v", err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to create version")
		return
	}

	response.RespondWithJSON(w, http.StatusCreated, version)
}

func (h *Handler) UpdateVersionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid version ID")
		return
	}

	var version models.AppVersion
	if err := json.NewDecoder(r.Body).Decode(&version); err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	version.ID = id
	if err := h.repo.UpdateVersion(&version); err != nil {
		log.Printf("Failed to update app version %d: %v", id, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to update version")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, version)
}

func (h *Handler) DeleteVersionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		response.RespondWithError(w, http.StatusBadRequest, "Invalid version ID")
		return
	}

	if err := h.repo.DeleteVersion(id); err != nil {
		log.Printf("Failed to delete app version %d: %v", id, err)
		response.RespondWithError(w, http.StatusInternalServerError, "Failed to delete version")
		return
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Version deleted successfully"})
}

func detectPlatform(r *http.Request) string {
	userAgent := r.Header.Get("User-Agent")
	switch {
	case strings.Contains(userAgent, "Android"):
		return "android"
	case strings.Contains(userAgent, "iPhone"), strings.Contains(userAgent, "iPad"), strings.Contains(userAgent, "iOS"):
		return "ios"
	default:
		return "unknown"
	}
}
