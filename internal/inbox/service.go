// Package inbox implements the moderation engine: submission intake,
// duplicate detection, status reconciliation and the admin command
// state machine over pending entries.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/railwaystations/inbox-api/internal/models"
	"github.com/railwaystations/inbox-api/internal/repository"
	"github.com/railwaystations/inbox-api/internal/storage"
)

// Hooks are the fire-and-forget notification collaborators. Calls must
// never block and their failure never affects the triggering operation.
type Hooks interface {
	NotifyMonitor(text string, photoPath string)
	AnnouncePhoto(station *models.Station, entry *models.InboxEntry, photoID int64, photoURL string)
}

// NopHooks discards all notifications.
type NopHooks struct{}

func (NopHooks) NotifyMonitor(string, string) {}
func (NopHooks) AnnouncePhoto(*models.Station, *models.InboxEntry, int64, string) {
}

type Service struct {
	stations  repository.StationRepository
	entries   repository.InboxRepository
	countries repository.CountryRepository
	photos    storage.PhotoStorage
	hooks     Hooks

	maxPhotoSize int64
	inboxBaseURL string
	now          func() time.Time
}

func NewService(stations repository.StationRepository, entries repository.InboxRepository,
	countries repository.CountryRepository, photos storage.PhotoStorage, hooks Hooks,
	maxPhotoSize int64, inboxBaseURL string) *Service {
	if hooks == nil {
		hooks = NopHooks{}
	}
	return &Service{
		stations:     stations,
		entries:      entries,
		countries:    countries,
		photos:       photos,
		hooks:        hooks,
		maxPhotoSize: maxPhotoSize,
		inboxBaseURL: inboxBaseURL,
		now:          time.Now,
	}
}

// extensions maps accepted upload content types to file extensions.
var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

// UploadRequest carries one photo upload through intake.
type UploadRequest struct {
	Country     string
	StationID   string
	ContentType string
	Title       string // proposed title when no station is referenced
	Lat         *float64
	Lon         *float64
	Comment     string
	Active      *bool // proposal hint, only used for new stations
	ClientInfo  string
	Body        io.Reader
}

// UploadPhoto validates and records a photo upload as a pending entry.
// Validation failures return before anything is written; the conflict
// flag is computed against the world before the new entry exists, so an
// upload never conflicts with itself.
func (s *Service) UploadPhoto(ctx context.Context, req *UploadRequest, user models.User) models.InboxResponse {
	if !user.EmailVerified {
		return models.InboxResponse{State: models.StateUnauthorized, Message: "email not verified"}
	}

	var station *models.Station
	if req.Country != "" && req.StationID != "" {
		var err error
		station, err = s.stations.FindByKey(ctx, models.StationKey{Country: req.Country, StationID: req.StationID})
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return errorResponse(err)
		}
	}

	var coords models.Coordinates
	if station == nil {
		if req.Title == "" || req.Lat == nil || req.Lon == nil {
			return models.InboxResponse{State: models.StateNotEnoughData, Message: "station too far and title, latitude and longitude missing"}
		}
		coords = models.Coordinates{Lat: *req.Lat, Lon: *req.Lon}
		if !coords.IsValid() {
			return models.InboxResponse{State: models.StateLatLonOutOfRange, Message: fmt.Sprintf("latitude and/or longitude out of range: lat=%f, lon=%f", coords.Lat, coords.Lon)}
		}
	}

	extension, ok := extensions[req.ContentType]
	if !ok {
		return models.InboxResponse{State: models.StateUnsupportedContentType, Message: "unsupported content type: " + req.ContentType}
	}

	conflict, err := s.detectConflict(ctx, 0, station, coords)
	if err != nil {
		return errorResponse(err)
	}

	entry := &models.InboxEntry{
		Title:               req.Title,
		Coordinates:         coords,
		Photographer:        user.ID,
		PhotographerName:    user.Name,
		PhotographerLicense: user.License,
		Extension:           extension,
		Comment:             req.Comment,
		CreatedAt:           s.now(),
	}
	if station != nil {
		entry.Key = station.Key
	} else {
		entry.Active = req.Active
	}

	id, err := s.entries.InsertEntry(ctx, entry)
	if err != nil {
		return errorResponse(err)
	}
	entry.ID = id

	filename := entry.Filename()
	crc, err := s.photos.StoreUpload(req.Body, filename)
	if errors.Is(err, storage.ErrPhotoTooLarge) {
		if delErr := s.entries.DeleteEntry(ctx, id); delErr != nil {
			slog.Error("failed to clean up oversized upload entry", "id", id, "error", delErr)
		}
		return models.InboxResponse{State: models.StatePhotoTooLarge, Message: fmt.Sprintf("photo too large, max %d bytes allowed", s.maxPhotoSize)}
	}
	if err != nil {
		return errorResponse(err)
	}
	if err := s.entries.UpdateChecksum(ctx, id, crc); err != nil {
		return errorResponse(err)
	}

	s.hooks.NotifyMonitor(uploadSummary(entry, station, req.ClientInfo, conflict), s.photos.UploadPath(filename))

	state := models.StateReview
	if conflict {
		state = models.StateConflict
	}
	return models.InboxResponse{
		State:    state,
		ID:       id,
		Filename: filename,
		InboxURL: s.inboxBaseURL + "/" + filename,
		Checksum: crc,
	}
}

// ReportProblem records a problem report for an existing station.
// Problem reports are never flagged as conflicts at intake.
func (s *Service) ReportProblem(ctx context.Context, report models.ProblemReport, user models.User, clientInfo string) models.InboxResponse {
	if !user.EmailVerified {
		return models.InboxResponse{State: models.StateUnauthorized, Message: "email not verified"}
	}

	station, err := s.stations.FindByKey(ctx, report.Key)
	if errors.Is(err, repository.ErrNotFound) {
		return models.InboxResponse{State: models.StateNotEnoughData, Message: "Station not found"}
	}
	if err != nil {
		return errorResponse(err)
	}
	if isBlank(report.Comment) {
		return models.InboxResponse{State: models.StateNotEnoughData, Message: "Comment is mandatory"}
	}
	if report.Type == "" {
		return models.InboxResponse{State: models.StateNotEnoughData, Message: "Problem type is mandatory"}
	}

	entry := &models.InboxEntry{
		Key:                 station.Key,
		Title:               station.Title,
		Coordinates:         report.Coordinates,
		Photographer:        user.ID,
		PhotographerName:    user.Name,
		PhotographerLicense: user.License,
		Comment:             report.Comment,
		ProblemType:         report.Type,
		CreatedAt:           s.now(),
	}
	id, err := s.entries.InsertEntry(ctx, entry)
	if err != nil {
		return errorResponse(err)
	}
	entry.ID = id

	s.hooks.NotifyMonitor(fmt.Sprintf("New problem report for %s - %s:%s\n%s: %s\nvia %s",
		station.Title, station.Key.Country, station.Key.StationID, report.Type, report.Comment, clientInfo), "")

	return models.InboxResponse{State: models.StateReview, ID: id}
}

func uploadSummary(entry *models.InboxEntry, station *models.Station, clientInfo string, conflict bool) string {
	var text string
	if station != nil {
		text = fmt.Sprintf("New photo upload for %s - %s:%s", station.Title, station.Key.Country, station.Key.StationID)
	} else {
		text = fmt.Sprintf("Photo upload for missing station %s at https://map.railway-stations.org/index.php?mlat=%f&mlon=%f",
			entry.Title, entry.Coordinates.Lat, entry.Coordinates.Lon)
	}
	if entry.Comment != "" {
		text += "\n" + entry.Comment
	}
	text += "\nvia " + clientInfo
	if conflict {
		text += " (possible duplicate!)"
	}
	return text
}

func errorResponse(err error) models.InboxResponse {
	slog.Error("inbox operation failed", "error", err)
	return models.InboxResponse{State: models.StateError, Message: "internal error"}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
