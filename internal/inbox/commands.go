package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/railwaystations/inbox-api/internal/models"
	"github.com/railwaystations/inbox-api/internal/repository"
)

// Command failures that leave the entry untouched so the admin can
// retry with corrected input.
var (
	ErrNoPendingEntry     = errors.New("no pending inbox entry found")
	ErrStationNotFound    = errors.New("station not found")
	ErrCountryUnknown     = errors.New("country unknown")
	ErrBlankTitle         = errors.New("new title must not be blank")
	ErrBlankStationID     = errors.New("station id must not be blank")
	ErrInvalidCoordinates = errors.New("no valid coordinates provided")
	ErrPhotoExists        = errors.New("station already has a photo")
	ErrUploadConflict     = errors.New("conflict with another upload")
	ErrNotAPhotoUpload    = errors.New("entry is not a photo upload")
)

// Command is one administrative action on a pending entry. ProcessCommand
// matches the concrete type exhaustively.
type Command interface {
	EntryID() int64
	isCommand()
}

// CommandBase carries the target entry id; every variant embeds it.
type CommandBase struct {
	Entry int64
}

func (c CommandBase) EntryID() int64 { return c.Entry }
func (CommandBase) isCommand()       {}

type Reject struct {
	CommandBase
	Reason string
}

type Import struct {
	CommandBase
	// CreateStation allows importing a new-station proposal by
	// creating the station from the fields below.
	CreateStation    bool
	Country          string
	StationID        string
	Title            string
	DS100            string
	Coordinates      *models.Coordinates
	// Active overrides the uploader's hint; nil keeps it.
	Active           *bool
	ConflictOverride bool
}

type SetStationActive struct {
	CommandBase
	Active bool
}

type DeleteStation struct{ CommandBase }

type DeletePhoto struct{ CommandBase }

type MarkSolved struct{ CommandBase }

type ChangeName struct {
	CommandBase
	Title string
}

type UpdateLocation struct {
	CommandBase
	Coordinates *models.Coordinates
}

// ProcessCommand applies one admin command to a pending entry. The
// entry must exist and be open; resolving it is the single transition
// out of not-done and happens at most once per entry.
func (s *Service) ProcessCommand(ctx context.Context, cmd Command) error {
	entry, err := s.entries.FindEntryByID(ctx, cmd.EntryID())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoPendingEntry
	}
	if err != nil {
		return err
	}
	if entry.Done {
		return ErrNoPendingEntry
	}

	switch c := cmd.(type) {
	case Reject:
		return s.rejectEntry(ctx, entry, c)
	case Import:
		return s.importPhoto(ctx, entry, c)
	case SetStationActive:
		return s.withStation(ctx, entry, func(st *models.Station) error {
			return s.stations.UpdateActive(ctx, st.Key, c.Active)
		})
	case DeleteStation:
		return s.withStation(ctx, entry, func(st *models.Station) error {
			if err := s.stations.DeletePhoto(ctx, st.Key); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			return s.stations.DeleteStation(ctx, st.Key)
		})
	case DeletePhoto:
		return s.withStation(ctx, entry, func(st *models.Station) error {
			if err := s.stations.DeletePhoto(ctx, st.Key); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			return nil
		})
	case MarkSolved:
		return s.withStation(ctx, entry, func(*models.Station) error {
			return nil
		})
	case ChangeName:
		if isBlank(c.Title) {
			return ErrBlankTitle
		}
		return s.withStation(ctx, entry, func(st *models.Station) error {
			return s.stations.UpdateTitle(ctx, st.Key, c.Title)
		})
	case UpdateLocation:
		coords := entry.Coordinates
		if c.Coordinates != nil {
			coords = *c.Coordinates
		}
		if !coords.IsValid() {
			return ErrInvalidCoordinates
		}
		return s.withStation(ctx, entry, func(st *models.Station) error {
			return s.stations.UpdateLocation(ctx, st.Key, coords)
		})
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}

// withStation resolves the entry's station, applies mutate and marks
// the entry done. Mutation failures leave the entry open.
func (s *Service) withStation(ctx context.Context, entry *models.InboxEntry, mutate func(*models.Station) error) error {
	station, err := s.stations.FindByKey(ctx, entry.Key)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrStationNotFound
	}
	if err != nil {
		return err
	}
	if err := mutate(station); err != nil {
		return err
	}
	return s.markDone(ctx, entry.ID)
}

// markDone resolves the entry. Losing the done transition to a
// concurrent command reports the same error as the precondition check.
func (s *Service) markDone(ctx context.Context, id int64) error {
	err := s.entries.MarkDone(ctx, id)
	if errors.Is(err, repository.ErrAlreadyDone) || errors.Is(err, repository.ErrNotFound) {
		return ErrNoPendingEntry
	}
	return err
}

func (s *Service) rejectEntry(ctx context.Context, entry *models.InboxEntry, cmd Reject) error {
	if err := s.entries.MarkRejected(ctx, entry.ID, cmd.Reason); err != nil {
		if errors.Is(err, repository.ErrAlreadyDone) || errors.Is(err, repository.ErrNotFound) {
			return ErrNoPendingEntry
		}
		return err
	}
	if entry.IsPhotoUpload() {
		if err := s.photos.RejectPhoto(entry); err != nil {
			// The decision stands even if the file move fails.
			slog.Error("failed to move rejected photo", "id", entry.ID, "error", err)
		}
	}
	return nil
}

func (s *Service) importPhoto(ctx context.Context, entry *models.InboxEntry, cmd Import) error {
	if !entry.IsPhotoUpload() {
		return ErrNotAPhotoUpload
	}
	station, err := s.resolveImportTarget(ctx, entry, cmd)
	if err != nil {
		return err
	}
	if station == nil {
		station, err = s.createStation(ctx, entry, cmd)
		if err != nil {
			return err
		}
	} else {
		conflict, err := s.hasStationConflict(ctx, entry.ID, station)
		if err != nil {
			return err
		}
		if conflict && !cmd.ConflictOverride {
			if station.HasPhoto() {
				return ErrPhotoExists
			}
			return ErrUploadConflict
		}
	}

	country, err := s.countries.FindCountry(ctx, station.Key.Country)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCountryUnknown
	}
	if err != nil {
		return err
	}

	photo := &models.Photo{
		Key:          station.Key,
		Photographer: entry.PhotographerName,
		License:      EffectiveLicense(entry.PhotographerLicense, country),
		URLPath:      fmt.Sprintf("/%s/%s.%s", station.Key.Country, station.Key.StationID, entry.Extension),
		CreatedAt:    s.now(),
	}

	// Upsert by station key keeps a re-run after a failed file move
	// from creating a second photo row.
	var photoID int64
	if station.HasPhoto() {
		photo.ID = station.Photo.ID
		photoID = station.Photo.ID
		if err := s.stations.UpdatePhoto(ctx, photo); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	} else {
		photoID, err = s.stations.InsertPhoto(ctx, photo)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	}

	if err := s.photos.ImportPhoto(entry, station); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if err := s.markDone(ctx, entry.ID); err != nil {
		return err
	}

	station.Photo = photo
	s.hooks.AnnouncePhoto(station, entry, photoID, photo.URLPath)
	return nil
}

// resolveImportTarget finds the station the import applies to: the
// entry's own key first, then the command's key as an admin re-target.
func (s *Service) resolveImportTarget(ctx context.Context, entry *models.InboxEntry, cmd Import) (*models.Station, error) {
	if entry.Key.IsSet() {
		station, err := s.stations.FindByKey(ctx, entry.Key)
		if err == nil {
			return station, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	if cmd.Country != "" && cmd.StationID != "" {
		station, err := s.stations.FindByKey(ctx, models.StationKey{Country: cmd.Country, StationID: cmd.StationID})
		if err == nil {
			return station, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (s *Service) createStation(ctx context.Context, entry *models.InboxEntry, cmd Import) (*models.Station, error) {
	if !cmd.CreateStation || entry.Key.StationID != "" {
		return nil, ErrStationNotFound
	}
	if _, err := s.countries.FindCountry(ctx, cmd.Country); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCountryUnknown
		}
		return nil, err
	}
	if isBlank(cmd.StationID) {
		return nil, ErrBlankStationID
	}

	coords := entry.Coordinates
	if cmd.Coordinates != nil {
		coords = *cmd.Coordinates
	}
	conflict, err := s.hasCoordinateConflict(ctx, entry.ID, coords)
	if err != nil {
		return nil, err
	}
	if conflict && !cmd.ConflictOverride {
		return nil, ErrUploadConflict
	}
	if !coords.IsValid() {
		return nil, ErrInvalidCoordinates
	}

	title := entry.Title
	if cmd.Title != "" {
		title = cmd.Title
	}
	// New stations start inactive unless the uploader's hint or the
	// command says otherwise.
	active := false
	if entry.Active != nil {
		active = *entry.Active
	}
	if cmd.Active != nil {
		active = *cmd.Active
	}
	station := &models.Station{
		Key:         models.StationKey{Country: cmd.Country, StationID: cmd.StationID},
		Title:       title,
		Coordinates: coords,
		DS100:       cmd.DS100,
		Active:      active,
	}
	if err := s.stations.InsertStation(ctx, station); err != nil {
		return nil, err
	}
	return station, nil
}
