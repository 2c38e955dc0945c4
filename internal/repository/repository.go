package repository

import (
	"context"
	"errors"

	"github.com/railwaystations/inbox-api/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrAlreadyDone is returned when a done-flag transition finds the
// entry already resolved. The conditional UPDATE that produces it is
// what guarantees at most one command resolves a given entry.
var ErrAlreadyDone = errors.New("entry already done")

type StationRepository interface {
	FindByKey(ctx context.Context, key models.StationKey) (*models.Station, error)
	InsertStation(ctx context.Context, s *models.Station) error
	UpdateActive(ctx context.Context, key models.StationKey, active bool) error
	UpdateTitle(ctx context.Context, key models.StationKey, title string) error
	UpdateLocation(ctx context.Context, key models.StationKey, coords models.Coordinates) error
	DeleteStation(ctx context.Context, key models.StationKey) error
	CountNearby(ctx context.Context, coords models.Coordinates) (int, error)
	FindNearby(ctx context.Context, coords models.Coordinates, maxDistanceKm float64, limit int) ([]models.Station, error)

	InsertPhoto(ctx context.Context, p *models.Photo) (int64, error)
	UpdatePhoto(ctx context.Context, p *models.Photo) error
	DeletePhoto(ctx context.Context, key models.StationKey) error
}

type InboxRepository interface {
	InsertEntry(ctx context.Context, e *models.InboxEntry) (int64, error)
	FindEntryByID(ctx context.Context, id int64) (*models.InboxEntry, error)
	// FindNewestPendingByUser resolves the newest not-done entry the
	// given photographer has for a station key.
	FindNewestPendingByUser(ctx context.Context, key models.StationKey, photographer int64) (*models.InboxEntry, error)
	ListPending(ctx context.Context) ([]models.InboxEntry, error)
	// CountPendingForStation counts not-done entries on the key,
	// excluding excludeID so an entry never conflicts with itself.
	CountPendingForStation(ctx context.Context, excludeID int64, key models.StationKey) (int, error)
	// CountPendingNear counts not-done entries within the proximity
	// threshold of coords, excluding excludeID.
	CountPendingNear(ctx context.Context, excludeID int64, coords models.Coordinates) (int, error)
	MarkDone(ctx context.Context, id int64) error
	MarkRejected(ctx context.Context, id int64, reason string) error
	UpdateChecksum(ctx context.Context, id int64, crc uint32) error
	DeleteEntry(ctx context.Context, id int64) error
}

type CountryRepository interface {
	FindCountry(ctx context.Context, code string) (*models.Country, error)
}
