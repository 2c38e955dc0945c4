package inbox

import (
	"context"
	"errors"

	"github.com/railwaystations/inbox-api/internal/models"
	"github.com/railwaystations/inbox-api/internal/repository"
)

// QueryStatus reconciles the caller's submissions with the current
// state of the world. Conflicts are recomputed live on each call, so a
// REVIEW entry can turn CONFLICT when a competing upload arrives later.
// Queries that match nothing, or an entry of another photographer, are
// left in StateUnknown.
func (s *Service) QueryStatus(ctx context.Context, user models.User, queries []*models.StateQuery) error {
	for _, q := range queries {
		q.State = models.StateUnknown

		entry, err := s.resolveQueryEntry(ctx, user, q)
		if err != nil {
			return err
		}
		if entry == nil || entry.Photographer != user.ID {
			continue
		}

		q.ID = entry.ID
		q.Key = entry.Key
		q.Coordinates = entry.Coordinates
		q.Filename = entry.Filename()
		q.Checksum = entry.Checksum
		if q.Filename != "" {
			q.InboxURL = s.inboxBaseURL + "/" + q.Filename
		}
		if entry.RejectReason != nil {
			q.RejectReason = *entry.RejectReason
		}

		switch {
		case entry.Done && entry.RejectReason == nil:
			q.State = models.StateAccepted
		case entry.Done:
			q.State = models.StateRejected
		default:
			conflict, err := s.entryConflict(ctx, entry)
			if err != nil {
				return err
			}
			if conflict {
				q.State = models.StateConflict
			} else {
				q.State = models.StateReview
			}
		}
	}
	return nil
}

func (s *Service) resolveQueryEntry(ctx context.Context, user models.User, q *models.StateQuery) (*models.InboxEntry, error) {
	var (
		entry *models.InboxEntry
		err   error
	)
	if q.ID > 0 {
		entry, err = s.entries.FindEntryByID(ctx, q.ID)
	} else if q.Key.IsSet() {
		entry, err = s.entries.FindNewestPendingByUser(ctx, q.Key, user.ID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return entry, err
}

// entryConflict re-evaluates both conflict predicates for a live entry,
// excluding the entry itself.
func (s *Service) entryConflict(ctx context.Context, entry *models.InboxEntry) (bool, error) {
	var station *models.Station
	if entry.Key.IsSet() {
		var err error
		station, err = s.stations.FindByKey(ctx, entry.Key)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
	}
	return s.detectConflict(ctx, entry.ID, station, entry.Coordinates)
}

// ListAdminInbox returns all open entries annotated with live state:
// whether external preprocessing has finished and, for new-station
// proposals with usable coordinates, whether they collide with the
// current world.
func (s *Service) ListAdminInbox(ctx context.Context) ([]models.InboxListItem, error) {
	entries, err := s.entries.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.InboxListItem, 0, len(entries))
	for i := range entries {
		entry := entries[i]
		item := models.InboxListItem{Entry: entry}
		if entry.IsPhotoUpload() {
			item.Processed = s.photos.IsProcessed(entry.Filename())
		}
		if !entry.Key.IsSet() && !entry.Coordinates.HasZeroCoords() {
			item.CoordinateConflict, err = s.hasCoordinateConflict(ctx, entry.ID, entry.Coordinates)
			if err != nil {
				return nil, err
			}
		}
		if entry.Key.IsSet() {
			item.PendingForSameKey, err = s.entries.CountPendingForStation(ctx, entry.ID, entry.Key)
			if err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	return items, nil
}
