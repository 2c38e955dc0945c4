package inbox

import (
	"context"

	"github.com/railwaystations/inbox-api/internal/models"
)

// hasStationConflict reports whether the station already has a photo or
// another open entry targets the same key. excludeID keeps an entry
// from conflicting with itself when it is re-checked after creation.
func (s *Service) hasStationConflict(ctx context.Context, excludeID int64, station *models.Station) (bool, error) {
	if station == nil {
		return false, nil
	}
	if station.HasPhoto() {
		return true, nil
	}
	count, err := s.entries.CountPendingForStation(ctx, excludeID, station.Key)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// hasCoordinateConflict reports whether another open entry or a
// canonical station lies within the proximity threshold. Absent or
// zero coordinates never conflict.
func (s *Service) hasCoordinateConflict(ctx context.Context, excludeID int64, coords models.Coordinates) (bool, error) {
	if !coords.IsValid() || coords.HasZeroCoords() {
		return false, nil
	}
	pending, err := s.entries.CountPendingNear(ctx, excludeID, coords)
	if err != nil {
		return false, err
	}
	if pending > 0 {
		return true, nil
	}
	stations, err := s.stations.CountNearby(ctx, coords)
	if err != nil {
		return false, err
	}
	return stations > 0, nil
}

func (s *Service) detectConflict(ctx context.Context, excludeID int64, station *models.Station, coords models.Coordinates) (bool, error) {
	conflict, err := s.hasStationConflict(ctx, excludeID, station)
	if err != nil || conflict {
		return conflict, err
	}
	return s.hasCoordinateConflict(ctx, excludeID, coords)
}
