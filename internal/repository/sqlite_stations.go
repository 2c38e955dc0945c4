package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/railwaystations/inbox-api/internal/models"
)

func (s *SQLiteDB) FindByKey(ctx context.Context, key models.StationKey) (*models.Station, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.title, s.lat, s.lon, s.ds100, s.active,
		       p.id, p.photographer, p.license, p.url_path, p.created_at
		FROM stations s
		LEFT JOIN photos p ON p.country = s.country AND p.station_id = s.station_id
		WHERE s.country = ? AND s.station_id = ?`,
		key.Country, key.StationID)

	var (
		st        models.Station
		photoID   sql.NullInt64
		photogr   sql.NullString
		license   sql.NullString
		urlPath   sql.NullString
		createdAt sql.NullTime
	)
	st.Key = key
	err := row.Scan(&st.Title, &st.Coordinates.Lat, &st.Coordinates.Lon, &st.DS100, &st.Active,
		&photoID, &photogr, &license, &urlPath, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding station %s: %w", key, err)
	}

	if photoID.Valid {
		st.Photo = &models.Photo{
			ID:           photoID.Int64,
			Key:          key,
			Photographer: photogr.String,
			License:      models.License(license.String),
			URLPath:      urlPath.String,
			CreatedAt:    createdAt.Time,
		}
	}
	return &st, nil
}

func (s *SQLiteDB) InsertStation(ctx context.Context, st *models.Station) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stations (country, station_id, title, lat, lon, ds100, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.Key.Country, st.Key.StationID, st.Title,
		st.Coordinates.Lat, st.Coordinates.Lon, st.DS100, st.Active)
	if err != nil {
		return fmt.Errorf("error inserting station %s: %w", st.Key, err)
	}
	return nil
}

func (s *SQLiteDB) UpdateActive(ctx context.Context, key models.StationKey, active bool) error {
	return s.updateStation(ctx, key, "active", active)
}

func (s *SQLiteDB) UpdateTitle(ctx context.Context, key models.StationKey, title string) error {
	return s.updateStation(ctx, key, "title", title)
}

func (s *SQLiteDB) UpdateLocation(ctx context.Context, key models.StationKey, coords models.Coordinates) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE stations SET lat = ?, lon = ? WHERE country = ? AND station_id = ?`,
		coords.Lat, coords.Lon, key.Country, key.StationID)
	if err != nil {
		return fmt.Errorf("error updating location of %s: %w", key, err)
	}
	return oneRowAffected(res)
}

func (s *SQLiteDB) updateStation(ctx context.Context, key models.StationKey, column string, value any) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE stations SET %s = ? WHERE country = ? AND station_id = ?`, column),
		value, key.Country, key.StationID)
	if err != nil {
		return fmt.Errorf("error updating %s of %s: %w", column, key, err)
	}
	return oneRowAffected(res)
}

func (s *SQLiteDB) DeleteStation(ctx context.Context, key models.StationKey) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM stations WHERE country = ? AND station_id = ?`,
		key.Country, key.StationID)
	if err != nil {
		return fmt.Errorf("error deleting station %s: %w", key, err)
	}
	return oneRowAffected(res)
}

func (s *SQLiteDB) CountNearby(ctx context.Context, coords models.Coordinates) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stations WHERE `+proximitySQL,
		coords.Lon, coords.Lat).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting nearby stations: %w", err)
	}
	return count, nil
}

func (s *SQLiteDB) FindNearby(ctx context.Context, coords models.Coordinates, maxDistanceKm float64, limit int) ([]models.Station, error) {
	// Coarse bounding box in SQL, exact Haversine in Go.
	dLat := maxDistanceKm / 111.3
	dLon := maxDistanceKm / 71.5
	rows, err := s.db.QueryContext(ctx, `
		SELECT country, station_id, title, lat, lon, ds100, active
		FROM stations
		WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`,
		coords.Lat-dLat, coords.Lat+dLat, coords.Lon-dLon, coords.Lon+dLon)
	if err != nil {
		return nil, fmt.Errorf("error querying nearby stations: %w", err)
	}
	defer rows.Close()

	var result []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.Key.Country, &st.Key.StationID, &st.Title,
			&st.Coordinates.Lat, &st.Coordinates.Lon, &st.DS100, &st.Active); err != nil {
			return nil, err
		}
		if coords.DistanceTo(st.Coordinates) <= maxDistanceKm {
			result = append(result, st)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return coords.DistanceTo(result[i].Coordinates) < coords.DistanceTo(result[j].Coordinates)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *SQLiteDB) InsertPhoto(ctx context.Context, p *models.Photo) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO photos (country, station_id, photographer, license, url_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Key.Country, p.Key.StationID, p.Photographer, string(p.License), p.URLPath, p.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("error inserting photo for %s: %w", p.Key, err)
	}
	return res.LastInsertId()
}

func (s *SQLiteDB) UpdatePhoto(ctx context.Context, p *models.Photo) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE photos SET photographer = ?, license = ?, url_path = ?, created_at = ?
		WHERE country = ? AND station_id = ?`,
		p.Photographer, string(p.License), p.URLPath, p.CreatedAt,
		p.Key.Country, p.Key.StationID)
	if err != nil {
		return fmt.Errorf("error updating photo for %s: %w", p.Key, err)
	}
	return oneRowAffected(res)
}

func (s *SQLiteDB) DeletePhoto(ctx context.Context, key models.StationKey) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM photos WHERE country = ? AND station_id = ?`,
		key.Country, key.StationID)
	if err != nil {
		return fmt.Errorf("error deleting photo for %s: %w", key, err)
	}
	return oneRowAffected(res)
}

func oneRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
