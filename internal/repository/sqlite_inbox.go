package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/railwaystations/inbox-api/internal/models"
)

const inboxColumns = `id, country, station_id, title, lat, lon, active,
	photographer_id, photographer_name, photographer_license, extension, crc32,
	comment, problem_type, done, reject_reason, notified, created_at`

func (s *SQLiteDB) InsertEntry(ctx context.Context, e *models.InboxEntry) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO inbox (country, station_id, title, lat, lon, active,
			photographer_id, photographer_name, photographer_license, extension,
			crc32, comment, problem_type, done, notified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?)`,
		e.Key.Country, e.Key.StationID, e.Title,
		e.Coordinates.Lat, e.Coordinates.Lon, e.Active, e.Photographer,
		e.PhotographerName, string(e.PhotographerLicense),
		e.Extension, e.Checksum, e.Comment, string(e.ProblemType), e.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("error inserting inbox entry: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteDB) FindEntryByID(ctx context.Context, id int64) (*models.InboxEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+inboxColumns+` FROM inbox WHERE id = ?`, id)
	return scanEntry(row)
}

func (s *SQLiteDB) FindNewestPendingByUser(ctx context.Context, key models.StationKey, photographer int64) (*models.InboxEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+inboxColumns+` FROM inbox
		WHERE country = ? AND station_id = ? AND photographer_id = ? AND done = 0
		ORDER BY id DESC LIMIT 1`,
		key.Country, key.StationID, photographer)
	return scanEntry(row)
}

func (s *SQLiteDB) ListPending(ctx context.Context) ([]models.InboxEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+inboxColumns+` FROM inbox WHERE done = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error listing pending entries: %w", err)
	}
	defer rows.Close()

	var entries []models.InboxEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *SQLiteDB) CountPendingForStation(ctx context.Context, excludeID int64, key models.StationKey) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM inbox
		WHERE done = 0 AND id <> ? AND country = ? AND station_id = ?`,
		excludeID, key.Country, key.StationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting pending entries for %s: %w", key, err)
	}
	return count, nil
}

func (s *SQLiteDB) CountPendingNear(ctx context.Context, excludeID int64, coords models.Coordinates) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM inbox
		WHERE done = 0 AND id <> ?3 AND `+proximitySQL,
		coords.Lon, coords.Lat, excludeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting pending entries near %v: %w", coords, err)
	}
	return count, nil
}

// MarkDone flips done 0->1. The WHERE clause is the precondition: a
// concurrent command that already resolved the entry leaves zero rows
// for this one, so exactly one caller wins.
func (s *SQLiteDB) MarkDone(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE inbox SET done = 1 WHERE id = ? AND done = 0`, id)
	if err != nil {
		return fmt.Errorf("error marking entry %d done: %w", id, err)
	}
	return s.entryTransitioned(ctx, res, id)
}

func (s *SQLiteDB) MarkRejected(ctx context.Context, id int64, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE inbox SET done = 1, reject_reason = ? WHERE id = ? AND done = 0`,
		reason, id)
	if err != nil {
		return fmt.Errorf("error rejecting entry %d: %w", id, err)
	}
	return s.entryTransitioned(ctx, res, id)
}

func (s *SQLiteDB) entryTransitioned(ctx context.Context, res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := s.FindEntryByID(ctx, id); errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return ErrAlreadyDone
}

func (s *SQLiteDB) UpdateChecksum(ctx context.Context, id int64, crc uint32) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE inbox SET crc32 = ? WHERE id = ?`, crc, id)
	if err != nil {
		return fmt.Errorf("error updating checksum of entry %d: %w", id, err)
	}
	return oneRowAffected(res)
}

// DeleteEntry removes an entry that never became part of the audit
// trail, such as an upload aborted by the size limit.
func (s *SQLiteDB) DeleteEntry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM inbox WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting entry %d: %w", id, err)
	}
	return oneRowAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.InboxEntry, error) {
	var (
		e            models.InboxEntry
		active       sql.NullBool
		license      string
		problemType  string
		rejectReason sql.NullString
	)
	err := row.Scan(&e.ID, &e.Key.Country, &e.Key.StationID, &e.Title,
		&e.Coordinates.Lat, &e.Coordinates.Lon, &active, &e.Photographer,
		&e.PhotographerName, &license,
		&e.Extension, &e.Checksum, &e.Comment, &problemType,
		&e.Done, &rejectReason, &e.Notified, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning inbox entry: %w", err)
	}
	e.PhotographerLicense = models.License(license)
	e.ProblemType = models.ProblemReportType(problemType)
	if active.Valid {
		e.Active = &active.Bool
	}
	if rejectReason.Valid {
		e.RejectReason = &rejectReason.String
	}
	return &e, nil
}
