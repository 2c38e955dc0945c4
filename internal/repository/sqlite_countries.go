package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/railwaystations/inbox-api/internal/models"
)

func (s *SQLiteDB) FindCountry(ctx context.Context, code string) (*models.Country, error) {
	var (
		c        models.Country
		override string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT code, name, override_license, active FROM countries WHERE code = ?`,
		code).Scan(&c.Code, &c.Name, &override, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error finding country %q: %w", code, err)
	}
	c.OverrideLicense = models.License(override)
	return &c, nil
}

// SeedCountries inserts the country directory if it is empty. France
// carries an override license because freedom of panorama does not
// cover non-commercial reuse there.
func (s *SQLiteDB) SeedCountries(ctx context.Context) error {
	countries := []models.Country{
		{Code: "de", Name: "Deutschland", Active: true},
		{Code: "at", Name: "Österreich", Active: true},
		{Code: "ch", Name: "Schweiz", Active: true},
		{Code: "fr", Name: "France", OverrideLicense: models.LicenseCCBYNC40, Active: true},
		{Code: "nl", Name: "Nederland", Active: true},
		{Code: "fi", Name: "Suomi", Active: true},
	}
	for _, c := range countries {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO countries (code, name, override_license, active)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (code) DO NOTHING`,
			c.Code, c.Name, string(c.OverrideLicense), c.Active)
		if err != nil {
			return fmt.Errorf("error seeding country %q: %w", c.Code, err)
		}
	}
	return nil
}
