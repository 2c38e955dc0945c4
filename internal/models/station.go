package models

import "time"

// StationKey identifies a station. It is immutable for the lifetime of
// the station: commands may rename or move a station but never re-key it.
type StationKey struct {
	Country   string // lowercase ISO-3166 alpha-2, e.g. "de"
	StationID string // operator-assigned id, e.g. "8009"
}

func (k StationKey) IsSet() bool {
	return k.Country != "" && k.StationID != ""
}

func (k StationKey) String() string {
	return k.Country + "/" + k.StationID
}

type Station struct {
	Key         StationKey
	Title       string
	Coordinates Coordinates
	DS100       string // German operator abbreviation, optional
	Active      bool
	Photo       *Photo // at most one photo per station
}

func (s *Station) HasPhoto() bool {
	return s != nil && s.Photo != nil
}

// Photo is the single canonical photo of a station. It is created or
// replaced only by an import command.
type Photo struct {
	ID           int64
	Key          StationKey
	Photographer string
	License      License
	URLPath      string // e.g. "/de/8009.jpg"
	CreatedAt    time.Time
}
