package models

import (
	"fmt"
	"time"
)

type ProblemReportType string

const (
	ProblemWrongLocation ProblemReportType = "WRONG_LOCATION"
	ProblemWrongName     ProblemReportType = "WRONG_NAME"
	ProblemWrongPhoto    ProblemReportType = "WRONG_PHOTO"
	ProblemPhotoOutdated ProblemReportType = "PHOTO_OUTDATED"
	ProblemStationActive ProblemReportType = "STATION_ACTIVE"
	ProblemStationGone   ProblemReportType = "STATION_INACTIVE"
	ProblemOther         ProblemReportType = "OTHER"
)

// InboxEntry is a pending submission awaiting an admin decision: either
// a photo upload or a problem report, never both. Entries are
// append-only; resolving one flips Done exactly once and never back.
type InboxEntry struct {
	ID                  int64
	Key                 StationKey // zero value: new-station proposal
	Title               string     // proposed title for new-station proposals
	Coordinates         Coordinates
	Active              *bool // proposed active flag, new-station proposals only
	Photographer        int64 // user id
	PhotographerName    string
	PhotographerLicense License
	Extension           string // photo uploads only
	Checksum            uint32 // crc32 of the stored upload, photo uploads only
	Comment             string
	ProblemType         ProblemReportType // empty for photo uploads
	Done                bool
	RejectReason        *string // non-nil iff the entry was rejected
	Notified            bool    // completion notification sent (consumed externally)
	CreatedAt           time.Time
}

func (e *InboxEntry) IsProblemReport() bool {
	return e.ProblemType != ""
}

func (e *InboxEntry) IsPhotoUpload() bool {
	return !e.IsProblemReport()
}

// Filename is the deterministic name of the stored upload.
func (e *InboxEntry) Filename() string {
	if e.Extension == "" {
		return ""
	}
	return fmt.Sprintf("%d.%s", e.ID, e.Extension)
}

// ProblemReport is the volatile intake payload for reportProblem; it is
// consumed to build an InboxEntry and never persisted on its own.
type ProblemReport struct {
	Key         StationKey
	Title       string
	PhotoID     int64
	Type        ProblemReportType
	Comment     string
	Coordinates Coordinates
}

type ResponseState string

const (
	StateReview                 ResponseState = "REVIEW"
	StateConflict               ResponseState = "CONFLICT"
	StateAccepted               ResponseState = "ACCEPTED"
	StateRejected               ResponseState = "REJECTED"
	StateUnknown                ResponseState = "UNKNOWN"
	StateUnauthorized           ResponseState = "UNAUTHORIZED"
	StateNotEnoughData          ResponseState = "NOT_ENOUGH_DATA"
	StateLatLonOutOfRange       ResponseState = "LAT_LON_OUT_OF_RANGE"
	StateUnsupportedContentType ResponseState = "UNSUPPORTED_CONTENT_TYPE"
	StatePhotoTooLarge          ResponseState = "PHOTO_TOO_LARGE"
	StateError                  ResponseState = "ERROR"
)

// InboxResponse is the intake outcome returned to the uploader.
type InboxResponse struct {
	State    ResponseState
	Message  string
	ID       int64
	Filename string
	InboxURL string
	Checksum uint32
}

// StateQuery is one element of a queryStatus request. The caller fills
// either ID or the (Key, photographer-implied) pair; the service fills
// the rest and derives State.
type StateQuery struct {
	ID           int64
	Key          StationKey
	Coordinates  Coordinates
	State        ResponseState
	RejectReason string
	Filename     string
	InboxURL     string
	Checksum     uint32
}

// InboxListItem is an admin inbox row with live annotations.
type InboxListItem struct {
	Entry              InboxEntry
	Processed          bool // external preprocessing finished
	CoordinateConflict bool // station proposals with non-zero coords only
	PendingForSameKey  int  // other open entries on the same station
}
