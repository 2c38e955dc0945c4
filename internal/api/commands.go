package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/railwaystations/inbox-api/internal/inbox"
	"github.com/railwaystations/inbox-api/internal/models"
)

type commandRequest struct {
	ID               int64    `json:"id"`
	Command          string   `json:"command"`
	RejectReason     string   `json:"rejectReason,omitempty"`
	Country          string   `json:"countryCode,omitempty"`
	StationID        string   `json:"stationId,omitempty"`
	Title            string   `json:"title,omitempty"`
	DS100            string   `json:"ds100,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lon              *float64 `json:"lon,omitempty"`
	Active           *bool    `json:"active,omitempty"`
	CreateStation    bool     `json:"createStation,omitempty"`
	ConflictOverride bool     `json:"conflictOverride,omitempty"`
}

func (r commandRequest) toCommand() (inbox.Command, bool) {
	base := inbox.CommandBase{Entry: r.ID}
	var coords *models.Coordinates
	if r.Lat != nil && r.Lon != nil {
		coords = &models.Coordinates{Lat: *r.Lat, Lon: *r.Lon}
	}

	switch r.Command {
	case "REJECT":
		return inbox.Reject{CommandBase: base, Reason: r.RejectReason}, true
	case "IMPORT":
		return inbox.Import{
			CommandBase:      base,
			CreateStation:    r.CreateStation,
			Country:          r.Country,
			StationID:        r.StationID,
			Title:            r.Title,
			DS100:            r.DS100,
			Coordinates:      coords,
			Active:           r.Active,
			ConflictOverride: r.ConflictOverride,
		}, true
	case "ACTIVATE_STATION":
		return inbox.SetStationActive{CommandBase: base, Active: true}, true
	case "DEACTIVATE_STATION":
		return inbox.SetStationActive{CommandBase: base, Active: false}, true
	case "DELETE_STATION":
		return inbox.DeleteStation{CommandBase: base}, true
	case "DELETE_PHOTO":
		return inbox.DeletePhoto{CommandBase: base}, true
	case "MARK_SOLVED":
		return inbox.MarkSolved{CommandBase: base}, true
	case "CHANGE_NAME":
		return inbox.ChangeName{CommandBase: base, Title: r.Title}, true
	case "UPDATE_LOCATION":
		return inbox.UpdateLocation{CommandBase: base, Coordinates: coords}, true
	default:
		return nil, false
	}
}

// commandErrors are precondition violations reported back to the admin
// as bad requests; anything else is an internal failure.
var commandErrors = []error{
	inbox.ErrNoPendingEntry,
	inbox.ErrStationNotFound,
	inbox.ErrCountryUnknown,
	inbox.ErrBlankTitle,
	inbox.ErrBlankStationID,
	inbox.ErrInvalidCoordinates,
	inbox.ErrPhotoExists,
	inbox.ErrUploadConflict,
	inbox.ErrNotAPhotoUpload,
}

func (h *Handler) processCommand(c *gin.Context) {
	user, ok := userFromHeaders(c)
	if !ok || !user.Admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}

	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	cmd, ok := req.toCommand()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown command: " + req.Command})
		return
	}

	if err := h.service.ProcessCommand(c.Request.Context(), cmd); err != nil {
		for _, known := range commandErrors {
			if errors.Is(err, known) {
				c.JSON(http.StatusBadRequest, gin.H{"error": known.Error()})
				return
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "command failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
