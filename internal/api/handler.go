// Package api is the thin HTTP adapter over the inbox engine. It only
// translates requests and responses; every decision lives in the inbox
// package. Authentication happens upstream: a trusted proxy injects
// the X-User-* headers.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/railwaystations/inbox-api/internal/inbox"
	"github.com/railwaystations/inbox-api/internal/models"
	"github.com/railwaystations/inbox-api/internal/repository"
)

type Handler struct {
	service  *inbox.Service
	stations repository.StationRepository
}

func NewHandler(service *inbox.Service, stations repository.StationRepository) *Handler {
	return &Handler{
		service:  service,
		stations: stations,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/stations/nearby", h.nearbyStations)
	r.POST("/photoUpload", h.photoUpload)
	r.POST("/reportProblem", h.reportProblem)
	r.POST("/userInbox", h.userInbox)
	r.GET("/adminInbox", h.adminInbox)
	r.POST("/adminInbox", h.processCommand)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// userFromHeaders builds the contributor identity from the headers the
// auth proxy sets. A missing id means the request never passed auth.
func userFromHeaders(c *gin.Context) (models.User, bool) {
	id, err := strconv.ParseInt(c.GetHeader("X-User-Id"), 10, 64)
	if err != nil || id <= 0 {
		return models.User{}, false
	}
	return models.User{
		ID:            id,
		Name:          c.GetHeader("X-User-Name"),
		License:       models.License(c.GetHeader("X-User-License")),
		EmailVerified: c.GetHeader("X-Email-Verified") == "true",
		Admin:         c.GetHeader("X-Admin") == "true",
	}, true
}

func (h *Handler) photoUpload(c *gin.Context) {
	user, ok := userFromHeaders(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	req := &inbox.UploadRequest{
		Country:     c.GetHeader("Country"),
		StationID:   c.GetHeader("Station-Id"),
		ContentType: c.ContentType(),
		Title:       c.GetHeader("Station-Title"),
		Comment:     c.GetHeader("Comment"),
		ClientInfo:  c.GetHeader("User-Agent"),
		Body:        c.Request.Body,
	}
	if lat, err := strconv.ParseFloat(c.GetHeader("Latitude"), 64); err == nil {
		req.Lat = &lat
	}
	if lon, err := strconv.ParseFloat(c.GetHeader("Longitude"), 64); err == nil {
		req.Lon = &lon
	}
	if active, err := strconv.ParseBool(c.GetHeader("Active")); err == nil {
		req.Active = &active
	}

	resp := h.service.UploadPhoto(c.Request.Context(), req, user)
	c.JSON(statusCode(resp.State), uploadResponse(resp))
}

type problemReportRequest struct {
	Country   string                   `json:"countryCode"`
	StationID string                   `json:"stationId"`
	Title     string                   `json:"title"`
	PhotoID   int64                    `json:"photoId"`
	Type      models.ProblemReportType `json:"type"`
	Comment   string                   `json:"comment"`
	Lat       float64                  `json:"lat"`
	Lon       float64                  `json:"lon"`
}

func (h *Handler) reportProblem(c *gin.Context) {
	user, ok := userFromHeaders(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req problemReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	report := models.ProblemReport{
		Key:         models.StationKey{Country: req.Country, StationID: req.StationID},
		Title:       req.Title,
		PhotoID:     req.PhotoID,
		Type:        req.Type,
		Comment:     req.Comment,
		Coordinates: models.Coordinates{Lat: req.Lat, Lon: req.Lon},
	}
	resp := h.service.ReportProblem(c.Request.Context(), report, user, c.GetHeader("User-Agent"))
	c.JSON(statusCode(resp.State), uploadResponse(resp))
}

type stateQueryJSON struct {
	ID           int64   `json:"id,omitempty"`
	Country      string  `json:"countryCode,omitempty"`
	StationID    string  `json:"stationId,omitempty"`
	Lat          float64 `json:"lat,omitempty"`
	Lon          float64 `json:"lon,omitempty"`
	State        string  `json:"state"`
	RejectReason string  `json:"rejectedReason,omitempty"`
	Filename     string  `json:"filename,omitempty"`
	InboxURL     string  `json:"inboxUrl,omitempty"`
	Checksum     uint32  `json:"crc32,omitempty"`
}

func (h *Handler) userInbox(c *gin.Context) {
	user, ok := userFromHeaders(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var reqs []stateQueryJSON
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	queries := make([]*models.StateQuery, len(reqs))
	for i, r := range reqs {
		queries[i] = &models.StateQuery{
			ID:  r.ID,
			Key: models.StationKey{Country: r.Country, StationID: r.StationID},
		}
	}
	if err := h.service.QueryStatus(c.Request.Context(), user, queries); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query status"})
		return
	}

	out := make([]stateQueryJSON, len(queries))
	for i, q := range queries {
		out[i] = stateQueryJSON{
			ID:           q.ID,
			Country:      q.Key.Country,
			StationID:    q.Key.StationID,
			Lat:          q.Coordinates.Lat,
			Lon:          q.Coordinates.Lon,
			State:        string(q.State),
			RejectReason: q.RejectReason,
			Filename:     q.Filename,
			InboxURL:     q.InboxURL,
			Checksum:     q.Checksum,
		}
	}
	c.JSON(http.StatusOK, out)
}

type inboxItemJSON struct {
	ID                 int64   `json:"id"`
	Country            string  `json:"countryCode,omitempty"`
	StationID          string  `json:"stationId,omitempty"`
	Title              string  `json:"title,omitempty"`
	Lat                float64 `json:"lat,omitempty"`
	Lon                float64 `json:"lon,omitempty"`
	Photographer       string  `json:"photographer"`
	Comment            string  `json:"comment,omitempty"`
	ProblemType        string  `json:"problemReportType,omitempty"`
	Filename           string  `json:"filename,omitempty"`
	Processed          bool    `json:"isProcessed"`
	CoordinateConflict bool    `json:"hasCoordConflict"`
	PendingForSameKey  int     `json:"pendingForSameStation"`
}

func (h *Handler) adminInbox(c *gin.Context) {
	user, ok := userFromHeaders(c)
	if !ok || !user.Admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}

	items, err := h.service.ListAdminInbox(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list inbox"})
		return
	}

	out := make([]inboxItemJSON, len(items))
	for i, item := range items {
		e := item.Entry
		out[i] = inboxItemJSON{
			ID:                 e.ID,
			Country:            e.Key.Country,
			StationID:          e.Key.StationID,
			Title:              e.Title,
			Lat:                e.Coordinates.Lat,
			Lon:                e.Coordinates.Lon,
			Photographer:       e.PhotographerName,
			Comment:            e.Comment,
			ProblemType:        string(e.ProblemType),
			Filename:           e.Filename(),
			Processed:          item.Processed,
			CoordinateConflict: item.CoordinateConflict,
			PendingForSameKey:  item.PendingForSameKey,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) nearbyStations(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}
	coords := models.Coordinates{Lat: lat, Lon: lon}
	if !coords.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and/or lon out of range"})
		return
	}

	radius := 20.0
	if r, err := strconv.ParseFloat(c.Query("radius"), 64); err == nil && r > 0 && r <= 100 {
		radius = r
	}

	stations, err := h.stations.FindNearby(c.Request.Context(), coords, radius, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search stations"})
		return
	}

	type stationJSON struct {
		Country   string  `json:"countryCode"`
		StationID string  `json:"stationId"`
		Title     string  `json:"title"`
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
		DS100     string  `json:"ds100,omitempty"`
		Active    bool    `json:"active"`
		HasPhoto  bool    `json:"hasPhoto"`
		Distance  float64 `json:"distance"`
	}
	out := make([]stationJSON, len(stations))
	for i, st := range stations {
		out[i] = stationJSON{
			Country:   st.Key.Country,
			StationID: st.Key.StationID,
			Title:     st.Title,
			Lat:       st.Coordinates.Lat,
			Lon:       st.Coordinates.Lon,
			DS100:     st.DS100,
			Active:    st.Active,
			HasPhoto:  st.HasPhoto(),
			Distance:  coords.DistanceTo(st.Coordinates),
		}
	}
	c.JSON(http.StatusOK, out)
}

func uploadResponse(resp models.InboxResponse) gin.H {
	out := gin.H{"state": string(resp.State)}
	if resp.Message != "" {
		out["message"] = resp.Message
	}
	if resp.ID > 0 {
		out["id"] = resp.ID
	}
	if resp.Filename != "" {
		out["filename"] = resp.Filename
		out["inboxUrl"] = resp.InboxURL
		out["crc32"] = resp.Checksum
	}
	return out
}

func statusCode(state models.ResponseState) int {
	switch state {
	case models.StateReview:
		return http.StatusAccepted
	case models.StateConflict:
		return http.StatusConflict
	case models.StateUnauthorized:
		return http.StatusUnauthorized
	case models.StateNotEnoughData, models.StateLatLonOutOfRange, models.StateUnsupportedContentType:
		return http.StatusBadRequest
	case models.StatePhotoTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
