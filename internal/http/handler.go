package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/agroclim/internal/domain"
	"go.ngs.io/agroclim/internal/usecase"
)

// Handler handles HTTP requests against a loaded extraction archive.
type Handler struct {
	queryUC *usecase.QueryUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(queryUC *usecase.QueryUseCase) *Handler {
	return &Handler{
		queryUC: queryUC,
	}
}

// PointResponse is one archived grid point.
type PointResponse struct {
	Key string  `json:"key"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SeriesRecord is one date of a series. Missing values are null.
type SeriesRecord struct {
	Date   string              `json:"date"`
	Values map[string]*float64 `json:"values"`
}

// SeriesResponse is the response of GET /v1/series.
type SeriesResponse struct {
	Point     PointResponse  `json:"point"`
	Kind      string         `json:"kind"`
	RunID     string         `json:"run_id"`
	Variables []string       `json:"variables"`
	Records   []SeriesRecord `json:"records"`
}

func pointResponse(p domain.GridPoint) PointResponse {
	return PointResponse{Key: p.Key(), Lat: p.Lat, Lon: p.Lon}
}

// GetPoints handles GET /v1/points.
func (h *Handler) GetPoints(c *gin.Context) {
	points := h.queryUC.Points()
	response := make([]PointResponse, len(points))
	for i, p := range points {
		response[i] = pointResponse(p)
	}

	meta := h.queryUC.Meta()
	c.JSON(http.StatusOK, gin.H{
		"kind":       meta.Kind,
		"run_id":     meta.RunID.String(),
		"created_at": meta.CreatedAt.UTC().Format(time.RFC3339),
		"count":      len(response),
		"points":     response,
	})
}

// GetSeries handles GET /v1/series?lat=&lon=[&start=YYYY-MM-DD][&end=YYYY-MM-DD].
func (h *Handler) GetSeries(c *gin.Context) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon parameters are required"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %q", latStr)})
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 360 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %q", lonStr)})
		return
	}

	var start, end time.Time
	if s := c.Query("start"); s != "" {
		if start, err = time.Parse(time.DateOnly, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start date (expected YYYY-MM-DD): %v", err)})
			return
		}
	}
	if s := c.Query("end"); s != "" {
		if end, err = time.Parse(time.DateOnly, s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end date (expected YYYY-MM-DD): %v", err)})
			return
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end date must not be before start date"})
		return
	}

	p, series, err := h.queryUC.Series(lat, lon)
	if errors.Is(err, usecase.ErrPointNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no archived point near (%s, %s)", latStr, lonStr)})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	meta := h.queryUC.Meta()
	response := SeriesResponse{
		Point:     pointResponse(p),
		Kind:      string(meta.Kind),
		RunID:     meta.RunID.String(),
		Variables: series.Variables,
		Records:   make([]SeriesRecord, 0, series.Len()),
	}
	for k, d := range series.Dates {
		if (!start.IsZero() && d.Before(start)) || (!end.IsZero() && d.After(end)) {
			continue
		}
		rec := SeriesRecord{Date: d.Format(time.DateOnly), Values: make(map[string]*float64, len(series.Variables))}
		for v, name := range series.Variables {
			val := series.Columns[v][k]
			if domain.IsMissing(val) {
				rec.Values[name] = nil
				continue
			}
			rec.Values[name] = &val
		}
		response.Records = append(response.Records, rec)
	}

	c.JSON(http.StatusOK, response)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"points": len(h.queryUC.Points()),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// VariableListResponse describes one tracked variable.
type VariableListResponse struct {
	Name        string `json:"name"`
	Units       string `json:"units"`
	Description string `json:"description,omitempty"`
}

// GetVariablesList returns the variables stored in the archive.
func (h *Handler) GetVariablesList(c *gin.Context) {
	descriptions := map[string]VariableListResponse{
		domain.VarHumidity:      {Units: "%", Description: "Near-surface relative humidity"},
		domain.VarPrecipitation: {Units: "mm/day", Description: "Precipitation"},
		domain.VarRadiation:     {Units: "daily total", Description: "Surface downwelling shortwave radiation"},
		domain.VarWindSpeed:     {Units: "m/s", Description: "Near-surface wind speed"},
		domain.VarTempMean:      {Units: "°C", Description: "Daily mean near-surface air temperature"},
		domain.VarTempMax:       {Units: "°C", Description: "Daily maximum near-surface air temperature"},
		domain.VarTempMin:       {Units: "°C", Description: "Daily minimum near-surface air temperature"},
	}

	names := h.queryUC.Meta().Variables
	response := make([]VariableListResponse, len(names))
	for i, name := range names {
		r := descriptions[name]
		r.Name = name
		response[i] = r
	}

	c.JSON(http.StatusOK, gin.H{
		"variables": response,
		"count":     len(response),
	})
}
