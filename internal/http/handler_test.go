package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/agroclim/internal/adapter/store/archive"
	"go.ngs.io/agroclim/internal/domain"
	"go.ngs.io/agroclim/internal/usecase"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	d0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	s := domain.Series{
		Variables: []string{domain.VarPrecipitation, domain.VarTempMean},
		Dates:     []time.Time{d0, d0.AddDate(0, 0, 1), d0.AddDate(0, 0, 2)},
		Columns:   [][]float64{{1.5, math.NaN(), 0}, {5, 7, 6.5}},
	}
	a := &archive.Archive{
		Meta: archive.Meta{
			RunID:     uuid.MustParse("6f1c2a4e-0000-4000-8000-000000000001"),
			Kind:      archive.KindCombined,
			CreatedAt: d0,
			Variables: s.Variables,
			Points:    1,
		},
		Result: domain.ExtractionResult{{Lat: 54.8, Lon: 9.6}: s},
	}
	return SetupRouter(usecase.NewQueryUseCase(a, 0), nil)
}

func get(t *testing.T, r *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGetSeries(t *testing.T) {
	w := get(t, testRouter(t), "/v1/series?lat=54.8&lon=9.6")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SeriesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "54.8,9.6", resp.Point.Key)
	assert.Equal(t, "combined", resp.Kind)
	require.Len(t, resp.Records, 3)
	assert.Equal(t, "2023-01-02", resp.Records[1].Date)
	assert.Nil(t, resp.Records[1].Values[domain.VarPrecipitation])
	require.NotNil(t, resp.Records[1].Values[domain.VarTempMean])
	assert.Equal(t, 7.0, *resp.Records[1].Values[domain.VarTempMean])
}

func TestGetSeries_DateFilter(t *testing.T) {
	w := get(t, testRouter(t), "/v1/series?lat=54.8&lon=9.6&start=2023-01-02&end=2023-01-02")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SeriesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "2023-01-02", resp.Records[0].Date)
}

func TestGetSeries_Errors(t *testing.T) {
	r := testRouter(t)
	tests := []struct {
		url  string
		code int
	}{
		{"/v1/series", http.StatusBadRequest},
		{"/v1/series?lat=abc&lon=9.6", http.StatusBadRequest},
		{"/v1/series?lat=95&lon=9.6", http.StatusBadRequest},
		{"/v1/series?lat=54.8&lon=9.6&start=01/02/2023", http.StatusBadRequest},
		{"/v1/series?lat=54.8&lon=9.6&start=2023-01-03&end=2023-01-01", http.StatusBadRequest},
		{"/v1/series?lat=0&lon=0", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.code, get(t, r, tt.url).Code)
		})
	}
}

func TestGetPoints(t *testing.T) {
	w := get(t, testRouter(t), "/v1/points")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count  int             `json:"count"`
		RunID  string          `json:"run_id"`
		Points []PointResponse `json:"points"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "6f1c2a4e-0000-4000-8000-000000000001", resp.RunID)
	assert.Equal(t, 54.8, resp.Points[0].Lat)
}

func TestHealthAndMetrics(t *testing.T) {
	r := testRouter(t)
	assert.Equal(t, http.StatusOK, get(t, r, "/health").Code)

	w := get(t, r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestGetVariablesList(t *testing.T) {
	w := get(t, testRouter(t), "/v1/variables")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"tas"`)
	assert.Contains(t, w.Body.String(), "°C")
}
