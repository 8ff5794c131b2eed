package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boat-safety-go/internal/collision"
	"boat-safety-go/internal/monitor"
	"boat-safety-go/internal/service"
	"boat-safety-go/pkg/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type testAPI struct {
	router  *gin.Engine
	svc     *service.FleetService
	hub     *service.AlertHub
	handler *FleetHandler
}

func newTestAPI(t *testing.T, cfg models.SystemConfig) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := quietLogger()
	svc := service.NewFleetService(collision.NewDetector(cfg), nil, nil, logger)
	hub := service.NewAlertHub(logger, nil, 0)
	h := NewFleetHandler(svc, hub, nil, logger)
	router := gin.New()
	h.RegisterRoutes(router)
	return &testAPI{router: router, svc: svc, hub: hub, handler: h}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

var harbourBoats = []models.BoatState{
	{SysID: 1, Timestamp: 1722325256.53, Lat: 30.549832, Lng: 114.342922, Heading: 90, Speed: 2.5,
		Status: models.StatusNormalSail, RouteDirection: models.Clockwise},
	{SysID: 2, Timestamp: 1722325256.53, Lat: 30.549832, Lng: 114.343200, Heading: 270, Speed: 3.0,
		Status: models.StatusNormalSail, RouteDirection: models.Counterclockwise},
}

func TestReplaceBoatsAndDetect(t *testing.T) {
	api := newTestAPI(t, models.DefaultSystemConfig())

	w := api.do(http.MethodPost, "/api/v1/boats", harbourBoats)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/v1/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Alerts []models.CollisionAlert `json:"alerts"`
		Total  int                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, models.LevelEmergency, resp.Alerts[0].Level)

	w = api.do(http.MethodGet, "/api/v1/boats", nil)
	assert.Contains(t, w.Body.String(), `"total":2`)
}

func TestReplaceBoats_Errors(t *testing.T) {
	cfg := models.DefaultSystemConfig()
	cfg.MaxBoats = 1
	api := newTestAPI(t, cfg)

	w := api.do(http.MethodPost, "/api/v1/boats", harbourBoats)
	assert.Equal(t, http.StatusConflict, w.Code)

	bad := harbourBoats[0]
	bad.Status = 7
	w = api.do(http.MethodPost, "/api/v1/boats", []models.BoatState{bad})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/boats", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertAndRemoveBoat(t *testing.T) {
	api := newTestAPI(t, models.DefaultSystemConfig())

	boat := harbourBoats[0]
	boat.SysID = 0
	w := api.do(http.MethodPut, "/api/v1/boats/3", boat)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"sysid":3`)

	boat.SysID = 4
	w = api.do(http.MethodPut, "/api/v1/boats/3", boat)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPut, "/api/v1/boats/abc", boat)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodDelete, "/api/v1/boats/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodDelete, "/api/v1/boats/3", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, api.svc.Boats())
}

func TestDocksRoutesAndAdmission(t *testing.T) {
	api := newTestAPI(t, models.DefaultSystemConfig())
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/v1/boats", harbourBoats).Code)

	w := api.do(http.MethodPost, "/api/v1/boats/1/dock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var decision models.AdmissionDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.False(t, decision.Granted)
	assert.Equal(t, service.ReasonNoDock, decision.Reason)

	w = api.do(http.MethodGet, "/api/v1/boats/1/recommended-dock", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	docks := []models.DockInfo{
		{DockID: 1, Lat: 30.549800, Lng: 114.342900},
		{DockID: 2, Lat: 30.549900, Lng: 114.343300},
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/v1/docks", docks).Code)
	routes := []models.RouteInfo{{RouteID: 1, Direction: models.Clockwise,
		Points: []models.GeoPoint{{Lat: 30.549832, Lng: 114.3425}, {Lat: 30.549832, Lng: 114.3440}}}}
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/v1/routes", routes).Code)

	w = api.do(http.MethodPut, "/api/v1/routes", []models.RouteInfo{{RouteID: 2, Direction: 5}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/v1/docks", nil)
	assert.Contains(t, w.Body.String(), `"total":2`)
	w = api.do(http.MethodGet, "/api/v1/routes", nil)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = api.do(http.MethodGet, "/api/v1/boats/2/recommended-dock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dock_id":2`)

	w = api.do(http.MethodPost, "/api/v1/boats/1/dock", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.True(t, decision.Granted)
	assert.Equal(t, 1, decision.DockID)

	// boat 1 is in an emergency encounter
	w = api.do(http.MethodPost, "/api/v1/boats/1/undock", map[string]int{"dock_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.False(t, decision.Granted)
	assert.Contains(t, decision.Reason, "EMERGENCY")

	w = api.do(http.MethodPost, "/api/v1/boats/1/undock", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(http.MethodPost, "/api/v1/boats/1/undock", map[string]int{"dock_id": 99})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = api.do(http.MethodPost, "/api/v1/boats/99/undock", map[string]int{"dock_id": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestUndocking_DockIDZero(t *testing.T) {
	api := newTestAPI(t, models.DefaultSystemConfig())
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/v1/boats", harbourBoats[:1]).Code)
	docks := []models.DockInfo{{DockID: 0, Lat: 30.549800, Lng: 114.342900}}
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/v1/docks", docks).Code)

	w := api.do(http.MethodPost, "/api/v1/boats/1/undock", map[string]int{"dock_id": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var decision models.AdmissionDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.True(t, decision.Granted)
	assert.Equal(t, 0, decision.DockID)

	w = api.do(http.MethodPost, "/api/v1/boats/1/undock", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusAndLatest(t *testing.T) {
	api := newTestAPI(t, models.DefaultSystemConfig())
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/v1/boats", harbourBoats).Code)

	w := api.do(http.MethodGet, "/api/v1/alerts/latest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report service.StatusReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 2, report.BoatCount)
	assert.Equal(t, 2, report.AlertsByLevel["EMERGENCY"])
	assert.False(t, report.MonitorActive)
}

func TestHealth(t *testing.T) {
	cfg := models.DefaultSystemConfig()
	api := newTestAPI(t, cfg)

	w := api.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	det := collision.NewDetector(cfg)
	mon := monitor.New(det, quietLogger(), monitor.Options{Period: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, mon.Start(ctx))
	api.svc.AttachMonitor(mon)

	w = api.do(http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.True(t, health.MonitorActive)
	assert.Equal(t, Version, health.Version)

	assert.Eventually(t, func() bool {
		_, ok := api.svc.LatestAlerts()
		return ok
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/alerts/latest", nil).Code)

	api.handler.dbCheck = func() error { return errors.New("connection refused") }
	w = api.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	mon.Stop()
	<-mon.Done()
}

func TestStreamAlerts(t *testing.T) {
	api := newTestAPI(t, models.DefaultSystemConfig())
	srv := httptest.NewServer(api.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/alerts/stream", nil)
	require.NoError(t, err)

	type result struct {
		lines []string
		err   error
	}
	results := make(chan result, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			results <- result{err: err}
			return
		}
		defer resp.Body.Close()
		var lines []string
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
			if strings.HasPrefix(scanner.Text(), "data:") {
				break
			}
		}
		results <- result{lines: lines}
	}()

	require.Eventually(t, func() bool { return api.hub.Stats().Subscribers == 1 }, 2*time.Second, 5*time.Millisecond)
	api.hub.Dispatch(context.Background(), models.AlertBatch{
		ScanID: "scan-42",
		Alerts: []models.CollisionAlert{{Level: models.LevelWarning, CurrentBoatID: 1, FrontBoatIDs: []int{2}}},
	})

	select {
	case res := <-results:
		require.NoError(t, res.err)
		joined := strings.Join(res.lines, "\n")
		assert.Contains(t, joined, "event:alerts")
		assert.Contains(t, joined, `"scan_id":"scan-42"`)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
