package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boat-safety-go/pkg/models"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPublish(t *testing.T) {
	var got models.AlertBatch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/alerts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewGroundStationClient(srv.URL+"/", time.Second, quietLogger())
	batch := models.AlertBatch{
		ScanID: "scan-7",
		Alerts: []models.CollisionAlert{{
			Level: models.LevelEmergency, CurrentBoatID: 1, OncomingBoatIDs: []int{2},
		}},
	}
	require.NoError(t, c.Publish(context.Background(), batch))
	assert.Equal(t, "scan-7", got.ScanID)
	require.Len(t, got.Alerts, 1)
	assert.Equal(t, []int{2}, got.Alerts[0].OncomingBoatIDs)
}

func TestPublish_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewGroundStationClient(srv.URL, time.Second, quietLogger())
	err := c.Publish(context.Background(), models.AlertBatch{ScanID: "x"})
	assert.ErrorContains(t, err, "503")
	assert.ErrorContains(t, err, "queue full")
}

func TestCheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","version":"2.1"}`))
	}))
	defer srv.Close()

	c := NewGroundStationClient(srv.URL, time.Second, quietLogger())
	health, err := c.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "2.1", health.Version)
}

func TestCheckHealth_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewGroundStationClient(url, 200*time.Millisecond, quietLogger())
	_, err := c.CheckHealth(context.Background())
	assert.Error(t, err)
}
