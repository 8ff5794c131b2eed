// Command fleet-client loads the reference harbour scenario into a running
// server and prints the resulting alerts and decisions.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"boat-safety-go/pkg/models"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

func main() {
	baseURL := "http://localhost:8080/api/v1"
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}

	fmt.Println("Checking health endpoint...")
	if err := call(http.MethodGet, baseURL+"/health", nil); err != nil {
		fmt.Printf("Health check failed: %v\n", err)
		return
	}

	steps := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"Registering docks", http.MethodPut, "/docks", harbourDocks()},
		{"Registering routes", http.MethodPut, "/routes", harbourRoutes()},
		{"Reporting boat states", http.MethodPost, "/boats", harbourBoats()},
		{"Running detection", http.MethodGet, "/alerts", nil},
		{"Requesting docking for boat 2", http.MethodPost, "/boats/2/dock", nil},
		{"Requesting undocking for boat 3", http.MethodPost, "/boats/3/undock", map[string]int{"dock_id": 1}},
		{"Fetching status", http.MethodGet, "/status", nil},
	}
	for _, s := range steps {
		fmt.Printf("%s...\n", s.name)
		if err := call(s.method, baseURL+s.path, s.body); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}
}

func call(method, url string, body any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, respBody, "", "  ") != nil {
		pretty.Reset()
		pretty.Write(respBody)
	}
	fmt.Printf("Response (status %d):\n%s\n\n", resp.StatusCode, pretty.String())
	return nil
}

func harbourBoats() []models.BoatState {
	now := float64(time.Now().UnixMilli()) / 1000
	return []models.BoatState{
		// eastbound
		{SysID: 1, Timestamp: now, Lat: 30.549832, Lng: 114.342922, Heading: 90, Speed: 2.0,
			Status: models.StatusNormalSail, RouteDirection: models.Clockwise},
		// westbound, head-on with boat 1
		{SysID: 2, Timestamp: now, Lat: 30.549832, Lng: 114.343500, Heading: 270, Speed: 1.5,
			Status: models.StatusNormalSail, RouteDirection: models.Counterclockwise},
		// ahead of boat 1 on the same route, slower
		{SysID: 3, Timestamp: now, Lat: 30.549832, Lng: 114.343200, Heading: 90, Speed: 1.8,
			Status: models.StatusNormalSail, RouteDirection: models.Clockwise},
	}
}

func harbourDocks() []models.DockInfo {
	return []models.DockInfo{
		{DockID: 1, Lat: 30.549100, Lng: 114.343000},
		{DockID: 2, Lat: 30.549200, Lng: 114.343100},
	}
}

func harbourRoutes() []models.RouteInfo {
	loop := []models.GeoPoint{
		{Lat: 30.549500, Lng: 114.342800},
		{Lat: 30.549800, Lng: 114.343300},
		{Lat: 30.550100, Lng: 114.343800},
		{Lat: 30.550000, Lng: 114.344200},
		{Lat: 30.549700, Lng: 114.344000},
	}
	reversed := make([]models.GeoPoint, len(loop))
	for i, p := range loop {
		reversed[len(loop)-1-i] = p
	}
	return []models.RouteInfo{
		{RouteID: 1, Direction: models.Clockwise, Points: loop},
		{RouteID: 2, Direction: models.Counterclockwise, Points: reversed},
	}
}
