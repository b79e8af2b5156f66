package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUserRecordNullCoordinates(t *testing.T) {
	record := UserRecord{PublicIP: "203.0.113.7", Platform: "Linux x86_64"}

	jsonData, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Failed to marshal record: %v", err)
	}
	if !strings.Contains(string(jsonData), `"latitude":null`) {
		t.Errorf("Expected null latitude in %s", jsonData)
	}

	var unmarshaled UserRecord
	if err := json.Unmarshal([]byte(`{"latitude":12.5,"longitude":null,"installed_plugins":"A, B"}`), &unmarshaled); err != nil {
		t.Fatalf("Failed to unmarshal record: %v", err)
	}
	if unmarshaled.Latitude == nil || *unmarshaled.Latitude != 12.5 {
		t.Errorf("Latitude mismatch: got %v, want 12.5", unmarshaled.Latitude)
	}
	if unmarshaled.Longitude != nil {
		t.Errorf("Expected nil longitude, got %v", *unmarshaled.Longitude)
	}
	if unmarshaled.InstalledPlugins != "A, B" {
		t.Errorf("InstalledPlugins mismatch: got %q", unmarshaled.InstalledPlugins)
	}
}

func TestLinkRequestWireNames(t *testing.T) {
	var req LinkRequest
	body := `{"generatedLink":"https://h/x.html","redirectUrl":"https://example.com"}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("Failed to unmarshal link request: %v", err)
	}
	if req.GeneratedLink != "https://h/x.html" {
		t.Errorf("GeneratedLink mismatch: got %s", req.GeneratedLink)
	}
	if req.RedirectURL != "https://example.com" {
		t.Errorf("RedirectURL mismatch: got %s", req.RedirectURL)
	}
}
