package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vincentbai/browsetrace-dashboard/internal/models"
)

func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()

	// Create temporary directory for test database
	tmpDir, err := os.MkdirTemp("", "browsetrace-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := NewDatabase(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create test database: %v", err)
	}

	// Return cleanup function
	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

func validRecord() models.UserRecord {
	lat, lon := 52.37, 4.89
	return models.UserRecord{
		Latitude:         &lat,
		Longitude:        &lon,
		PublicIP:         "203.0.113.7",
		Language:         "en-US",
		Timezone:         "Europe/Amsterdam",
		TimezoneOffset:   -60,
		ScreenSize:       "1920x1080",
		WindowSize:       "1280x720",
		Platform:         "Linux x86_64",
		DeviceType:       "Desktop",
		CPU:              8,
		GPU:              "ANGLE (Intel)",
		ISP:              "Example ISP",
		BrowserName:      "Firefox",
		InstalledPlugins: "PDF Viewer, Chrome PDF Viewer",
		TimeOnPage:       12.5,
	}
}

func TestNewDatabase(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if db == nil {
		t.Fatal("Expected non-nil database")
	}
	if db.db == nil {
		t.Fatal("Expected non-nil sql.DB")
	}
}

func TestValidateRecord(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tests := []struct {
		name      string
		mutate    func(*models.UserRecord)
		wantError bool
	}{
		{name: "valid record", mutate: func(*models.UserRecord) {}, wantError: false},
		{name: "empty public ip", mutate: func(r *models.UserRecord) { r.PublicIP = "" }, wantError: true},
		{name: "empty platform", mutate: func(r *models.UserRecord) { r.Platform = "" }, wantError: true},
		{name: "empty browser", mutate: func(r *models.UserRecord) { r.BrowserName = "" }, wantError: true},
		{name: "negative time on page", mutate: func(r *models.UserRecord) { r.TimeOnPage = -1 }, wantError: true},
		{name: "missing coordinates", mutate: func(r *models.UserRecord) { r.Latitude, r.Longitude = nil, nil }, wantError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(&record)
			err := db.ValidateRecord(record)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateRecord() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestInsertAndReadRecords(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	first := validRecord()
	second := validRecord()
	second.Latitude, second.Longitude = nil, nil
	second.BrowserName = "Chrome"
	second.Timestamp = "19-10-26 10:00"

	if err := db.InsertRecords([]models.UserRecord{first, second}); err != nil {
		t.Fatalf("Failed to insert records: %v", err)
	}

	records, err := db.Records()
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Latitude == nil || *records[0].Latitude != 52.37 {
		t.Errorf("Latitude mismatch: got %v", records[0].Latitude)
	}
	if records[0].Timestamp == "" {
		t.Error("Expected timestamp to be assigned")
	}
	if records[1].Latitude != nil || records[1].Longitude != nil {
		t.Errorf("Expected nil coordinates, got %v, %v", records[1].Latitude, records[1].Longitude)
	}
	if records[1].BrowserName != "Chrome" {
		t.Errorf("BrowserName mismatch: got %s", records[1].BrowserName)
	}
	if records[1].Timestamp != "19-10-26 10:00" {
		t.Errorf("Timestamp mismatch: got %s", records[1].Timestamp)
	}
}

func TestInsertRecordsRollback(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	invalid := validRecord()
	invalid.PublicIP = ""

	if err := db.InsertRecords([]models.UserRecord{validRecord(), invalid}); err == nil {
		t.Fatal("Expected error for invalid record")
	}

	records, err := db.Records()
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected rollback to leave 0 records, got %d", len(records))
	}
}

func TestLinks(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.InsertLink("https://h/readme", "https://example.com"); err != nil {
		t.Fatalf("Failed to insert link: %v", err)
	}
	if err := db.InsertLink("https://h/x.html", "https://example.org"); err != nil {
		t.Fatalf("Failed to insert link: %v", err)
	}

	links, err := db.Links()
	if err != nil {
		t.Fatalf("Failed to list links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("Expected 2 links, got %d", len(links))
	}
	if links[0].GeneratedLink != "https://h/x.html" {
		t.Errorf("Expected newest link first, got %s", links[0].GeneratedLink)
	}

	link, err := db.LinkByURL("https://h/readme")
	if err != nil {
		t.Fatalf("Failed to look up link: %v", err)
	}
	if link.RedirectURL != "https://example.com" {
		t.Errorf("RedirectURL mismatch: got %s", link.RedirectURL)
	}

	if _, err := db.LinkByURL("https://h/missing"); !errors.Is(err, ErrLinkNotFound) {
		t.Errorf("Expected ErrLinkNotFound, got %v", err)
	}

	if err := db.DeleteLink("https://h/readme"); err != nil {
		t.Fatalf("Failed to delete link: %v", err)
	}
	if err := db.DeleteLink("https://h/readme"); !errors.Is(err, ErrLinkNotFound) {
		t.Errorf("Expected ErrLinkNotFound on second delete, got %v", err)
	}
}

func TestInsertLinkOverwritesRedirect(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	db.InsertLink("https://h/readme", "https://example.com")
	if err := db.InsertLink("https://h/readme", "https://example.net"); err != nil {
		t.Fatalf("Failed to re-insert link: %v", err)
	}

	link, err := db.LinkByURL("https://h/readme")
	if err != nil {
		t.Fatalf("Failed to look up link: %v", err)
	}
	if link.RedirectURL != "https://example.net" {
		t.Errorf("Expected updated redirect, got %s", link.RedirectURL)
	}
}

func TestClear(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.InsertRecords([]models.UserRecord{validRecord()}); err != nil {
		t.Fatalf("Failed to insert records: %v", err)
	}
	if err := db.InsertLink("https://h/readme", "https://example.com"); err != nil {
		t.Fatalf("Failed to insert link: %v", err)
	}

	if err := db.Clear(); err != nil {
		t.Fatalf("Failed to clear database: %v", err)
	}

	records, _ := db.Records()
	links, _ := db.Links()
	if len(records) != 0 || len(links) != 0 {
		t.Errorf("Expected empty tables, got %d records and %d links", len(records), len(links))
	}
}
