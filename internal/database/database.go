package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vincentbai/browsetrace-dashboard/internal/models"
	_ "modernc.org/sqlite" // CGO-free SQLite
)

var ErrLinkNotFound = errors.New("link not found")

type Database struct {
	db *sql.DB
}

func NewDatabase(databasePath string) (*Database, error) {
	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", databasePath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS links(
	  id             INTEGER PRIMARY KEY AUTOINCREMENT,
	  generated_link TEXT    NOT NULL UNIQUE,
	  redirect_url   TEXT    NOT NULL,
	  created_at     INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS user_info(
	  id                INTEGER PRIMARY KEY AUTOINCREMENT,
	  latitude          REAL,
	  longitude         REAL,
	  public_ip         TEXT    NOT NULL,
	  language          TEXT    NOT NULL DEFAULT '',
	  timezone          TEXT    NOT NULL DEFAULT '',
	  timezone_offset   INTEGER NOT NULL DEFAULT 0,
	  screen_size       TEXT    NOT NULL DEFAULT '',
	  window_size       TEXT    NOT NULL DEFAULT '',
	  platform          TEXT    NOT NULL,
	  device_type       TEXT    NOT NULL DEFAULT '',
	  cpu               INTEGER NOT NULL DEFAULT 0,
	  gpu               TEXT    NOT NULL DEFAULT '',
	  isp               TEXT    NOT NULL DEFAULT '',
	  browser_name      TEXT    NOT NULL,
	  installed_plugins TEXT    NOT NULL DEFAULT '',
	  time_on_page      REAL    NOT NULL CHECK (time_on_page >= 0),
	  timestamp         TEXT    NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_links_generated ON links(generated_link);
	`)
	if err != nil {
		return fmt.Errorf("failed to create database tables: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) ValidateRecord(record models.UserRecord) error {
	if record.PublicIP == "" {
		return fmt.Errorf("public_ip cannot be empty")
	}
	if record.Platform == "" {
		return fmt.Errorf("platform cannot be empty")
	}
	if record.BrowserName == "" {
		return fmt.Errorf("browser_name cannot be empty")
	}
	if record.TimeOnPage < 0 {
		return fmt.Errorf("time_on_page must not be negative")
	}
	return nil
}

func (d *Database) InsertRecords(records []models.UserRecord) error {
	transaction, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	statement, err := transaction.Prepare(`INSERT INTO user_info(
		latitude, longitude, public_ip, language, timezone, timezone_offset,
		screen_size, window_size, platform, device_type, cpu, gpu, isp,
		browser_name, installed_plugins, time_on_page, timestamp
	) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		_ = transaction.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer statement.Close()

	now := time.Now().Format("02-01-06 15:04")
	for _, record := range records {
		if err := d.ValidateRecord(record); err != nil {
			_ = transaction.Rollback()
			return fmt.Errorf("invalid record: %w", err)
		}
		timestamp := record.Timestamp
		if timestamp == "" {
			timestamp = now
		}
		if _, err := statement.Exec(
			record.Latitude, record.Longitude, record.PublicIP, record.Language,
			record.Timezone, record.TimezoneOffset, record.ScreenSize, record.WindowSize,
			record.Platform, record.DeviceType, record.CPU, record.GPU, record.ISP,
			record.BrowserName, record.InstalledPlugins, record.TimeOnPage, timestamp,
		); err != nil {
			_ = transaction.Rollback()
			return fmt.Errorf("failed to execute statement: %w", err)
		}
	}
	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Records returns every stored record in insertion order.
func (d *Database) Records() ([]models.UserRecord, error) {
	rows, err := d.db.Query(`SELECT id, latitude, longitude, public_ip, language,
		timezone, timezone_offset, screen_size, window_size, platform, device_type,
		cpu, gpu, isp, browser_name, installed_plugins, time_on_page, timestamp
		FROM user_info ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []models.UserRecord{}
	for rows.Next() {
		var record models.UserRecord
		var latitude, longitude sql.NullFloat64
		if err := rows.Scan(&record.ID, &latitude, &longitude, &record.PublicIP,
			&record.Language, &record.Timezone, &record.TimezoneOffset, &record.ScreenSize,
			&record.WindowSize, &record.Platform, &record.DeviceType, &record.CPU,
			&record.GPU, &record.ISP, &record.BrowserName, &record.InstalledPlugins,
			&record.TimeOnPage, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if latitude.Valid {
			record.Latitude = &latitude.Float64
		}
		if longitude.Valid {
			record.Longitude = &longitude.Float64
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Clear removes every record and every link in one transaction.
func (d *Database) Clear() error {
	transaction, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, table := range []string{"user_info", "links"} {
		if _, err := transaction.Exec("DELETE FROM " + table); err != nil {
			_ = transaction.Rollback()
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (d *Database) InsertLink(generatedLink, redirectURL string) error {
	_, err := d.db.Exec(`INSERT INTO links(generated_link, redirect_url, created_at) VALUES(?,?,?)
		ON CONFLICT(generated_link) DO UPDATE SET redirect_url = excluded.redirect_url`,
		generatedLink, redirectURL, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert link: %w", err)
	}
	return nil
}

// Links returns every registered link, newest first.
func (d *Database) Links() ([]models.Link, error) {
	rows, err := d.db.Query(`SELECT id, generated_link, redirect_url, created_at FROM links ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		var link models.Link
		if err := rows.Scan(&link.ID, &link.GeneratedLink, &link.RedirectURL, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (d *Database) LinkByURL(generatedLink string) (*models.Link, error) {
	var link models.Link
	err := d.db.QueryRow(`SELECT id, generated_link, redirect_url, created_at FROM links WHERE generated_link = ?`,
		generatedLink).Scan(&link.ID, &link.GeneratedLink, &link.RedirectURL, &link.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query link: %w", err)
	}
	return &link, nil
}

func (d *Database) DeleteLink(generatedLink string) error {
	result, err := d.db.Exec(`DELETE FROM links WHERE generated_link = ?`, generatedLink)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrLinkNotFound
	}
	return nil
}
