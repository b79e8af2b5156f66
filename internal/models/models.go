package models

// UserRecord is one telemetry entry as stored and shown on the dashboard.
type UserRecord struct {
	ID               int64    `json:"id"`
	Latitude         *float64 `json:"latitude"`  // nullable
	Longitude        *float64 `json:"longitude"` // nullable
	PublicIP         string   `json:"public_ip"`
	Language         string   `json:"language"`
	Timezone         string   `json:"timezone"`
	TimezoneOffset   int      `json:"timezone_offset"`
	ScreenSize       string   `json:"screen_size"`
	WindowSize       string   `json:"window_size"`
	Platform         string   `json:"platform"`
	DeviceType       string   `json:"device_type"`
	CPU              int      `json:"cpu"`
	GPU              string   `json:"gpu"`
	ISP              string   `json:"isp"`
	BrowserName      string   `json:"browser_name"`
	InstalledPlugins string   `json:"installed_plugins"` // comma separated
	TimeOnPage       float64  `json:"time_on_page"`
	Timestamp        string   `json:"timestamp"`
}

type Batch struct {
	Records []UserRecord `json:"records"`
}

type Link struct {
	ID            int64  `json:"id"`
	GeneratedLink string `json:"generatedLink"`
	RedirectURL   string `json:"redirectUrl"`
	CreatedAt     int64  `json:"created_at"`
}

// LinkRequest is the body of POST /generate-link.
type LinkRequest struct {
	GeneratedLink string `json:"generatedLink"`
	RedirectURL   string `json:"redirectUrl"`
}

type DeleteLinkRequest struct {
	CustomLink string `json:"custom_link"`
}

// Response is the JSON envelope every admin endpoint answers with.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
