package config

// Application constants
const (
	AppName = "viewership"

	// EnvPrefix namespaces every environment variable: VIEWERSHIP_SERVER_PORT, ...
	EnvPrefix = "VIEWERSHIP"
)

// Default locations, relative to Paths.BaseDir
const (
	DefaultExportsDir = "exports"
	DefaultReportsDir = "reports"
	DefaultLogsDir    = "logs"
	DefaultLockFile   = ".viewership.lock"
)

// Export file layout
const (
	// ExportExtension is the only file type the pipeline reads
	ExportExtension = ".xlsx"

	// TempFilePrefix marks lock files spreadsheet editors leave behind
	TempFilePrefix = "~$"

	// BannerRows is the number of title rows above the header row
	BannerRows = 5

	// PeriodPattern finds the reporting period anywhere in a filename
	PeriodPattern = `(\d{4})(Jan-Jun|Jul-Dec)`

	// UploadPattern is the stricter form accepted for new uploads
	UploadPattern = `_(\d{4})(Jan-Jun|Jul-Dec)`

	// DefaultLegacyPeriod identifies the export that only has an Engagement tab
	DefaultLegacyPeriod = "2023Jan-Jun"

	DefaultMaxUploadBytes = 50 << 20
)

// Sheet names
const (
	SheetFilm       = "Film"
	SheetTV         = "TV"
	SheetEngagement = "Engagement"
)

// Column headers of the Film, TV and Engagement tabs
const (
	ColumnTitle             = "Title"
	ColumnReleaseDate       = "Release Date"
	ColumnRuntime           = "Runtime"
	ColumnHoursViewed       = "Hours Viewed"
	ColumnViews             = "Views"
	ColumnAvailableGlobally = "Available Globally?"
)

// RequiredSheets lists the tabs every upload must carry
func RequiredSheets() []string {
	return []string{SheetFilm, SheetTV}
}

// RequiredColumns lists the headers the Film tab of an upload must carry
func RequiredColumns() []string {
	return []string{
		ColumnTitle,
		ColumnReleaseDate,
		ColumnRuntime,
		ColumnHoursViewed,
		ColumnViews,
		ColumnAvailableGlobally,
	}
}

// API endpoints
const (
	APIBasePath       = "/api"
	DataEndpoint      = "/api/data"
	HealthEndpoint    = "/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
