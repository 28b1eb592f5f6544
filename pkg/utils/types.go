package utils

// Timestamp layouts accepted for submitted sighting dates, tried in order
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Constants
const (
	// FILE_TIMESTAMP_LAYOUT names backups, run logs and execution ids
	FILE_TIMESTAMP_LAYOUT = "20060102_150405"
)
