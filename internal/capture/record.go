package capture

import (
	"time"

	"github.com/google/uuid"

	"shutterpro/internal/metadata"
)

// Mode selects how the shutter hold is timed.
type Mode string

const (
	// ModeCamera sends a short fixed trigger pulse; the camera times the
	// exposure itself.
	ModeCamera Mode = "camera"
	// ModeBulb holds the shutter line for the requested duration plus the
	// configured mechanical compensation.
	ModeBulb Mode = "bulb"
)

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	switch Mode(value) {
	case ModeCamera:
		return ModeCamera, true
	case ModeBulb:
		return ModeBulb, true
	default:
		return "", false
	}
}

// Snapshot is the telemetry state frozen at trigger time. Fields the INDI
// server did not report are nil; they are never re-queried later.
type Snapshot struct {
	RAHours     *float64
	DecDeg      *float64
	MountStatus string
	PierSide    string

	SiteLatDeg *float64
	SiteLonDeg *float64
	SiteElevM  *float64

	TempC       *float64
	HumidityPct *float64
	PressureHPa *float64
	DewPointC   *float64
	CPUTempC    *float64
}

// RADeg returns the right ascension converted from hours to degrees.
func (s Snapshot) RADeg() *float64 {
	if s.RAHours == nil {
		return nil
	}
	deg := *s.RAHours * 15.0
	return &deg
}

// Record tracks one trigger event as it moves through the pipeline. The
// trigger controller creates it, the downloader adds the file fields, and the
// analyzer adds the decoded metadata. Ownership transfers fully at each queue
// boundary; no component mutates a record after pushing it onward.
type Record struct {
	Token        uuid.UUID
	Shot         int
	Mode         Mode
	TriggerUTC   time.Time
	TriggerLocal time.Time
	ActualHold   time.Duration
	Telemetry    Snapshot

	// Set by the downloader.
	RemotePath string
	LocalPath  string
	Filename   string
	Format     string
	SizeBytes  int64

	// Set by the analyzer. May remain partially empty when decoding never
	// succeeds.
	Decoded metadata.Fields
}

// Downloaded reports whether the record has been paired with a local file.
func (r *Record) Downloaded() bool {
	return r.LocalPath != ""
}
