package archive

// SchemaVersion identifies the archive record layout.
const SchemaVersion = "1.4.1"

// Solve status values carried in the analysis group.
const (
	SolvePending = "pending"
	SolveSuccess = "success"
	SolveFailed  = "failed"
)

// Entry is one archived capture. The same shape is used for the latest
// pointer, the cumulative archive, and as the source of a flat CSV row.
type Entry struct {
	Version   string    `json:"version"`
	SessionID string    `json:"session_id"`
	Objective string    `json:"objective"`
	Equipment Equipment `json:"equipment"`
	Record    Record    `json:"record"`
}

// Equipment mirrors the configured optical train.
type Equipment struct {
	Telescope     string  `json:"telescope"`
	Optics        string  `json:"optics"`
	Filter        string  `json:"filter"`
	Camera        string  `json:"camera"`
	FocalLengthMM float64 `json:"focal_length_mm"`
	ApertureMM    float64 `json:"aperture_mm"`
	PixelSizeUM   float64 `json:"pixel_size_um"`
}

// Record groups the per-capture data.
type Record struct {
	Meta        Meta        `json:"meta"`
	File        File        `json:"file"`
	Exif        Exif        `json:"exif"`
	Mount       Mount       `json:"mount"`
	Location    Location    `json:"location"`
	Environment Environment `json:"environment"`
	Analysis    Analysis    `json:"analysis"`
}

// Meta carries the trigger timing.
type Meta struct {
	TimestampLocal    string  `json:"timestamp_local"`
	TimestampUTC      string  `json:"timestamp_utc"`
	Unixtime          float64 `json:"unixtime"`
	ExposureActualSec float64 `json:"exposure_actual_sec"`
	ShotMode          string  `json:"shot_mode"`
	FrameType         string  `json:"frame_type"`
}

// File describes the downloaded image on local disk.
type File struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	Format string  `json:"format"`
	SizeMB float64 `json:"size_mb"`
	Width  *int    `json:"width"`
	Height *int    `json:"height"`
}

// Exif carries the camera-reported metadata. Nil means the tag was absent
// or the file never decoded.
type Exif struct {
	ISO        *int     `json:"iso"`
	ShutterSec float64  `json:"shutter_sec"`
	Model      string   `json:"model"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	Alt        *float64 `json:"alt"`
}

// Mount is the pointing state frozen at trigger time.
type Mount struct {
	RADeg      *float64 `json:"ra_deg"`
	DecDeg     *float64 `json:"dec_deg"`
	RAHMS      string   `json:"ra_hms"`
	DecDMS     string   `json:"dec_dms"`
	Status     string   `json:"status"`
	SideOfPier string   `json:"side_of_pier"`
}

// Location is the observing site reported by the mount.
type Location struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
	Alt *float64 `json:"alt"`
}

// Environment is the weather state frozen at trigger time.
type Environment struct {
	TempC       *float64 `json:"temp_c"`
	HumidityPct *float64 `json:"humidity_pct"`
	PressureHPa *float64 `json:"pressure_hPa"`
	DewPointC   *float64 `json:"dew_point_c"`
	CPUTempC    *float64 `json:"cpu_temp_c"`
}

// Analysis holds derived values and, once the annotator has run, the
// plate-solve outcome.
type Analysis struct {
	SolveStatus   string        `json:"solve_status"`
	SolvePath     string        `json:"solve_path,omitempty"`
	SolverVersion string        `json:"solver_version,omitempty"`
	Timestamp     string        `json:"timestamp,omitempty"`
	Confidence    float64       `json:"confidence,omitempty"`
	SolvedCoords  *SolvedCoords `json:"solved_coords"`
	ProcessStats  *ProcessStats `json:"process_stats,omitempty"`
	Derived       Derived       `json:"derived"`
	Quality       Quality       `json:"quality"`
}

// SolvedCoords is the plate-solved field center.
type SolvedCoords struct {
	RADeg       float64  `json:"ra_deg"`
	DecDeg      float64  `json:"dec_deg"`
	Orientation *float64 `json:"orientation"`
	RAHMS       string   `json:"ra_hms"`
	DecDMS      string   `json:"dec_dms"`
}

// ProcessStats describes how the solve went.
type ProcessStats struct {
	MatchedStars     *int    `json:"matched_stars"`
	SolveDurationSec float64 `json:"solve_duration_sec"`
}

// Derived holds values computed from configuration and telemetry.
type Derived struct {
	ExposureDeltaSec *float64 `json:"exposure_delta_sec"`
	FNumber          *float64 `json:"f_number"`
	PixelScaleArcsec *float64 `json:"pixel_scale_arcsec"`
	JulianDate       *float64 `json:"julian_date"`
	LSTHours         *float64 `json:"lst_hours"`
	HourAngleHours   *float64 `json:"hour_angle_hours"`
	MeridianSide     string   `json:"meridian_side,omitempty"`
}

// Quality is reserved for image quality metrics.
type Quality struct {
	HFR        *float64 `json:"hfr"`
	Elongation *float64 `json:"elongation"`
}
