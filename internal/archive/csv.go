package archive

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Column order of the flat log. Solve columns stay empty until the
// annotator fills them in.
var csvHeader = []string{
	"Session", "Objective", "Frame_Type",
	"UTC", "Local", "Actual_Exposure_sec", "Exposure_Delta_sec",
	"Shot_Mode", "File_Name", "Format", "Size_MB", "Width_px", "Height_px",
	"ISO", "Shutter_sec",
	"RA_deg", "DEC_deg", "RA_hms", "DEC_dms",
	"Mount_Status", "Pier_Side", "Hour_Angle_h",
	"Site_Lat", "Site_Lon", "Site_Elev_m",
	"Temp_C", "Humidity_pct", "Pressure_hPa", "DewPoint_C", "CPU_Temp_C",
	"Solve_Status", "Solve_Confidence", "Matched_Stars", "Solve_Time_sec",
	"Solve_Path", "Solve_RA", "Solve_DEC", "Solve_Orientation",
}

const csvComment = "# shutterpro flat log (schema v" + SchemaVersion + ")\n"

// FlatLog appends capture rows to a CSV file, one row per archived entry.
type FlatLog struct {
	path string
}

// NewFlatLog returns a flat log bound to path. The file is created with
// its header on first append.
func NewFlatLog(path string) *FlatLog {
	return &FlatLog{path: path}
}

// Path returns the log file location.
func (l *FlatLog) Path() string {
	return l.path
}

// Append writes one entry as a CSV row and syncs it to disk.
func (l *FlatLog) Append(entry Entry) error {
	created := false
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		created = true
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	cw := csv.NewWriter(w)
	if created {
		if _, err := w.WriteString(csvComment); err != nil {
			return err
		}
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}
	if err := cw.Write(entryRow(entry)); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// SolveUpdate carries the solver columns written back into matching rows.
type SolveUpdate struct {
	Status      string
	Confidence  float64
	Stars       *int
	DurationSec float64
	PassLabel   string
	RADeg       float64
	DecDeg      float64
	Orientation *float64
	Solved      bool
}

// UpdateSolve rewrites the rows whose File_Name equals, or is contained
// in, target with the solve outcome. Returns the number of rows updated.
func (l *FlatLog) UpdateSolve(target string, update SolveUpdate) (int, error) {
	comment, header, rows, err := l.readAll()
	if err != nil {
		return 0, err
	}
	nameIdx := columnIndex(header, "File_Name")
	if nameIdx < 0 {
		return 0, fmt.Errorf("flat log has no File_Name column")
	}

	updated := 0
	for _, row := range rows {
		if nameIdx >= len(row) {
			continue
		}
		name := row[nameIdx]
		if name == "" || (name != target && !strings.Contains(target, name)) {
			continue
		}
		applySolve(header, row, update)
		updated++
	}
	if updated == 0 {
		return 0, nil
	}
	if err := l.rewrite(comment, header, rows); err != nil {
		return 0, err
	}
	return updated, nil
}

func applySolve(header, row []string, update SolveUpdate) {
	set := func(column, value string) {
		if idx := columnIndex(header, column); idx >= 0 && idx < len(row) {
			row[idx] = value
		}
	}
	set("Solve_Status", update.Status)
	set("Solve_Confidence", fmt.Sprintf("%.2f", update.Confidence))
	set("Solve_Time_sec", fmt.Sprintf("%.2f", update.DurationSec))
	set("Solve_Path", update.PassLabel)
	if update.Solved {
		set("Solve_RA", strconv.FormatFloat(update.RADeg, 'f', 8, 64))
		set("Solve_DEC", strconv.FormatFloat(update.DecDeg, 'f', 8, 64))
		if update.Stars != nil {
			set("Matched_Stars", strconv.Itoa(*update.Stars))
		}
		if update.Orientation != nil {
			set("Solve_Orientation", fmt.Sprintf("%.2f", *update.Orientation))
		}
	}
}

func (l *FlatLog) readAll() (comment string, header []string, rows [][]string, err error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return "", nil, nil, err
	}
	text := string(data)
	if strings.HasPrefix(text, "#") {
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			comment = text[:idx+1]
			text = text[idx+1:]
		}
	}
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return "", nil, nil, err
	}
	if len(records) == 0 {
		return comment, nil, nil, nil
	}
	return comment, records[0], records[1:], nil
}

func (l *FlatLog) rewrite(comment string, header []string, rows [][]string) error {
	tmp := l.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if comment != "" {
		if _, err := w.WriteString(comment); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, l.path)
}

func columnIndex(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

func entryRow(e Entry) []string {
	r := e.Record
	return []string{
		e.SessionID, e.Objective, r.Meta.FrameType,
		r.Meta.TimestampUTC, r.Meta.TimestampLocal,
		fmt.Sprintf("%.6f", r.Meta.ExposureActualSec),
		floatCol(r.Analysis.Derived.ExposureDeltaSec, 6),
		r.Meta.ShotMode, r.File.Name, r.File.Format,
		fmt.Sprintf("%.2f", r.File.SizeMB),
		intCol(r.File.Width), intCol(r.File.Height),
		intCol(r.Exif.ISO), fmt.Sprintf("%.6f", r.Exif.ShutterSec),
		floatCol(r.Mount.RADeg, 6), floatCol(r.Mount.DecDeg, 6),
		r.Mount.RAHMS, r.Mount.DecDMS,
		r.Mount.Status, r.Mount.SideOfPier,
		floatCol(r.Analysis.Derived.HourAngleHours, 4),
		floatCol(r.Location.Lat, 6), floatCol(r.Location.Lon, 6), floatCol(r.Location.Alt, 1),
		floatCol(r.Environment.TempC, 1), floatCol(r.Environment.HumidityPct, 1),
		floatCol(r.Environment.PressureHPa, 1), floatCol(r.Environment.DewPointC, 1),
		floatCol(r.Environment.CPUTempC, 1),
		r.Analysis.SolveStatus, "", "", "", "", "", "", "",
	}
}

func floatCol(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func intCol(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
