package metadata

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifDecoder reads metadata through the file's embedded EXIF block.
type ExifDecoder struct{}

// NewExifDecoder returns the standard EXIF-backed decoder.
func NewExifDecoder() *ExifDecoder {
	return &ExifDecoder{}
}

// Decode parses the EXIF block of the file at path. Individual absent tags
// leave their fields empty; only an unreadable file or a missing EXIF block
// is an error.
func (d *ExifDecoder) Decode(path string) (Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fields{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return Fields{}, fmt.Errorf("decode exif: %w", err)
	}

	var fields Fields
	fields.Width = maxTagInt(x, exif.ImageWidth, exif.PixelXDimension)
	fields.Height = maxTagInt(x, exif.ImageLength, exif.PixelYDimension)

	if v, ok := tagInt(x, exif.ISOSpeedRatings); ok {
		fields.ISO = &v
	}
	if v, ok := tagRat(x, exif.ExposureTime); ok {
		fields.ExposureSec = &v
	}
	if v, ok := tagString(x, exif.DateTimeOriginal); ok {
		fields.DateTime = v
	} else if v, ok := tagString(x, exif.DateTime); ok {
		fields.DateTime = v
	}
	if v, ok := tagString(x, exif.Model); ok {
		fields.Model = v
	}

	if lat, lon, err := x.LatLong(); err == nil {
		fields.Latitude = &lat
		fields.Longitude = &lon
	}
	if alt, ok := altitude(x); ok {
		fields.Altitude = &alt
	}
	return fields, nil
}

// maxTagInt takes the largest value across the given dimension tags. RAW
// files often carry both a thumbnail and a full-frame dimension set, and the
// full frame is always the larger one.
func maxTagInt(x *exif.Exif, names ...exif.FieldName) int {
	best := 0
	for _, name := range names {
		if v, ok := tagInt(x, name); ok && v > best {
			best = v
		}
	}
	return best
}

func tagInt(x *exif.Exif, name exif.FieldName) (int, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, false
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

func tagRat(x *exif.Exif, name exif.FieldName) (float64, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

func tagString(x *exif.Exif, name exif.FieldName) (string, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return "", false
	}
	v, err := tag.StringVal()
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func altitude(x *exif.Exif) (float64, bool) {
	v, ok := tagRat(x, exif.GPSAltitude)
	if !ok {
		return 0, false
	}
	if ref, ok := tagInt(x, exif.GPSAltitudeRef); ok && ref == 1 {
		v = -v
	}
	return v, true
}
