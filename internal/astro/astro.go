package astro

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// arcsecPerRadianScale is the pixel-scale constant in arc-seconds per
// (micrometre over millimetre).
const arcsecPerRadianScale = 206.265

// j2000 is the Julian date of the J2000.0 epoch.
const j2000 = 2451545.0

// ToHMS formats decimal hours as HH:MM:SS. Invalid input (NaN, Inf, negative)
// yields "00:00:00"; the function never fails.
func ToHMS(hours float64) string {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return "00:00:00"
	}
	total := int(math.Round(hours * 3600))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ToDMS formats decimal degrees as a signed DD:MM:SS string. Invalid input
// yields "+00:00:00"; the function never fails.
func ToDMS(deg float64) string {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return "+00:00:00"
	}
	sign := "+"
	if deg < 0 {
		sign = "-"
	}
	total := int(math.Round(math.Abs(deg) * 3600))
	d := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, d, m, s)
}

// ToDecimalHours parses an HH:MM:SS string into decimal hours. Malformed
// input yields 0.
func ToDecimalHours(value string) float64 {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0
	}
	h, err1 := strconv.ParseFloat(parts[0], 64)
	m, err2 := strconv.ParseFloat(parts[1], 64)
	s, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return h + m/60 + s/3600
}

// FNumber derives the focal ratio from focal length and aperture, both in
// millimetres. A non-positive aperture yields 0.
func FNumber(focalMM, apertureMM float64) float64 {
	if apertureMM <= 0 || focalMM <= 0 {
		return 0
	}
	return focalMM / apertureMM
}

// PixelScale derives the angular size of one pixel in arc-seconds from the
// pixel pitch in micrometres and the focal length in millimetres. A
// non-positive focal length yields 0.
func PixelScale(pixelUM, focalMM float64) float64 {
	if focalMM <= 0 || pixelUM <= 0 {
		return 0
	}
	return pixelUM * arcsecPerRadianScale / focalMM
}

// JulianDate converts a time to its Julian date.
func JulianDate(t time.Time) float64 {
	return float64(t.UnixMilli())/86400000.0 + 2440587.5
}

// GMST returns the Greenwich mean sidereal time in hours for the given
// instant, using the standard linear approximation from J2000.
func GMST(t time.Time) float64 {
	d := JulianDate(t) - j2000
	return NormalizeHours(18.697374558 + 24.06570982441908*d)
}

// LocalSiderealTime returns the local sidereal time in hours at the given
// longitude (degrees, east positive).
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return NormalizeHours(GMST(t) + lonDeg/15.0)
}

// HourAngle returns the hour angle in hours for a target at the given right
// ascension (hours), normalized into [0, 24).
func HourAngle(lstHours, raHours float64) float64 {
	return NormalizeHours(lstHours - raHours)
}

// MeridianSide infers the pier side from an hour angle: targets with
// HA in (0, 12) have crossed the meridian and sit to the west.
func MeridianSide(haHours float64) string {
	ha := NormalizeHours(haHours)
	if ha == 0 {
		return "Meridian"
	}
	if ha < 12 {
		return "West"
	}
	return "East"
}

// NormalizeHours wraps a value into [0, 24).
func NormalizeHours(hours float64) float64 {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0
	}
	hours = math.Mod(hours, 24)
	if hours < 0 {
		hours += 24
	}
	return hours
}
