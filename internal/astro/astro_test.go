package astro

import (
	"math"
	"testing"
	"time"
)

func TestSexagesimalRoundTrip(t *testing.T) {
	if got := ToHMS(ToDecimalHours("12:30:00")); got != "12:30:00" {
		t.Fatalf("round trip broken: %q", got)
	}
	if got := ToDMS(-34.5); got != "-34:30:00" {
		t.Fatalf("ToDMS(-34.5) = %q", got)
	}
	if got := ToDMS(34.5); got != "+34:30:00" {
		t.Fatalf("ToDMS(34.5) = %q", got)
	}
}

func TestConversionsAreTotal(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"hms nan", ToHMS(math.NaN()), "00:00:00"},
		{"hms negative", ToHMS(-3), "00:00:00"},
		{"dms inf", ToDMS(math.Inf(1)), "+00:00:00"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, tc.got, tc.want)
		}
	}
	if got := ToDecimalHours("garbage"); got != 0 {
		t.Errorf("ToDecimalHours(garbage) = %v", got)
	}
	if got := ToDecimalHours("12:xx:00"); got != 0 {
		t.Errorf("ToDecimalHours(12:xx:00) = %v", got)
	}
}

func TestEquipmentMath(t *testing.T) {
	if got := FNumber(800, 200); got != 4.0 {
		t.Fatalf("FNumber(800, 200) = %v", got)
	}
	if got := PixelScale(4.88, 800); math.Abs(got-1.26) > 0.01 {
		t.Fatalf("PixelScale(4.88, 800) = %v, want ~1.26", got)
	}
	if FNumber(800, 0) != 0 || PixelScale(4.88, 0) != 0 {
		t.Fatal("zero equipment inputs must yield 0")
	}
}

func TestGMSTKnownEpoch(t *testing.T) {
	// At the J2000 epoch (2000-01-01 11:58:55.816 UTC) GMST was about
	// 18.697 hours.
	epoch := time.Date(2000, 1, 1, 11, 58, 55, 816_000_000, time.UTC)
	got := GMST(epoch)
	if math.Abs(got-18.697374558) > 0.001 {
		t.Fatalf("GMST(J2000) = %v", got)
	}
}

func TestHourAngleNormalization(t *testing.T) {
	if got := HourAngle(2, 4); math.Abs(got-22) > 1e-9 {
		t.Fatalf("HourAngle(2, 4) = %v, want 22", got)
	}
	if got := HourAngle(10, 4); math.Abs(got-6) > 1e-9 {
		t.Fatalf("HourAngle(10, 4) = %v, want 6", got)
	}
}

func TestMeridianSide(t *testing.T) {
	if got := MeridianSide(6); got != "West" {
		t.Fatalf("MeridianSide(6) = %q", got)
	}
	if got := MeridianSide(18); got != "East" {
		t.Fatalf("MeridianSide(18) = %q", got)
	}
	if got := MeridianSide(0); got != "Meridian" {
		t.Fatalf("MeridianSide(0) = %q", got)
	}
}
