package deps

import "testing"

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "Shell", Command: "sh", Description: "always present"},
		{Name: "Imaginary", Command: "no-such-binary-xyzzy", Optional: true},
		{Name: "Unset", Command: ""},
	})
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Available {
		t.Fatalf("sh should be available: %+v", statuses[0])
	}
	if statuses[1].Available {
		t.Fatal("missing binary reported available")
	}
	if !statuses[1].Optional {
		t.Fatal("optional flag lost")
	}
	if statuses[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail %q", statuses[2].Detail)
	}
}
