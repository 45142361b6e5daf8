package main

import (
	"fmt"

	"shutterpro/internal/astro"
	"shutterpro/internal/services/solvefield"
	"shutterpro/internal/solver"
)

// renderSolveDashboard builds the analysis report table for a solve run.
func renderSolveDashboard(outcome solver.Outcome) string {
	result := outcome.Result

	rows := [][]string{
		{"Target", outcome.Target},
	}
	if result.Solved {
		rows = append(rows, []string{"Result", fmt.Sprintf("SUCCESS (%s)", result.PassLabel)})
		rows = append(rows, []string{"Time", fmt.Sprintf("%.2fs", result.Duration.Seconds())})
		rows = append(rows, []string{"Confidence", fmt.Sprintf("%.2f (log-odds)", result.Confidence)})
		if result.MatchedStars != nil {
			rows = append(rows, []string{"Stars", fmt.Sprintf("[ %s ] %d matched",
				solvefield.StarRating(*result.MatchedStars), *result.MatchedStars)})
		}
		rows = append(rows, []string{"Position", fmt.Sprintf("RA %s / Dec %s",
			astro.ToHMS(result.RADeg/15.0), astro.ToDMS(result.DecDeg))})
		if result.OrientationDeg != nil {
			rows = append(rows, []string{"Rotation", fmt.Sprintf("%.2f° (E of N)", *result.OrientationDeg)})
		}
		if outcome.RAHintDeg != nil && outcome.DecHintDeg != nil {
			rows = append(rows, []string{"Mount drift",
				solvefield.FormatOffset(result, *outcome.RAHintDeg, *outcome.DecHintDeg)})
		}
	} else {
		rows = append(rows, []string{"Result", "FAILED"})
		rows = append(rows, []string{"Time", fmt.Sprintf("%.2fs", result.Duration.Seconds())})
	}

	pointer := "updated"
	if outcome.LatestSkipped {
		pointer = "skipped (a newer capture owns the pointer)"
	} else if !outcome.LatestApplied {
		pointer = "not touched"
	}
	rows = append(rows, []string{"Latest pointer", pointer})
	rows = append(rows, []string{"Archive rows", fmt.Sprintf("%d json / %d csv", outcome.HistoryUpdated, outcome.CSVUpdated)})

	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}
