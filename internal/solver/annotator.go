package solver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"shutterpro/internal/archive"
	"shutterpro/internal/astro"
	"shutterpro/internal/config"
	"shutterpro/internal/logging"
	"shutterpro/internal/services/solvefield"
)

// SolverVersion stamps annotations written into the archive.
const SolverVersion = "2.0.3"

// Solver runs one plate-solve attempt. Satisfied by solvefield.Client.
type Solver interface {
	Solve(ctx context.Context, imagePath string, raHintDeg, decHintDeg *float64) (solvefield.Result, error)
}

// Outcome reports what a solve run did to the archive.
type Outcome struct {
	Target         string
	Result         solvefield.Result
	RAHintDeg      *float64
	DecHintDeg     *float64
	LatestApplied  bool
	LatestSkipped  bool
	HistoryUpdated int
	CSVUpdated     int
}

// Annotator solves images after the fact and writes the results back into
// the session archive. The latest pointer is only touched when its head
// entry still names the solved file; the cumulative archive and the flat
// log are updated regardless.
type Annotator struct {
	solver      Solver
	saveDir     string
	latestPath  string
	historyPath string
	flat        *archive.FlatLog
	force       bool
	logger      *slog.Logger
}

// New constructs an annotator over the configured save directory.
func New(solver Solver, cfg *config.Config, force bool, logger *slog.Logger) *Annotator {
	saveDir := cfg.Paths.SaveDir
	return &Annotator{
		solver:      solver,
		saveDir:     saveDir,
		latestPath:  filepath.Join(saveDir, "latest_shot.json"),
		historyPath: filepath.Join(saveDir, "shutter_log.json"),
		flat:        archive.NewFlatLog(filepath.Join(saveDir, "shutter_log.csv")),
		force:       force,
		logger:      logging.NewComponentLogger(logger, "solver"),
	}
}

// SolveLatest solves the file the latest pointer currently names. The
// pointer's identity is read before the solve and checked again at write
// time, so an archiver that moved on mid-solve keeps its newer entry.
func (a *Annotator) SolveLatest(ctx context.Context) (Outcome, error) {
	head, err := archive.ReadLatest(a.latestPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("read latest pointer: %w", err)
	}
	target := head.Record.File.Name
	outcome := Outcome{
		Target:     target,
		RAHintDeg:  head.Record.Mount.RADeg,
		DecHintDeg: head.Record.Mount.DecDeg,
	}

	result, err := a.solver.Solve(ctx, filepath.Join(a.saveDir, target), outcome.RAHintDeg, outcome.DecHintDeg)
	if err != nil {
		return outcome, err
	}
	outcome.Result = result

	applied, err := archive.Reconcile(a.latestPath, target, func(e *archive.Entry) {
		applyResult(e, result)
	})
	if err != nil {
		return outcome, fmt.Errorf("reconcile latest pointer: %w", err)
	}
	outcome.LatestApplied = applied
	outcome.LatestSkipped = !applied
	if !applied {
		a.logger.Warn("latest pointer moved on during solve, skipping update",
			logging.String(logging.FieldFilename, target))
	}

	a.updateArchives(&outcome, target, result)
	return outcome, nil
}

// SolveTarget solves one already-archived file by name. An entry that
// already solved successfully is skipped unless the annotator was built
// with force.
func (a *Annotator) SolveTarget(ctx context.Context, target string) (Outcome, error) {
	outcome := Outcome{Target: target}

	entry, found := archive.FindHistoryByFilename(a.historyPath, target)
	if !found {
		a.logger.Debug("no archive entry for target", logging.String(logging.FieldFilename, target))
	} else {
		outcome.RAHintDeg = entry.Record.Mount.RADeg
		outcome.DecHintDeg = entry.Record.Mount.DecDeg
	}
	if found && entry.Record.Analysis.SolveStatus == archive.SolveSuccess && !a.force {
		a.logger.Info("already solved, skipping", logging.String(logging.FieldFilename, target))
		return outcome, nil
	}

	result, err := a.solver.Solve(ctx, filepath.Join(a.saveDir, target), outcome.RAHintDeg, outcome.DecHintDeg)
	if err != nil {
		return outcome, err
	}
	outcome.Result = result

	// A targeted solve also refreshes the latest pointer when it still
	// points at this file.
	if applied, err := archive.Reconcile(a.latestPath, target, func(e *archive.Entry) {
		applyResult(e, result)
	}); err == nil {
		outcome.LatestApplied = applied
	}

	a.updateArchives(&outcome, target, result)
	return outcome, nil
}

func (a *Annotator) updateArchives(outcome *Outcome, target string, result solvefield.Result) {
	updated, err := archive.UpdateHistoryByFilename(a.historyPath, target, func(e *archive.Entry) {
		applyResult(e, result)
	})
	if err != nil {
		a.logger.Warn("archive update failed", logging.Error(err))
	}
	outcome.HistoryUpdated = updated

	stars := result.MatchedStars
	rows, err := a.flat.UpdateSolve(target, archive.SolveUpdate{
		Status:      solveStatus(result),
		Confidence:  result.Confidence,
		Stars:       stars,
		DurationSec: result.Duration.Seconds(),
		PassLabel:   result.PassLabel,
		RADeg:       result.RADeg,
		DecDeg:      result.DecDeg,
		Orientation: result.OrientationDeg,
		Solved:      result.Solved,
	})
	if err != nil {
		a.logger.Warn("flat log update failed", logging.Error(err))
	}
	outcome.CSVUpdated = rows
}

// applyResult rewrites an entry's analysis group with the solve outcome.
func applyResult(entry *archive.Entry, result solvefield.Result) {
	analysis := archive.Analysis{
		SolveStatus:   solveStatus(result),
		SolvePath:     result.PassLabel,
		SolverVersion: SolverVersion,
		Timestamp:     result.Timestamp.Format(time.RFC3339),
		Confidence:    result.Confidence,
		Derived:       entry.Record.Analysis.Derived,
		Quality:       entry.Record.Analysis.Quality,
	}
	if result.Solved {
		analysis.SolvedCoords = &archive.SolvedCoords{
			RADeg:       result.RADeg,
			DecDeg:      result.DecDeg,
			Orientation: result.OrientationDeg,
			RAHMS:       astro.ToHMS(result.RADeg / 15.0),
			DecDMS:      astro.ToDMS(result.DecDeg),
		}
		analysis.ProcessStats = &archive.ProcessStats{
			MatchedStars:     result.MatchedStars,
			SolveDurationSec: result.Duration.Seconds(),
		}
	}
	entry.Record.Analysis = analysis
}

func solveStatus(result solvefield.Result) string {
	if result.Solved {
		return archive.SolveSuccess
	}
	return archive.SolveFailed
}
