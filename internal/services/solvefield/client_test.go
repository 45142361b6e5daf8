package solvefield

import (
	"context"
	"errors"
	"strings"
	"testing"

	"shutterpro/internal/config"
	"shutterpro/internal/logging"
)

const solvedOutput = `Reading input file 1 of 1: "/tmp/solver/input.jpg"...
Extracting sources...
simplexy: found 87 sources.
Solving...
log-odds ratio 142.531 (1.78e+61), 41 match, 0 conflict, 52 distractors, 31 index.
Hit/miss:   Hit/miss: ++++++++++-+++++++-++
Field 1: solved with index index-4107.fits.
Field center: (RA,Dec) = (83.822083, -5.391111) deg.
Field rotation angle: up is 12.45 degrees E of N
`

const missOutput = `Reading input file 1 of 1: "/tmp/solver/input.jpg"...
Extracting sources...
simplexy: found 12 sources.
Solving...
Field 1 did not solve.
`

type scriptedExecutor struct {
	outputs []string
	errs    []error
	calls   [][]string
}

func (s *scriptedExecutor) Run(_ context.Context, _ string, args []string) (string, error) {
	i := len(s.calls)
	s.calls = append(s.calls, args)
	if i >= len(s.outputs) {
		return "", errors.New("no scripted output")
	}
	if s.errs != nil && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return s.outputs[i], nil
}

func newTestClient(exec Executor) *Client {
	cfg := config.Default()
	return New(cfg, logging.NewNop(), WithExecutor(exec))
}

func floatPtr(v float64) *float64 { return &v }

func TestSolveParsesSolvedOutput(t *testing.T) {
	exec := &scriptedExecutor{outputs: []string{solvedOutput}}
	client := newTestClient(exec)

	result, err := client.Solve(context.Background(), "/tmp/shot.jpg", floatPtr(83.8), floatPtr(-5.4))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !result.Solved {
		t.Fatal("expected solved result")
	}
	if result.RADeg != 83.822083 || result.DecDeg != -5.391111 {
		t.Fatalf("unexpected coordinates %f %f", result.RADeg, result.DecDeg)
	}
	if result.OrientationDeg == nil || *result.OrientationDeg != 12.45 {
		t.Fatalf("unexpected orientation %v", result.OrientationDeg)
	}
	if result.MatchedStars == nil || *result.MatchedStars != 87 {
		t.Fatalf("unexpected star count %v", result.MatchedStars)
	}
	if result.Confidence != 142.531 {
		t.Fatalf("unexpected confidence %f", result.Confidence)
	}
	if result.PassLabel != "Pass 1" {
		t.Fatalf("unexpected pass %q", result.PassLabel)
	}
}

func TestSolveEscalatesThroughPasses(t *testing.T) {
	exec := &scriptedExecutor{outputs: []string{missOutput, missOutput, solvedOutput}}
	client := newTestClient(exec)

	result, err := client.Solve(context.Background(), "/tmp/shot.jpg", floatPtr(83.8), floatPtr(-5.4))
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !result.Solved || result.PassLabel != "Pass 3" {
		t.Fatalf("expected a Pass 3 solve, got %+v", result)
	}
	if len(exec.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(exec.calls))
	}
}

func TestSolveHintedArgsIncludeRadius(t *testing.T) {
	exec := &scriptedExecutor{outputs: []string{solvedOutput}}
	client := newTestClient(exec)

	if _, err := client.Solve(context.Background(), "/tmp/shot.jpg", floatPtr(83.8), floatPtr(-5.4)); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	joined := strings.Join(exec.calls[0], " ")
	for _, want := range []string{"--ra 83.8", "--dec -5.4", "--radius 10.0", "--scale-units app"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in args %q", want, joined)
		}
	}
}

func TestSolveSkipsWithoutHintsWhenBlindDisabled(t *testing.T) {
	exec := &scriptedExecutor{}
	client := newTestClient(exec)

	result, err := client.Solve(context.Background(), "/tmp/shot.jpg", nil, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if result.Solved {
		t.Fatal("expected unsolved result")
	}
	if len(exec.calls) != 0 {
		t.Fatalf("expected no attempts, got %d", len(exec.calls))
	}
}

func TestSolveRunsBlindPassesWhenEnabled(t *testing.T) {
	exec := &scriptedExecutor{outputs: []string{missOutput, missOutput, missOutput}}
	cfg := config.Default()
	cfg.Solver.AllSky = true
	client := New(cfg, logging.NewNop(), WithExecutor(exec))

	result, err := client.Solve(context.Background(), "/tmp/shot.jpg", nil, nil)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if result.Solved {
		t.Fatal("expected unsolved result")
	}
	if len(exec.calls) != 3 {
		t.Fatalf("expected 3 blind attempts, got %d", len(exec.calls))
	}
}

func TestStarRating(t *testing.T) {
	cases := []struct {
		stars int
		want  string
	}{
		{75, "★★★★★"},
		{35, "★★★★☆"},
		{20, "★★★☆☆"},
		{10, "★★☆☆☆"},
		{3, "★☆☆☆☆"},
	}
	for _, tc := range cases {
		if got := StarRating(tc.stars); got != tc.want {
			t.Fatalf("StarRating(%d) = %q, want %q", tc.stars, got, tc.want)
		}
	}
}

func TestFormatOffsetVerdict(t *testing.T) {
	result := Result{Solved: true, RADeg: 83.83, DecDeg: -5.40}
	text := FormatOffset(result, 83.82, -5.39)
	if !strings.Contains(text, "[ Excellent ]") {
		t.Fatalf("expected excellent verdict, got %q", text)
	}

	far := Result{Solved: true, RADeg: 90.0, DecDeg: -5.39}
	text = FormatOffset(far, 83.82, -5.39)
	if !strings.Contains(text, "[ Need Sync ]") {
		t.Fatalf("expected sync verdict, got %q", text)
	}
}
