package solvefield

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"shutterpro/internal/config"
	"shutterpro/internal/logging"
	"shutterpro/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.CombinedOutput()
	// solve-field exits nonzero on a failed solve; the output still carries
	// the verdict, so parse failures from the text rather than the code.
	if err != nil && len(out) == 0 {
		return "", err
	}
	return string(out), nil
}

var (
	centerPattern      = regexp.MustCompile(`Field center: \(RA,Dec\) = \(([\d.-]+), ([\d.-]+)\) deg`)
	orientationPattern = regexp.MustCompile(`Field rotation angle: up is ([\d.-]+) degrees`)
	starsPattern       = regexp.MustCompile(`found (\d+) sources`)
	confidencePattern  = regexp.MustCompile(`log-odds ratio ([\d.]+)`)
	hitMissPattern     = regexp.MustCompile(`Hit/miss: ([+\-]+)`)
)

const solvedMarker = "Field 1: solved"

// Result describes the outcome of a plate-solve attempt.
type Result struct {
	Solved         bool
	RADeg          float64
	DecDeg         float64
	OrientationDeg *float64
	MatchedStars   *int
	Confidence     float64
	HitMiss        string
	PassLabel      string
	Duration       time.Duration
	Timestamp      time.Time
}

type pass struct {
	label   string
	sigma   int
	objects int
	hinted  bool
	timeout time.Duration
}

// Client runs the astrometry.net solve-field binary against a captured
// image, escalating through progressively more permissive detection passes.
type Client struct {
	binary     string
	workDir    string
	scaleLow   float64
	scaleHigh  float64
	allSky     bool
	timeout    time.Duration
	exec       Executor
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor Executor) Option {
	return func(c *Client) {
		if executor != nil {
			c.exec = executor
		}
	}
}

// New constructs a solver client from configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		binary:    cfg.Solver.Binary,
		workDir:   cfg.Solver.WorkDir,
		scaleLow:  cfg.Solver.ScaleLow,
		scaleHigh: cfg.Solver.ScaleHigh,
		allSky:    cfg.Solver.AllSky,
		timeout:   time.Duration(cfg.Solver.TimeoutSeconds) * time.Second,
		exec:      commandExecutor{},
		logger:    logging.NewComponentLogger(logger, "solver"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Solve attempts to plate-solve an image. When mount coordinate hints are
// available the search is restricted to a ten degree cone around them; the
// blind all-sky passes run only when enabled in configuration. A miss on
// every pass is reported as an unsolved Result, not an error.
func (c *Client) Solve(ctx context.Context, imagePath string, raHintDeg, decHintDeg *float64) (Result, error) {
	start := time.Now()
	result := Result{Timestamp: start}

	hinted := raHintDeg != nil && decHintDeg != nil
	if !hinted && !c.allSky {
		c.logger.Warn("no coordinate hints and all-sky solving disabled, skipping")
		return result, nil
	}

	var passes []pass
	if hinted {
		passes = append(passes,
			pass{label: "Pass 1", sigma: 30, objects: 100, hinted: true, timeout: c.timeout},
			pass{label: "Pass 2", sigma: 15, objects: 100, hinted: true, timeout: c.timeout},
			pass{label: "Pass 3", sigma: 10, objects: 150, hinted: true, timeout: c.timeout},
		)
	}
	if c.allSky {
		blindTimeout := c.timeout * 2
		passes = append(passes,
			pass{label: "Pass 4", sigma: 30, objects: 100, timeout: blindTimeout},
			pass{label: "Pass 5", sigma: 15, objects: 100, timeout: blindTimeout},
			pass{label: "Pass 6", sigma: 10, objects: 100, timeout: blindTimeout},
		)
	}

	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return result, services.Wrap(services.ErrTransient, "solver", "solve", "solve interrupted", err)
		}
		args := c.buildArgs(imagePath, p, raHintDeg, decHintDeg)
		c.logger.Debug("solve attempt", logging.String("pass", p.label), logging.Int("sigma", p.sigma))

		passCtx, cancel := context.WithTimeout(ctx, p.timeout)
		out, err := c.exec.Run(passCtx, c.binary, args)
		cancel()
		if err != nil {
			c.logger.Debug("solve pass failed", logging.String("pass", p.label), logging.Error(err))
			continue
		}
		if parsed, ok := parseOutput(out); ok {
			parsed.PassLabel = p.label
			parsed.Duration = time.Since(start)
			parsed.Timestamp = start
			c.logger.Info("field solved",
				logging.String("pass", p.label),
				logging.Float64("ra_deg", parsed.RADeg),
				logging.Float64("dec_deg", parsed.DecDeg))
			return parsed, nil
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (c *Client) buildArgs(imagePath string, p pass, raHintDeg, decHintDeg *float64) []string {
	args := []string{
		imagePath,
		"--dir", c.workDir,
		"--overwrite",
		"--no-plots",
		"--scale-low", strconv.FormatFloat(c.scaleLow, 'f', -1, 64),
		"--scale-high", strconv.FormatFloat(c.scaleHigh, 'f', -1, 64),
		"--scale-units", "app",
		"--cpulimit", "20",
		"--sigma", strconv.Itoa(p.sigma),
		"--downsample", "4",
	}
	if p.hinted {
		args = append(args,
			"--ra", strconv.FormatFloat(*raHintDeg, 'f', -1, 64),
			"--dec", strconv.FormatFloat(*decHintDeg, 'f', -1, 64),
			"--radius", "10.0",
		)
	}
	return append(args, "--objs", strconv.Itoa(p.objects))
}

// parseOutput extracts solve results from solve-field's combined output.
// The second return value reports whether the field was actually solved.
func parseOutput(out string) (Result, bool) {
	if !strings.Contains(out, solvedMarker) {
		return Result{}, false
	}
	result := Result{Solved: true}
	if m := centerPattern.FindStringSubmatch(out); m != nil {
		result.RADeg, _ = strconv.ParseFloat(m[1], 64)
		result.DecDeg, _ = strconv.ParseFloat(m[2], 64)
	}
	if m := orientationPattern.FindStringSubmatch(out); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			result.OrientationDeg = &v
		}
	}
	if m := starsPattern.FindStringSubmatch(out); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			result.MatchedStars = &v
		}
	}
	if m := confidencePattern.FindStringSubmatch(out); m != nil {
		result.Confidence, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := hitMissPattern.FindStringSubmatch(out); m != nil {
		result.HitMiss = m[1]
		if len(result.HitMiss) > 15 {
			result.HitMiss = result.HitMiss[:15]
		}
	}
	return result, true
}

// StarRating renders a five step quality gauge for a matched star count.
func StarRating(stars int) string {
	switch {
	case stars >= 50:
		return "★★★★★"
	case stars >= 30:
		return "★★★★☆"
	case stars >= 15:
		return "★★★☆☆"
	case stars >= 10:
		return "★★☆☆☆"
	default:
		return "★☆☆☆☆"
	}
}

// FormatOffset describes the drift between solved and hinted coordinates in
// arcminutes with a quality verdict.
func FormatOffset(result Result, raHintDeg, decHintDeg float64) string {
	dra := result.RADeg - raHintDeg
	ddec := result.DecDeg - decHintDeg
	dist := offsetArcmin(dra, ddec, decHintDeg)
	verdict := "[ Need Sync ]"
	if dist < 5 {
		verdict = "[ Excellent ]"
	}
	return fmt.Sprintf("ΔRA %+.3f° / ΔDec %+.3f° (%.1f' %s)", dra, ddec, dist, verdict)
}

func offsetArcmin(draDeg, ddecDeg, decDeg float64) float64 {
	cosDec := math.Cos(decDeg * math.Pi / 180)
	return math.Hypot(draDeg*cosDec, ddecDeg) * 60
}
