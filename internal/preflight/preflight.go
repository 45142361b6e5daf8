package preflight

import (
	"context"

	"shutterpro/internal/config"
	"shutterpro/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RemotePinger checks that the remote image store answers.
type RemotePinger interface {
	Ping(ctx context.Context) error
}

// RunAll executes the startup checks for a capture session: directory
// access, free disk space, remote store reachability, and the external
// binaries the pipeline shells out to.
func RunAll(ctx context.Context, cfg *config.Config, remote RemotePinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Save directory", cfg.Paths.SaveDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDiskSpace("Save directory space", cfg.Paths.SaveDir),
	}
	if remote != nil {
		results = append(results, CheckRemoteStore(ctx, cfg.Remote.BaseURL, remote))
	}

	for _, status := range deps.CheckBinaries(binaryRequirements(cfg)) {
		detail := status.Detail
		if status.Available {
			detail = status.Command
		}
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: detail,
		})
	}
	return results
}

func binaryRequirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{
			Name:        "INDI property reader",
			Command:     cfg.IndiGetpropBinary(),
			Description: "Required for mount and weather telemetry",
			Optional:    true,
		},
		{
			Name:        "Plate solver",
			Command:     cfg.Solver.Binary,
			Description: "Required for the solve command",
			Optional:    true,
		},
	}
}
