package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"shutterpro/internal/analyzer"
	"shutterpro/internal/capture"
	"shutterpro/internal/downloader"
	"shutterpro/internal/engine"
	"shutterpro/internal/metadata"
	"shutterpro/internal/sessionstore"
	"shutterpro/internal/services/flashair"
	"shutterpro/internal/services/indi"
	"shutterpro/internal/trigger"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var modeFlag string
	var exposureFlag float64

	cmd := &cobra.Command{
		Use:   "capture [shots]",
		Short: "Run a capture session",
		Long: `Fire the shutter the requested number of times, pair each capture with
its downloaded image, and archive the fused records. 0 shots runs until
interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			shots := 1
			if len(args) == 1 {
				shots, err = strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid shot count %q", args[0])
				}
			}
			mode, ok := capture.ParseMode(modeFlag)
			if !ok {
				return fmt.Errorf("unknown mode %q (want camera or bulb)", modeFlag)
			}
			exposure := exposureFlag
			if exposure <= 0 {
				exposure = cfg.Trigger.DefaultBulbSeconds
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			journal, err := sessionstore.Open(cfg)
			if err != nil {
				return err
			}
			defer journal.Close()

			line, err := trigger.NewSysfsLine(cfg.Trigger.GPIOPin)
			if err != nil {
				return fmt.Errorf("open gpio line: %w", err)
			}
			defer line.Close()

			pending := capture.NewQueue[capture.Record]()
			analysis := capture.NewQueue[capture.Record]()

			controller := trigger.New(line, indi.New(cfg), cfg, logger)
			dl := downloader.New(flashair.New(cfg), journal, pending, analysis, cfg, logger)
			an := analyzer.New(analysis, metadata.NewExifDecoder(), journal, cfg, logger)
			eng := engine.New(cfg, controller, dl, an, pending, analysis, journal, logger)

			return eng.Run(runCtx, shots, mode, exposure)
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", string(capture.ModeCamera), "Shutter mode: camera or bulb")
	cmd.Flags().Float64VarP(&exposureFlag, "exposure", "e", 0, "Bulb exposure seconds (defaults to trigger.default_bulb_seconds)")
	return cmd
}
