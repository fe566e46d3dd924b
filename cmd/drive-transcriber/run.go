package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/snarg/drive-transcriber/internal/config"
	"github.com/snarg/drive-transcriber/internal/jobs"
	"github.com/spf13/cobra"
)

var (
	fileIDFlag string
	notifyFlag string
)

var runCmd = &cobra.Command{
	Use:   "run [drive-link]",
	Short: "Transcribe one video and print the outcome",
	Long: `Run a single job in the foreground. The outcome JSON is written to stdout
unless --notify names another destination.

Examples:
  drive-transcriber run https://drive.google.com/file/d/1AbC/view
  drive-transcriber run --file-id 1AbC --notify https://hooks.example.com/done`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVar(&fileIDFlag, "file-id", "", "Drive file id (takes priority over the link)")
	runCmd.Flags().StringVar(&notifyFlag, "notify", "stdout:", "Outcome destination: http(s) URL, mqtt://<topic> or stdout:")
}

func runOnce(cmd *cobra.Command, args []string) error {
	req := jobs.Request{FileID: fileIDFlag, CallbackURL: notifyFlag}
	if len(args) == 1 {
		req.DriveLink = args[0]
	}

	cfg, err := loadConfig(config.Overrides{})
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.close()

	a.runner.Start()
	ack, err := a.runner.Submit(req)
	if err != nil {
		return err
	}
	log.Info().Str("job_id", ack.JobID).Msg("job started")
	a.runner.Stop()

	if a.runner.Stats().Failed > 0 {
		return fmt.Errorf("job %s failed", ack.JobID)
	}
	return nil
}
