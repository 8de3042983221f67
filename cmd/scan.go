package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pyneda/trailscan/lib"
	"github.com/pyneda/trailscan/pkg/probes"
	"github.com/pyneda/trailscan/pkg/scan"
	"github.com/pyneda/trailscan/pkg/scan/checkpoint"
	"github.com/pyneda/trailscan/pkg/scan/recorder"
	"github.com/pyneda/trailscan/pkg/scan/task"
)

var (
	scanTargetsPath string
	scanOutputPath  string
	scanResume      bool
	scanThreads     int
	scanProxy       string
	scanMode        string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a mass smuggling scan over a list of targets",
	Long: `scan loads a list of target URLs, runs the configured probe (TrailMerge
or TrailSmug) against each with bounded concurrency, and durably records
findings and a checkpoint so an interrupted run can be resumed with --resume.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanTargetsPath, "targets", "", "path to a file with one target URL per line (required)")
	scanCmd.Flags().StringVar(&scanOutputPath, "output", "", "path to write findings to (required)")
	scanCmd.Flags().BoolVar(&scanResume, "resume", false, "resume from an existing checkpoint")
	scanCmd.Flags().IntVar(&scanThreads, "threads", 0, "number of concurrent probe invocations (default from config)")
	scanCmd.Flags().StringVar(&scanProxy, "proxy", "", "proxy URL used by structured (except HTTP/3) and raw requests")
	scanCmd.Flags().StringVar(&scanMode, "mode", "", "probe mode: TrailMerge or TrailSmug (default from config)")

	cobra.CheckErr(scanCmd.MarkFlagRequired("targets"))
	cobra.CheckErr(scanCmd.MarkFlagRequired("output"))
}

func runScan(cmd *cobra.Command, args []string) error {
	threads := scanThreads
	if threads <= 0 {
		threads = viper.GetInt("scan.threads")
	}
	mode := scanMode
	if mode == "" {
		mode = viper.GetString("scan.mode")
	}
	if mode != "TrailMerge" && mode != "TrailSmug" {
		return fmt.Errorf("unsupported scan mode %q, expected TrailMerge or TrailSmug", mode)
	}
	proxy := scanProxy
	if proxy == "" {
		proxy = viper.GetString("navigation.proxy")
	}

	checkpointPath := viper.GetString("scan.checkpoint_path")
	if checkpointPath == "" {
		checkpointPath = "checkpoint"
	}

	targets, err := loadTargets(scanTargetsPath)
	if err != nil {
		return fmt.Errorf("loading targets: %w", err)
	}

	baseIndex := 0
	truncateOutput := true
	targetsPath := scanTargetsPath
	outputPath := scanOutputPath

	if scanResume {
		cp, ok := checkpoint.Read(checkpointPath)
		if !ok {
			return fmt.Errorf("--resume requested but no valid checkpoint found at %q", checkpointPath)
		}
		if cp.TargetsPath != scanTargetsPath {
			return fmt.Errorf("checkpoint targets file %q does not match requested %q", cp.TargetsPath, scanTargetsPath)
		}
		if cp.Mode != mode {
			return fmt.Errorf("checkpoint mode %q does not match requested %q", cp.Mode, mode)
		}
		if cp.OutputPath != scanOutputPath {
			log.Warn().Str("checkpoint_output", cp.OutputPath).Str("requested_output", scanOutputPath).
				Msg("output path mismatch, continuing with the checkpoint's output path")
			outputPath = cp.OutputPath
		}
		baseIndex = cp.NextIndex
		truncateOutput = false

		if baseIndex > len(targets) {
			return fmt.Errorf("checkpoint next_index %d exceeds target count %d", baseIndex, len(targets))
		}
		targets = targets[baseIndex:]
	}

	if len(targets) == 0 {
		log.Info().Msg("nothing to scan")
		return nil
	}

	connectTimeout := viper.GetDuration("navigation.connect_timeout") * time.Second
	rwTimeout := viper.GetDuration("navigation.read_write_timeout") * time.Second
	verbose := viper.GetBool("scan.verbose")

	probe := buildProbe(mode, connectTimeout, rwTimeout, proxy, verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	flushInterval := time.Duration(viper.GetInt("scan.flush_interval")) * time.Second

	opts := scan.Options{
		Concurrency: threads,
		Recorder: &recorder.Config{
			OutputPath:     outputPath,
			CheckpointPath: checkpointPath,
			TargetsPath:    targetsPath,
			Mode:           mode,
			BaseIndex:      baseIndex,
			TruncateOutput: truncateOutput,
			FlushInterval:  flushInterval,
		},
		ShowProgress: true,
	}

	scanID := uuid.NewString()
	log.Info().Str("scan_id", scanID).Int("targets", len(targets)).Int("threads", threads).Str("mode", mode).Msg("starting scan")

	if _, err := scan.Scan(ctx, targets, probe, opts); err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	log.Info().Str("scan_id", scanID).Msg("scan complete")
	return nil
}

func buildProbe(mode string, connectTimeout, rwTimeout time.Duration, proxy string, verbose bool) task.Probe {
	switch mode {
	case "TrailMerge":
		sender := probes.NewEngineSender(connectTimeout, rwTimeout, proxy)
		return probes.NewTrailMerge(probes.DefaultDetector, sender, probes.TrailMergeOptions{
			ConnectTimeout:   connectTimeout,
			ReadWriteTimeout: rwTimeout,
			Verbose:          verbose,
		})
	default:
		sender := probes.NewEngineSender(connectTimeout, rwTimeout, proxy)
		rawSender := probes.NewRawSender(connectTimeout, rwTimeout, proxy)
		return probes.NewTrailSmug(sender, rawSender, probes.TrailSmugOptions{
			ConnectTimeout:   connectTimeout,
			ReadWriteTimeout: rwTimeout,
			Verbose:          verbose,
		})
	}
}

func loadTargets(path string) ([]string, error) {
	lines, err := lib.ReadFileByLines(path)
	if err != nil {
		return nil, err
	}
	var targets []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		targets = append(targets, trimmed)
	}
	return targets, nil
}
