// Command pypmd is the pypm daemon: it loads configuration, binds the
// loopback TCP listener, and runs the supervisor until a "stop" request
// or a fatal signal shuts it down. Grounded on the teacher's
// daemon.Run (internal/daemon/daemon.go) startup sequence: resolve
// config, set up file logging, then hand off to the long-running loop.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/7c/pypm/internal/config"
	"github.com/7c/pypm/internal/protocol"
	"github.com/7c/pypm/internal/supervisor"
)

var (
	configFlag string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "pypmd",
	Short: "pypm process supervisor daemon",
	Args:  cobra.NoArgs,
	Run:   run,
}

func main() {
	rootCmd.Flags().StringVar(&configFlag, "config", "", "path to pypm.config.json")
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	home := protocol.PypmHome()
	if err := os.MkdirAll(home, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create pypm home %s: %v\n", home, err)
		os.Exit(1)
	}

	result, err := config.Load(home, configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
	resolved, warnings := config.Resolve(result.Raw, home)

	logPath := filepath.Join(home, "pypmd.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open log file: %v\n", err)
		os.Exit(1)
	}
	level := slog.LevelInfo
	if debugFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level})))

	for _, w := range warnings {
		slog.Warn(w)
	}

	slog.Info("pypmd starting",
		"pid", os.Getpid(),
		"config", configSourceLine(result),
		"host", resolved.Host,
		"port", resolved.Port,
		"logdir", resolved.LogDir,
		"log_frequency", resolved.LogFrequency,
	)

	sup := supervisor.New(supervisor.Config{
		Host:         resolved.Host,
		Port:         resolved.Port,
		LogDir:       resolved.LogDir,
		LogFrequency: resolved.LogFrequency,
	})

	if err := sup.Run(); err != nil {
		slog.Error("daemon exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}

func configSourceLine(r *config.LoadResult) string {
	if r.Path == "" {
		return "(none found, using defaults)"
	}
	return fmt.Sprintf("%s (%s)", r.Path, r.Source)
}
