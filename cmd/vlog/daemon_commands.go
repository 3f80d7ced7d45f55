package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kagelump/vlog/internal/daemonctl"
	"github.com/kagelump/vlog/internal/deps"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startDir string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the vlog daemon and begin watching for new videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, startDir, 10*time.Second)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startDir, "dir", "", "Directory to watch (defaults to the configured watch_dir)")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the vlog daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			} else {
				fmt.Fprintln(stdout, "Draining pending batches...")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var restartDir string
	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the vlog daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(ctx.socketPath(), exe, restartDir, 5*time.Second, 10*time.Second)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Start.Message) != "" {
					fmt.Fprintln(stdout, result.Start.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}
	restartCmd.Flags().StringVar(&restartDir, "dir", "", "Directory to watch (defaults to the configured watch_dir)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, scheduler, and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			snapshot, err := daemonctl.BuildSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonStatusLines(snapshot, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Ingest", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range ingestStatusLines(snapshot, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(deps.Resolve(cfg), colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Catalog", colorize) {
				fmt.Fprintln(stdout, line)
			}
			table := renderTable(
				[]string{"Clips", "Kept", "Total Footage"},
				[][]string{{
					fmt.Sprintf("%d", snapshot.Stats.Total),
					fmt.Sprintf("%d", snapshot.Stats.Kept),
					formatFootage(snapshot.Stats.TotalSeconds),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight},
			)
			fmt.Fprintln(stdout, table)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func daemonStatusLines(snapshot *daemonctl.Snapshot, colorize bool) []string {
	if !snapshot.Online {
		return []string{renderStatusLine("vlogd", statusError, "Not running", colorize)}
	}

	status := snapshot.Status
	lines := []string{
		renderStatusLine("vlogd", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize),
		renderStatusLine("Catalog path", statusInfo, status.CatalogPath, colorize),
	}

	describe := status.Describe
	switch {
	case describe.Error != "":
		lines = append(lines, renderStatusLine("Describe daemon", statusWarn, describe.Error, colorize))
	case describe.ModelLoaded:
		lines = append(lines, renderStatusLine("Describe daemon", statusOK, fmt.Sprintf("Ready (%s)", describe.ModelName), colorize))
	default:
		lines = append(lines, renderStatusLine("Describe daemon", statusWarn, "Model not loaded", colorize))
	}
	return lines
}

func ingestStatusLines(snapshot *daemonctl.Snapshot, colorize bool) []string {
	ing := snapshot.Status.Ingest
	if !snapshot.Online || !ing.Running {
		return []string{renderStatusLine("Watcher", statusWarn, "Not watching", colorize)}
	}

	worker := "idle"
	if ing.WorkerActive {
		worker = "processing"
	}
	return []string{
		renderStatusLine("Watcher", statusOK, ing.WatchDir, colorize),
		renderStatusLine("Queued", statusInfo, fmt.Sprintf("%d file(s)", ing.Queued), colorize),
		renderStatusLine("Worker", statusInfo, worker, colorize),
		renderStatusLine("Batching", statusInfo, fmt.Sprintf("%d files or %ds", ing.BatchSize, ing.BatchTimeout), colorize),
	}
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	return lines
}

func formatFootage(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	sibling := filepath.Join(filepath.Dir(exe), "vlogd")
	if _, statErr := os.Stat(sibling); statErr == nil {
		return sibling, nil
	}
	path, lookErr := exec.LookPath("vlogd")
	if lookErr != nil {
		return "", fmt.Errorf("locate vlogd binary: %w", lookErr)
	}
	return path, nil
}
