package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/heroes/internal/config"
	"github.com/runger/heroes/internal/daemon"
	"github.com/runger/heroes/internal/ipc"
)

// daemonReadyTimeout bounds how long "daemon start" waits for the socket.
var daemonReadyTimeout = 5 * time.Second

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	Short:   "Manage the heroes daemon",
	GroupID: groupSetup,
	Long: `Manage heroesd, the background process that owns the hero database.

The daemon serves the roster over a unix socket (the default backend) and,
when daemon.http_addr is set, over the HTTP API. Commands start it on
demand when client.auto_start_daemon is true.

Subcommands:
  start  - Start the daemon (runs in background)
  stop   - Stop the daemon
  status - Check if daemon is running
  clean  - Remove files left by a daemon that died`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the background daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyColorMode()
		_, paths, err := loadConfig()
		if err != nil {
			return err
		}

		if daemon.IsRunningWithPaths(paths) && ipc.SocketExists(paths.SocketFile()) {
			fmt.Printf("Daemon: %salready running%s\n", colorCyan, colorReset)
			return nil
		}

		fmt.Print("Starting heroes daemon...")
		err = ipc.EnsureDaemon(cmdContext(cmd), ipc.SpawnConfig{
			SocketPath:   paths.SocketFile(),
			LogPath:      paths.LogFile(),
			ReadyTimeout: daemonReadyTimeout,
		})
		if err != nil {
			fmt.Printf(" %sfailed%s\n", colorRed, colorReset)
			return err
		}
		fmt.Printf(" %sready%s\n", colorGreen, colorReset)
		return nil
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyColorMode()
		_, paths, err := loadConfig()
		if err != nil {
			return err
		}

		if !daemon.IsRunningWithPaths(paths) {
			fmt.Printf("Daemon: %snot running%s\n", colorDim, colorReset)
			return nil
		}
		if err := daemon.StopWithPaths(paths); err != nil {
			return err
		}
		fmt.Println("Daemon stopped.")
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyColorMode()
		cfg, paths, err := loadConfig()
		if err != nil {
			return err
		}
		printDaemonStatus(cfg, paths)
		return nil
	},
}

var daemonCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the socket and PID file of a dead daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, paths, err := loadConfig()
		if err != nil {
			return err
		}
		if err := daemon.CleanupStaleWithPaths(paths); err != nil {
			return err
		}
		fmt.Println("Removed stale daemon files.")
		return nil
	},
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonCleanCmd)
	rootCmd.AddCommand(daemonCmd)
}

func printDaemonStatus(cfg *config.Config, paths *config.Paths) {
	if !daemon.IsRunningWithPaths(paths) {
		fmt.Printf("Daemon: %snot running%s\n", colorDim, colorReset)
		return
	}

	fmt.Printf("Daemon: %srunning%s\n", colorGreen, colorReset)
	if pid, err := daemon.ReadPID(paths.PIDFile()); err == nil {
		fmt.Printf("  PID:     %d\n", pid)
	}
	fmt.Printf("  Socket:  %s\n", paths.SocketFile())
	if cfg.Daemon.HTTPAddr != "" {
		fmt.Printf("  HTTP:    %s\n", cfg.Daemon.HTTPAddr)
	}
	fmt.Printf("  DB:      %s\n", paths.DatabaseFile())
}
