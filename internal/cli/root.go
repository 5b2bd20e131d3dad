// Package cli implements the taskstodo command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bolasblack/taskstodo/internal/config"
)

var (
	// Version, Commit, and Date are set at build time via ldflags
	Version = "dev"
	Commit  = ""
	Date    = ""
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "taskstodo",
	Short: "Sync calcurse todos with Google Tasks",
	Long: `taskstodo keeps the calcurse TODO list and a Google Tasks list in agreement.

Each sync compares both sides against the state they had after the last
sync, so additions and deletions made on either side are carried over.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for documentation generation.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("taskstodo version %s\ncommit: %s\ndate: %s\n", Version, Commit, Date))

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to config.toml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose messages")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(unlockCmd)
}
