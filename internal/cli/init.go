package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bolasblack/taskstodo/internal/config"
	"github.com/bolasblack/taskstodo/internal/util"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write config.toml with the default settings to the configuration directory
(or the path given by --config).

Place the OAuth client file downloaded from the Google Cloud console at the
configured remote.credentials_file before the first sync.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.ExpandHome(configPath)

	exists, err := afero.Exists(appFs, path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if exists && !initForce {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.GenerateConfig(appFs, path, config.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	util.ProgressDone(out, "Created %s\n", path)
	fmt.Fprintln(out, "Edit this file to customize paths, then run 'taskstodo sync <list-title>'.")
	return nil
}
