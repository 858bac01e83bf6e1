package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/takagi/pkg/config"
	"github.com/stacklok/takagi/pkg/keyset"
	"github.com/stacklok/takagi/pkg/logger"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate the managed keyset on disk",
	Long: `rotate generates a fresh keyset and replaces the one persisted under
DATA_DIR. It only applies to a managed keyset (KEYSET and KEYSET_FILE unset);
every token signed or encrypted under the previous keyset stops verifying
once a server loads the new keyset; a running serve process keeps the keyset
it loaded at startup.`,
	RunE: runRotate,
}

func init() {
	rotateCmd.Flags().String("env-prefix", "TAKAGI_", "environment variable prefix; SNOWFLAKE_ for a Discord-fronting deployment")
}

func runRotate(cmd *cobra.Command, _ []string) error {
	prefix, err := cmd.Flags().GetString("env-prefix")
	if err != nil {
		return err
	}

	cfg, err := config.Load(prefix)
	if err != nil {
		return err
	}
	if cfg.Keyset != "" || cfg.KeysetFile != "" {
		return fmt.Errorf("rotate: KEYSET/KEYSET_FILE is externally-supplied and does not support rotation")
	}

	km, err := keyset.NewManaged(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("load managed keyset: %w", err)
	}
	if err := km.Rotate(); err != nil {
		return fmt.Errorf("rotate keyset: %w", err)
	}

	logger.Infow("keyset rotated", "dataDir", cfg.DataDir)
	return nil
}
