package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stacklok/takagi/pkg/keyset"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a fresh JWK Set and print it to stdout",
	Long: `keygen generates a fresh signing and encryption keyset and prints its
JWK Set JSON document to stdout. Pipe the output into the KEYSET environment
variable or a file referenced by KEYSET_FILE to supply Takagi with
externally-managed key material instead of DATA_DIR-backed persistence.`,
	RunE: runKeygen,
}

func runKeygen(_ *cobra.Command, _ []string) error {
	dir, err := os.MkdirTemp("", "takagi-keygen-*")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	if _, err := keyset.NewManaged(dir); err != nil {
		return fmt.Errorf("generate keyset: %w", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "keyset.json"))
	if err != nil {
		return fmt.Errorf("read generated keyset: %w", err)
	}

	_, err = os.Stdout.Write(raw)
	return err
}
