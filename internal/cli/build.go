package cli

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ishaan-bit/reverie/internal/config"
	"github.com/ishaan-bit/reverie/internal/logging"
	"github.com/ishaan-bit/reverie/internal/recap"
)

var buildKind string

var buildCmd = &cobra.Command{
	Use:   "build <user-id>",
	Short: "Run one build attempt for a user and print the outcome",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildKind, "kind", "daily", "build kind: daily or weekly")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	kind, err := recap.ParseKind(buildKind)
	if err != nil {
		return err
	}

	db, scripts, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer scripts.Close()

	builder := recap.NewBuilder(db, scripts, scripts, log)
	builder.Opts = buildOptions(cfg)

	outcome, err := builder.Build(context.Background(), args[0], kind)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}
