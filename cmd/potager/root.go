package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"potager/internal/adapters/local"
	"potager/internal/client"
	"potager/internal/config"
	"potager/internal/core"
	"potager/internal/logging"
	"potager/internal/planner"
	"potager/pkg/domain"
)

// newRootCmd builds the full command tree. Each call returns fresh commands,
// so flag values and contexts never carry over between executions.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "potager",
		Short:             "Vegetable garden planner",
		Long:              "Potager plans cultures, plot grids and garden layouts, and keeps named versions of the garden.",
		SilenceUsage:      true,
		PersistentPreRunE: loadRuntime,
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default .potager.yaml)")
	flags.String("api-url", "", "planner API base URL")
	flags.Bool("local", false, "open the configured store directly instead of calling the API")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")

	_ = viper.BindPFlag("api_url", flags.Lookup("api-url"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(
		newServeCmd(),
		newCropsCmd(),
		newCulturesCmd(),
		newDeadlinesCmd(),
		newGardenCmd(),
		newPlotCmd(),
		newVersionsCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session is the resolved configuration shared by every command.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	local  bool
	out    io.Writer
	errOut io.Writer
}

var rt session

func loadRuntime(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfgFile, _ := cmd.Flags().GetString("config")
	if err := config.Init(viper.GetViper(), cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	isLocal, _ := cmd.Flags().GetBool("local")
	rt = session{cfg: cfg, logger: logger, local: isLocal, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
	return nil
}

// gardenAPI is what the terminal commands need from either the REST client or
// the in-process service.
type gardenAPI interface {
	planner.Backend
	PopularCrops(ctx context.Context, limit int) ([]domain.Crop, error)
	CreateCulture(ctx context.Context, c domain.Culture) (domain.Culture, error)
	ImportCultures(ctx context.Context, cultures []domain.Culture) ([]domain.Culture, error)
	DeleteCulture(ctx context.Context, id string) error
	ExportVersion(ctx context.Context, id string, w io.Writer) (string, error)
}

var (
	_ gardenAPI = (*client.Client)(nil)
	_ gardenAPI = (*local.Backend)(nil)
)

// openAPI returns the backend selected by --local. The close func releases the
// store in local mode.
func openAPI(ctx context.Context) (gardenAPI, func(), error) {
	if !rt.local {
		c, err := client.New(rt.cfg.APIURL)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
	store, err := core.OpenPersistentStore(ctx, rt.cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeStore := func() {
		if closer, ok := store.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				rt.logger.Warn("close store", "error", err)
			}
		}
	}
	svc := core.NewService(store, core.WithLogger(rt.logger))
	return local.New(svc), closeStore, nil
}

// openEngine loads a planner over the selected backend. Loading restores the
// most recent version, as the interactive planner does on startup, and a
// notice naming it goes to stderr.
func openEngine(ctx context.Context) (*planner.Engine, gardenAPI, func(), error) {
	api, closeFn, err := openAPI(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	engine := planner.New(api, planner.WithLogger(rt.logger), planner.WithNow(timeNow))
	if err := engine.Load(ctx); err != nil {
		closeFn()
		return nil, nil, nil, fmt.Errorf("load planner: %w", err)
	}
	noticeRestored(rt.errOut, engine.State())
	return engine, api, closeFn, nil
}

var timeNow = time.Now
