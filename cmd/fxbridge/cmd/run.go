package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/fxbridge/bridge"
	"github.com/rustyeddy/fxbridge/config"
	"github.com/rustyeddy/fxbridge/internal/logging"
	"github.com/rustyeddy/fxbridge/journal"
	"github.com/rustyeddy/fxbridge/market"
	"github.com/rustyeddy/fxbridge/venue"
	"github.com/rustyeddy/fxbridge/venue/sim"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bridge control loop from a config file",
	Long: `Start the venue-side bridge: poll the command channel, gate and
execute orders, and publish status snapshots until interrupted.

Example:
  fxbridge run --config bridge.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New("fxbridge", cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	vn := newVenue(cfg.Venue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := bridge.New(ctx, bridge.Options{
		Venue:                vn,
		Policy:               cfg.Risk.Policy(),
		Journal:              j,
		Logger:               logger,
		DataDir:              cfg.Bridge.DataDir,
		Tag:                  cfg.Bridge.Tag,
		Watch:                cfg.Bridge.Watch,
		StatusInterval:       cfg.Bridge.StatusEvery(),
		DeviationPoints:      cfg.Bridge.DeviationPoints,
		CloseDeviationPoints: cfg.Bridge.CloseDeviationPoints,
		PanicDeviationPoints: cfg.Bridge.PanicDeviationPoints,
		MaxSlippagePips:      cfg.Bridge.MaxSlippagePips,
		MaxFillAttempts:      cfg.Bridge.MaxFillAttempts,
	})
	if err != nil {
		return fmt.Errorf("initialize bridge: %w", err)
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
		logger.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
	}

	logger.Info("bridge running",
		zap.String("run_id", b.RunID()),
		zap.String("data_dir", cfg.Bridge.DataDir),
		zap.Duration("poll_interval", cfg.Bridge.PollEvery()),
	)

	b.Run(ctx, cfg.Bridge.PollEvery())
	return nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "csv":
		return journal.NewCSV(jc.OrdersFile, jc.DailyFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	}
	return journal.Nop{}, nil
}

// newVenue builds the paper venue the run command attaches to. Real venue
// adapters implement venue.Venue and plug in here.
func newVenue(vc config.VenueConfig) venue.Venue {
	eng := sim.NewEngine(venue.AccountSnapshot{
		Balance:  vc.Balance,
		Equity:   vc.Balance,
		Currency: vc.Currency,
		Leverage: vc.Leverage,
	})
	for _, q := range vc.Quotes {
		eng.SetTick(market.Tick{
			Symbol: q.Symbol,
			Bid:    q.Bid,
			Ask:    q.Ask,
			Time:   time.Now(),
		})
	}
	return eng
}
