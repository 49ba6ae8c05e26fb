// Command mealledger runs maintenance and reporting tasks against a meal
// ledger store.
//
//	mealledger [-config path] migrate
//	mealledger [-config path] pending [-json] [customer ...]
//	mealledger [-config path] current customer
//	mealledger [-config path] history [-json] ledger-id
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/xraph/mealledger"
	"github.com/xraph/mealledger/cache/redis"
	"github.com/xraph/mealledger/internal/config"
)

var errUsage = errors.New("usage: mealledger [-config path] migrate|pending|current|history [args]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("mealledger", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	engine, closeFn, err := openEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "migrate":
		if err := engine.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied", "driver", cfg.Store.Driver)
		return nil
	case "pending":
		return runPending(ctx, engine, rest, out)
	case "current":
		return runCurrent(ctx, engine, rest, out)
	case "history":
		return runHistory(ctx, engine, rest, out)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func openEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mealledger.Engine, func(), error) {
	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []mealledger.Option{
		mealledger.WithLogger(logger),
		mealledger.WithPendingCacheTTL(cfg.Pending.CacheTTL),
	}

	var closers []func() error
	if cfg.Redis.Addr != "" {
		c, client, err := redis.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			_ = s.Close() //nolint:errcheck // best-effort cleanup
			return nil, nil, err
		}
		opts = append(opts, mealledger.WithPendingCache(c))
		closers = append(closers, client.Close)
	}

	engine := mealledger.New(s, opts...)
	closers = append(closers, engine.Stop)

	return engine, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("close failed", "error", err)
			}
		}
	}, nil
}

func runPending(ctx context.Context, engine *mealledger.Engine, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("pending", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	rows, err := engine.ListPending(ctx, fs.Args()...)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(out, rows)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CUSTOMER\tLEDGER\tPLAN\tPENDING\tSTATUS\tEND")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.CustomerID, r.LedgerID, r.PlanName, r.PendingMeals, r.Status, r.EndDate.Format("2006-01-02"))
	}
	return tw.Flush()
}

func runCurrent(ctx context.Context, engine *mealledger.Engine, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	l, err := engine.CurrentLedger(ctx, args[0])
	if err != nil {
		return err
	}
	return writeJSON(out, l)
}

func runHistory(ctx context.Context, engine *mealledger.Engine, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}

	ledgerID, err := mealledger.ParseLedgerID(fs.Arg(0))
	if err != nil {
		return err
	}
	log, err := engine.History(ctx, ledgerID)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(out, log)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tWEEK\tDAY\tUSED\tCONSUMED\tREMAINING\tSTATUS\tACTOR")
	for _, e := range log {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%d\t%d\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04"), e.Action, e.Week, e.Day,
			e.CurrentConsumed, e.ConsumedMeals, e.RemainingMeals, e.Status, e.Actor)
	}
	return tw.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
