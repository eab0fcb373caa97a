package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alejandrodnm/predbot/config"
	"github.com/alejandrodnm/predbot/internal/adapters/notify"
	"github.com/alejandrodnm/predbot/internal/adapters/onchain"
	"github.com/alejandrodnm/predbot/internal/adapters/storage"
	"github.com/alejandrodnm/predbot/internal/application/balance"
	"github.com/alejandrodnm/predbot/internal/application/claims"
	"github.com/alejandrodnm/predbot/internal/application/round"
	"github.com/alejandrodnm/predbot/internal/domain"
	"github.com/alejandrodnm/predbot/internal/domain/strategy"
	"github.com/alejandrodnm/predbot/internal/ports"
)

const (
	exitOK     = 0
	exitFatal  = 1
	exitUsage  = 2
	historyMax = 25
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	args, positional := splitStrategyFlag(args)

	fs := flag.NewFlagSet("predbot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	strategyArg := fs.String("strategy", "", "betting strategy: against|with (also accepted as first argument, with or without --)")
	market := fs.String("market", "", "prediction market: pancake|candlegenie (overrides config)")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	logFormat := fs.String("format", "", "log format: text|json (overrides config)")
	dryRun := fs.Bool("dry-run", false, "decide every round but never send transactions")
	history := fs.Bool("history", false, "print recorded bets and claims and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	arg := *strategyArg
	if arg == "" {
		arg = positional
	}
	if arg == "" && fs.NArg() > 0 {
		arg = fs.Arg(0)
	}
	strat, err := strategy.Parse(arg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, "usage: predbot [flags] [against|with|--against|--with]")
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		return exitFatal
	}

	if *market != "" {
		cfg.Bot.Market = *market
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *dryRun {
		cfg.Bot.DryRun = true
	}

	closeLog := setupLogger(cfg.Log)
	defer closeLog()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err, "path", *configPath)
		if errors.Is(err, domain.ErrUnknownMarket) {
			return exitUsage
		}
		return exitFatal
	}

	if *history {
		return printHistory(cfg, stdout)
	}

	if cfg.PrivateKey == "" {
		fmt.Fprintln(stdout, "Please restore your private key in the .env file (PRIVATE_KEY=...)")
		return exitOK
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runBot(ctx, cfg, strat); err != nil {
		slog.Error("predbot exited with error", "err", err)
		if errors.Is(err, domain.ErrUnknownMarket) {
			return exitUsage
		}
		return exitFatal
	}

	slog.Info("predbot stopped cleanly")
	return exitOK
}

func runBot(ctx context.Context, cfg *config.Config, strat domain.Strategy) error {
	betAmount, err := cfg.BetAmountWei()
	if err != nil {
		return err
	}

	chain, err := onchain.Dial(ctx, onchain.ChainConfig{
		RPCURL:       cfg.Chain.RPC,
		PrivateKey:   cfg.PrivateKey,
		ChainID:      cfg.Chain.ChainID,
		MaxRPS:       cfg.Chain.MaxRPS,
		PollInterval: cfg.Chain.PollInterval,
	})
	if err != nil {
		return err
	}
	defer chain.Close()

	market, err := onchain.NewMarket(cfg.Bot.Market, chain)
	if err != nil {
		return err
	}

	ledger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer ledger.Close()

	console := notify.NewConsole(market.Name())
	console.Banner(strat, chain.Address().Hex(), betAmount, cfg.Bot.DryRun)

	slog.Info("predbot starting",
		"market", market.Name(),
		"contract", market.Address().Hex(),
		"account", chain.Address().Hex(),
		"strategy", strat.String(),
		"bet_bnb", domain.FormatBNB(betAmount),
		"wait", cfg.Bot.WaitTime,
		"fee_bps", cfg.FeeBps(),
		"dry_run", cfg.Bot.DryRun,
	)

	monitor := balance.NewMonitor(chain, betAmount, console)
	if _, err := monitor.Check(ctx); err != nil {
		slog.Warn("balance: startup check failed", "err", err)
	}
	if err := monitor.Start(ctx, cfg.Balance.CheckCron); err != nil {
		return err
	}
	defer monitor.Stop()

	if epoch, err := market.CurrentEpoch(ctx); err == nil {
		slog.Info("predbot: current epoch", "epoch", epoch)
	} else {
		slog.Warn("predbot: could not read current epoch", "err", err)
	}

	resolver := claims.NewResolver(market, cfg.Bot.ClaimLookback)
	resolver.SetWorkers(cfg.Bot.ClaimWorkers)

	ctrl := round.New(
		market,
		chain,
		resolver,
		strategy.New(strat),
		ledger,
		console,
		round.Config{
			Market:        market.Name(),
			BetAmount:     betAmount,
			WaitTime:      cfg.Bot.WaitTime,
			BlockTime:     cfg.Bot.BlockTime,
			FeeBps:        cfg.FeeBps(),
			FeeRecipient:  cfg.FeeRecipient(),
			ReadTimeout:   cfg.Timeouts.Read,
			LookupTimeout: cfg.Timeouts.Lookup,
			TxTimeout:     cfg.Timeouts.Tx,
			DryRun:        cfg.Bot.DryRun,
		},
	)

	queue := round.NewQueue(ctrl, cfg.Bot.QueueSize)
	queue.OnOutcome(func(out domain.RoundOutcome) {
		slog.Info("round: outcome",
			"run_id", out.RunID,
			"epoch", out.Epoch,
			"bet_placed", out.BetPlaced,
			"claimed", len(out.Claimed),
			"fees_sent", out.FeesSent,
			"fee_errors", out.FeeErrors,
			"next_wait", ctrl.WaitTime(),
		)
	})

	events := make(chan domain.RoundStarted, 4)
	go watchRounds(ctx, market, events)
	go queue.Feed(ctx, events)

	err = queue.Run(ctx)
	slog.Info("predbot: worker stopped", "dropped_rounds", queue.Dropped())
	return err
}

// splitStrategyFlag pulls a --with / --against argument out of args so the
// flag package does not reject it as an undefined flag. Anything after a
// bare "--" is left alone.
func splitStrategyFlag(args []string) (rest []string, strat string) {
	rest = make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			rest = append(rest, args[i:]...)
			break
		}
		switch strings.ToLower(a) {
		case "--with", "-with", "--against", "-against":
			strat = strings.TrimLeft(a, "-")
			continue
		}
		rest = append(rest, a)
	}
	return rest, strat
}

func openLedger(cfg *config.Config) (ports.Ledger, error) {
	if !cfg.StorageEnabled() {
		slog.Info("storage disabled, bet history will not be kept")
		return storage.Noop{}, nil
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}
	return store, nil
}

func printHistory(cfg *config.Config, stdout io.Writer) int {
	if !cfg.StorageEnabled() {
		fmt.Fprintln(stdout, "storage is disabled (storage.dsn: none): no history to show")
		return exitOK
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		return exitFatal
	}
	defer store.Close()

	ctx := context.Background()
	stats, err := store.Stats(ctx)
	if err != nil {
		slog.Error("failed to read stats", "err", err)
		return exitFatal
	}
	bets, err := store.RecentBets(ctx, historyMax)
	if err != nil {
		slog.Error("failed to read bets", "err", err)
		return exitFatal
	}

	claims, err := store.RecentClaims(ctx, historyMax)
	if err != nil {
		slog.Error("failed to read claims", "err", err)
		return exitFatal
	}

	notify.NewConsoleWriter(stdout, cfg.Bot.Market, stdout == os.Stdout).PrintHistory(stats, bets, claims)
	return exitOK
}
