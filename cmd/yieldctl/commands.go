package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/Skythrill256/yield-ranker-sub001/src/app"
	"github.com/Skythrill256/yield-ranker-sub001/src/config"
	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
	"github.com/Skythrill256/yield-ranker-sub001/src/models"
	"github.com/Skythrill256/yield-ranker-sub001/src/security/validation"
	"github.com/Skythrill256/yield-ranker-sub001/src/services"
)

var commands = []subcommands.Command{
	&syncCmd{},
	&recomputeCmd{},
	&dviCmd{},
	&zscoreCmd{},
	&rankCmd{},
}

func openApp(ctx context.Context) (*app.App, error) {
	config.LoadConfig()
	// stdout carries command output
	level, _ := logger.ParseLevel(config.Cfg.LogLevel)
	logger.L = logger.New(os.Stderr, level)
	return app.New(ctx, config.Cfg)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

func printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

func tickerArg(f *flag.FlagSet) (string, error) {
	if f.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one ticker")
	}
	return validation.NormalizeTicker(f.Arg(0))
}

type syncCmd struct {
	years int
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "pull provider history for one ticker or the whole universe" }
func (*syncCmd) Usage() string {
	return `yieldctl sync [-years n] [ticker]

  Fetches prices and dividends and recomputes metrics. Without a ticker
  every universe fund and NAV symbol is synced.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.years, "years", 0, "years of history to request (defaults to SYNC_LOOKBACK_YEARS)")
}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	years := c.years
	if years <= 0 {
		years = a.Config.SyncLookbackYears
	}
	from := time.Now().UTC().AddDate(-years, 0, 0)

	if f.NArg() == 0 {
		summary := a.Ingestion.SyncAll(ctx, services.TargetsFromUniverse(a.Universe), from)
		if _, err := a.Metrics.RecomputeAll(ctx); err != nil {
			return fail(err)
		}
		if err := a.Ranking.PersistDefaultRanks(ctx); err != nil {
			return fail(err)
		}
		status := printJSON(summary)
		if summary.Failed > 0 {
			return subcommands.ExitFailure
		}
		return status
	}

	ticker, err := tickerArg(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	result, err := a.Ingestion.SyncTicker(ctx, services.SyncTarget{Ticker: ticker}, from)
	if err != nil {
		return fail(err)
	}
	if _, err := a.Metrics.Compute(ctx, ticker); err != nil {
		return fail(err)
	}
	return printJSON(result)
}

type recomputeCmd struct{}

func (*recomputeCmd) Name() string     { return "recompute" }
func (*recomputeCmd) Synopsis() string { return "recompute every metrics snapshot and default rank" }
func (*recomputeCmd) Usage() string {
	return `yieldctl recompute

  Recomputes metrics from stored history, then persists default ranks.
`
}
func (*recomputeCmd) SetFlags(*flag.FlagSet) {}

func (*recomputeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	n, err := a.Metrics.RecomputeAll(ctx)
	if err != nil {
		return fail(err)
	}
	if err := a.Ranking.PersistDefaultRanks(ctx); err != nil {
		return fail(err)
	}
	return printJSON(map[string]int{"computed": n})
}

type dviCmd struct{}

func (*dviCmd) Name() string     { return "dvi" }
func (*dviCmd) Synopsis() string { return "print the dividend volatility breakdown of a ticker" }
func (*dviCmd) Usage() string {
	return `yieldctl dvi <ticker>
`
}
func (*dviCmd) SetFlags(*flag.FlagSet) {}

func (*dviCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ticker, err := tickerArg(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	res, err := a.Metrics.DVI(ctx, ticker)
	if err != nil {
		return fail(err)
	}
	return printJSON(res)
}

type zscoreCmd struct{}

func (*zscoreCmd) Name() string     { return "zscore" }
func (*zscoreCmd) Synopsis() string { return "print the premium/discount Z-score of a closed-end fund" }
func (*zscoreCmd) Usage() string {
	return `yieldctl zscore <ticker>
`
}
func (*zscoreCmd) SetFlags(*flag.FlagSet) {}

func (*zscoreCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ticker, err := tickerArg(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	res, err := a.Metrics.ZScore(ctx, ticker)
	if err != nil {
		return fail(err)
	}
	return printJSON(res)
}

type rankCmd struct {
	category  string
	weights   string
	timeframe string
	csv       bool
}

func (*rankCmd) Name() string     { return "rank" }
func (*rankCmd) Synopsis() string { return "rank funds with custom weights" }
func (*rankCmd) Usage() string {
	return `yieldctl rank [-category ETF|CEF] [-weights yield,volatility,zScore,totalReturn] [-timeframe 3mo|6mo|12mo] [-csv]

  Ranks stored funds. Without -weights the category defaults are used.
`
}

func (c *rankCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "category", "", "ETF or CEF (all funds when empty)")
	f.StringVar(&c.weights, "weights", "", "comma-separated percentages, e.g. 50,30,0,20")
	f.StringVar(&c.timeframe, "timeframe", "", "total return timeframe")
	f.BoolVar(&c.csv, "csv", false, "write CSV instead of JSON")
}

func parseWeights(s, timeframe string) (models.RankingWeights, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return models.RankingWeights{}, fmt.Errorf("-weights needs 4 values, got %d", len(parts))
	}
	var vals [4]float64
	names := []string{models.CriterionYield, models.CriterionVolatility, models.CriterionZScore, models.CriterionTotalReturn}
	for i, p := range parts {
		v, err := validation.ValidateFloatString(p, names[i], 0, validation.MaxWeight)
		if err != nil {
			return models.RankingWeights{}, err
		}
		vals[i] = v
	}
	return models.RankingWeights{Yield: vals[0], Volatility: vals[1], ZScore: vals[2], TotalReturn: vals[3], Timeframe: timeframe}, nil
}

func (c *rankCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	category, err := validation.NormalizeCategory(c.category)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	weights := a.Universe.WeightsFor(category)
	if c.timeframe != "" {
		weights.Timeframe = c.timeframe
	}
	if c.weights != "" {
		if weights, err = parseWeights(c.weights, c.timeframe); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	result, err := a.Ranking.Rank(ctx, category, weights)
	if err != nil {
		return fail(err)
	}
	if result.Warning != "" {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", result.Warning)
	}
	if c.csv {
		if err := services.WriteRankingCSV(os.Stdout, result); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}
	return printJSON(result)
}
