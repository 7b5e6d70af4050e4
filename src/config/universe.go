package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Skythrill256/yield-ranker-sub001/src/models"
)

// UniverseFund is one tracked ticker.
type UniverseFund struct {
	Ticker          string `yaml:"ticker"`
	Category        string `yaml:"category"`
	Name            string `yaml:"name"`
	Issuer          string `yaml:"issuer"`
	NAVSymbol       string `yaml:"nav_symbol"`
	PaymentsPerYear int    `yaml:"payments_per_year"`
}

// Universe is the set of tracked funds and the default ranking weights per category.
type Universe struct {
	Funds   []UniverseFund                   `yaml:"funds"`
	Weights map[string]models.RankingWeights `yaml:"weights"`
}

// LoadUniverse reads and validates a universe YAML file.
func LoadUniverse(path string) (*Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe %s: %w", path, err)
	}
	return ParseUniverse(data)
}

// ParseUniverse decodes a universe document. Tickers and categories are
// upper-cased; a missing category means ETF.
func ParseUniverse(data []byte) (*Universe, error) {
	var u Universe
	if err := yaml.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}

	seen := make(map[string]bool, len(u.Funds))
	for i := range u.Funds {
		f := &u.Funds[i]
		f.Ticker = strings.ToUpper(strings.TrimSpace(f.Ticker))
		f.Category = strings.ToUpper(strings.TrimSpace(f.Category))
		f.NAVSymbol = strings.ToUpper(strings.TrimSpace(f.NAVSymbol))
		if f.Ticker == "" {
			return nil, fmt.Errorf("universe fund #%d has no ticker", i+1)
		}
		if seen[f.Ticker] {
			return nil, fmt.Errorf("universe lists %s twice", f.Ticker)
		}
		seen[f.Ticker] = true
		switch f.Category {
		case "":
			f.Category = models.CategoryETF
		case models.CategoryETF, models.CategoryCEF:
		default:
			return nil, fmt.Errorf("universe fund %s has unknown category %q", f.Ticker, f.Category)
		}
		if f.PaymentsPerYear < 0 {
			return nil, fmt.Errorf("universe fund %s has negative payments_per_year", f.Ticker)
		}
	}

	normalized := make(map[string]models.RankingWeights, len(u.Weights))
	for cat, w := range u.Weights {
		if w.Timeframe == "" {
			w.Timeframe = models.Timeframe12Mo
		}
		normalized[strings.ToUpper(cat)] = w
	}
	u.Weights = normalized
	return &u, nil
}

// Tickers returns every ticker plus any NAV symbols, which need price history too.
func (u *Universe) Tickers() []string {
	out := make([]string, 0, len(u.Funds))
	seen := make(map[string]bool, len(u.Funds))
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, f := range u.Funds {
		add(f.Ticker)
	}
	for _, f := range u.Funds {
		add(f.NAVSymbol)
	}
	return out
}

// Categories returns the distinct categories in listing order.
func (u *Universe) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range u.Funds {
		if !seen[f.Category] {
			seen[f.Category] = true
			out = append(out, f.Category)
		}
	}
	return out
}

// WeightsFor returns the configured default weights for a category, or the
// dashboard defaults.
func (u *Universe) WeightsFor(category string) models.RankingWeights {
	if u != nil {
		if w, ok := u.Weights[strings.ToUpper(category)]; ok {
			return w
		}
	}
	return models.DefaultWeights()
}

// Fund looks up a universe entry by ticker.
func (u *Universe) Fund(ticker string) (UniverseFund, bool) {
	if u == nil {
		return UniverseFund{}, false
	}
	ticker = strings.ToUpper(ticker)
	for _, f := range u.Funds {
		if f.Ticker == ticker {
			return f, true
		}
	}
	return UniverseFund{}, false
}
