package apps

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"moonclock/config"
)

const defaultCoinGeckoAPI = "https://api.coingecko.com/api/v3"

type marketOptions struct {
	BaseOptions `yaml:",inline"`
	Coin        string `yaml:"coin"`
	Currency    string `yaml:"currency"`
	API         string `yaml:"api"`
}

type marketKind int

const (
	marketPrice marketKind = iota
	marketCap
	marketMoscowTime
)

// marketApp covers the kinds backed by the CoinGecko simple price endpoint.
type marketApp struct {
	base
	what     marketKind
	coin     string
	currency string
	api      string
}

func marketFactory(what marketKind) Factory {
	return func(env Env, cfg config.AppConfig) (Unit, error) {
		opts := marketOptions{
			BaseOptions: BaseOptions{Duration: 10},
			Coin:        "bitcoin",
			Currency:    "usd",
			API:         defaultCoinGeckoAPI,
		}
		err := cfg.Decode(&opts)
		if err != nil {
			return nil, err
		}

		opts.Coin = strings.ToLower(opts.Coin)
		opts.Currency = strings.ToLower(opts.Currency)

		if opts.Coin == "" || opts.Currency == "" {
			return nil, errors.New("coin and currency must not be empty")
		}
		if what == marketMoscowTime && opts.Coin != "bitcoin" {
			return nil, errors.Errorf("moscow time is only defined for bitcoin, not %s", opts.Coin)
		}

		b, err := newBase(cfg.Kind, env, opts.BaseOptions)
		if err != nil {
			return nil, err
		}

		return &marketApp{
			base:     b,
			what:     what,
			coin:     opts.Coin,
			currency: opts.Currency,
			api:      strings.TrimSuffix(opts.API, "/"),
		}, nil
	}
}

func (a *marketApp) Run(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", a.api, url.QueryEscape(a.coin), url.QueryEscape(a.currency))
	if a.what == marketCap {
		endpoint += "&include_market_cap=true"
	}

	var prices map[string]map[string]float64
	err := fetchJSON(ctx, a.env.HTTP, endpoint, &prices)
	if err != nil {
		return err
	}

	key := a.currency
	if a.what == marketCap {
		key = a.currency + "_market_cap"
	}

	value, ok := prices[a.coin][key]
	if !ok {
		return errors.Errorf("no %s quote for %s in response", key, a.coin)
	}

	var content string
	switch a.what {
	case marketPrice:
		content = fmt.Sprintf("%s %s", formatPrice(value), strings.ToUpper(a.currency))
	case marketCap:
		content = fmt.Sprintf("%s %s", abbreviate(value), strings.ToUpper(a.currency))
	case marketMoscowTime:
		content, err = moscowTime(value)
		if err != nil {
			return err
		}
	}

	return a.showAndHold(ctx, content)
}

func formatPrice(price float64) string {
	switch {
	case price >= 1000:
		return fmt.Sprintf("%.0f", price)
	case price >= 1:
		return fmt.Sprintf("%.2f", price)
	}
	return fmt.Sprintf("%.4f", price)
}

func abbreviate(value float64) string {
	units := []struct {
		factor float64
		suffix string
	}{
		{1e12, "T"},
		{1e9, "B"},
		{1e6, "M"},
		{1e3, "K"},
	}

	for _, unit := range units {
		if value >= unit.factor {
			return fmt.Sprintf("%.2f%s", value/unit.factor, unit.suffix)
		}
	}
	return fmt.Sprintf("%.0f", value)
}

// moscowTime renders the satoshis one unit of fiat buys, as a clock face:
// 1564 sats read "15:64".
func moscowTime(price float64) (string, error) {
	if price <= 0 {
		return "", errors.Errorf("invalid bitcoin price %v", price)
	}

	sats := int64(math.Round(1e8 / price))
	return fmt.Sprintf("%d:%02d", sats/100, sats%100), nil
}
