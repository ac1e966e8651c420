package apps

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"moonclock/config"
	"moonclock/errdefs"
	"moonclock/safe"
)

// Factory builds a unit from its roster entry. Options the kind does not
// declare are an error.
type Factory func(env Env, cfg config.AppConfig) (Unit, error)

var registry = map[string]Factory{
	"auto_contrast": newAutoContrastApp,
	"crypto":        marketFactory(marketPrice),
	"time":          newTimeApp,
	"blockheight":   chainFactory(chainBlockHeight),
	"halving":       chainFactory(chainHalving),
	"fees":          chainFactory(chainFees),
	"text":          newTextApp,
	"marketcap":     marketFactory(marketCap),
	"moscow_time":   marketFactory(marketMoscowTime),
	"difficulty":    chainFactory(chainDifficulty),
	"temperature":   newTemperatureApp,
}

func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Build constructs the roster in config order. Entries of an unknown kind or
// whose construction fails are left out and reported; the rest is returned.
func Build(ctx context.Context, configs []config.AppConfig, env Env) ([]Unit, []error) {
	var units []Unit
	var errs []error

	for i, cfg := range configs {
		factory, ok := registry[cfg.Kind]
		if !ok {
			err := errdefs.UnknownApp(cfg.Kind)
			log.Ctx(ctx).Error().Err(err).Strs("known", Kinds()).Msgf("Skipping app entry %d", i)
			errs = append(errs, err)
			continue
		}

		var unit Unit
		err := safe.Call(func() error {
			var err error
			unit, err = factory(env, cfg)
			return err
		})
		if err != nil {
			err = errdefs.AppConstruction(err, cfg.Kind, i)
			log.Ctx(ctx).Error().Err(err).Msgf("Initialization of app %s has failed", cfg.Kind)
			errs = append(errs, err)
			continue
		}

		units = append(units, unit)
	}

	return units, errs
}
