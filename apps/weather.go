package apps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"moonclock/config"
)

const defaultOpenMeteoAPI = "https://api.open-meteo.com/v1"

type temperatureOptions struct {
	BaseOptions `yaml:",inline"`
	Latitude    *float64 `yaml:"latitude"`
	Longitude   *float64 `yaml:"longitude"`
	Unit        string   `yaml:"unit"`
	API         string   `yaml:"api"`
}

type temperatureApp struct {
	base
	latitude  float64
	longitude float64
	unit      string
	api       string
}

type forecast struct {
	Current *struct {
		Temperature *float64 `json:"temperature_2m"`
	} `json:"current"`
}

func newTemperatureApp(env Env, cfg config.AppConfig) (Unit, error) {
	opts := temperatureOptions{BaseOptions: BaseOptions{Duration: 10}, Unit: "celsius", API: defaultOpenMeteoAPI}
	err := cfg.Decode(&opts)
	if err != nil {
		return nil, err
	}

	if opts.Latitude == nil || opts.Longitude == nil {
		return nil, errors.New("latitude and longitude are required")
	}
	if *opts.Latitude < -90 || *opts.Latitude > 90 || *opts.Longitude < -180 || *opts.Longitude > 180 {
		return nil, errors.Errorf("invalid coordinates %v, %v", *opts.Latitude, *opts.Longitude)
	}
	if opts.Unit != "celsius" && opts.Unit != "fahrenheit" {
		return nil, errors.Errorf("unit must be celsius or fahrenheit, got %q", opts.Unit)
	}

	b, err := newBase(cfg.Kind, env, opts.BaseOptions)
	if err != nil {
		return nil, err
	}

	return &temperatureApp{
		base:      b,
		latitude:  *opts.Latitude,
		longitude: *opts.Longitude,
		unit:      opts.Unit,
		api:       strings.TrimSuffix(opts.API, "/"),
	}, nil
}

func (a *temperatureApp) Run(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/forecast?latitude=%s&longitude=%s&current=temperature_2m&temperature_unit=%s",
		a.api,
		strconv.FormatFloat(a.latitude, 'f', -1, 64),
		strconv.FormatFloat(a.longitude, 'f', -1, 64),
		a.unit,
	)

	var response forecast
	err := fetchJSON(ctx, a.env.HTTP, endpoint, &response)
	if err != nil {
		return err
	}

	if response.Current == nil || response.Current.Temperature == nil {
		return errors.New("forecast has no current temperature")
	}

	symbol := "C"
	if a.unit == "fahrenheit" {
		symbol = "F"
	}

	return a.showAndHold(ctx, fmt.Sprintf("%.1f %s", *response.Current.Temperature, symbol))
}
