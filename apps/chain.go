package apps

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"moonclock/config"
)

const (
	defaultMempoolAPI = "https://mempool.space/api"
	halvingInterval   = 210000
)

type chainOptions struct {
	BaseOptions `yaml:",inline"`
	API         string `yaml:"api"`
}

type chainKind int

const (
	chainBlockHeight chainKind = iota
	chainHalving
	chainFees
	chainDifficulty
)

// chainApp covers the kinds backed by the mempool.space REST API.
type chainApp struct {
	base
	what chainKind
	api  string
}

type recommendedFees struct {
	FastestFee  *int `json:"fastestFee"`
	HalfHourFee *int `json:"halfHourFee"`
	HourFee     *int `json:"hourFee"`
}

type difficultyAdjustment struct {
	DifficultyChange *float64 `json:"difficultyChange"`
}

func chainFactory(what chainKind) Factory {
	return func(env Env, cfg config.AppConfig) (Unit, error) {
		opts := chainOptions{BaseOptions: BaseOptions{Duration: 10}, API: defaultMempoolAPI}
		err := cfg.Decode(&opts)
		if err != nil {
			return nil, err
		}

		b, err := newBase(cfg.Kind, env, opts.BaseOptions)
		if err != nil {
			return nil, err
		}

		return &chainApp{base: b, what: what, api: strings.TrimSuffix(opts.API, "/")}, nil
	}
}

func (a *chainApp) Run(ctx context.Context) error {
	var content string

	switch a.what {
	case chainBlockHeight, chainHalving:
		height, err := fetchInt(ctx, a.env.HTTP, a.api+"/blocks/tip/height")
		if err != nil {
			return err
		}

		content = fmt.Sprintf("%d", height)
		if a.what == chainHalving {
			content = fmt.Sprintf("%d blk", halvingInterval-height%halvingInterval)
		}

	case chainFees:
		var fees recommendedFees
		err := fetchJSON(ctx, a.env.HTTP, a.api+"/v1/fees/recommended", &fees)
		if err != nil {
			return err
		}

		if fees.FastestFee == nil || fees.HalfHourFee == nil || fees.HourFee == nil {
			return errors.New("recommended fees are incomplete")
		}

		content = fmt.Sprintf("%d|%d|%d", *fees.FastestFee, *fees.HalfHourFee, *fees.HourFee)

	case chainDifficulty:
		var adjustment difficultyAdjustment
		err := fetchJSON(ctx, a.env.HTTP, a.api+"/v1/difficulty-adjustment", &adjustment)
		if err != nil {
			return err
		}

		if adjustment.DifficultyChange == nil {
			return errors.New("difficulty adjustment has no difficultyChange")
		}

		content = fmt.Sprintf("%+.2f%%", *adjustment.DifficultyChange)
	}

	return a.showAndHold(ctx, content)
}
