// Binary train fits the aura classifier on collected samples and writes the
// weights file the paper and backtest binaries load.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/BSmick6/aurabot/internal/config"
	"github.com/BSmick6/aurabot/internal/dataset"
	"github.com/BSmick6/aurabot/internal/model"
	"github.com/BSmick6/aurabot/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to the YAML config")
	from := flag.String("from", "", "RFC3339 start of the training window")
	to := flag.String("to", "", "RFC3339 end of the training window")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := util.NewLogger("info")
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	store, err := dataset.Open(cfg.Dataset.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open sample store")
	}
	defer store.Close()

	window, err := parseWindow(*from, *to)
	if err != nil {
		log.Fatal().Err(err).Msg("parse window")
	}

	ctx := context.Background()
	samples, err := store.Range(ctx, window.from, window.to, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("load samples")
	}
	log.Info().Int("samples", len(samples)).Msg("training window loaded")

	m, err := model.Train(samples, model.TrainerConfig{
		LearningRate: cfg.Model.LearningRate,
		Epochs:       cfg.Model.Epochs,
		LabelHorizon: time.Duration(cfg.Model.LabelHorizonSecs) * time.Second,
		MinSamples:   cfg.Model.MinSamples,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("train model")
	}

	if err := m.Save(cfg.Model.Path); err != nil {
		log.Fatal().Err(err).Msg("save weights")
	}
	log.Info().Str("path", cfg.Model.Path).Int("samples", m.Samples).Msg("model saved")
}

type window struct {
	from time.Time
	to   time.Time
}

func parseWindow(from, to string) (window, error) {
	var w window
	var err error
	if from != "" {
		if w.from, err = time.Parse(time.RFC3339, from); err != nil {
			return w, err
		}
	}
	if to != "" {
		if w.to, err = time.Parse(time.RFC3339, to); err != nil {
			return w, err
		}
	}
	return w, nil
}
