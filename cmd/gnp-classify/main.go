// Command gnp-classify evolves a GNP population against a small synthetic
// classification task and reports the best individual found.
//
// Feature-matrix ingestion (CSV parsing, min/max scanning) is outside the
// core package's scope, so this driver builds its dataset in memory rather
// than reading one from disk; swap datasetXOR for a real loader to evolve
// against arbitrary tabular data.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/baldhumanity/gnp-go/gnp"
)

func main() {
	configPath := flag.String("config", "configs/classify.ini", "path to the GNP config file")
	seed := flag.Int64("seed", 42, "PRNG seed")
	generations := flag.Int("generations", 200, "maximum number of generations to run")
	fitnessTarget := flag.Float64("fitness-target", 0.98, "stop early once the best individual reaches this accuracy")
	checkpointEvery := flag.Int("checkpoint-every", 20, "save a checkpoint every N generations (0 disables)")
	checkpointPath := flag.String("checkpoint", "gnp-classify.checkpoint.gz", "checkpoint file path")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen}))
	slog.SetDefault(logger)

	cfg, err := gnp.LoadConfig(*configPath)
	if err != nil {
		logger.Error("loading config", "path", *configPath, "err", err)
		os.Exit(1)
	}

	X, y, minF, maxF := datasetXOR()

	pop, err := gnp.NewPopulation(cfg, *seed)
	if err != nil {
		logger.Error("creating population", "err", err)
		os.Exit(1)
	}
	if err := pop.SetAllNodeBoundaries(minF, maxF); err != nil {
		logger.Error("setting node boundaries", "err", err)
		os.Exit(1)
	}

	logger.Info("starting evolution", "generations", *generations, "ni", cfg.GNP.NI, "seed", *seed)

	var best *gnp.Network
	for gen := 0; gen < *generations; gen++ {
		best, err = pop.RunGeneration(func(p *gnp.Population) {
			p.Accuracy(X, y, cfg.Fitness.DMax, cfg.Fitness.Penalty)
		})
		if err != nil {
			logger.Error("generation failed", "generation", gen, "err", err)
			os.Exit(1)
		}

		_, fitStdev, fitMedian := pop.FitnessStats()
		logger.Info("generation complete",
			"generation", gen,
			"best", fmt.Sprintf("%.4f", best.Fitness),
			"mean", fmt.Sprintf("%.4f", pop.MeanFitness),
			"min", fmt.Sprintf("%.4f", pop.MinFitness),
			"stdev", fmt.Sprintf("%.4f", fitStdev),
			"median", fmt.Sprintf("%.4f", fitMedian),
		)

		if *checkpointEvery > 0 && gen%*checkpointEvery == 0 {
			if err := pop.SaveCheckpoint(*checkpointPath); err != nil {
				logger.Warn("checkpoint save failed", "generation", gen, "err", err)
			}
		}
		if best.Fitness >= *fitnessTarget {
			logger.Info("fitness target reached", "generation", gen, "fitness", best.Fitness)
			break
		}
	}

	if err := pop.SaveCheckpoint(*checkpointPath); err != nil {
		logger.Warn("final checkpoint save failed", "err", err)
	}

	logger.Info("evolution complete", "generations_run", pop.Generation, "best_fitness", best.Fitness, "used_nodes", best.NUsedNodes())
}

// datasetXOR returns the classic two-feature XOR classification problem,
// replicated across several noisy samples per quadrant so the population
// has enough rows to generalize rather than memorize four points.
func datasetXOR() (X [][]float64, y []int, minF, maxF []float64) {
	quadrants := []struct {
		x, yy float64
		label int
	}{
		{0.1, 0.1, 0},
		{0.1, 0.9, 1},
		{0.9, 0.1, 1},
		{0.9, 0.9, 0},
	}
	const samplesPerQuadrant = 25
	rngJitter := 0.07

	for _, q := range quadrants {
		for i := 0; i < samplesPerQuadrant; i++ {
			jitterX := (float64(i%5)/4 - 0.5) * rngJitter
			jitterY := (float64((i/5)%5)/4 - 0.5) * rngJitter
			X = append(X, []float64{q.x + jitterX, q.yy + jitterY})
			y = append(y, q.label)
		}
	}
	return X, y, []float64{0, 0}, []float64{1, 1}
}
