// Command gnp-cartpole evolves a GNP population against the built-in
// CartPole physics simulator and reports the best individual found.
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
	configPath := flag.String("config", "configs/cartpole.ini", "path to the GNP config file")
	seed := flag.Int64("seed", 7, "PRNG seed")
	generations := flag.Int("generations", 300, "maximum number of generations to run")
	checkpointEvery := flag.Int("checkpoint-every", 25, "save a checkpoint every N generations (0 disables)")
	checkpointPath := flag.String("checkpoint", "gnp-cartpole.checkpoint.gz", "checkpoint file path")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen}))
	slog.SetDefault(logger)

	cfg, err := gnp.LoadConfig(*configPath)
	if err != nil {
		logger.Error("loading config", "path", *configPath, "err", err)
		os.Exit(1)
	}

	// CartPole's observation components (x, xDot, theta, thetaDot) are each
	// bounded in practice well inside these ranges for surviving episodes;
	// Judgment nodes are initialized over them regardless of fitness mode.
	minF := []float64{-2.4, -3.0, -0.21, -3.0}
	maxF := []float64{2.4, 3.0, 0.21, 3.0}

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
			p.Cartpole(cfg.Fitness.DMax, cfg.Fitness.Penalty, cfg.Fitness.MaxSteps, cfg.Fitness.MaxConsecutiveP)
		})
		if err != nil {
			logger.Error("generation failed", "generation", gen, "err", err)
			os.Exit(1)
		}

		_, stepsStdev, stepsMedian := pop.FitnessStats()
		logger.Info("generation complete",
			"generation", gen,
			"best_steps", fmt.Sprintf("%.1f", best.Fitness),
			"mean_steps", fmt.Sprintf("%.1f", pop.MeanFitness),
			"stdev_steps", fmt.Sprintf("%.1f", stepsStdev),
			"median_steps", fmt.Sprintf("%.1f", stepsMedian),
		)

		if *checkpointEvery > 0 && gen%*checkpointEvery == 0 {
			if err := pop.SaveCheckpoint(*checkpointPath); err != nil {
				logger.Warn("checkpoint save failed", "generation", gen, "err", err)
			}
		}
		if int(best.Fitness) >= cfg.Fitness.MaxSteps {
			logger.Info("solved: survived the full episode", "generation", gen)
			break
		}
	}

	if err := pop.SaveCheckpoint(*checkpointPath); err != nil {
		logger.Warn("final checkpoint save failed", "err", err)
	}

	logger.Info("evolution complete", "generations_run", pop.Generation, "best_fitness", best.Fitness)
}
