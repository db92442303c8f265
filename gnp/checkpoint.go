package gnp

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"
)

// PopulationSaveData holds the parts of a Population worth persisting. The
// Config is not included: callers reload it from the original file. The
// PRNG state is deliberately not saved either; a loaded Population receives
// a fresh, independently-seeded PRNG, with the documented consequence that
// reproducibility does not survive a save/load round-trip.
type PopulationSaveData struct {
	Networks     []*Network
	IndicesElite []int
	Generation   int
	BestFit      float64
	MeanFitness  float64
	MinFitness   float64
	MinF, MaxF   []float64
}

// SaveCheckpoint writes a gzip-compressed gob encoding of p's evolvable
// state to filePath.
func (p *Population) SaveCheckpoint(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("gnp: create checkpoint %q: %w", filePath, err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	defer gzWriter.Close()

	saveData := PopulationSaveData{
		Networks:     p.Networks,
		IndicesElite: p.IndicesElite,
		Generation:   p.Generation,
		BestFit:      p.BestFit,
		MeanFitness:  p.MeanFitness,
		MinFitness:   p.MinFitness,
		MinF:         p.MinF,
		MaxF:         p.MaxF,
	}

	gob.Register([]*Network{})
	gob.Register([]*Node{})
	gob.Register([]int{})
	gob.Register([]float64{})

	if err := gob.NewEncoder(gzWriter).Encode(saveData); err != nil {
		return fmt.Errorf("gnp: encode checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint, re-attaching
// the Config loaded from configPath and a freshly seeded PRNG (the saved
// state carries no PRNG, by design: see PopulationSaveData).
func LoadCheckpoint(checkpointPath, configPath string, seed int64) (*Population, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("gnp: load config %q for checkpoint: %w", configPath, err)
	}

	file, err := os.Open(checkpointPath)
	if err != nil {
		return nil, fmt.Errorf("gnp: open checkpoint %q: %w", checkpointPath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("gnp: gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	gob.Register([]*Network{})
	gob.Register([]*Node{})
	gob.Register([]int{})
	gob.Register([]float64{})

	var saveData PopulationSaveData
	if err := gob.NewDecoder(gzReader).Decode(&saveData); err != nil {
		return nil, fmt.Errorf("gnp: decode checkpoint: %w", err)
	}

	return &Population{
		Config:       cfg,
		Networks:     saveData.Networks,
		RNG:          rand.New(rand.NewSource(seed)),
		IndicesElite: saveData.IndicesElite,
		Generation:   saveData.Generation,
		BestFit:      saveData.BestFit,
		MeanFitness:  saveData.MeanFitness,
		MinFitness:   saveData.MinFitness,
		MinF:         saveData.MinF,
		MaxF:         saveData.MaxF,
	}, nil
}
