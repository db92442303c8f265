package gnp

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// BoundaryMutationVariant selects which of the five boundary-mutation
// operators a Population's configured generation loop applies.
type BoundaryMutationVariant string

const (
	BoundaryMutationVariantUniform          BoundaryMutationVariant = "uniform"
	BoundaryMutationVariantNormal           BoundaryMutationVariant = "normal"
	BoundaryMutationVariantNetworkSizeSigma BoundaryMutationVariant = "network_size_sigma"
	BoundaryMutationVariantEdgeSizeSigma    BoundaryMutationVariant = "edge_size_sigma"
	BoundaryMutationVariantFractal          BoundaryMutationVariant = "fractal"
)

// Config stores the configuration parameters for a GNP run.
type Config struct {
	GNP              GNPConfig
	Selection        SelectionConfig
	Crossover        CrossoverConfig
	EdgeMutation     EdgeMutationConfig
	BoundaryMutation BoundaryMutationConfig
	Fitness          FitnessConfig
}

// GNPConfig holds the structural parameters every Network is constructed
// with.
type GNPConfig struct {
	NI              int  `ini:"ni"`
	JN              int  `ini:"jn"`
	JNF             int  `ini:"jnf"`
	PN              int  `ini:"pn"`
	PNF             int  `ini:"pnf"`
	FractalJudgment bool `ini:"fractal_judgment"`
}

// SelectionConfig holds tournament-selection parameters.
type SelectionConfig struct {
	TournamentN int `ini:"tournament_n"`
	TournamentE int `ini:"tournament_e"`
}

// CrossoverConfig holds the whole-node crossover swap probability.
type CrossoverConfig struct {
	P float64 `ini:"p"`
}

// EdgeMutationConfig holds per-edge mutation probabilities for inner nodes
// and the start node.
type EdgeMutationConfig struct {
	PInner float64 `ini:"p_inner"`
	PStart float64 `ini:"p_start"`
}

// BoundaryMutationConfig selects and parameterizes one of the five boundary
// mutation variants applied once per generation.
type BoundaryMutationConfig struct {
	Variant BoundaryMutationVariant `ini:"variant"`
	P       float64                 `ini:"p"`
	Sigma   float64                 `ini:"sigma"`
}

// FitnessConfig holds parameters shared by the fitness evaluation hooks:
// the judgment-depth cap, RL episode bounds, and penalty values applied on
// constraint violation.
type FitnessConfig struct {
	DMax            int     `ini:"d_max"`
	MaxSteps        int     `ini:"max_steps"`
	MaxConsecutiveP int     `ini:"max_consecutive_p"`
	WorstFitness    float64 `ini:"worst_fitness"`
	Penalty         float64 `ini:"penalty"`
}

// LoadConfig loads a Config from an INI file, populating sections [GNP],
// [Selection], [Crossover], [EdgeMutation], [BoundaryMutation] and
// [Fitness].
func LoadConfig(filePath string) (*Config, error) {
	src, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: loading %q: %v", ErrInvalidConfig, filePath, err)
	}

	cfg := &Config{}
	sections := []struct {
		name string
		dst  any
	}{
		{"GNP", &cfg.GNP},
		{"Selection", &cfg.Selection},
		{"Crossover", &cfg.Crossover},
		{"EdgeMutation", &cfg.EdgeMutation},
		{"BoundaryMutation", &cfg.BoundaryMutation},
		{"Fitness", &cfg.Fitness},
	}
	for _, s := range sections {
		if err := src.Section(s.name).MapTo(s.dst); err != nil {
			return nil, fmt.Errorf("%w: mapping [%s]: %v", ErrInvalidConfig, s.name, err)
		}
	}

	// ini.v1's MapTo handles most bool/float fields reliably, but
	// fractal_judgment has tripped on stray inline comments in practice;
	// re-read it directly as a defensive measure.
	if key, err := src.Section("GNP").GetKey("fractal_judgment"); err == nil {
		cfg.GNP.FractalJudgment, _ = key.Bool()
	}

	cfg.BoundaryMutation.Variant = BoundaryMutationVariant(
		cleanIniString(string(cfg.BoundaryMutation.Variant)),
	)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GNP.NI <= 0 {
		return fmt.Errorf("%w: ni must be positive", ErrInvalidConfig)
	}
	if c.GNP.JN < 0 || c.GNP.PN < 0 {
		return fmt.Errorf("%w: jn and pn must be non-negative", ErrInvalidConfig)
	}
	if c.GNP.JN+c.GNP.PN < 3 {
		return fmt.Errorf("%w: jn+pn must be at least 3 for edge randomization", ErrInvalidConfig)
	}
	if c.GNP.JNF <= 0 || c.GNP.PNF <= 0 {
		return fmt.Errorf("%w: jnf and pnf must be positive", ErrInvalidConfig)
	}
	if c.Selection.TournamentN < 1 {
		return fmt.Errorf("%w: selection.tournament_n must be at least 1", ErrInvalidConfig)
	}
	if c.Selection.TournamentE < 0 || c.Selection.TournamentE >= c.GNP.NI {
		return fmt.Errorf("%w: selection.tournament_e must be in [0, ni)", ErrInvalidConfig)
	}
	if c.Crossover.P < 0 || c.Crossover.P > 1 {
		return fmt.Errorf("%w: crossover.p must be in [0,1]", ErrInvalidConfig)
	}
	if c.EdgeMutation.PInner < 0 || c.EdgeMutation.PInner > 1 ||
		c.EdgeMutation.PStart < 0 || c.EdgeMutation.PStart > 1 {
		return fmt.Errorf("%w: edge_mutation probabilities must be in [0,1]", ErrInvalidConfig)
	}
	switch c.BoundaryMutation.Variant {
	case BoundaryMutationVariantUniform, BoundaryMutationVariantNormal,
		BoundaryMutationVariantNetworkSizeSigma, BoundaryMutationVariantEdgeSizeSigma,
		BoundaryMutationVariantFractal:
	default:
		return fmt.Errorf("%w: unknown boundary_mutation.variant %q", ErrInvalidConfig, c.BoundaryMutation.Variant)
	}
	if c.Fitness.DMax <= 0 {
		return fmt.Errorf("%w: fitness.d_max must be positive", ErrInvalidConfig)
	}
	if c.Fitness.MaxSteps <= 0 {
		return fmt.Errorf("%w: fitness.max_steps must be positive", ErrInvalidConfig)
	}
	if c.Fitness.MaxConsecutiveP <= 0 {
		return fmt.Errorf("%w: fitness.max_consecutive_p must be positive", ErrInvalidConfig)
	}
	if c.GNP.FractalJudgment && c.BoundaryMutation.Variant == BoundaryMutationVariantFractal && c.GNP.JN+c.GNP.PN-1 < 2 {
		return fmt.Errorf("%w: fractal judgment requires jn+pn-1 >= 2 for a valid (k,d) combination", ErrInvalidConfig)
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string
// read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
