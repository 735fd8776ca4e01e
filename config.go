package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the driver configuration: environment first, then the optional
// plan file, then command-line flags.
type Config struct {
	// Route is the path of the route JSON file.
	Route string `env:"SPOONY_ROUTE" yaml:"route"`
	// Plan is an optional YAML file overriding the environment.
	Plan string `env:"SPOONY_PLAN" yaml:"-"`
	// Output is the directory receiving one <seed>.route file per seed.
	Output string `env:"SPOONY_OUTPUT" envDefault:"routes" yaml:"output"`

	// SeedFrom and SeedTo bound the seeds searched. SeedTo < 0 means SeedFrom only.
	SeedFrom int `env:"SPOONY_SEED" envDefault:"0" yaml:"seed"`
	SeedTo   int `env:"SPOONY_SEED_TO" envDefault:"-1" yaml:"seedTo"`
	// Workers is the number of seeds searched concurrently.
	Workers int `env:"SPOONY_WORKERS" envDefault:"1" yaml:"workers"`

	// Algorithms run in order for every seed.
	Algorithms []string `env:"SPOONY_ALGORITHMS" envSeparator:"," envDefault:"sequential,local" yaml:"algorithms"`
	// StartIndex fixes every decision before it.
	StartIndex int `env:"SPOONY_START_INDEX" envDefault:"0" yaml:"startIndex"`

	// MaximumExtraSteps is the upper bound of a decision as the engine draws it.
	MaximumExtraSteps int `env:"SPOONY_MAXIMUM_EXTRA_STEPS" envDefault:"16" yaml:"maximumExtraSteps"`
	// MaximumSteps is the upper bound the optimizers try; at most MaximumExtraSteps.
	MaximumSteps int `env:"SPOONY_MAXIMUM_STEPS" envDefault:"16" yaml:"maximumSteps"`
	// MaximumComparisons limits how far apart pairwise partners may be. 0 = unlimited.
	MaximumComparisons int  `env:"SPOONY_MAXIMUM_COMPARISONS" envDefault:"0" yaml:"maximumComparisons"`
	PairwiseShift      bool `env:"SPOONY_PAIRWISE_SHIFT" yaml:"pairwiseShift"`

	// MaximumIterations is the number of ILS perturbations.
	MaximumIterations    int    `env:"SPOONY_MAXIMUM_ITERATIONS" envDefault:"100" yaml:"maximumIterations"`
	PerturbationStrength int    `env:"SPOONY_PERTURBATION_STRENGTH" envDefault:"4" yaml:"perturbationStrength"`
	PerturbationWobble   int    `env:"SPOONY_PERTURBATION_WOBBLE" envDefault:"2" yaml:"perturbationWobble"`
	PerturbationSeed     uint64 `env:"SPOONY_PERTURBATION_SEED" envDefault:"1" yaml:"perturbationSeed"`

	// Weights[v] is the tie-break score of choosing v extra steps.
	Weights []int `env:"SPOONY_WEIGHTS" envSeparator:"," yaml:"weights"`

	Verbose bool `env:"SPOONY_VERBOSE" yaml:"verbose"`
	JSON    bool `env:"SPOONY_JSON" yaml:"json"`
}

// Verbose controls whether detailed search progress is printed to stderr.
var Verbose bool

// DefaultConfig returns the configuration derived from the environment.
func DefaultConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadPlan overlays the YAML plan file at path onto cfg.
func LoadPlan(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ParseConfig loads environment defaults, the plan file and then flags.
// Flags given explicitly win over the plan file.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Plan, "plan", cfg.Plan, "YAML plan file")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "directory for written routes")
	fs.IntVar(&cfg.SeedFrom, "seed", cfg.SeedFrom, "first seed to search")
	fs.IntVar(&cfg.SeedTo, "seed-to", cfg.SeedTo, "last seed to search (-1 = only -seed)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "seeds searched concurrently")
	fs.Func("algorithms", "comma separated plan: sequential,local,pair,bb,ils", func(v string) error {
		cfg.Algorithms = splitList(v)
		return nil
	})
	fs.IntVar(&cfg.StartIndex, "start", cfg.StartIndex, "first free decision index")
	fs.IntVar(&cfg.MaximumExtraSteps, "maximum-extra-steps", cfg.MaximumExtraSteps, "engine bound on one decision")
	fs.IntVar(&cfg.MaximumSteps, "maximum-steps", cfg.MaximumSteps, "optimizer bound on one decision")
	fs.IntVar(&cfg.MaximumComparisons, "maximum-comparisons", cfg.MaximumComparisons, "pairwise partner distance (0 = unlimited)")
	fs.BoolVar(&cfg.PairwiseShift, "pairwise-shift", cfg.PairwiseShift, "keep pair sums fixed in pairwise search")
	fs.IntVar(&cfg.MaximumIterations, "maximum-iterations", cfg.MaximumIterations, "ILS iterations")
	fs.IntVar(&cfg.PerturbationStrength, "perturbation-strength", cfg.PerturbationStrength, "ILS variables perturbed per iteration")
	fs.IntVar(&cfg.PerturbationWobble, "perturbation-wobble", cfg.PerturbationWobble, "ILS total wobble")
	fs.Uint64Var(&cfg.PerturbationSeed, "perturbation-seed", cfg.PerturbationSeed, "ILS random seed")
	fs.Func("weights", "comma separated tie-break weights per step count", func(v string) error {
		ws, err := parseInts(v)
		if err != nil {
			return err
		}
		cfg.Weights = ws
		return nil
	})
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "print detailed search progress to stderr")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print results as JSON")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Plan != "" {
		if err := LoadPlan(cfg.Plan, &cfg); err != nil {
			return Config{}, err
		}
		if err := fs.Parse(args); err != nil {
			return Config{}, err
		}
	}
	if fs.NArg() > 0 {
		cfg.Route = fs.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges the engine and optimizers rely on.
func (c *Config) Validate() error {
	if c.SeedTo < 0 {
		c.SeedTo = c.SeedFrom
	}
	switch {
	case c.Route == "":
		return fmt.Errorf("route path is required")
	case c.SeedFrom < 0 || c.SeedFrom > 255 || c.SeedTo > 255:
		return fmt.Errorf("seeds must be within [0, 255], got [%d, %d]", c.SeedFrom, c.SeedTo)
	case c.SeedTo < c.SeedFrom:
		return fmt.Errorf("seed-to %d is below seed %d", c.SeedTo, c.SeedFrom)
	case c.Workers < 1:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.MaximumExtraSteps < 0:
		return fmt.Errorf("maximum-extra-steps must not be negative, got %d", c.MaximumExtraSteps)
	case c.MaximumSteps < 0 || c.MaximumSteps > c.MaximumExtraSteps:
		return fmt.Errorf("maximum-steps %d not within [0, %d]", c.MaximumSteps, c.MaximumExtraSteps)
	case c.StartIndex < 0:
		return fmt.Errorf("start index must not be negative, got %d", c.StartIndex)
	case len(c.Algorithms) == 0:
		return fmt.Errorf("at least one algorithm is required")
	}
	for _, name := range c.Algorithms {
		if _, ok := algorithms[strings.ToLower(strings.TrimSpace(name))]; !ok {
			return fmt.Errorf("%q: %w", name, ErrUnknownAlgorithm)
		}
	}
	return nil
}

// Options returns the optimizer options for seed.
func (c *Config) Options(seed int) Options {
	return Options{
		Seed:                 seed,
		MaximumSteps:         c.MaximumSteps,
		MaximumComparisons:   c.MaximumComparisons,
		PairwiseShift:        c.PairwiseShift,
		MaximumIterations:    c.MaximumIterations,
		PerturbationStrength: c.PerturbationStrength,
		PerturbationWobble:   c.PerturbationWobble,
		PerturbationSeed:     c.PerturbationSeed,
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseInts(v string) ([]int, error) {
	var out []int
	for _, s := range splitList(v) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		out = append(out, n)
	}
	return out, nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
