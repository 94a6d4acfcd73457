// Package config loads kgeval run files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cnclabs/kgeval/pkg/corrupt"
	"github.com/cnclabs/kgeval/pkg/evaluation"
	"github.com/cnclabs/kgeval/pkg/hyperparams"
	"github.com/cnclabs/kgeval/pkg/knowledge"
	"github.com/cnclabs/kgeval/pkg/selection"
)

// Config is a run file. Params configures `evaluate`, Grid configures
// `select`.
type Config struct {
	Model string `yaml:"model"`
	Data  Data   `yaml:"data"`

	Params hyperparams.Hyperparams `yaml:"params"`
	Grid   selection.Grid          `yaml:"grid"`

	Evaluation Evaluation `yaml:"evaluation"`
	Output     Output     `yaml:"output"`
}

// Data points at whitespace separated triple files.
type Data struct {
	Train string `yaml:"train"`
	Valid string `yaml:"valid"`
	Test  string `yaml:"test"`
}

// Evaluation holds the protocol settings shared by evaluate and select.
type Evaluation struct {
	Filter              bool         `yaml:"filter"`
	PrimeFilter         bool         `yaml:"prime_filter"`
	Strict              bool         `yaml:"strict"`
	CorruptSide         corrupt.Side `yaml:"corrupt_side"`
	RankAgainstEntities []string     `yaml:"rank_against_entities"`
	UseDefaultProtocol  bool         `yaml:"use_default_protocol"`
	UseTestForSelection bool         `yaml:"use_test_for_selection"`

	// EarlyStopping enables early stopping when present.
	EarlyStopping *evaluation.EarlyStopping `yaml:"early_stopping"`
}

// Output names the embedding files written after training.
type Output struct {
	Entities  string `yaml:"entities"`
	Relations string `yaml:"relations"`
}

// Default returns the configuration used for absent keys.
func Default() *Config {
	return &Config{
		Model:  "TransE",
		Params: hyperparams.Default(),
		Evaluation: Evaluation{
			Filter:      true,
			CorruptSide: corrupt.SubjectObject,
		},
	}
}

// Load reads and validates the run file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a run file on top of Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required: %w", knowledge.ErrInvalidArgument)
	}
	if err := c.Evaluation.CorruptSide.Validate(); err != nil {
		return err
	}
	if es := c.Evaluation.EarlyStopping; es != nil {
		if _, err := es.WithDefaults().Measure(nil); err != nil {
			return err
		}
	}
	return c.Params.Validate()
}
