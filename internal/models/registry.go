// Package models is the registry of the embedding models that can be
// trained and evaluated.
package models

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	complex_embeddings "github.com/cnclabs/kgeval/internal/models/complex"
	"github.com/cnclabs/kgeval/internal/models/distmult"
	"github.com/cnclabs/kgeval/internal/models/kge"
	"github.com/cnclabs/kgeval/internal/models/random"
	"github.com/cnclabs/kgeval/internal/models/rotate"
	"github.com/cnclabs/kgeval/internal/models/transe"
	"github.com/cnclabs/kgeval/pkg/hyperparams"
	"github.com/cnclabs/kgeval/pkg/knowledge"
	"github.com/cnclabs/kgeval/pkg/selection"
)

// Factory builds kge models of one kind. It implements selection.Factory.
type Factory struct {
	name     string
	params   []string
	embedder func() kge.Embedder
}

var registry = []Factory{
	{transe.Name, transe.Params, func() kge.Embedder { return transe.New() }},
	{distmult.Name, distmult.Params, func() kge.Embedder { return distmult.New() }},
	{complex_embeddings.Name, complex_embeddings.Params, func() kge.Embedder { return complex_embeddings.New() }},
	{rotate.Name, rotate.Params, func() kge.Embedder { return rotate.New() }},
	{random.Name, random.Params, func() kge.Embedder { return random.New() }},
}

// Lookup returns the factory registered under name, ignoring case.
func Lookup(name string) (Factory, error) {
	for _, f := range registry {
		if strings.EqualFold(f.name, name) {
			return f, nil
		}
	}
	return Factory{}, fmt.Errorf("model %q (known: %s): %w", name, strings.Join(Names(), ", "), knowledge.ErrInvalidArgument)
}

// Names lists the registered models in sorted order.
func Names() []string {
	names := make([]string, len(registry))
	for i, f := range registry {
		names[i] = f.name
	}
	sort.Strings(names)
	return names
}

func (f Factory) Name() string {
	return f.name
}

// Params returns the embedding model parameter names the model accepts.
func (f Factory) Params() []string {
	return f.params
}

// Model builds an untrained model for h.
func (f Factory) Model(h hyperparams.Hyperparams, logger *zap.Logger) (*kge.Model, error) {
	return kge.New(f.name, f.embedder(), h, logger)
}

func (f Factory) New(h hyperparams.Hyperparams, logger *zap.Logger) (selection.Trainable, error) {
	m, err := f.Model(h, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}
