package engine

import "context"

// Embedder converts text into unit-norm vectors of a fixed dimension.
// The engine calls EmbedBatch once per add batch and once (with a
// single-element batch) per search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// config holds the resolved engine configuration.
type config struct {
	dimensions     int
	useANN         bool
	annThreshold   int
	m              int
	efConstruction int
	efSearch       int
	seed           int64
	logger         Logger
	embedder       Embedder
}

// Defaults recognized at engine construction.
const (
	DefaultDimensions     = 384
	DefaultANNThreshold   = 2000
	DefaultM              = 16
	DefaultEfConstruction = 40
	DefaultEfSearch       = 64
	DefaultTopK           = 10
)

func defaultConfig() config {
	return config{
		dimensions:     DefaultDimensions,
		useANN:         true,
		annThreshold:   DefaultANNThreshold,
		m:              DefaultM,
		efConstruction: DefaultEfConstruction,
		efSearch:       DefaultEfSearch,
		seed:           1,
		logger:         NopLogger(),
	}
}

// Option modifies the engine configuration.
type Option func(*config)

// WithANN enables or disables the HNSW index. When disabled every
// search is an exact scan.
func WithANN(enabled bool) Option {
	return func(c *config) { c.useANN = enabled }
}

// WithANNThreshold sets the store size above which searches route to
// the HNSW graph instead of the exact scan.
func WithANNThreshold(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.annThreshold = n
		}
	}
}

// WithM sets the HNSW max-connections parameter.
func WithM(m int) Option {
	return func(c *config) {
		if m > 1 {
			c.m = m
		}
	}
}

// WithEfConstruction sets the HNSW construction beam width.
func WithEfConstruction(ef int) Option {
	return func(c *config) {
		if ef > 0 {
			c.efConstruction = ef
		}
	}
}

// WithEfSearch sets the HNSW query beam width on layer 0.
func WithEfSearch(ef int) Option {
	return func(c *config) {
		if ef > 0 {
			c.efSearch = ef
		}
	}
}

// WithSeed sets the seed for HNSW level assignment. The default is
// fixed so retrieval is reproducible run to run.
func WithSeed(seed int64) Option {
	return func(c *config) { c.seed = seed }
}

// WithLogger sets the engine logger.
func WithLogger(l Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEmbedder replaces the built-in embedder. Its Dimensions() becomes
// the engine dimension. A power with an embed capability still takes
// precedence at call time.
func WithEmbedder(em Embedder) Option {
	return func(c *config) {
		if em != nil {
			c.embedder = em
		}
	}
}
