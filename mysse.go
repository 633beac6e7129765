package mysse

import (
	"sync"

	"github.com/thewizster/mysse/pkg/engine"
)

// Re-exported engine types, so most callers only import this package.
type (
	// Engine is the in-memory semantic search engine.
	Engine = engine.Engine

	// Document is the unit of indexing.
	Document = engine.Document

	// Result is a single search hit.
	Result = engine.Result

	// Power is an extension record of optional hooks.
	Power = engine.Power

	// SearchContext carries a query through the beforeSearch chain.
	SearchContext = engine.SearchContext

	// Option configures an engine at construction.
	Option = engine.Option
)

// New creates an engine; see package engine for the available options.
func New(opts ...Option) *Engine {
	return engine.New(opts...)
}

var (
	defaultMu     sync.Mutex
	defaultEngine *Engine
)

// Default returns the process-wide shared engine, creating it with
// default options on first use.
func Default() *Engine {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultEngine == nil {
		defaultEngine = engine.New()
	}
	return defaultEngine
}

// ResetDefault discards the shared engine; the next Default call
// creates a fresh one. Intended for tests.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultEngine = nil
}
