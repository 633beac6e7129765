package engine

import "context"

// EmbedFunc converts a batch of texts into parallel unit-norm vectors.
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// SearchContext carries a query through the beforeSearch chain. Hooks
// may rewrite Query or TopK; setting ShortCircuit makes the engine
// return Results immediately, skipping embedding, retrieval, and the
// afterSearch chain.
type SearchContext struct {
	Query        string
	TopK         int
	ShortCircuit bool
	Results      []Result
}

// Power is an extension record: a name plus optional hooks around the
// engine's operations. Hooks within a phase run in registration order.
// A nil hook is simply skipped. Hooks must not call back into the
// engine; they run while the engine holds its lock.
type Power struct {
	// Name identifies the power in the registry; names are unique.
	Name string

	// BeforeAdd may transform the incoming document list. The returned
	// list is passed to the next hook and ultimately indexed.
	BeforeAdd func(ctx context.Context, docs []Document) ([]Document, error)

	// AfterAdd observes the final indexed documents (with assigned ids).
	AfterAdd func(ctx context.Context, docs []Document) error

	// BeforeSearch may rewrite the search context or short-circuit it.
	BeforeSearch func(ctx context.Context, sc *SearchContext) error

	// AfterSearch receives the current result list and returns the next
	// one. Implementations return a new list rather than mutating.
	AfterSearch func(ctx context.Context, sc *SearchContext, results []Result) ([]Result, error)

	// Embed overrides the engine's embedder. When several registered
	// powers define it, the most recently registered wins.
	Embed EmbedFunc

	// OnDelete observes a document removal.
	OnDelete func(id string)

	// OnClear observes a full wipe of the engine.
	OnClear func()
}

// Use appends a power to the registry. It fails for a nil or unnamed
// power and when the name is already registered.
func (e *Engine) Use(p *Power) error {
	if p == nil || p.Name == "" {
		return wrapError("use", ErrInvalidPower)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, existing := range e.powers {
		if existing.Name == p.Name {
			return wrapError("use", ErrDuplicatePower)
		}
	}
	e.powers = append(e.powers, p)
	e.log.Debug("power registered", "name", p.Name)
	return nil
}

// Eject removes a power by name, preserving the order of the rest.
// Returns false when no power with that name is registered.
func (e *Engine) Eject(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, p := range e.powers {
		if p.Name == name {
			e.powers = append(e.powers[:i], e.powers[i+1:]...)
			e.log.Debug("power ejected", "name", name)
			return true
		}
	}
	return false
}

// Powers returns the registered power names in registration order.
func (e *Engine) Powers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, len(e.powers))
	for i, p := range e.powers {
		names[i] = p.Name
	}
	return names
}

// embedBatch resolves the active embedder and runs it. The registry is
// scanned in reverse so the most recently registered embed capability
// wins; without one the built-in embedder is used. Caller holds the
// engine lock.
func (e *Engine) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for i := len(e.powers) - 1; i >= 0; i-- {
		if e.powers[i].Embed != nil {
			return e.powers[i].Embed(ctx, texts)
		}
	}
	return e.embedder.EmbedBatch(ctx, texts)
}
