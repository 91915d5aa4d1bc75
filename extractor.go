package gazette

// Extractor turns raw listing content into structured publication items.
//
// Extraction never fails the batch for malformed input: implementations
// return whatever items they could recover, dropping individual items
// whose mandatory title is missing. A markup change in the source
// degrades to partial (possibly empty) results, never a crash.
type Extractor interface {
	Extract(content string) ([]Item, error)
}

// ExtractorFactory builds an extractor bound to one source. Specialized
// extractors typically only need the source's base URL; the generic
// extractor also reads its rule set.
type ExtractorFactory func(src *Source) (Extractor, error)

// Registry maps specialized extractor identifiers to factories and
// resolves the extractor for a source at configuration-load time. Sources
// without a registered identifier fall back to the generic rule-driven
// extractor supplied as the fallback factory.
type Registry struct {
	fallback  ExtractorFactory
	factories map[string]ExtractorFactory
}

// NewRegistry creates a Registry with the given generic fallback factory.
func NewRegistry(fallback ExtractorFactory) *Registry {
	return &Registry{
		fallback:  fallback,
		factories: make(map[string]ExtractorFactory),
	}
}

// Register adds a factory for a specialized extractor identifier.
// If a factory is already registered for the identifier, it is replaced.
func (r *Registry) Register(id string, factory ExtractorFactory) {
	r.factories[id] = factory
}

// Resolve returns the extractor for a source. A configured identifier
// with no registered factory fails fast with EINVALID, so a typo in the
// configuration surfaces at load time rather than mid-run.
func (r *Registry) Resolve(src *Source) (Extractor, error) {
	if src.Parser != "" {
		factory, ok := r.factories[src.Parser]
		if !ok {
			return nil, Errorf(EINVALID, "source %s: no extractor registered for parser %q", src.CountryCode, src.Parser)
		}
		return factory(src)
	}
	if src.Rules == nil {
		return nil, Errorf(EINVALID, "source %s: either parser or parser_rules required", src.CountryCode)
	}
	return r.fallback(src)
}

// List returns all registered specialized extractor identifiers.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	return ids
}
