package internal

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// sessionEntry is one library made visible to a parse, optionally restricted
// to a subset of its names.
type sessionEntry struct {
	lib   *Library
	names map[string]struct{} // nil means every tag and filter
}

func (e sessionEntry) includes(name string) bool {
	if e.names == nil {
		return true
	}
	_, ok := e.names[name]
	return ok
}

// Session resolves libraries, tags and filters for a single parse.
// Libraries are fetched from the loader at most once per distinct name.
// Lookups scan the used libraries from the most recently added, so a later
// load shadows an earlier one. A Session is not safe for concurrent use.
type Session struct {
	loader    Loader
	libraries map[string]*Library
	entries   []sessionEntry
	logger    *zap.Logger
}

// NewSession creates a parse session backed by loader (which may be nil)
func NewSession(loader Loader, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgSessionCreated)
	return &Session{
		loader:    loader,
		libraries: make(map[string]*Library),
		logger:    logger,
	}
}

// ResolveLibrary returns the named library, invoking the loader only on the
// first request for that name.
func (s *Session) ResolveLibrary(name string) (*Library, error) {
	if lib, ok := s.libraries[name]; ok {
		s.logger.Debug(LogMsgLibraryCached, zap.String(LogFieldLibrary, name))
		return lib, nil
	}
	if s.loader == nil {
		return nil, &LookupError{Kind: ErrLookup, Message: ErrMsgNoLoader, Name: name}
	}

	lib, err := s.loader.Load(name)
	if err != nil {
		var lookupErr *LookupError
		if errors.As(err, &lookupErr) {
			return nil, err
		}
		return nil, &LookupError{Kind: ErrLookup, Message: ErrMsgLibraryNotFound, Name: name, Cause: err}
	}
	if lib == nil {
		return nil, &LookupError{Kind: ErrLookup, Message: ErrMsgNilLibrary, Name: name}
	}
	if err := lib.Validate(); err != nil {
		return nil, &LookupError{Kind: ErrLookup, Message: ErrMsgInvalidSpec, Name: name, Cause: err}
	}

	s.libraries[name] = lib
	s.logger.Debug(LogMsgLibraryLoaded,
		zap.String(LogFieldLibrary, name),
		zap.Int(LogFieldTags, len(lib.Tags)),
		zap.Int(LogFieldFilters, len(lib.Filters)),
	)
	return lib, nil
}

// Use makes lib visible to subsequent lookups. With names, only those tags
// and filters are added; a name lib does not define is a lookup failure.
func (s *Session) Use(lib *Library, names ...string) error {
	entry := sessionEntry{lib: lib}
	if len(names) > 0 {
		entry.names = make(map[string]struct{}, len(names))
		for _, name := range names {
			_, isTag := lib.Tags[name]
			_, isFilter := lib.Filters[name]
			if !isTag && !isFilter {
				return &LookupError{Kind: ErrLookup, Message: ErrMsgNameNotInLibrary, Name: name}
			}
			entry.names[name] = struct{}{}
		}
	}

	for name := range lib.Tags {
		if _, ok := s.LookupTag(name); ok && entry.includes(name) {
			s.logger.Warn(LogMsgTagShadowed, zap.String(LogFieldTag, name), zap.String(LogFieldLibrary, lib.Name))
		}
	}
	for name := range lib.Filters {
		if _, ok := s.LookupFilter(name); ok && entry.includes(name) {
			s.logger.Warn(LogMsgFilterShadowed, zap.String(LogFieldFilter, name), zap.String(LogFieldLibrary, lib.Name))
		}
	}

	s.entries = append(s.entries, entry)
	s.logger.Debug(LogMsgLibraryUsed, zap.String(LogFieldLibrary, lib.Name), zap.Strings(LogFieldNames, names))
	return nil
}

// Load resolves the named library and uses it (or the given subset of it)
func (s *Session) Load(library string, names ...string) error {
	lib, err := s.ResolveLibrary(library)
	if err != nil {
		return err
	}
	return s.Use(lib, names...)
}

// LookupTag finds the visible tag with the given name
func (s *Session) LookupTag(name string) (*TagSpec, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if spec, ok := entry.lib.Tags[name]; ok && entry.includes(name) {
			return spec, true
		}
	}
	return nil, false
}

// LookupFilter finds the visible filter with the given name
func (s *Session) LookupFilter(name string) (*FilterSpec, bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if spec, ok := entry.lib.Filters[name]; ok && entry.includes(name) {
			return spec, true
		}
	}
	return nil, false
}

// ResolveTag returns the visible tag or a lookup error naming it
func (s *Session) ResolveTag(name string) (*TagSpec, error) {
	if spec, ok := s.LookupTag(name); ok {
		return spec, nil
	}
	return nil, &LookupError{Kind: ErrLookup, Message: ErrMsgTagNotFound, Name: name}
}

// ResolveFilter returns the visible filter or an unknown-filter error naming it
func (s *Session) ResolveFilter(name string) (*FilterSpec, error) {
	if spec, ok := s.LookupFilter(name); ok {
		return spec, nil
	}
	return nil, &LookupError{Kind: ErrUnknownFilter, Message: ErrMsgFilterNotFound, Name: name}
}

// IsReserved reports whether name is an end or intermediate tag of any
// visible tag
func (s *Session) IsReserved(name string) bool {
	for _, entry := range s.entries {
		for tagName, spec := range entry.lib.Tags {
			if !entry.includes(tagName) {
				continue
			}
			if spec.IsEndTag(name) || spec.IsIntermediate(name) {
				return true
			}
		}
	}
	return false
}

// ReservedNames returns every end and intermediate tag name of the visible tags
func (s *Session) ReservedNames() []string {
	seen := make(map[string]struct{})
	for _, entry := range s.entries {
		for tagName, spec := range entry.lib.Tags {
			if !entry.includes(tagName) {
				continue
			}
			for _, name := range spec.Terminators() {
				seen[name] = struct{}{}
			}
			if spec.Arity == ArityVariadic {
				for _, name := range spec.Intermediates {
					seen[name] = struct{}{}
				}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CachingLoader memoizes a Loader across sessions. It is safe for
// concurrent use; failed loads are not cached.
type CachingLoader struct {
	inner  Loader
	cache  map[string]*Library
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewCachingLoader wraps inner with a read-mostly cache
func NewCachingLoader(inner Loader, logger *zap.Logger) *CachingLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingLoader{
		inner:  inner,
		cache:  make(map[string]*Library),
		logger: logger,
	}
}

// Load returns the cached library or loads and caches it
func (c *CachingLoader) Load(name string) (*Library, error) {
	c.mu.RLock()
	lib, ok := c.cache[name]
	c.mu.RUnlock()
	if ok {
		c.logger.Debug(LogMsgLoaderCacheHit, zap.String(LogFieldLibrary, name))
		return lib, nil
	}

	lib, err := c.inner.Load(name)
	if err != nil || lib == nil {
		return lib, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.cache[name]; ok {
		return existing, nil
	}
	c.cache[name] = lib
	c.logger.Debug(LogMsgLoaderCacheFilled, zap.String(LogFieldLibrary, name))
	return lib, nil
}

// Forget drops a cached library so the next Load reaches the inner loader
func (c *CachingLoader) Forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, name)
}

// MapLoader serves a fixed set of libraries by name
type MapLoader map[string]*Library

// Load returns the named library or a lookup error
func (m MapLoader) Load(name string) (*Library, error) {
	lib, ok := m[name]
	if !ok {
		return nil, &LookupError{Kind: ErrLookup, Message: ErrMsgLibraryNotFound, Name: name}
	}
	return lib, nil
}

// Log field names used by the session
const (
	LogFieldTags    = "tag_count"
	LogFieldFilters = "filter_count"
)
