package server

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/izzyreal/stitch/internal/catalog"
	"github.com/izzyreal/stitch/internal/search"
	"github.com/izzyreal/stitch/internal/server/carousel"
	"github.com/izzyreal/stitch/internal/store"
)

// storefront holds the live catalog snapshot. Readers always see a complete
// index; reloads swap it atomically and then re-validate every rotation
// that shows the featured collection.
type storefront struct {
	index     atomic.Pointer[search.Index]
	carousels *carousel.Manager
	logger    *slog.Logger

	mu          sync.Mutex
	watchers    map[int]func([]catalog.Game)
	nextWatcher int
}

func newStorefront(cat *catalog.Catalog, opts carousel.Options) *storefront {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &storefront{
		carousels: carousel.NewManager(cat.Featured(), opts),
		logger:    opts.Logger,
		watchers:  map[int]func([]catalog.Game){},
	}
	s.index.Store(search.New(cat))
	return s
}

func (s *storefront) Index() *search.Index {
	return s.index.Load()
}

func (s *storefront) Catalog() *catalog.Catalog {
	return s.Index().Catalog()
}

func (s *storefront) swap(cat *catalog.Catalog) {
	s.index.Store(search.New(cat))
	featured := cat.Featured()
	s.carousels.SetItems(featured)

	s.mu.Lock()
	watchers := make([]func([]catalog.Game), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()
	for _, fn := range watchers {
		fn(featured)
	}
	s.logger.Info("catalog snapshot swapped", "source", cat.Source(), "games", cat.Len(), "featured", len(featured))
}

// watchFeatured registers fn to receive the featured list after every swap.
func (s *storefront) watchFeatured(fn func([]catalog.Game)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// LoadCatalog reads a catalog from a YAML/JSON file, a glob of them, or a
// SQLite snapshot.
func LoadCatalog(source string) (*catalog.Catalog, error) {
	switch {
	case store.IsSource(source):
		db, err := store.Open(source)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		cat, err := db.LoadCatalog()
		if err != nil {
			return nil, fmt.Errorf("load catalog from %q: %w", source, err)
		}
		return cat, nil
	case catalog.IsGlob(source):
		return catalog.LoadGlob(source)
	default:
		return catalog.Load(source)
	}
}
