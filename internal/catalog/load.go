package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// File is the on-disk catalog layout. JSON files decode through the same
// YAML decoder.
type File struct {
	Version     int              `yaml:"version"`
	Categories  []Category       `yaml:"categories,omitempty"`
	Collections map[string][]int `yaml:"collections,omitempty"`
	Games       []FileGame       `yaml:"games"`
}

type FileGame struct {
	ID          int         `yaml:"id"`
	Title       string      `yaml:"title"`
	Tags        []string    `yaml:"tags"`
	Platforms   []string    `yaml:"platforms"`
	Pricing     FilePricing `yaml:"pricing"`
	Reviews     FileReviews `yaml:"reviews"`
	Media       FileMedia   `yaml:"media"`
	PublishDate string      `yaml:"publish_date,omitempty"`
	LastUpdate  string      `yaml:"last_update,omitempty"`
}

type FilePricing struct {
	BasePrice          float64 `yaml:"base_price"`
	CurrentPrice       float64 `yaml:"current_price"`
	DiscountPercentage int     `yaml:"discount_percentage"`
}

type FileReviews struct {
	Score int `yaml:"score"`
	Count int `yaml:"count"`
}

type FileMedia struct {
	Thumbnail   string   `yaml:"thumbnail"`
	Banner      string   `yaml:"banner"`
	Screenshots []string `yaml:"screenshots"`
	Videos      []string `yaml:"videos,omitempty"`
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"Jan 2, 2006",
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %q: %w", path, err)
	}
	return Parse(data, path)
}

func Parse(data []byte, source string) (*Catalog, error) {
	f, err := decodeFile(data, source)
	if err != nil {
		return nil, err
	}
	return f.Build(source)
}

// LoadGlob merges every file matching pattern, in lexical order.
func LoadGlob(pattern string) (*Catalog, error) {
	base, rel := doublestar.SplitPattern(filepath.ToSlash(pattern))
	matches, err := doublestar.Glob(os.DirFS(base), rel)
	if err != nil {
		return nil, fmt.Errorf("glob catalog files %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no catalog files match %q", pattern)
	}
	sort.Strings(matches)

	var merged File
	for _, m := range matches {
		path := filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m))
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog file %q: %w", path, err)
		}
		f, err := decodeFile(data, path)
		if err != nil {
			return nil, err
		}
		merged.merge(f)
	}
	return merged.Build(pattern)
}

// IsGlob reports whether a catalog source should go through LoadGlob.
func IsGlob(source string) bool {
	return strings.ContainsAny(source, "*?[{")
}

func decodeFile(data []byte, source string) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return f, fmt.Errorf("parse catalog in %q: %w", source, err)
	}
	return f, nil
}

func (f *File) merge(other File) {
	if f.Version == 0 {
		f.Version = other.Version
	}
	if len(f.Categories) == 0 {
		f.Categories = other.Categories
	}
	for name, ids := range other.Collections {
		if f.Collections == nil {
			f.Collections = map[string][]int{}
		}
		if _, ok := f.Collections[name]; !ok {
			f.Collections[name] = ids
		}
	}
	f.Games = append(f.Games, other.Games...)
}

// Build validates the file and converts it into an immutable Catalog.
func (f File) Build(source string) (*Catalog, error) {
	if errs := f.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog in %q: %s", source, strings.Join(errs, "; "))
	}
	games := make([]Game, 0, len(f.Games))
	for _, fg := range f.Games {
		games = append(games, fg.toGame())
	}
	return New(games, f.Categories, f.Collections, source), nil
}

func (f File) Validate() []string {
	var errs []string

	if f.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported catalog version %d", f.Version))
	}

	ids := map[int]struct{}{}
	for i, g := range f.Games {
		if g.ID <= 0 {
			errs = append(errs, fmt.Sprintf("games[%d].id must be > 0", i))
		} else {
			if _, exists := ids[g.ID]; exists {
				errs = append(errs, fmt.Sprintf("games[%d].id duplicate %d", i, g.ID))
			}
			ids[g.ID] = struct{}{}
		}
		if strings.TrimSpace(g.Title) == "" {
			errs = append(errs, fmt.Sprintf("games[%d].title is required", i))
		}
		for j, p := range g.Platforms {
			if !Platform(p).Valid() {
				errs = append(errs, fmt.Sprintf("games[%d].platforms[%d] unknown platform %q", i, j, p))
			}
		}
		for j, tag := range g.Tags {
			if strings.TrimSpace(tag) == "" {
				errs = append(errs, fmt.Sprintf("games[%d].tags[%d] must not be empty", i, j))
			}
		}
		errs = append(errs, g.Pricing.validate(i)...)
		if g.Reviews.Score < 0 || g.Reviews.Score > 100 {
			errs = append(errs, fmt.Sprintf("games[%d].reviews.score must be within 0..100", i))
		}
		if g.Reviews.Count < 0 {
			errs = append(errs, fmt.Sprintf("games[%d].reviews.count must be >= 0", i))
		}
	}

	for ci, c := range f.Categories {
		if strings.TrimSpace(c.MainCategory) == "" {
			errs = append(errs, fmt.Sprintf("categories[%d].main is required", ci))
		}
	}

	names := make([]string, 0, len(f.Collections))
	for name := range f.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for j, id := range f.Collections[name] {
			if _, ok := ids[id]; !ok {
				errs = append(errs, fmt.Sprintf("collections.%s[%d] references unknown game %d", name, j, id))
			}
		}
	}
	return errs
}

func (p FilePricing) validate(i int) []string {
	var errs []string
	if p.BasePrice < 0 || p.CurrentPrice < 0 {
		errs = append(errs, fmt.Sprintf("games[%d].pricing prices must be >= 0", i))
		return errs
	}
	if p.CurrentPrice > p.BasePrice {
		errs = append(errs, fmt.Sprintf("games[%d].pricing.current_price exceeds base_price", i))
		return errs
	}
	if p.DiscountPercentage < 0 || p.DiscountPercentage > 100 {
		errs = append(errs, fmt.Sprintf("games[%d].pricing.discount_percentage must be within 0..100", i))
		return errs
	}
	if want := DiscountPercentage(p.BasePrice, p.CurrentPrice); absInt(want-p.DiscountPercentage) > 1 {
		errs = append(errs, fmt.Sprintf("games[%d].pricing.discount_percentage %d does not match prices (want %d)", i, p.DiscountPercentage, want))
	}
	return errs
}

// DiscountPercentage derives the rounded discount between two prices.
func DiscountPercentage(base, current float64) int {
	if base <= 0 || current >= base {
		return 0
	}
	return int(math.Round((base - current) / base * 100))
}

func (g FileGame) toGame() Game {
	platforms := make([]Platform, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		platforms = append(platforms, Platform(p))
	}
	return Game{
		ID:        g.ID,
		Title:     g.Title,
		Tags:      append([]string(nil), g.Tags...),
		Platforms: platforms,
		Pricing: Pricing{
			BasePrice:          g.Pricing.BasePrice,
			CurrentPrice:       g.Pricing.CurrentPrice,
			DiscountPercentage: g.Pricing.DiscountPercentage,
		},
		Reviews: Reviews{Score: g.Reviews.Score, Count: g.Reviews.Count},
		Media: Media{
			Thumbnail:   g.Media.Thumbnail,
			Banner:      g.Media.Banner,
			Screenshots: append([]string(nil), g.Media.Screenshots...),
			Videos:      append([]string(nil), g.Media.Videos...),
		},
		PublishDate: ParseDate(g.PublishDate),
		LastUpdate:  ParseDate(g.LastUpdate),
	}
}

// ParseDate returns nil for empty or unparseable values.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
