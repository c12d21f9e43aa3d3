package catalog

import (
	"slices"
	"sort"
	"strings"
	"time"
)

type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformMac     Platform = "mac"
	PlatformLinux   Platform = "linux"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformWindows, PlatformMac, PlatformLinux:
		return true
	default:
		return false
	}
}

type Pricing struct {
	BasePrice          float64 `json:"base_price"`
	CurrentPrice       float64 `json:"current_price"`
	DiscountPercentage int     `json:"discount_percentage"`
}

type Reviews struct {
	Score int `json:"score"`
	Count int `json:"count"`
}

// Label mirrors the storefront wording for a review score.
func (r Reviews) Label() string {
	switch {
	case r.Score >= 80:
		return "Very Positive"
	case r.Score >= 60:
		return "Mostly Positive"
	default:
		return "Mixed"
	}
}

type Media struct {
	Thumbnail   string   `json:"thumbnail"`
	Banner      string   `json:"banner"`
	Screenshots []string `json:"screenshots"`
	Videos      []string `json:"videos,omitempty"`
}

type Game struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Tags        []string   `json:"tags"`
	Platforms   []Platform `json:"platforms"`
	Pricing     Pricing    `json:"pricing"`
	Reviews     Reviews    `json:"reviews"`
	Media       Media      `json:"media"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	LastUpdate  *time.Time `json:"last_update,omitempty"`
}

func (g Game) IsFree() bool {
	return g.Pricing.CurrentPrice == 0
}

func (g Game) HasDiscount() bool {
	return g.Pricing.DiscountPercentage > 0 && g.Pricing.BasePrice != g.Pricing.CurrentPrice
}

func (g Game) TopSeller() bool {
	return g.Reviews.Score >= 80
}

func (g Game) SupportsPlatform(p Platform) bool {
	for _, have := range g.Platforms {
		if have == p {
			return true
		}
	}
	return false
}

func (g Game) HasTag(tag string) bool {
	for _, have := range g.Tags {
		if have == tag {
			return true
		}
	}
	return false
}

// IsAnimatedMedia reports whether a media URL points at a GIF.
func IsAnimatedMedia(url string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(url)), ".gif")
}

const (
	CollectionFeatured       = "featured"
	CollectionNewAndTrending = "new_and_trending"
	CollectionTopSellers     = "top_sellers"
	CollectionTrendingFree   = "trending_free"
)

// Catalog is an immutable snapshot of the store's games. Callers must not
// modify the slices it hands out.
type Catalog struct {
	games       []Game
	byID        map[int]int
	categories  []Category
	vocabulary  []string
	collections map[string][]int
	source      string
	loadedUTC   time.Time
}

func New(games []Game, categories []Category, collections map[string][]int, source string) *Catalog {
	if len(categories) == 0 {
		categories = DefaultCategories()
	}
	c := &Catalog{
		games:       games,
		byID:        make(map[int]int, len(games)),
		categories:  categories,
		vocabulary:  Vocabulary(categories),
		collections: map[string][]int{},
		source:      source,
		loadedUTC:   time.Now().UTC(),
	}
	for i, g := range games {
		c.byID[g.ID] = i
	}
	for name, ids := range collections {
		c.collections[name] = append([]int(nil), ids...)
	}
	for name, ids := range defaultCollections(games) {
		if _, ok := c.collections[name]; !ok {
			c.collections[name] = ids
		}
	}
	return c
}

func (c *Catalog) Games() []Game {
	return c.games
}

func (c *Catalog) Len() int {
	return len(c.games)
}

func (c *Catalog) Game(id int) (Game, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Game{}, false
	}
	return c.games[i], true
}

func (c *Catalog) Categories() []Category {
	return c.categories
}

// Vocabulary returns the flat tag vocabulary in first-appearance order.
func (c *Catalog) Vocabulary() []string {
	return c.vocabulary
}

// CollectionNames lists the built-in collections first, then any extra
// declared ones in name order.
func (c *Catalog) CollectionNames() []string {
	names := []string{CollectionFeatured, CollectionNewAndTrending, CollectionTopSellers, CollectionTrendingFree}
	var extra []string
	for name := range c.collections {
		if !slices.Contains(names, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// CollectionIDs returns the raw id list of a collection.
func (c *Catalog) CollectionIDs(name string) ([]int, bool) {
	ids, ok := c.collections[name]
	return ids, ok
}

// Collection resolves a named collection to games, skipping ids that are no
// longer present.
func (c *Catalog) Collection(name string) ([]Game, bool) {
	ids, ok := c.collections[name]
	if !ok {
		return nil, false
	}
	out := make([]Game, 0, len(ids))
	for _, id := range ids {
		if g, ok := c.Game(id); ok {
			out = append(out, g)
		}
	}
	return out, true
}

func (c *Catalog) Featured() []Game {
	games, _ := c.Collection(CollectionFeatured)
	return games
}

func (c *Catalog) Source() string {
	return c.source
}

func (c *Catalog) LoadedUTC() time.Time {
	return c.loadedUTC
}

func defaultCollections(games []Game) map[string][]int {
	ids := func(gs []Game) []int {
		out := make([]int, 0, len(gs))
		for _, g := range gs {
			out = append(out, g.ID)
		}
		return out
	}
	head := func(n int) []Game {
		if n > len(games) {
			n = len(games)
		}
		return games[:n]
	}

	sellers := append([]Game(nil), games...)
	sortStableByReviewCount(sellers)

	var free []Game
	for _, g := range games {
		if g.IsFree() {
			free = append(free, g)
		}
	}

	top := sellers
	if len(top) > 6 {
		top = top[:6]
	}
	return map[string][]int{
		CollectionFeatured:       ids(head(8)),
		CollectionNewAndTrending: ids(head(6)),
		CollectionTopSellers:     ids(top),
		CollectionTrendingFree:   ids(free),
	}
}
