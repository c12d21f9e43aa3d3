// Package search answers storefront queries against an immutable catalog
// snapshot. Every method is a pure read and safe for concurrent use.
package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/izzyreal/stitch/internal/catalog"
)

const (
	MinQueryLength = 2
	MaxGameResults = 5
	MaxTagResults  = 3
)

type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Result struct {
	Games []catalog.Game `json:"games"`
	Tags  []TagCount     `json:"tags"`
}

func emptyResult() Result {
	return Result{Games: []catalog.Game{}, Tags: []TagCount{}}
}

type Index struct {
	cat        *catalog.Catalog
	titles     []string
	tags       [][]string
	vocabulary []string
	vocabLower []string
	usage      map[string]int
}

func New(cat *catalog.Catalog) *Index {
	games := cat.Games()
	idx := &Index{
		cat:        cat,
		titles:     make([]string, len(games)),
		tags:       make([][]string, len(games)),
		vocabulary: cat.Vocabulary(),
		usage:      map[string]int{},
	}
	for i, g := range games {
		idx.titles[i] = strings.ToLower(g.Title)
		lowered := make([]string, len(g.Tags))
		for j, tag := range g.Tags {
			lowered[j] = strings.ToLower(tag)
		}
		idx.tags[i] = lowered
	}
	idx.vocabLower = make([]string, len(idx.vocabulary))
	for i, tag := range idx.vocabulary {
		idx.vocabLower[i] = strings.ToLower(tag)
		count := 0
		for _, g := range games {
			if g.HasTag(tag) {
				count++
			}
		}
		idx.usage[tag] = count
	}
	return idx
}

func (idx *Index) Catalog() *catalog.Catalog {
	return idx.cat
}

// Search matches the query as a case-insensitive substring of titles and
// tags. Queries shorter than MinQueryLength after trimming yield an empty
// result.
func (idx *Index) Search(query string) Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < MinQueryLength {
		return emptyResult()
	}

	out := emptyResult()
	games := idx.cat.Games()
	for i := range games {
		if len(out.Games) >= MaxGameResults {
			break
		}
		if idx.gameMatches(i, q) {
			out.Games = append(out.Games, games[i])
		}
	}

	for i, tag := range idx.vocabulary {
		if strings.Contains(idx.vocabLower[i], q) {
			out.Tags = append(out.Tags, TagCount{Name: tag, Count: idx.usage[tag]})
		}
	}
	// Stable: equal counts keep vocabulary order.
	sort.SliceStable(out.Tags, func(i, j int) bool {
		return out.Tags[i].Count > out.Tags[j].Count
	})
	if len(out.Tags) > MaxTagResults {
		out.Tags = out.Tags[:MaxTagResults]
	}
	return out
}

func (idx *Index) gameMatches(i int, q string) bool {
	if strings.Contains(idx.titles[i], q) {
		return true
	}
	for _, tag := range idx.tags[i] {
		if strings.Contains(tag, q) {
			return true
		}
	}
	return false
}

// GamesByTags returns every game carrying at least one of tags.
func (idx *Index) GamesByTags(tags []string) []catalog.Game {
	out := []catalog.Game{}
	if len(tags) == 0 {
		return out
	}
	want := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		want[tag] = struct{}{}
	}
	for _, g := range idx.cat.Games() {
		for _, tag := range g.Tags {
			if _, ok := want[tag]; ok {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

var categoryTags = map[string][]string{
	"action":     {"action", "fighting", "fps", "hack-and-slash"},
	"adventure":  {"adventure", "story-rich", "exploration"},
	"rpg":        {"rpg", "action-rpg", "jrpg", "role-playing"},
	"simulation": {"simulation", "farming", "life-sim"},
	"strategy":   {"strategy", "tactical", "turn-based"},
}

const CategoryFree = "free"

func CategoryNames() []string {
	names := make([]string, 0, len(categoryTags)+1)
	for name := range categoryTags {
		names = append(names, name)
	}
	names = append(names, CategoryFree)
	sort.Strings(names)
	return names
}

func (idx *Index) GamesByCategory(name string) []catalog.Game {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == CategoryFree {
		out := []catalog.Game{}
		for _, g := range idx.cat.Games() {
			if g.IsFree() {
				out = append(out, g)
			}
		}
		return out
	}
	tags, ok := categoryTags[name]
	if !ok {
		return []catalog.Game{}
	}
	return idx.GamesByTags(tags)
}

func (idx *Index) Game(id int) (catalog.Game, bool) {
	return idx.cat.Game(id)
}

func (idx *Index) Collection(name string) ([]catalog.Game, bool) {
	return idx.cat.Collection(name)
}
