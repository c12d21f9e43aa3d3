package protocol

import (
	"github.com/izzyreal/stitch/internal/catalog"
	"github.com/izzyreal/stitch/internal/search"
)

type TagCountView struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type SearchResponse struct {
	Query string         `json:"query"`
	Games []GameView     `json:"games"`
	Tags  []TagCountView `json:"tags"`
}

func NewSearchResponse(query string, res search.Result) SearchResponse {
	tags := make([]TagCountView, 0, len(res.Tags))
	for _, t := range res.Tags {
		tags = append(tags, TagCountView{Name: t.Name, Count: t.Count})
	}
	return SearchResponse{Query: query, Games: NewGameViews(res.Games), Tags: tags}
}

type CategoriesResponse struct {
	Categories []catalog.Category `json:"categories"`
	Shortcuts  []string           `json:"shortcuts"`
	Vocabulary []string           `json:"vocabulary"`
}

type CollectionResponse struct {
	Name  string     `json:"name"`
	Games []GameView `json:"games"`
}

type CollectionsResponse struct {
	Collections []string `json:"collections"`
}
