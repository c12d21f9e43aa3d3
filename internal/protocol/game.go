package protocol

import (
	"github.com/izzyreal/stitch/internal/catalog"
	"github.com/izzyreal/stitch/internal/format"
)

type GameView struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Tags               []string `json:"tags"`
	Platforms          []string `json:"platforms"`
	BasePrice          float64  `json:"base_price"`
	CurrentPrice       float64  `json:"current_price"`
	DiscountPercentage int      `json:"discount_percentage"`
	PriceLabel         string   `json:"price_label"`
	BasePriceLabel     string   `json:"base_price_label,omitempty"`
	IsFree             bool     `json:"is_free"`
	ReviewScore        int      `json:"review_score"`
	ReviewCount        int      `json:"review_count"`
	ReviewCountLabel   string   `json:"review_count_label"`
	ReviewLabel        string   `json:"review_label"`
	TopSeller          bool     `json:"top_seller,omitempty"`
	Thumbnail          string   `json:"thumbnail"`
	Banner             string   `json:"banner"`
	BannerAnimated     bool     `json:"banner_animated,omitempty"`
	Screenshots        []string `json:"screenshots"`
	Videos             []string `json:"videos,omitempty"`
	PublishDate        string   `json:"publish_date,omitempty"`
	LastUpdate         string   `json:"last_update,omitempty"`
}

// NewGameView flattens a game and adds the display labels clients render.
func NewGameView(g catalog.Game) GameView {
	platforms := make([]string, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		platforms = append(platforms, string(p))
	}
	v := GameView{
		ID:                 g.ID,
		Title:              g.Title,
		Tags:               nonNil(g.Tags),
		Platforms:          platforms,
		BasePrice:          g.Pricing.BasePrice,
		CurrentPrice:       g.Pricing.CurrentPrice,
		DiscountPercentage: g.Pricing.DiscountPercentage,
		PriceLabel:         format.DisplayPrice(g.Pricing.CurrentPrice),
		IsFree:             g.IsFree(),
		ReviewScore:        g.Reviews.Score,
		ReviewCount:        g.Reviews.Count,
		ReviewCountLabel:   format.Count(g.Reviews.Count),
		ReviewLabel:        g.Reviews.Label(),
		TopSeller:          g.TopSeller(),
		Thumbnail:          g.Media.Thumbnail,
		Banner:             g.Media.Banner,
		BannerAnimated:     catalog.IsAnimatedMedia(g.Media.Banner),
		Screenshots:        nonNil(g.Media.Screenshots),
		Videos:             g.Media.Videos,
		PublishDate:        format.Date(g.PublishDate),
		LastUpdate:         format.Date(g.LastUpdate),
	}
	if g.HasDiscount() {
		v.BasePriceLabel = format.Price(g.Pricing.BasePrice)
	}
	return v
}

func NewGameViews(games []catalog.Game) []GameView {
	out := make([]GameView, 0, len(games))
	for _, g := range games {
		out = append(out, NewGameView(g))
	}
	return out
}

type GameResponse struct {
	Game GameView `json:"game"`
}

type GamesResponse struct {
	Games []GameView `json:"games"`
	Total int        `json:"total"`
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
