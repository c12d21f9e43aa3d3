package protocol

import (
	"testing"
	"time"

	"github.com/izzyreal/stitch/internal/catalog"
)

func TestNewGameViewLabels(t *testing.T) {
	published := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	v := NewGameView(catalog.Game{
		ID:          1,
		Title:       "Alpha Quest",
		Tags:        []string{"rpg"},
		Platforms:   []catalog.Platform{catalog.PlatformWindows},
		Pricing:     catalog.Pricing{BasePrice: 1999.5, CurrentPrice: 999.75, DiscountPercentage: 50},
		Reviews:     catalog.Reviews{Score: 91, Count: 12500},
		Media:       catalog.Media{Banner: "https://cdn/x.gif"},
		PublishDate: &published,
	})
	if v.PriceLabel != "$999.75" || v.BasePriceLabel != "$1,999.50" {
		t.Fatalf("unexpected price labels: %q %q", v.PriceLabel, v.BasePriceLabel)
	}
	if v.ReviewLabel != "Very Positive" || v.ReviewCountLabel != "12,500" || !v.TopSeller {
		t.Fatalf("unexpected review fields: %+v", v)
	}
	if !v.BannerAnimated || v.PublishDate != "Apr 1, 2023" || v.LastUpdate != "" {
		t.Fatalf("unexpected media/date fields: %+v", v)
	}
	if v.Screenshots == nil || len(v.Platforms) != 1 || v.Platforms[0] != "windows" {
		t.Fatalf("unexpected slices: %+v", v)
	}
}

func TestNewGameViewFree(t *testing.T) {
	v := NewGameView(catalog.Game{ID: 2, Title: "Free Thing"})
	if v.PriceLabel != "Free to Play" || !v.IsFree || v.BasePriceLabel != "" {
		t.Fatalf("unexpected free labels: %+v", v)
	}
	if v.Tags == nil {
		t.Fatalf("expected non-nil tags")
	}
}
