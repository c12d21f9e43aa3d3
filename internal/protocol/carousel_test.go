package protocol

import "testing"

func TestNormalizeCarouselAction(t *testing.T) {
	if got := NormalizeCarouselAction(" Next "); got != CarouselActionNext {
		t.Fatalf("normalize action: got %q want %q", got, CarouselActionNext)
	}
}

func TestIsValidCarouselAction(t *testing.T) {
	for _, action := range []string{"next", "PREV", "pause", "resume", "goto"} {
		if !IsValidCarouselAction(action) {
			t.Fatalf("expected %q to be valid", action)
		}
	}
	for _, action := range []string{"", "stop", "teardown"} {
		if IsValidCarouselAction(action) {
			t.Fatalf("expected %q to be rejected", action)
		}
	}
}
