package protocol

import "strings"

const (
	CarouselActionNext   = "next"
	CarouselActionPrev   = "prev"
	CarouselActionPause  = "pause"
	CarouselActionResume = "resume"
	CarouselActionGoTo   = "goto"
)

func NormalizeCarouselAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}

func IsValidCarouselAction(action string) bool {
	switch NormalizeCarouselAction(action) {
	case CarouselActionNext, CarouselActionPrev, CarouselActionPause, CarouselActionResume, CarouselActionGoTo:
		return true
	default:
		return false
	}
}

// SSE event names on the carousel stream.
const (
	CarouselEventSelect = "select"
	CarouselEventClosed = "closed"
)

type CarouselSessionResponse struct {
	SessionID      string   `json:"session_id"`
	Count          int      `json:"count"`
	CadenceMS      int64    `json:"cadence_ms"`
	CooldownMS     int64    `json:"cooldown_ms"`
	Index          int      `json:"index"`
	Phase          string   `json:"phase"`
	Current        GameView `json:"current"`
	IdleTimeoutSec int      `json:"idle_timeout_sec"`
}

type CarouselEvent struct {
	SessionID string   `json:"session_id"`
	Seq       int64    `json:"seq"`
	Index     int      `json:"index"`
	Count     int      `json:"count"`
	Game      GameView `json:"game"`
}

type CarouselActionResponse struct {
	Accepted bool   `json:"accepted"`
	Index    int    `json:"index"`
	Phase    string `json:"phase"`
	Message  string `json:"message,omitempty"`
}

// CarouselClosedEvent is the last message on a stream whose session ended.
type CarouselClosedEvent struct {
	SessionID string `json:"session_id"`
}
