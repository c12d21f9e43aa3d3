package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/izzyreal/stitch/internal/protocol"
)

func createSession(t *testing.T, client *http.Client, baseURL string) protocol.CarouselSessionResponse {
	t.Helper()
	resp := mustRequest(t, client, http.MethodPost, baseURL+"/api/v1/carousel/sessions")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", resp.StatusCode, readBody(t, resp))
	}
	var sess protocol.CarouselSessionResponse
	decodeJSONBody(t, resp, &sess)
	return sess
}

func postAction(t *testing.T, client *http.Client, baseURL, id, action string) (int, protocol.CarouselActionResponse) {
	t.Helper()
	resp := mustRequest(t, client, http.MethodPost, baseURL+"/api/v1/carousel/sessions/"+id+"/"+action)
	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnprocessableEntity, http.StatusConflict:
		var out protocol.CarouselActionResponse
		decodeJSONBody(t, resp, &out)
		return resp.StatusCode, out
	}
	_ = readBody(t, resp)
	return resp.StatusCode, protocol.CarouselActionResponse{}
}

func TestCarouselSessionLifecycle(t *testing.T) {
	ts, front, clk := newTestHTTPServer(t)
	client := ts.Client()

	sess := createSession(t, client, ts.URL)
	if sess.SessionID == "" || sess.Count != 3 || sess.Index != 0 || sess.Phase != "running" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.Current.ID != 1 || sess.CadenceMS != 5000 || sess.CooldownMS != 15000 || sess.IdleTimeoutSec != 60 {
		t.Fatalf("unexpected session settings: %+v", sess)
	}
	if front.carousels.Len() != 1 {
		t.Fatalf("expected one live session, got %d", front.carousels.Len())
	}

	code, res := postAction(t, client, ts.URL, sess.SessionID, "next")
	if code != http.StatusOK || !res.Accepted || res.Index != 1 || res.Phase != "manual_cooldown" {
		t.Fatalf("next: code=%d res=%+v", code, res)
	}

	code, res = postAction(t, client, ts.URL, sess.SessionID, "pause")
	if code != http.StatusOK || res.Phase != "paused" {
		t.Fatalf("pause: code=%d res=%+v", code, res)
	}
	code, res = postAction(t, client, ts.URL, sess.SessionID, "RESUME")
	if code != http.StatusOK || res.Phase != "manual_cooldown" {
		t.Fatalf("resume should return to the pending cooldown: code=%d res=%+v", code, res)
	}

	clk.Advance(15 * time.Second)
	var status protocol.CarouselSessionResponse
	decodeJSONBody(t, mustRequest(t, client, http.MethodGet, ts.URL+"/api/v1/carousel/sessions/"+sess.SessionID), &status)
	if status.Phase != "running" || status.Index != 1 || status.Current.ID != 2 {
		t.Fatalf("expected running at index 1 after cooldown, got %+v", status)
	}

	code, res = postAction(t, client, ts.URL, sess.SessionID, "prev")
	if code != http.StatusOK || res.Index != 0 {
		t.Fatalf("prev: code=%d res=%+v", code, res)
	}

	resp := mustRequest(t, client, http.MethodDelete, ts.URL+"/api/v1/carousel/sessions/"+sess.SessionID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	_ = readBody(t, resp)
	resp = mustRequest(t, client, http.MethodDelete, ts.URL+"/api/v1/carousel/sessions/"+sess.SessionID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", resp.StatusCode)
	}
	_ = readBody(t, resp)
}

func TestCarouselActionsRejectedAfterFeaturedEmptied(t *testing.T) {
	ts, front, _ := newTestHTTPServer(t)
	client := ts.Client()
	sess := createSession(t, client, ts.URL)

	front.swap(mustParseCatalog(t, "version: 1\ngames: []\n"))

	for _, action := range []string{"next", "prev", "pause", "resume", "goto?index=0"} {
		code, res := postAction(t, client, ts.URL, sess.SessionID, action)
		if code != http.StatusConflict || res.Accepted || res.Phase != "stopped" || res.Message == "" {
			t.Fatalf("%s on stopped session: code=%d res=%+v", action, code, res)
		}
	}
}

func TestCarouselGoToValidation(t *testing.T) {
	ts, _, _ := newTestHTTPServer(t)
	client := ts.Client()
	sess := createSession(t, client, ts.URL)

	code, res := postAction(t, client, ts.URL, sess.SessionID, "goto?index=2")
	if code != http.StatusOK || !res.Accepted || res.Index != 2 {
		t.Fatalf("goto 2: code=%d res=%+v", code, res)
	}

	code, res = postAction(t, client, ts.URL, sess.SessionID, "goto?index=3")
	if code != http.StatusUnprocessableEntity || res.Accepted || res.Index != 2 || res.Message == "" {
		t.Fatalf("goto out of range: code=%d res=%+v", code, res)
	}
	code, _ = postAction(t, client, ts.URL, sess.SessionID, "goto?index=-1")
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("goto negative: expected 422, got %d", code)
	}
	code, _ = postAction(t, client, ts.URL, sess.SessionID, "goto")
	if code != http.StatusBadRequest {
		t.Fatalf("goto without index: expected 400, got %d", code)
	}
	code, _ = postAction(t, client, ts.URL, sess.SessionID, "shuffle")
	if code != http.StatusNotFound {
		t.Fatalf("unknown action: expected 404, got %d", code)
	}
	code, _ = postAction(t, client, ts.URL, "missing", "next")
	if code != http.StatusNotFound {
		t.Fatalf("unknown session: expected 404, got %d", code)
	}
}

type sseEvent struct {
	Name string
	Data string
}

func readSSE(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var evt sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read event stream: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if evt.Name != "" || evt.Data != "" {
				return evt
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			evt.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			evt.Data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestCarouselEventStream(t *testing.T) {
	ts, _, clk := newTestHTTPServer(t)
	client := &http.Client{Timeout: 5 * time.Second}
	sess := createSession(t, client, ts.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/carousel/sessions/"+sess.SessionID+"/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("open event stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	decode := func(evt sseEvent) protocol.CarouselEvent {
		t.Helper()
		if evt.Name != protocol.CarouselEventSelect {
			t.Fatalf("expected select event, got %+v", evt)
		}
		var out protocol.CarouselEvent
		if err := json.Unmarshal([]byte(evt.Data), &out); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return out
	}

	first := decode(readSSE(t, r))
	if first.Index != 0 || first.Game.ID != 1 || first.Count != 3 || first.SessionID != sess.SessionID {
		t.Fatalf("expected primed initial selection, got %+v", first)
	}

	clk.Advance(5 * time.Second)
	second := decode(readSSE(t, r))
	if second.Index != 1 || second.Game.ID != 2 || second.Seq != first.Seq+1 {
		t.Fatalf("expected auto-advance to index 1, got %+v", second)
	}

	code, _ := postAction(t, client, ts.URL, sess.SessionID, "goto?index=0")
	if code != http.StatusOK {
		t.Fatalf("goto: expected 200, got %d", code)
	}
	if third := decode(readSSE(t, r)); third.Index != 0 {
		t.Fatalf("expected manual selection of index 0, got %+v", third)
	}

	del := mustRequest(t, client, http.MethodDelete, ts.URL+"/api/v1/carousel/sessions/"+sess.SessionID)
	_ = readBody(t, del)
	if last := readSSE(t, r); last.Name != protocol.CarouselEventClosed || !strings.Contains(last.Data, sess.SessionID) {
		t.Fatalf("expected closed event, got %+v", last)
	}
}

func TestReapLoopClosesIdleSessions(t *testing.T) {
	front, _ := newTestStorefront(t)
	front.carousels.Create()
	if front.carousels.Len() != 1 {
		t.Fatalf("expected one session")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reapLoop(ctx, front.carousels, 5*time.Millisecond)
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for front.carousels.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	if n := front.carousels.Len(); n != 0 {
		t.Fatalf("expected idle session to be reaped, %d left", n)
	}
}

func TestReapInterval(t *testing.T) {
	if got := reapInterval(2 * time.Minute); got != 30*time.Second {
		t.Fatalf("expected quarter of idle timeout, got %v", got)
	}
	if got := reapInterval(time.Second); got != time.Second {
		t.Fatalf("expected one second floor, got %v", got)
	}
	if got := reapInterval(0); got != 30*time.Second {
		t.Fatalf("expected default-derived interval, got %v", got)
	}
}
