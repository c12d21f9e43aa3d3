package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/izzyreal/stitch/internal/protocol"
	"github.com/izzyreal/stitch/internal/rotation"
	"github.com/izzyreal/stitch/internal/server/carousel"
	"github.com/izzyreal/stitch/internal/server/httpx"
)

const sseKeepAlive = 20 * time.Second

func (s *storefront) createCarouselHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.carousels.Create()
	httpx.WriteJSON(w, http.StatusCreated, s.sessionResponse(sess))
}

func (s *storefront) carouselStatusHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *storefront) closeCarouselHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.carousels.Close(chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, protocol.CarouselActionResponse{Accepted: true, Phase: rotation.PhaseStopped.String()})
}

func (s *storefront) carouselActionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	action := protocol.NormalizeCarouselAction(chi.URLParam(r, "action"))
	if !protocol.IsValidCarouselAction(action) {
		http.Error(w, fmt.Sprintf("unknown carousel action %q", action), http.StatusNotFound)
		return
	}
	if sess.State().Stopped {
		writeStoppedSession(w, sess)
		return
	}

	switch action {
	case protocol.CarouselActionNext:
		sess.Next()
	case protocol.CarouselActionPrev:
		sess.Prev()
	case protocol.CarouselActionPause:
		sess.SetPaused(true)
	case protocol.CarouselActionResume:
		sess.SetPaused(false)
	case protocol.CarouselActionGoTo:
		index, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("index")))
		if err != nil {
			http.Error(w, "index query parameter must be an integer", http.StatusBadRequest)
			return
		}
		if err := sess.GoTo(index); err != nil {
			st := sess.State()
			httpx.WriteJSON(w, http.StatusUnprocessableEntity, protocol.CarouselActionResponse{
				Accepted: false,
				Index:    st.Index,
				Phase:    st.Phase().String(),
				Message:  err.Error(),
			})
			return
		}
	}

	st := sess.State()
	if st.Stopped {
		writeStoppedSession(w, sess)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, protocol.CarouselActionResponse{
		Accepted: true,
		Index:    st.Index,
		Phase:    st.Phase().String(),
	})
}

// writeStoppedSession rejects actions on a session whose rotation has ended,
// e.g. after a reload emptied the featured collection.
func writeStoppedSession(w http.ResponseWriter, sess *carousel.Session) {
	st := sess.State()
	httpx.WriteJSON(w, http.StatusConflict, protocol.CarouselActionResponse{
		Accepted: false,
		Index:    st.Index,
		Phase:    st.Phase().String(),
		Message:  "carousel session has stopped",
	})
}

func (s *storefront) carouselEventsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := sess.Subscribe()
	defer cancel()

	send := func(name string, v any) {
		b, _ := json.Marshal(v)
		_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, string(b))
		flusher.Flush()
	}
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			_, _ = fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case evt, ok := <-events:
			if !ok {
				send(protocol.CarouselEventClosed, protocol.CarouselClosedEvent{SessionID: sess.ID()})
				return
			}
			send(protocol.CarouselEventSelect, eventView(evt))
		}
	}
}

func (s *storefront) lookupSession(w http.ResponseWriter, r *http.Request) (*carousel.Session, bool) {
	sess, err := s.carousels.Get(chi.URLParam(r, "id"))
	if errors.Is(err, carousel.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

func (s *storefront) sessionResponse(sess *carousel.Session) protocol.CarouselSessionResponse {
	st := sess.State()
	resp := protocol.CarouselSessionResponse{
		SessionID:      sess.ID(),
		Count:          st.Length,
		CadenceMS:      sess.Cadence().Milliseconds(),
		CooldownMS:     sess.Cooldown().Milliseconds(),
		Index:          st.Index,
		Phase:          st.Phase().String(),
		IdleTimeoutSec: int(s.carousels.Options().IdleTimeout / time.Second),
	}
	if g, ok := sess.Current(); ok {
		resp.Current = protocol.NewGameView(g)
	}
	return resp
}

func eventView(evt carousel.Event) protocol.CarouselEvent {
	return protocol.CarouselEvent{
		SessionID: evt.SessionID,
		Seq:       evt.Seq,
		Index:     evt.Index,
		Count:     evt.Count,
		Game:      protocol.NewGameView(evt.Game),
	}
}
