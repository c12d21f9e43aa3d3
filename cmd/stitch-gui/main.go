package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gioui.org/app"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/izzyreal/stitch/internal/protocol"
	"github.com/izzyreal/stitch/internal/rotation"
	"github.com/izzyreal/stitch/internal/server/grpcapi"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

type connectionPhase string

const (
	phaseDisconnected connectionPhase = "disconnected"
	phaseConnecting   connectionPhase = "connecting"
	phaseConnected    connectionPhase = "connected"
	phaseReconnecting connectionPhase = "reconnecting"
)

type watchUpdate struct {
	phase      connectionPhase
	statusText string
	errText    string
	info       *protocol.ServerInfoResponse
	featured   *featuredView
	results    *protocol.SearchResponse
}

type featuredView struct {
	index int
	count int
	game  protocol.GameView
}

type guiApp struct {
	theme *material.Theme
	ops   op.Ops

	addrEditor   widget.Editor
	searchEditor widget.Editor
	connectBtn   widget.Clickable
	disconnBtn   widget.Clickable
	searchBtn    widget.Clickable
	prevBtn      widget.Clickable
	nextBtn      widget.Clickable
	featuredArea widget.Clickable
	dots         []widget.Clickable
	resultsList  widget.List

	window *app.Window

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
	watching    bool
	client      *grpcapi.Client

	carousel      *rotation.Controller[protocol.GameView]
	featuredCount atomic.Int64
	hover         rotation.PauseLatch

	updates chan watchUpdate

	phase      connectionPhase
	statusText string
	lastError  string
	info       protocol.ServerInfoResponse
	featured   featuredView
	results    protocol.SearchResponse
}

func main() {
	go func() {
		w := new(app.Window)
		w.Option(
			app.Title("stitch-gui"),
			app.Size(unit.Dp(980), unit.Dp(680)),
		)
		if err := run(w); err != nil {
			log.Printf("stitch-gui: %v", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

func run(w *app.Window) error {
	model := &guiApp{
		theme:      material.NewTheme(),
		updates:    make(chan watchUpdate, 256),
		window:     w,
		phase:      phaseDisconnected,
		statusText: "Disconnected",
	}
	model.addrEditor.SingleLine = true
	model.addrEditor.Submit = true
	model.addrEditor.SetText(defaultServerAddr())
	model.searchEditor.SingleLine = true
	model.searchEditor.Submit = true
	model.resultsList.Axis = layout.Vertical
	model.startWatch()

	for {
		e := w.Event()
		switch e := e.(type) {
		case app.DestroyEvent:
			model.stopWatch("Disconnected")
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&model.ops, e)
			model.processUpdates()
			model.processActions(gtx)
			model.layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func defaultServerAddr() string {
	if v := strings.TrimSpace(os.Getenv("STITCH_GUI_SERVER_ADDR")); v != "" {
		return normalizeServerAddr(v)
	}
	return "127.0.0.1:8113"
}

func normalizeServerAddr(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err == nil && strings.TrimSpace(u.Host) != "" {
			return strings.TrimSpace(u.Host)
		}
	}
	return raw
}

func (m *guiApp) processActions(gtx C) {
	for m.connectBtn.Clicked(gtx) {
		m.startWatch()
	}
	for m.disconnBtn.Clicked(gtx) {
		m.stopWatch("Disconnected")
	}
	for m.searchBtn.Clicked(gtx) {
		m.runSearch(m.searchEditor.Text())
	}
	if ctrl := m.currentCarousel(); ctrl != nil {
		for m.prevBtn.Clicked(gtx) {
			ctrl.Prev()
		}
		for m.nextBtn.Clicked(gtx) {
			ctrl.Next()
		}
		for i := range m.dots {
			for m.dots[i].Clicked(gtx) {
				ctrl.GoTo(i)
			}
		}
	}
	for {
		ev, ok := m.searchEditor.Update(gtx)
		if !ok {
			break
		}
		if _, submitted := ev.(widget.SubmitEvent); submitted {
			m.runSearch(m.searchEditor.Text())
		}
	}
}

func (m *guiApp) startWatch() {
	addr := normalizeServerAddr(m.addrEditor.Text())
	if addr == "" {
		m.phase = phaseDisconnected
		m.statusText = "Enter a gRPC server address"
		m.lastError = "empty address"
		return
	}
	m.addrEditor.SetText(addr)

	m.watchMu.Lock()
	if m.watching {
		m.watchMu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.watchCancel = cancel
	m.watching = true
	m.watchMu.Unlock()

	m.phase = phaseConnecting
	m.statusText = "Connecting"
	m.lastError = ""
	if m.window != nil {
		m.window.Invalidate()
	}

	go m.watchLoop(ctx, addr)
}

func (m *guiApp) stopWatch(reason string) {
	m.watchMu.Lock()
	cancel := m.watchCancel
	m.watchCancel = nil
	m.watching = false
	m.client = nil
	ctrl := m.carousel
	m.carousel = nil
	m.watchMu.Unlock()
	if cancel != nil {
		cancel()
	}
	if ctrl != nil {
		ctrl.Teardown()
	}
	if strings.TrimSpace(reason) != "" {
		m.phase = phaseDisconnected
		m.statusText = reason
	}
	if m.window != nil {
		m.window.Invalidate()
	}
}

func (m *guiApp) currentClient() *grpcapi.Client {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()
	return m.client
}

func (m *guiApp) currentCarousel() *rotation.Controller[protocol.GameView] {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()
	return m.carousel
}

// updateHover feeds the pointer state of the featured panel into the
// carousel's pause latch.
func (m *guiApp) updateHover() {
	m.hover.Set(m.featuredArea.Hovered())
}

// refreshFeatured fetches the featured collection and hands it to the local
// carousel, creating the controller on first use.
func (m *guiApp) refreshFeatured(ctx context.Context, client *grpcapi.Client) error {
	raw, err := client.ListFeatured(ctx)
	if err != nil {
		return err
	}
	var coll protocol.CollectionResponse
	if err := grpcapi.DecodeStruct(raw, &coll); err != nil {
		return err
	}
	m.featuredCount.Store(int64(len(coll.Games)))

	m.watchMu.Lock()
	ctrl := m.carousel
	m.watchMu.Unlock()
	if ctrl != nil && ctrl.State().Phase() != rotation.PhaseStopped {
		ctrl.SetItems(coll.Games)
		if len(coll.Games) == 0 {
			m.enqueueUpdate(watchUpdate{featured: &featuredView{}})
		}
		return nil
	}
	if len(coll.Games) == 0 {
		m.enqueueUpdate(watchUpdate{featured: &featuredView{}})
		return nil
	}
	ctrl = rotation.New(coll.Games, func(index int, g protocol.GameView) {
		m.enqueueUpdate(watchUpdate{featured: &featuredView{
			index: index,
			count: int(m.featuredCount.Load()),
			game:  g,
		}})
	}, rotation.WithPauseSource(m.hover.Source))

	m.watchMu.Lock()
	prev := m.carousel
	m.carousel = ctrl
	m.watchMu.Unlock()
	if prev != nil {
		prev.Teardown()
	}
	return nil
}

// featuredChanged reports whether a server-side rotation event disagrees
// with the local copy of the featured collection.
func featuredChanged(evt protocol.CarouselEvent, local []protocol.GameView) bool {
	if evt.Count != len(local) {
		return true
	}
	if evt.Index < 0 || evt.Index >= len(local) {
		return true
	}
	return local[evt.Index].ID != evt.Game.ID
}

func (m *guiApp) localFeatured() []protocol.GameView {
	ctrl := m.currentCarousel()
	if ctrl == nil {
		return nil
	}
	return ctrl.Items()
}

func (m *guiApp) runSearch(query string) {
	client := m.currentClient()
	if client == nil {
		m.lastError = "not connected"
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		raw, err := client.Search(ctx, query)
		if err != nil {
			m.enqueueUpdate(watchUpdate{errText: err.Error()})
			return
		}
		var res protocol.SearchResponse
		if err := grpcapi.DecodeStruct(raw, &res); err != nil {
			m.enqueueUpdate(watchUpdate{errText: err.Error()})
			return
		}
		m.enqueueUpdate(watchUpdate{results: &res})
	}()
}

func (m *guiApp) watchLoop(ctx context.Context, addr string) {
	defer func() {
		m.enqueueUpdate(watchUpdate{phase: phaseDisconnected, statusText: "Disconnected"})
		m.watchMu.Lock()
		m.watchCancel = nil
		m.watching = false
		m.client = nil
		ctrl := m.carousel
		m.carousel = nil
		m.watchMu.Unlock()
		if ctrl != nil {
			ctrl.Teardown()
		}
	}()

	backoff := time.Second
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		attempt++
		phase := phaseConnecting
		statusText := fmt.Sprintf("Connecting to %s", addr)
		if attempt > 1 {
			phase = phaseReconnecting
			statusText = fmt.Sprintf("Reconnecting to %s", addr)
		}
		m.enqueueUpdate(watchUpdate{phase: phase, statusText: statusText})

		dialCtx, dialCancel := context.WithTimeout(ctx, 6*time.Second)
		conn, err := grpc.DialContext(dialCtx, addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithBlock(),
		)
		dialCancel()
		if err != nil {
			m.enqueueUpdate(watchUpdate{phase: phaseReconnecting, statusText: "Connection failed", errText: err.Error()})
			if !sleepWithContext(ctx, backoff) {
				return
			}
			if backoff < 10*time.Second {
				backoff *= 2
			}
			continue
		}

		client := grpcapi.NewClient(conn)
		if raw, err := client.GetServerInfo(ctx); err == nil {
			var info protocol.ServerInfoResponse
			if err := grpcapi.DecodeStruct(raw, &info); err == nil {
				m.enqueueUpdate(watchUpdate{info: &info})
			}
		}
		if err := m.refreshFeatured(ctx, client); err != nil {
			_ = conn.Close()
			m.enqueueUpdate(watchUpdate{phase: phaseReconnecting, statusText: "Featured fetch failed", errText: err.Error()})
			if !sleepWithContext(ctx, backoff) {
				return
			}
			if backoff < 10*time.Second {
				backoff *= 2
			}
			continue
		}
		stream, err := client.WatchFeatured(ctx, 0)
		if err != nil {
			_ = conn.Close()
			m.enqueueUpdate(watchUpdate{phase: phaseReconnecting, statusText: "Stream start failed", errText: err.Error()})
			if !sleepWithContext(ctx, backoff) {
				return
			}
			if backoff < 10*time.Second {
				backoff *= 2
			}
			continue
		}

		m.watchMu.Lock()
		m.client = client
		m.watchMu.Unlock()
		m.enqueueUpdate(watchUpdate{phase: phaseConnected, statusText: fmt.Sprintf("Connected to %s", addr)})
		backoff = time.Second

		for {
			msg, err := stream.Recv()
			if err != nil {
				m.watchMu.Lock()
				m.client = nil
				m.watchMu.Unlock()
				_ = conn.Close()
				if ctx.Err() != nil {
					return
				}
				m.enqueueUpdate(watchUpdate{phase: phaseReconnecting, statusText: "Stream interrupted", errText: err.Error()})
				break
			}
			evt, ok := featuredFromStruct(msg)
			if !ok || !featuredChanged(evt, m.localFeatured()) {
				continue
			}
			if err := m.refreshFeatured(ctx, client); err != nil {
				m.enqueueUpdate(watchUpdate{errText: err.Error()})
			}
		}
	}
}

func featuredFromStruct(msg *structpb.Struct) (protocol.CarouselEvent, bool) {
	var evt protocol.CarouselEvent
	if err := grpcapi.DecodeStruct(msg, &evt); err != nil {
		return protocol.CarouselEvent{}, false
	}
	return evt, true
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (m *guiApp) enqueueUpdate(u watchUpdate) {
	select {
	case m.updates <- u:
	default:
		select {
		case <-m.updates:
		default:
		}
		select {
		case m.updates <- u:
		default:
		}
	}
	if m.window != nil {
		m.window.Invalidate()
	}
}

func (m *guiApp) processUpdates() {
	for {
		select {
		case u := <-m.updates:
			if u.phase != "" {
				m.phase = u.phase
			}
			if strings.TrimSpace(u.statusText) != "" {
				m.statusText = u.statusText
			}
			if strings.TrimSpace(u.errText) != "" {
				m.lastError = u.errText
			}
			if u.info != nil {
				m.info = *u.info
			}
			if u.featured != nil {
				m.featured = *u.featured
			}
			if u.results != nil {
				m.results = *u.results
			}
		default:
			return
		}
	}
}

func (m *guiApp) layout(gtx C) D {
	in := layout.UniformInset(unit.Dp(16))
	return in.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx C) D {
				return material.H5(m.theme, "stitch-gui").Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(m.layoutConnectionRow),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(m.layoutStatusPanel),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(m.layoutFeaturedPanel),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(m.layoutSearchRow),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Flexed(1, m.layoutResults),
		)
	})
}

func (m *guiApp) layoutConnectionRow(gtx C) D {
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Flexed(1, func(gtx C) D {
			return material.Editor(m.theme, &m.addrEditor, "127.0.0.1:8113").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx C) D {
			return material.Button(m.theme, &m.connectBtn, "Connect").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx C) D {
			return material.Button(m.theme, &m.disconnBtn, "Disconnect").Layout(gtx)
		}),
	)
}

func (m *guiApp) layoutStatusPanel(gtx C) D {
	server := "(unknown)"
	if m.info.Name != "" {
		server = fmt.Sprintf("%s %s on %s, %d games", m.info.Name, m.info.Version, m.info.Hostname, m.info.CatalogSize)
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return material.Body1(m.theme, "Status: "+string(m.phase)+" - "+m.statusText).Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			return material.Body2(m.theme, "Server: "+server).Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			err := strings.TrimSpace(m.lastError)
			if err == "" {
				err = "none"
			}
			return material.Body2(m.theme, "Last error: "+err).Layout(gtx)
		}),
	)
}

func (m *guiApp) layoutFeaturedPanel(gtx C) D {
	f := m.featured
	if f.count == 0 {
		return material.Body1(m.theme, "No featured games").Layout(gtx)
	}
	if len(m.dots) != f.count {
		m.dots = make([]widget.Clickable, f.count)
	}
	phase := rotation.PhaseStopped
	if ctrl := m.currentCarousel(); ctrl != nil {
		phase = ctrl.State().Phase()
	}
	g := f.game
	dims := m.featuredArea.Layout(gtx, func(gtx C) D {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx C) D {
				return material.H6(m.theme, fmt.Sprintf("Featured %d/%d: %s", f.index+1, f.count, g.Title)).Layout(gtx)
			}),
			layout.Rigid(func(gtx C) D {
				return material.Body2(m.theme, gameSummary(g)).Layout(gtx)
			}),
			layout.Rigid(func(gtx C) D {
				return material.Body2(m.theme, "tags: "+strings.Join(g.Tags, ", ")).Layout(gtx)
			}),
			layout.Rigid(func(gtx C) D {
				return material.Body2(m.theme, "platforms: "+strings.Join(g.Platforms, ", ")).Layout(gtx)
			}),
			layout.Rigid(func(gtx C) D {
				return material.Caption(m.theme, "rotation: "+phase.String()).Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
			layout.Rigid(m.layoutCarouselControls),
		)
	})
	m.updateHover()
	return dims
}

func (m *guiApp) layoutCarouselControls(gtx C) D {
	children := []layout.FlexChild{
		layout.Rigid(func(gtx C) D {
			return material.Button(m.theme, &m.prevBtn, "<").Layout(gtx)
		}),
	}
	for i := range m.dots {
		label := "o"
		if i == m.featured.index {
			label = "*"
		}
		children = append(children,
			layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
			layout.Rigid(func(gtx C) D {
				return material.Button(m.theme, &m.dots[i], label).Layout(gtx)
			}),
		)
	}
	children = append(children,
		layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
		layout.Rigid(func(gtx C) D {
			return material.Button(m.theme, &m.nextBtn, ">").Layout(gtx)
		}),
	)
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx, children...)
}

func (m *guiApp) layoutSearchRow(gtx C) D {
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Flexed(1, func(gtx C) D {
			return material.Editor(m.theme, &m.searchEditor, "search the store").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx C) D {
			return material.Button(m.theme, &m.searchBtn, "Search").Layout(gtx)
		}),
	)
}

func (m *guiApp) layoutResults(gtx C) D {
	lines := searchLines(m.results)
	return material.List(m.theme, &m.resultsList).Layout(gtx, len(lines), func(gtx C, i int) D {
		return material.Body2(m.theme, lines[i]).Layout(gtx)
	})
}

func gameSummary(g protocol.GameView) string {
	price := g.PriceLabel
	if g.DiscountPercentage > 0 {
		price = fmt.Sprintf("%s (-%d%%, was %s)", g.PriceLabel, g.DiscountPercentage, g.BasePriceLabel)
	}
	return fmt.Sprintf("%s | %s (%s reviews)", price, g.ReviewLabel, g.ReviewCountLabel)
}

func searchLines(res protocol.SearchResponse) []string {
	var out []string
	for _, g := range res.Games {
		out = append(out, g.Title+" - "+gameSummary(g))
	}
	for _, t := range res.Tags {
		out = append(out, fmt.Sprintf("#%s (%d games)", t.Name, t.Count))
	}
	if len(out) == 0 && strings.TrimSpace(res.Query) != "" {
		out = append(out, "no results for "+res.Query)
	}
	return out
}
