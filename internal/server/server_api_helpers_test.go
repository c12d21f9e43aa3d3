package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/izzyreal/stitch/internal/catalog"
	"github.com/izzyreal/stitch/internal/server/carousel"
	"github.com/izzyreal/stitch/internal/testutil"
)

const testCatalogYAML = `
version: 1
collections:
  featured: [1, 2, 3]
games:
  - id: 1
    title: Hollow Forge
    tags: [action, rpg, souls-like]
    platforms: [windows, linux]
    pricing: {base_price: 29.99, current_price: 14.99, discount_percentage: 50}
    reviews: {score: 93, count: 52000}
    media: {thumbnail: t1.jpg, banner: b1.gif, screenshots: [s1.jpg]}
    publish_date: "2022-10-04"
  - id: 2
    title: Harbor Lights
    tags: [simulation, farming]
    platforms: [windows, mac]
    pricing: {base_price: 14.99, current_price: 14.99}
    reviews: {score: 88, count: 9100}
    media: {thumbnail: t2.jpg, banner: b2.jpg, screenshots: []}
  - id: 3
    title: Rift Runners
    tags: [action, fps]
    platforms: [windows]
    pricing: {base_price: 0, current_price: 0}
    reviews: {score: 71, count: 130000}
    media: {thumbnail: t3.jpg, banner: b3.jpg, screenshots: []}
  - id: 4
    title: Quiet Orbit
    tags: [puzzle, space]
    platforms: [mac, linux]
    pricing: {base_price: 9.99, current_price: 7.99, discount_percentage: 20}
    reviews: {score: 55, count: 800}
    media: {thumbnail: t4.jpg, banner: b4.jpg, screenshots: []}
`

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func mustParseCatalog(t *testing.T, raw string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(raw), "test")
	if err != nil {
		t.Fatalf("parse test catalog: %v", err)
	}
	return cat
}

func newTestStorefront(t *testing.T) (*storefront, *testutil.FakeClock) {
	t.Helper()
	clk := testutil.NewFakeClock(testEpoch)
	front := newStorefront(mustParseCatalog(t, testCatalogYAML), carousel.Options{
		Cadence:        5 * time.Second,
		CooldownFactor: 3,
		IdleTimeout:    time.Minute,
		Clock:          clk,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(front.carousels.CloseAll)
	return front, clk
}

func newTestHTTPServer(t *testing.T) (*httptest.Server, *storefront, *testutil.FakeClock) {
	t.Helper()
	front, clk := newTestStorefront(t)
	ts := httptest.NewServer(buildRouter(front))
	t.Cleanup(ts.Close)
	// Runs before ts.Close so open event streams end first.
	t.Cleanup(front.carousels.CloseAll)
	return ts, front, clk
}

func mustRequest(t *testing.T, client *http.Client, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeJSONBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response JSON: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return strings.TrimSpace(string(b))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
