package server

import (
	"net/http"
	"os"
	"strings"

	"github.com/izzyreal/stitch/internal/logging"
	"github.com/izzyreal/stitch/internal/protocol"
	"github.com/izzyreal/stitch/internal/server/httpx"
	"github.com/izzyreal/stitch/internal/version"
)

const apiVersion = 1

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, protocol.HealthzResponse{Status: "ok"})
}

func (s *storefront) serverInfoHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	cat := s.Catalog()
	httpx.WriteJSON(w, http.StatusOK, protocol.ServerInfoResponse{
		Name:        "stitch",
		APIVersion:  apiVersion,
		Version:     version.Current(),
		Hostname:    strings.TrimSpace(host),
		CatalogSize: cat.Len(),
		CatalogSrc:  cat.Source(),
		LoadedUTC:   cat.LoadedUTC(),
		Sessions:    s.carousels.Len(),
		LogCounters: logging.Counters(),
	})
}
