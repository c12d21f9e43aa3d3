package protocol

import "time"

type ServerInfoResponse struct {
	Name        string           `json:"name"`
	APIVersion  int              `json:"api_version"`
	Version     string           `json:"version"`
	Hostname    string           `json:"hostname,omitempty"`
	CatalogSize int              `json:"catalog_size"`
	CatalogSrc  string           `json:"catalog_source"`
	LoadedUTC   time.Time        `json:"loaded_utc"`
	Sessions    int              `json:"carousel_sessions"`
	LogCounters map[string]int64 `json:"log_counters,omitempty"`
}

type HealthzResponse struct {
	Status string `json:"status"`
}
