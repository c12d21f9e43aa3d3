package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"

	"github.com/izzyreal/stitch/internal/version"
)

const mdnsService = "_stitch._tcp"

func startMDNSAdvertiser(enabled bool, instance, serverAddr, grpcAddr string) func() {
	if !enabled {
		return func() {}
	}

	port := listenPortFromAddr(serverAddr)
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum <= 0 {
		return func() {}
	}

	instance = strings.TrimSpace(instance)
	if instance == "" {
		host, _ := os.Hostname()
		if strings.TrimSpace(host) == "" {
			host = "local"
		}
		instance = "stitch-" + host
	}

	meta := []string{
		"name=stitch",
		"api_version=" + strconv.Itoa(apiVersion),
		"version=" + version.Current(),
	}
	if gp := listenPortFromAddr(grpcAddr); gp != "" && grpcAddr != "" {
		meta = append(meta, "grpc_port="+gp)
	}
	ips := discoverAdvertiseIPs()
	service, err := mdns.NewMDNSService(instance, mdnsService, "", "", portNum, ips, meta)
	if err != nil {
		slog.Error("mdns advertise service setup failed", "error", err)
		return func() {}
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		slog.Error("mdns advertise start failed", "error", err)
		return func() {}
	}
	slog.Info("mdns advertising enabled", "service", mdnsService, "instance", instance, "port", port)

	return func() {
		server.Shutdown()
	}
}

// DiscoveredServer is a storefront found on the local network.
type DiscoveredServer struct {
	Instance string
	Host     string
	Addr     string
	Port     int
	GRPCPort int
	Version  string
}

func (d DiscoveredServer) BaseURL() string {
	return "http://" + net.JoinHostPort(d.Addr, strconv.Itoa(d.Port))
}

// Discover browses for advertised storefronts, newest version first.
func Discover(ctx context.Context, timeout time.Duration) ([]DiscoveredServer, error) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, ctx.Err()
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan []DiscoveredServer, 1)
	go func() {
		var found []DiscoveredServer
		seen := map[string]struct{}{}
		for e := range entries {
			d, ok := discoveredFromEntry(e)
			if !ok {
				continue
			}
			key := d.Instance + "|" + d.Addr
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			found = append(found, d)
		}
		done <- found
	}()

	params := mdns.DefaultParams(mdnsService)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	found := <-done
	if err != nil {
		return nil, fmt.Errorf("mdns query: %w", err)
	}
	sortDiscovered(found)
	return found, nil
}

func discoveredFromEntry(e *mdns.ServiceEntry) (DiscoveredServer, bool) {
	if e == nil || e.Port <= 0 {
		return DiscoveredServer{}, false
	}
	d := DiscoveredServer{
		Instance: strings.TrimSuffix(e.Name, "."+mdnsService+".local."),
		Host:     e.Host,
		Port:     e.Port,
	}
	switch {
	case e.AddrV4 != nil:
		d.Addr = e.AddrV4.String()
	case e.AddrV6 != nil:
		d.Addr = e.AddrV6.String()
	default:
		return DiscoveredServer{}, false
	}
	for _, field := range e.InfoFields {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch k {
		case "version":
			d.Version = v
		case "grpc_port":
			d.GRPCPort, _ = strconv.Atoi(v)
		}
	}
	return d, true
}

func sortDiscovered(found []DiscoveredServer) {
	sort.SliceStable(found, func(i, j int) bool {
		if c := version.Compare(found[i].Version, found[j].Version); c != 0 {
			return c > 0
		}
		return found[i].Instance < found[j].Instance
	})
}

func discoverAdvertiseIPs() []net.IP {
	ifAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	return filterAdvertiseIPs(ifAddrs)
}

func filterAdvertiseIPs(addrs []net.Addr) []net.IP {
	if len(addrs) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	out := make([]net.IP, 0, len(addrs))
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet == nil || ipNet.IP == nil {
			continue
		}
		ip := ipNet.IP
		if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			continue
		}
		normalized := ip.To16()
		if normalized == nil {
			continue
		}
		key := normalized.String()
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return nil
	}
	// IPv4 first.
	sort.Slice(out, func(i, j int) bool {
		ai := out[i].To4() != nil
		aj := out[j].To4() != nil
		if ai != aj {
			return ai
		}
		return out[i].String() < out[j].String()
	})
	return out
}

func listenPortFromAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "8112"
	}
	if strings.HasPrefix(addr, ":") {
		return strings.TrimPrefix(addr, ":")
	}
	if strings.Count(addr, ":") == 0 {
		return addr
	}
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	return p
}
