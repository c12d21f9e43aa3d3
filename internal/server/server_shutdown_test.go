package server

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/izzyreal/stitch/internal/config"
	"github.com/izzyreal/stitch/internal/protocol"
	"github.com/izzyreal/stitch/internal/server/carousel"
	"github.com/izzyreal/stitch/internal/server/grpcapi"
)

func mustListen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return lis
}

func TestServeShutsDownWithOpenStreams(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	front := newStorefront(mustParseCatalog(t, testCatalogYAML), carousel.Options{
		Cadence:        time.Hour,
		CooldownFactor: 3,
		IdleTimeout:    time.Minute,
		Logger:         discardLogger(),
	})
	httpLis := mustListen(t)
	grpcLis := mustListen(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() {
		served <- serveListeners(ctx, config.Settings{IdleTimeout: time.Minute}, discardLogger(), front, httpLis, grpcLis)
	}()

	transport := &http.Transport{}
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	baseURL := "http://" + httpLis.Addr().String()

	sess := createSession(t, client, baseURL)
	resp, err := client.Get(baseURL + "/api/v1/carousel/sessions/" + sess.SessionID + "/events")
	if err != nil {
		t.Fatalf("open event stream: %v", err)
	}
	defer resp.Body.Close()
	events := bufio.NewReader(resp.Body)
	if first := readSSE(t, events); first.Name != protocol.CarouselEventSelect {
		t.Fatalf("expected initial select event, got %+v", first)
	}

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("new grpc client: %v", err)
	}
	defer conn.Close()
	streamCtx, streamCancel := context.WithCancel(context.Background())
	defer streamCancel()
	stream, err := grpcapi.NewClient(conn).WatchFeatured(streamCtx, 0)
	if err != nil {
		t.Fatalf("watch featured: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("first watch event: %v", err)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(shutdownTimeout + 2*time.Second):
		t.Fatalf("serve did not return after ctx cancel with open streams")
	}

	if _, err := stream.Recv(); status.Code(err) != codes.Unavailable {
		t.Fatalf("expected watch stream to end as unavailable, got %v", err)
	}
	if last := readSSE(t, events); last.Name != protocol.CarouselEventClosed {
		t.Fatalf("expected closed event on shutdown, got %+v", last)
	}
}

func TestStopGRPCFallsBackToHardStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	front, _ := newTestStorefront(t)
	lis := mustListen(t)
	srv := grpc.NewServer()
	// No stopping channel: the stream only ends when the server forces it.
	registerStorefrontGRPCService(srv, newStorefrontGRPCServer(buildRouter(front), front, nil))
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("new grpc client: %v", err)
	}
	defer conn.Close()
	streamCtx, streamCancel := context.WithCancel(context.Background())
	defer streamCancel()
	stream, err := grpcapi.NewClient(conn).WatchFeatured(streamCtx, 0)
	if err != nil {
		t.Fatalf("watch featured: %v", err)
	}
	if _, err := stream.Recv(); err != nil {
		t.Fatalf("first watch event: %v", err)
	}

	start := time.Now()
	stopGRPC(srv, 200*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("stopGRPC took %s", elapsed)
	}
	if _, err := stream.Recv(); err == nil {
		t.Fatalf("expected stream to end after hard stop")
	}
}
