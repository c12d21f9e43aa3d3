package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/izzyreal/stitch/internal/catalog"
	"github.com/izzyreal/stitch/internal/protocol"
	"github.com/izzyreal/stitch/internal/rotation"
	"github.com/izzyreal/stitch/internal/server/grpcapi"
)

const (
	minWatchCadence = 250 * time.Millisecond
	maxWatchCadence = time.Minute
	watchBuffer     = 8
)

type storefrontGRPCServer struct {
	grpcapi.UnimplementedStorefrontServer
	router http.Handler
	front  *storefront
	clock  rotation.Clock
	// stopping is closed when the server shuts down; open streams end then.
	stopping <-chan struct{}
}

func newStorefrontGRPCServer(router http.Handler, front *storefront, stopping <-chan struct{}) *storefrontGRPCServer {
	return &storefrontGRPCServer{router: router, front: front, clock: rotation.RealClock, stopping: stopping}
}

func registerStorefrontGRPCService(s *grpc.Server, impl grpcapi.StorefrontServer) {
	grpcapi.RegisterStorefrontServer(s, impl)
}

func (g *storefrontGRPCServer) GetServerInfo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return g.invokeAndDecodeJSON(ctx, http.MethodGet, "/api/v1/server-info", nil)
}

func (g *storefrontGRPCServer) Search(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	path := "/api/v1/search?q=" + url.QueryEscape(req.GetValue())
	return g.invokeAndDecodeJSON(ctx, http.MethodGet, path, nil)
}

func (g *storefrontGRPCServer) ListFeatured(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return g.invokeAndDecodeJSON(ctx, http.MethodGet, "/api/v1/collections/"+catalog.CollectionFeatured, nil)
}

// WatchFeatured drives a private rotation over the featured collection and
// sends one event per selection. Catalog reloads re-validate it in place.
func (g *storefrontGRPCServer) WatchFeatured(req *durationpb.Duration, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	if g == nil || g.front == nil {
		return status.Error(codes.Internal, "gRPC bridge is not initialized")
	}

	opts := g.front.carousels.Options()
	cadence := opts.Cadence
	if req != nil && req.AsDuration() > 0 {
		cadence = req.AsDuration()
		if cadence < minWatchCadence {
			cadence = minWatchCadence
		}
		if cadence > maxWatchCadence {
			cadence = maxWatchCadence
		}
	}

	streamID := "watch-" + strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
	events := make(chan protocol.CarouselEvent, watchBuffer)
	var seq int64
	var count atomic.Int64
	onSelect := func(index int, game catalog.Game) {
		seq++
		evt := protocol.CarouselEvent{
			SessionID: streamID,
			Seq:       seq,
			Index:     index,
			Count:     int(count.Load()),
			Game:      protocol.NewGameView(game),
		}
		for {
			select {
			case events <- evt:
				return
			default:
			}
			select {
			case <-events:
			default:
			}
		}
	}

	featured := g.front.Catalog().Featured()
	count.Store(int64(len(featured)))
	ctrl := rotation.New(featured, onSelect,
		rotation.WithClock(g.clock),
		rotation.WithCadence(cadence),
		rotation.WithCooldownFactor(opts.CooldownFactor),
		rotation.WithLogger(opts.Logger),
	)
	defer ctrl.Teardown()
	unwatch := g.front.watchFeatured(func(items []catalog.Game) {
		count.Store(int64(len(items)))
		ctrl.SetItems(items)
	})
	defer unwatch()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-g.stopping:
			return status.Error(codes.Unavailable, "server shutting down")
		case evt := <-events:
			msg, err := grpcapi.EncodeStruct(evt)
			if err != nil {
				return status.Errorf(codes.Internal, "encode carousel event: %v", err)
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func (g *storefrontGRPCServer) invokeAndDecodeJSON(ctx context.Context, method, targetPath string, body map[string]any) (*structpb.Struct, error) {
	raw, err := g.invokeJSON(ctx, method, targetPath, body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &structpb.Struct{}, nil
	}
	out, err := grpcapi.DecodeJSON(raw)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "decode JSON response: %v", err)
	}
	return out, nil
}

func (g *storefrontGRPCServer) invokeJSON(ctx context.Context, method, targetPath string, body map[string]any) ([]byte, error) {
	if g == nil || g.router == nil {
		return nil, status.Error(codes.Internal, "gRPC bridge is not initialized")
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "marshal request body: %v", err)
		}
		payload = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, targetPath, payload).WithContext(ctx)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)

	resp := w.Result()
	defer resp.Body.Close()
	rawBody, _ := io.ReadAll(resp.Body)
	trimmed := strings.TrimSpace(string(rawBody))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if trimmed == "" {
			trimmed = http.StatusText(resp.StatusCode)
		}
		return nil, status.Errorf(httpStatusToGRPCCode(resp.StatusCode), "http %d: %s", resp.StatusCode, trimmed)
	}
	return rawBody, nil
}

func httpStatusToGRPCCode(statusCode int) codes.Code {
	switch statusCode {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.FailedPrecondition
	case http.StatusUnprocessableEntity:
		return codes.OutOfRange
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusMethodNotAllowed:
		return codes.Unimplemented
	default:
		if statusCode >= 500 {
			return codes.Internal
		}
		return codes.Unknown
	}
}
