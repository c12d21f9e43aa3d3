// Package grpcapi declares the stitch.v1.Storefront gRPC service. Messages
// are protobuf well-known types; payloads travel as google.protobuf.Struct
// holding the same JSON documents the HTTP API serves.
package grpcapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "stitch.v1.Storefront"

const (
	FullMethodGetServerInfo = "/" + ServiceName + "/GetServerInfo"
	FullMethodSearch        = "/" + ServiceName + "/Search"
	FullMethodListFeatured  = "/" + ServiceName + "/ListFeatured"
	FullMethodWatchFeatured = "/" + ServiceName + "/WatchFeatured"
)

type StorefrontServer interface {
	GetServerInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Search(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListFeatured(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// WatchFeatured runs a featured carousel for the lifetime of the stream
	// at the requested cadence (zero means the server default).
	WatchFeatured(*durationpb.Duration, grpc.ServerStreamingServer[structpb.Struct]) error
}

// UnimplementedStorefrontServer can be embedded for forward compatibility.
type UnimplementedStorefrontServer struct{}

func (UnimplementedStorefrontServer) GetServerInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetServerInfo not implemented")
}

func (UnimplementedStorefrontServer) Search(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Search not implemented")
}

func (UnimplementedStorefrontServer) ListFeatured(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListFeatured not implemented")
}

func (UnimplementedStorefrontServer) WatchFeatured(*durationpb.Duration, grpc.ServerStreamingServer[structpb.Struct]) error {
	return status.Error(codes.Unimplemented, "method WatchFeatured not implemented")
}

func RegisterStorefrontServer(s grpc.ServiceRegistrar, srv StorefrontServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StorefrontServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetServerInfo", Handler: getServerInfoHandler},
		{MethodName: "Search", Handler: searchHandler},
		{MethodName: "ListFeatured", Handler: listFeaturedHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchFeatured", Handler: watchFeaturedHandler, ServerStreams: true},
	},
	Metadata: "stitch/v1/storefront.proto",
}

func getServerInfoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServer).GetServerInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodGetServerInfo}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServer).GetServerInfo(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func searchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServer).Search(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodSearch}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServer).Search(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listFeaturedHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StorefrontServer).ListFeatured(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethodListFeatured}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StorefrontServer).ListFeatured(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchFeaturedHandler(srv any, stream grpc.ServerStream) error {
	in := new(durationpb.Duration)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(StorefrontServer).WatchFeatured(in, &grpc.GenericServerStream[durationpb.Duration, structpb.Struct]{ServerStream: stream})
}

// Client is a typed wrapper over a connection to the storefront service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetServerInfo(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethodGetServerInfo, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Search(ctx context.Context, query string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethodSearch, wrapperspb.String(query), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListFeatured(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethodListFeatured, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) WatchFeatured(ctx context.Context, cadence time.Duration, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], FullMethodWatchFeatured, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[durationpb.Duration, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(durationpb.New(cadence)); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// EncodeStruct converts a JSON-serializable value into a Struct.
func EncodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal struct payload: %w", err)
	}
	return DecodeJSON(raw)
}

func DecodeJSON(raw []byte) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode struct payload: %w", err)
	}
	return out, nil
}

// DecodeStruct fills out (a pointer to a JSON-tagged type) from s.
func DecodeStruct(s *structpb.Struct, out any) error {
	if s == nil {
		return fmt.Errorf("decode struct payload: nil struct")
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal struct payload: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal struct payload: %w", err)
	}
	return nil
}
