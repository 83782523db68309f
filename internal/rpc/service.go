// Package rpc declares the heroes.v1.Heroes gRPC service.
//
// Messages are protobuf well-known types, so no generated code is needed:
// a hero travels as a google.protobuf.Struct with "id" and "name" fields, a
// list of heroes as a google.protobuf.ListValue of such structs, and ids and
// search terms as wrapper values.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "heroes.v1.Heroes"

// Method names.
const (
	MethodListHeroes   = "ListHeroes"
	MethodGetHero      = "GetHero"
	MethodSearchHeroes = "SearchHeroes"
	MethodCreateHero   = "CreateHero"
	MethodReplaceHero  = "ReplaceHero"
	MethodDeleteHero   = "DeleteHero"
)

// FullMethod returns "/heroes.v1.Heroes/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// HeroesServer is the server API for the heroes service.
type HeroesServer interface {
	ListHeroes(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetHero(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	SearchHeroes(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	CreateHero(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReplaceHero(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	DeleteHero(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

// RegisterHeroesServer registers srv with s.
func RegisterHeroesServer(s grpc.ServiceRegistrar, srv HeroesServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the heroes service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HeroesServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: MethodListHeroes,
			Handler: unaryHandler(MethodListHeroes, func() *emptypb.Empty { return new(emptypb.Empty) },
				HeroesServer.ListHeroes),
		},
		{
			MethodName: MethodGetHero,
			Handler: unaryHandler(MethodGetHero, func() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) },
				HeroesServer.GetHero),
		},
		{
			MethodName: MethodSearchHeroes,
			Handler: unaryHandler(MethodSearchHeroes, func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) },
				HeroesServer.SearchHeroes),
		},
		{
			MethodName: MethodCreateHero,
			Handler: unaryHandler(MethodCreateHero, func() *structpb.Struct { return new(structpb.Struct) },
				HeroesServer.CreateHero),
		},
		{
			MethodName: MethodReplaceHero,
			Handler: unaryHandler(MethodReplaceHero, func() *structpb.Struct { return new(structpb.Struct) },
				HeroesServer.ReplaceHero),
		},
		{
			MethodName: MethodDeleteHero,
			Handler: unaryHandler(MethodDeleteHero, func() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) },
				HeroesServer.DeleteHero),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "heroes/v1/heroes.proto",
}

// unaryHandler builds the decode/intercept/dispatch glue for one method.
func unaryHandler[In, Out proto.Message](
	method string,
	newIn func() In,
	call func(HeroesServer, context.Context, In) (Out, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newIn()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(HeroesServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(HeroesServer), ctx, req.(In))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// HeroesClient is the client API for the heroes service.
type HeroesClient struct {
	cc grpc.ClientConnInterface
}

// NewHeroesClient creates a client over cc.
func NewHeroesClient(cc grpc.ClientConnInterface) *HeroesClient {
	return &HeroesClient{cc: cc}
}

func (c *HeroesClient) ListHeroes(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, FullMethod(MethodListHeroes), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HeroesClient) GetHero(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(MethodGetHero), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HeroesClient) SearchHeroes(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, FullMethod(MethodSearchHeroes), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HeroesClient) CreateHero(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(MethodCreateHero), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HeroesClient) ReplaceHero(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, FullMethod(MethodReplaceHero), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HeroesClient) DeleteHero(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, FullMethod(MethodDeleteHero), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
