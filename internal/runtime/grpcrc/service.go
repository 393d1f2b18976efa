package grpcrc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// RuntimeServer is the service contract exposed over gRPC, one RPC per
// runtime.Client method. Requests carry a "table" name plus an "entry"
// or "match" value in the shape documented on encodeEntry in codec.go.
type RuntimeServer interface {
	LoadTable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Add(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Modify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	FlushTable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedRuntimeServer can be embedded to satisfy RuntimeServer
// while only overriding the methods a given server actually supports.
type UnimplementedRuntimeServer struct{}

func (UnimplementedRuntimeServer) LoadTable(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, errUnimplemented("LoadTable")
}
func (UnimplementedRuntimeServer) Add(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, errUnimplemented("Add")
}
func (UnimplementedRuntimeServer) Modify(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, errUnimplemented("Modify")
}
func (UnimplementedRuntimeServer) Delete(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, errUnimplemented("Delete")
}
func (UnimplementedRuntimeServer) Get(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, errUnimplemented("Get")
}
func (UnimplementedRuntimeServer) GetAll(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, errUnimplemented("GetAll")
}
func (UnimplementedRuntimeServer) FlushTable(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, errUnimplemented("FlushTable")
}

func errUnimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "grpcrc: %s not implemented", method)
}

func makeHandler(call func(srv interface{}, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/grpcrc.Runtime/Call"}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc mirrors the shape protoc-gen-go-grpc would emit for a
// service with these seven unary RPCs, hand-written because no .proto
// for this contract is compiled in this build.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "grpcrc.Runtime",
	HandlerType: (*RuntimeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LoadTable", Handler: handlerFor(func(s RuntimeServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) { return s.LoadTable(ctx, r) })},
		{MethodName: "Add", Handler: handlerFor(func(s RuntimeServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) { return s.Add(ctx, r) })},
		{MethodName: "Modify", Handler: handlerFor(func(s RuntimeServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) { return s.Modify(ctx, r) })},
		{MethodName: "Delete", Handler: handlerFor(func(s RuntimeServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) { return s.Delete(ctx, r) })},
		{MethodName: "Get", Handler: handlerFor(func(s RuntimeServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) { return s.Get(ctx, r) })},
		{MethodName: "GetAll", Handler: handlerFor(func(s RuntimeServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) { return s.GetAll(ctx, r) })},
		{MethodName: "FlushTable", Handler: handlerFor(func(s RuntimeServer, ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) { return s.FlushTable(ctx, r) })},
	},
	Metadata: "internal/runtime/grpcrc/service.proto",
}

func handlerFor(call func(RuntimeServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return makeHandler(func(srv interface{}, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
		return call(srv.(RuntimeServer), ctx, req)
	})
}

// RegisterRuntimeServer attaches srv's RPCs to an in-process gRPC server.
func RegisterRuntimeServer(s *grpc.Server, srv RuntimeServer) {
	s.RegisterService(&ServiceDesc, srv)
}
