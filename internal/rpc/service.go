package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "canvasser.v1.Annotations"

const (
	MethodPing        = "Ping"
	MethodUpsert      = "Upsert"
	MethodInsert      = "Insert"
	MethodUpdateOne   = "UpdateOne"
	MethodQueryByCity = "QueryByCity"
	MethodDeleteAll   = "DeleteAll"
)

// FullMethod returns the gRPC method path, e.g. "/canvasser.v1.Annotations/Ping".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AnnotationsServer is implemented by the server.
type AnnotationsServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Upsert(context.Context, *RecordsRequest) (*RecordsResponse, error)
	Insert(context.Context, *RecordsRequest) (*RecordsResponse, error)
	UpdateOne(context.Context, *UpdateOneRequest) (*RecordResponse, error)
	QueryByCity(context.Context, *QueryByCityRequest) (*RecordsResponse, error)
	DeleteAll(context.Context, *DeleteAllRequest) (*DeleteAllResponse, error)
}

// UnimplementedAnnotationsServer answers every call with codes.Unimplemented.
type UnimplementedAnnotationsServer struct{}

func (UnimplementedAnnotationsServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedAnnotationsServer) Upsert(context.Context, *RecordsRequest) (*RecordsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Upsert not implemented")
}
func (UnimplementedAnnotationsServer) Insert(context.Context, *RecordsRequest) (*RecordsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Insert not implemented")
}
func (UnimplementedAnnotationsServer) UpdateOne(context.Context, *UpdateOneRequest) (*RecordResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateOne not implemented")
}
func (UnimplementedAnnotationsServer) QueryByCity(context.Context, *QueryByCityRequest) (*RecordsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method QueryByCity not implemented")
}
func (UnimplementedAnnotationsServer) DeleteAll(context.Context, *DeleteAllRequest) (*DeleteAllResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteAll not implemented")
}

func unary[Req any, Resp any](name string, call func(AnnotationsServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AnnotationsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AnnotationsServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the annotation service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnnotationsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, AnnotationsServer.Ping),
		unary(MethodUpsert, AnnotationsServer.Upsert),
		unary(MethodInsert, AnnotationsServer.Insert),
		unary(MethodUpdateOne, AnnotationsServer.UpdateOne),
		unary(MethodQueryByCity, AnnotationsServer.QueryByCity),
		unary(MethodDeleteAll, AnnotationsServer.DeleteAll),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "canvasser/v1/annotations",
}

func RegisterAnnotationsServer(s grpc.ServiceRegistrar, srv AnnotationsServer) {
	s.RegisterService(&ServiceDesc, srv)
}
