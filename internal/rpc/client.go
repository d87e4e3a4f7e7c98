package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// AnnotationsClient is the client side of the annotation service.
type AnnotationsClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	Upsert(ctx context.Context, in *RecordsRequest, opts ...grpc.CallOption) (*RecordsResponse, error)
	Insert(ctx context.Context, in *RecordsRequest, opts ...grpc.CallOption) (*RecordsResponse, error)
	UpdateOne(ctx context.Context, in *UpdateOneRequest, opts ...grpc.CallOption) (*RecordResponse, error)
	QueryByCity(ctx context.Context, in *QueryByCityRequest, opts ...grpc.CallOption) (*RecordsResponse, error)
	DeleteAll(ctx context.Context, in *DeleteAllRequest, opts ...grpc.CallOption) (*DeleteAllResponse, error)
}

type annotationsClient struct {
	cc grpc.ClientConnInterface
}

func NewAnnotationsClient(cc grpc.ClientConnInterface) AnnotationsClient {
	return &annotationsClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *annotationsClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *annotationsClient) Upsert(ctx context.Context, in *RecordsRequest, opts ...grpc.CallOption) (*RecordsResponse, error) {
	return invoke[RecordsResponse](ctx, c.cc, MethodUpsert, in, opts)
}

func (c *annotationsClient) Insert(ctx context.Context, in *RecordsRequest, opts ...grpc.CallOption) (*RecordsResponse, error) {
	return invoke[RecordsResponse](ctx, c.cc, MethodInsert, in, opts)
}

func (c *annotationsClient) UpdateOne(ctx context.Context, in *UpdateOneRequest, opts ...grpc.CallOption) (*RecordResponse, error) {
	return invoke[RecordResponse](ctx, c.cc, MethodUpdateOne, in, opts)
}

func (c *annotationsClient) QueryByCity(ctx context.Context, in *QueryByCityRequest, opts ...grpc.CallOption) (*RecordsResponse, error) {
	return invoke[RecordsResponse](ctx, c.cc, MethodQueryByCity, in, opts)
}

func (c *annotationsClient) DeleteAll(ctx context.Context, in *DeleteAllRequest, opts ...grpc.CallOption) (*DeleteAllResponse, error) {
	return invoke[DeleteAllResponse](ctx, c.cc, MethodDeleteAll, in, opts)
}
