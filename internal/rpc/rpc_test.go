package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type echoServer struct {
	UnimplementedAnnotationsServer
	lastUpsert *RecordsRequest
}

func (s *echoServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return &PingResponse{Status: "OK"}, nil
}

func (s *echoServer) Upsert(_ context.Context, in *RecordsRequest) (*RecordsResponse, error) {
	s.lastUpsert = in
	out := make([]models.AnnotationPatch, len(in.Records))
	for i, r := range in.Records {
		r.RemoteID = "id-" + r.HouseNumber
		out[i] = r
	}
	return &RecordsResponse{Records: out}, nil
}

func dial(t *testing.T, srv AnnotationsServer, opts ...grpc.ServerOption) AnnotationsClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterAnnotationsServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewAnnotationsClient(conn)
}

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/canvasser.v1.Annotations/Upsert", FullMethod(MethodUpsert))
}

func TestRoundTripOverJSONCodec(t *testing.T) {
	srv := &echoServer{}
	c := dial(t, srv)
	ctx := context.Background()

	ping, err := c.Ping(ctx, &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", ping.Status)

	rec := models.AnnotationPatch{
		HouseNumber: "10",
		Street:      "Calle Mayor",
		City:        "Madrid",
		FullAddress: "10 Calle Mayor",
		Annotation:  models.Annotation{Visited: models.VisitedYes, Status: models.StatusSale, Notes: "closed deal"},
	}
	resp, err := c.Upsert(ctx, &RecordsRequest{UserID: "u1", Records: []models.AnnotationPatch{rec}})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "id-10", resp.Records[0].RemoteID)
	assert.Equal(t, rec.Annotation, resp.Records[0].Annotation)
	assert.Equal(t, "u1", srv.lastUpsert.UserID)
}

func TestUnimplemented(t *testing.T) {
	c := dial(t, &echoServer{})

	_, err := c.DeleteAll(context.Background(), &DeleteAllRequest{UserID: "u1"})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	var seen []string
	icpt := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		seen = append(seen, info.FullMethod)
		return h(ctx, req)
	}
	c := dial(t, &echoServer{}, grpc.UnaryInterceptor(icpt))

	_, err := c.Ping(context.Background(), &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{FullMethod(MethodPing)}, seen)
}
