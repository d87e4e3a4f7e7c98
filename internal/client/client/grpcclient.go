package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const defaultCallTimeout = 12 * time.Second

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      rpc.AnnotationsClient
	callTimeout time.Duration

	mu          sync.RWMutex
	accessToken string
}

var _ RemoteStore = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.AccessToken(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient prepares a client for endpointURL. The connection is
// established lazily on the first call.
func NewGRPCClient(endpointURL string, callTimeout time.Duration) (*GRPCClient, error) {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	c := &GRPCClient{endpointURL: endpointURL, callTimeout: callTimeout}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewAnnotationsClient(conn)
	return nil
}

// SetAccessToken replaces the token sent with every call.
func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

// Upsert writes records keyed by (house_number, street, city). When the server
// reports a conflict the batch is sent again as a plain insert; if that fails
// as well the error matches common.ErrNetwork.
func (s *GRPCClient) Upsert(ctx context.Context, userID string, records []models.AnnotationPatch) ([]models.AnnotationPatch, error) {
	if len(records) == 0 {
		return []models.AnnotationPatch{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	req := &rpc.RecordsRequest{UserID: userID, Records: records}

	resp, err := s.client.Upsert(ctx, req)
	if err == nil {
		return resp.Records, nil
	}

	err = s.mapError(err)
	if !errors.Is(err, common.ErrConflict) {
		return nil, err
	}

	resp, err = s.client.Insert(ctx, req)
	if err != nil {
		err = s.mapError(err)
		if errors.Is(err, common.ErrNetwork) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: insert after conflict: %w", common.ErrNetwork, err)
	}
	return resp.Records, nil
}

func (s *GRPCClient) UpdateOne(ctx context.Context, userID, id string, a models.Annotation) (models.AnnotationPatch, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.UpdateOne(ctx, &rpc.UpdateOneRequest{UserID: userID, ID: id, Annotation: a})
	if err != nil {
		return models.AnnotationPatch{}, s.mapError(err)
	}
	return resp.Record, nil
}

func (s *GRPCClient) QueryByCity(ctx context.Context, userID, city string) ([]models.AnnotationPatch, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.QueryByCity(ctx, &rpc.QueryByCityRequest{UserID: userID, City: city})
	if err != nil {
		return nil, s.mapError(err)
	}
	if resp.Records == nil {
		return []models.AnnotationPatch{}, nil
	}
	return resp.Records, nil
}

func (s *GRPCClient) DeleteAll(ctx context.Context, userID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.DeleteAll(ctx, &rpc.DeleteAllRequest{UserID: userID})
	return s.mapError(err)
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return fmt.Errorf("%w: %w", common.ErrNetwork, err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return ErrUnavailable
	case codes.AlreadyExists, codes.Aborted:
		return fmt.Errorf("%w: %s", common.ErrConflict, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, st.Message())
	default:
		return fmt.Errorf("%w: rpc error: %w", common.ErrNetwork, err)
	}
}
