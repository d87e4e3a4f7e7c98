// Package grpc exposes the annotation service over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/canvasser/internal/logging"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/rpc"
	"google.golang.org/grpc"
)

// AnnotationService is the use-case layer the handlers delegate to.
type AnnotationService interface {
	Upsert(ctx context.Context, userID string, records []models.AnnotationPatch) ([]models.AnnotationPatch, error)
	Insert(ctx context.Context, userID string, records []models.AnnotationPatch) ([]models.AnnotationPatch, error)
	UpdateOne(ctx context.Context, userID, id string, a models.Annotation) (*models.AnnotationPatch, error)
	QueryByCity(ctx context.Context, userID, city string) ([]models.AnnotationPatch, error)
	DeleteAll(ctx context.Context, userID string) (int64, string, error)
}

type GRPCServer struct {
	rpc.UnimplementedAnnotationsServer
	address     string
	annotations AnnotationService
	logger      logging.Logger
	jwtSecret   []byte
}

func NewGRPCServer(a string, l logging.Logger, as AnnotationService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		annotations: as,
		jwtSecret:   []byte(secretKey),
	}
}

// newServer builds the grpc.Server with the auth interceptor and the service
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	rpc.RegisterAnnotationsServer(srv, s)
	return srv
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
