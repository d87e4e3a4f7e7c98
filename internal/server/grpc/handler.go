package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/models"
	"github.com/dmitrijs2005/canvasser/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Upsert(ctx context.Context, req *rpc.RecordsRequest) (*rpc.RecordsResponse, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.annotations.Upsert(ctx, userID, req.Records)
	if err != nil {
		return nil, s.toStatus(ctx, "upsert", err)
	}
	return &rpc.RecordsResponse{Records: records}, nil
}

func (s *GRPCServer) Insert(ctx context.Context, req *rpc.RecordsRequest) (*rpc.RecordsResponse, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.annotations.Insert(ctx, userID, req.Records)
	if err != nil {
		return nil, s.toStatus(ctx, "insert", err)
	}
	return &rpc.RecordsResponse{Records: records}, nil
}

func (s *GRPCServer) UpdateOne(ctx context.Context, req *rpc.UpdateOneRequest) (*rpc.RecordResponse, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.annotations.UpdateOne(ctx, userID, req.ID, req.Annotation)
	if err != nil {
		return nil, s.toStatus(ctx, "update", err)
	}
	return &rpc.RecordResponse{Record: *record}, nil
}

func (s *GRPCServer) QueryByCity(ctx context.Context, req *rpc.QueryByCityRequest) (*rpc.RecordsResponse, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.annotations.QueryByCity(ctx, userID, req.City)
	if err != nil {
		return nil, s.toStatus(ctx, "query", err)
	}
	return &rpc.RecordsResponse{Records: records}, nil
}

func (s *GRPCServer) DeleteAll(ctx context.Context, req *rpc.DeleteAllRequest) (*rpc.DeleteAllResponse, error) {
	userID, err := s.user(ctx)
	if err != nil {
		return nil, err
	}

	n, key, err := s.annotations.DeleteAll(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, "delete", err)
	}
	return &rpc.DeleteAllResponse{Deleted: n, Archive: key}, nil
}

func (s *GRPCServer) user(ctx context.Context) (string, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return userID, nil
}

func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, models.ErrInvalidValue), errors.Is(err, models.ErrUnknownField):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error(ctx, op+" failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
