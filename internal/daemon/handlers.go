package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/runger/heroes/internal/hero"
	"github.com/runger/heroes/internal/rpc"
)

// ListHeroes handles the ListHeroes RPC.
func (s *Server) ListHeroes(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	heroes, err := s.store.ListHeroes(ctx)
	if err != nil {
		return nil, s.internal("list heroes", err)
	}
	return rpc.HeroesToList(heroes), nil
}

// GetHero handles the GetHero RPC. A missing hero is codes.NotFound.
func (s *Server) GetHero(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id, err := heroID(req)
	if err != nil {
		return nil, err
	}
	h, err := s.store.GetHero(ctx, id)
	if errors.Is(err, hero.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "hero %d not found", id)
	}
	if err != nil {
		return nil, s.internal("get hero", err)
	}
	return rpc.HeroToStruct(h), nil
}

// SearchHeroes handles the SearchHeroes RPC.
func (s *Server) SearchHeroes(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	heroes, err := s.store.SearchHeroes(ctx, req.GetValue())
	if err != nil {
		return nil, s.internal("search heroes", err)
	}
	s.metrics.Searches.Inc()
	return rpc.HeroesToList(heroes), nil
}

// CreateHero handles the CreateHero RPC. The store assigns the id.
func (s *Server) CreateHero(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := rpc.HeroFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	h := hero.Hero{Name: in.Name}
	if err := s.store.CreateHero(ctx, &h); err != nil {
		if errors.Is(err, hero.ErrInvalidName) {
			return nil, status.Error(codes.InvalidArgument, hero.ErrInvalidName.Error())
		}
		return nil, s.internal("create hero", err)
	}
	s.metrics.HeroesCreated.Inc()
	s.logger.Debug("hero created", "id", h.ID, "name", h.Name)
	return rpc.HeroToStruct(h), nil
}

// ReplaceHero handles the ReplaceHero RPC, creating the hero when its id is
// not in the store.
func (s *Server) ReplaceHero(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	h, err := rpc.HeroFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if !h.Persisted() {
		return nil, status.Error(codes.InvalidArgument, "hero id is required")
	}
	if err := h.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.store.ReplaceHero(ctx, h); err != nil {
		return nil, s.internal("replace hero", err)
	}
	return &emptypb.Empty{}, nil
}

// DeleteHero handles the DeleteHero RPC. Deleting a missing id succeeds.
func (s *Server) DeleteHero(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	id, err := heroID(req)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteHero(ctx, id); err != nil {
		return nil, s.internal("delete hero", err)
	}
	s.metrics.HeroesDeleted.Inc()
	return &emptypb.Empty{}, nil
}

// observeUnary records every RPC in the metrics collector and logs it.
func (s *Server) observeUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	elapsed := time.Since(start)

	code := status.Code(err)
	s.metrics.ObserveRPC(info.FullMethod, code.String(), elapsed)
	s.logger.Debug("rpc", "method", info.FullMethod, "code", code.String(), "duration", elapsed)
	return resp, err
}

// internal logs err and converts it to codes.Internal.
func (s *Server) internal(op string, err error) error {
	s.logger.Error("store operation failed", "op", op, "error", err)
	return status.Error(codes.Internal, fmt.Sprintf("%s: %v", op, err))
}

func heroID(req *wrapperspb.Int64Value) (int, error) {
	id := req.GetValue()
	if id <= 0 || id > int64(^uint32(0)>>1) {
		return 0, status.Errorf(codes.InvalidArgument, "invalid hero id %d", id)
	}
	return int(id), nil
}
