package grpc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/coinfolio-backend/internal/domain"
	"github.com/simaogato/coinfolio-backend/internal/usecase/dashboard"
	"github.com/simaogato/coinfolio-backend/internal/usecase/holdings"
)

// Server implements the PortfolioService gRPC server
type Server struct {
	DashboardService *dashboard.DashboardService
}

var _ PortfolioServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(dashboardService *dashboard.DashboardService) *Server {
	return &Server{DashboardService: dashboardService}
}

// GetPortfolio handles the GetPortfolio RPC
func (s *Server) GetPortfolio(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	overview, err := s.DashboardService.Overview(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"portfolio":    portfolioToValue(overview.Portfolio),
		"predicting":   flag(overview.Predicting),
		"market_as_of": ts(overview.MarketAsOf),
	}}, nil
}

// AddHolding handles the AddHolding RPC
func (s *Server) AddHolding(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	// Parse amounts; missing values are reported by the usecase validation
	amount, err := decimalField(req, "amount")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	purchasePrice, err := decimalField(req, "purchase_price")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	holding, err := s.DashboardService.AddHolding(ctx, holdings.AddHoldingInput{
		CoinID:        stringField(req, "coin_id"),
		Amount:        amount,
		PurchasePrice: purchasePrice,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"holding": holdingToValue(*holding),
	}}, nil
}

// RemoveHolding handles the RemoveHolding RPC
func (s *Server) RemoveHolding(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuid.Parse(stringField(req, "id"))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id format: %v", err)
	}

	if err := s.DashboardService.RemoveHolding(ctx, id); err != nil {
		return nil, mapError(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"removed_id": str(id.String()),
	}}, nil
}

// GetProjections handles the GetProjections RPC
func (s *Server) GetProjections(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	overview, err := s.DashboardService.Overview(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return overviewToStruct(overview), nil
}

// SetCurrency handles the SetCurrency RPC
func (s *Server) SetCurrency(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.DashboardService.SetCurrency(ctx, stringField(req, "currency"))
	if err != nil {
		return nil, mapError(err)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"portfolio": portfolioToValue(*p),
	}}, nil
}

// PreviewHolding handles the PreviewHolding RPC
func (s *Server) PreviewHolding(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input := dashboard.PreviewInput{CoinID: stringField(req, "coin_id")}

	amount, err := decimalField(req, "amount")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	if amount == nil {
		return nil, status.Errorf(codes.InvalidArgument, "amount is required")
	}
	input.Amount = *amount

	// Purchase price is optional for a preview
	purchasePrice, err := decimalField(req, "purchase_price")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}
	input.PurchasePrice = decimal.Zero
	if purchasePrice != nil {
		input.PurchasePrice = *purchasePrice
	}

	result, err := s.DashboardService.Preview(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}

	resp := previewToStruct(result)
	resp.Fields["currency"] = str(s.DashboardService.Market.Currency())
	return resp, nil
}

// mapError maps domain errors to gRPC status codes
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Errorf(codes.InvalidArgument, "%s", err)
	case errors.Is(err, domain.ErrPersistence):
		return status.Errorf(codes.Unavailable, "%s", err)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", err)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", err)
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", err)
}
