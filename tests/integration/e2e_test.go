//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	grpcadapter "github.com/simaogato/coinfolio-backend/internal/adapter/grpc"
	"github.com/simaogato/coinfolio-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/coinfolio-backend/internal/domain"
)

var (
	db         *postgres.DB
	grpcClient *grpcadapter.Client
	grpcConn   *grpc.ClientConn
)

// TestMain connects to the database and to a running server
func TestMain(m *testing.M) {
	// 1. Connect to Database
	var err error
	db, err = postgres.NewDB(getDBConnectionString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	// 2. Connect to gRPC Server
	grpcConn, err = grpc.NewClient(getGRPCAddress(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to gRPC server: %v", err))
	}
	grpcClient = grpcadapter.NewClient(grpcConn)

	code := m.Run()

	grpcConn.Close()
	db.Close()
	os.Exit(code)
}

func getAuthContext() context.Context {
	md := metadata.New(map[string]string{
		"authorization": envOr("API_TOKEN", "dev-token"),
	})
	return metadata.NewOutgoingContext(context.Background(), md)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDBConnectionString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_USER", "postgres"),
		envOr("DB_PASSWORD", "postgres"),
		envOr("DB_NAME", "coinfolio"),
	)
}

func getGRPCAddress() string {
	return envOr("GRPC_ADDRESS", "localhost:8080")
}

func request(fields map[string]any) *structpb.Struct {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		panic(err)
	}
	return s
}

func TestHealth(t *testing.T) {
	resp, err := healthpb.NewHealthClient(grpcConn).Check(context.Background(), &healthpb.HealthCheckRequest{
		Service: grpcadapter.ServiceName,
	})

	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestEndToEndFlow(t *testing.T) {
	ctx := getAuthContext()

	// Step 1: Add a bitcoin holding
	resp, err := grpcClient.AddHolding(ctx, request(map[string]any{
		"coin_id":        "bitcoin",
		"amount":         "0.5",
		"purchase_price": "20000",
	}))
	require.NoError(t, err, "AddHolding should succeed")
	holding := resp.Fields["holding"].GetStructValue()
	id := holding.Fields["id"].GetStringValue()
	require.NotEmpty(t, id)

	// Step 2: Verify the holding was persisted
	stored, err := postgres.NewPortfolioRepository(db).Get(context.Background(), domain.DefaultUserID)
	require.NoError(t, err)
	found := false
	for _, h := range stored.Holdings {
		if h.ID.String() == id {
			found = true
			assert.True(t, h.Amount.Equal(decimal.RequireFromString("0.5")))
		}
	}
	assert.True(t, found, "holding should be stored")

	// Step 3: Projections exist for 24h and 7d
	resp, err = grpcClient.GetProjections(ctx, nil)
	require.NoError(t, err)
	projections := resp.Fields["projections"].GetListValue().GetValues()
	require.Len(t, projections, 2)
	assert.Equal(t, "24h", projections[0].GetStructValue().Fields["label"].GetStringValue())
	assert.Equal(t, "7d", projections[1].GetStructValue().Fields["label"].GetStringValue())

	// Step 4: Remove it again
	_, err = grpcClient.RemoveHolding(ctx, request(map[string]any{"id": id}))
	require.NoError(t, err)

	resp, err = grpcClient.GetPortfolio(ctx, nil)
	require.NoError(t, err)
	for _, v := range resp.Fields["portfolio"].GetStructValue().Fields["holdings"].GetListValue().GetValues() {
		assert.NotEqual(t, id, v.GetStructValue().Fields["id"].GetStringValue())
	}
}

func TestNegativeScenarios(t *testing.T) {
	ctx := getAuthContext()

	t.Run("Negative amount", func(t *testing.T) {
		_, err := grpcClient.AddHolding(ctx, request(map[string]any{
			"coin_id": "bitcoin", "amount": "-1", "purchase_price": "100",
		}))
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("Unknown coin", func(t *testing.T) {
		_, err := grpcClient.AddHolding(ctx, request(map[string]any{
			"coin_id": "not-a-coin", "amount": "1", "purchase_price": "100",
		}))
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("Missing token", func(t *testing.T) {
		_, err := grpcClient.GetPortfolio(context.Background(), nil)
		require.Error(t, err)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})
}
