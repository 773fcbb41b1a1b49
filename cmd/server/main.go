package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/simaogato/coinfolio-backend/internal/adapter/coingecko"
	"github.com/simaogato/coinfolio-backend/internal/adapter/forecast"
	grpcadapter "github.com/simaogato/coinfolio-backend/internal/adapter/grpc"
	"github.com/simaogato/coinfolio-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/coinfolio-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/coinfolio-backend/internal/config"
	"github.com/simaogato/coinfolio-backend/internal/domain"
	"github.com/simaogato/coinfolio-backend/internal/usecase/dashboard"
	"github.com/simaogato/coinfolio-backend/internal/usecase/holdings"
	"github.com/simaogato/coinfolio-backend/internal/usecase/market"
	"github.com/simaogato/coinfolio-backend/internal/usecase/prediction"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Setup Database
	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()

	// 2. Initialize Providers
	marketProvider := coingecko.NewClient(cfg.CoinGeckoBaseURL, cfg.CoinGeckoAPIKey, cfg.FetchTimeout)
	predictionProvider := forecast.NewClient(cfg.ForecastBaseURL, cfg.FetchTimeout)

	// 3. Initialize Services (Use Cases)
	marketService := market.NewMarketService(marketProvider, market.DefaultCatalog, cfg.Currency, log.Default())
	store := holdings.NewHoldingStore(repo, marketService, cfg.UserID, cfg.Currency, log.Default())
	coordinator := prediction.NewCoordinator(predictionProvider, cfg.Horizons, cfg.FetchTimeout, log.Default())
	dashboardService := dashboard.NewDashboardService(store, marketService, coordinator, log.Default())

	if err := dashboardService.Start(ctx); err != nil {
		log.Printf("Starting with an empty portfolio: %v", err)
	}
	go dashboardService.Run(ctx, cfg.PriceRefreshInterval)

	// 4. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.RecoveryInterceptor(log.Default()),
			grpcadapter.AuthInterceptor(cfg.APIToken, grpcadapter.HealthCheckMethod),
		),
	)

	grpcadapter.RegisterPortfolioServiceServer(grpcServer, grpcadapter.NewServer(dashboardService))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.GRPCPort, err)
	}

	// Start server in a goroutine
	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, healthServer, cancel)
}

// openStore opens the configured portfolio repository and its schema
func openStore(ctx context.Context, cfg config.Config) (domain.PortfolioRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Printf("Using sqlite store at %s", cfg.SQLitePath)
		return sqlite.NewPortfolioRepository(db), func() { db.Close() }, nil

	default:
		// Add 2-second delay to ensure Postgres is up (Simple retry)
		time.Sleep(2 * time.Second)

		db, err := postgres.NewDB(cfg.DBConnStr)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Println("Using postgres store")
		return postgres.NewPortfolioRepository(db), func() { db.Close() }, nil
	}
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, healthServer *health.Server, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")
}
