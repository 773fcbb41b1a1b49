package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	grpcadapter "github.com/simaogato/coinfolio-backend/internal/adapter/grpc"
)

// global flags shared by every subcommand
var (
	serverAddr string
	apiToken   string
	plain      bool
)

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func registerGlobalFlags(f *flag.FlagSet) {
	f.StringVar(&serverAddr, "addr", envOr("COINFOLIO_ADDR", "localhost:8080"), "address of the coinfolio gRPC server")
	f.StringVar(&apiToken, "token", envOr("API_TOKEN", "dev-token"), "API token sent as authorization metadata")
	f.BoolVar(&plain, "plain", false, "print raw markdown instead of rendering it")
}

// dial connects to the server and returns an authorized context
func dial(ctx context.Context) (context.Context, *grpcadapter.Client, func(), error) {
	conn, err := grpc.NewClient(serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", apiToken)
	return ctx, grpcadapter.NewClient(conn), func() { conn.Close() }, nil
}

// describe turns a gRPC status into a one-line message
func describe(err error) string {
	if st, ok := status.FromError(err); ok {
		return fmt.Sprintf("%s (%s)", st.Message(), st.Code())
	}
	return err.Error()
}

func printMarkdown(md string) {
	if plain {
		fmt.Print(md)
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(strings.TrimLeft(out, "\n"))
}
