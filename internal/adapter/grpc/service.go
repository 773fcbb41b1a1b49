package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "coinfolio.v1.PortfolioService"

// PortfolioServiceServer is the server API for the portfolio service
// Requests and responses are google.protobuf.Struct documents; decimals travel as strings.
type PortfolioServiceServer interface {
	GetPortfolio(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddHolding(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveHolding(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProjections(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetCurrency(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PreviewHolding(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(PortfolioServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PortfolioServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PortfolioServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// PortfolioServiceDesc describes the portfolio service for grpc.Server registration
var PortfolioServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PortfolioServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("GetPortfolio", PortfolioServiceServer.GetPortfolio),
		unaryHandler("AddHolding", PortfolioServiceServer.AddHolding),
		unaryHandler("RemoveHolding", PortfolioServiceServer.RemoveHolding),
		unaryHandler("GetProjections", PortfolioServiceServer.GetProjections),
		unaryHandler("SetCurrency", PortfolioServiceServer.SetCurrency),
		unaryHandler("PreviewHolding", PortfolioServiceServer.PreviewHolding),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coinfolio/v1/portfolio.proto",
}

// RegisterPortfolioServiceServer registers srv on s
func RegisterPortfolioServiceServer(s grpc.ServiceRegistrar, srv PortfolioServiceServer) {
	s.RegisterService(&PortfolioServiceDesc, srv)
}

// Client calls the portfolio service over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a portfolio service client
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetPortfolio(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetPortfolio", req, opts...)
}

func (c *Client) AddHolding(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "AddHolding", req, opts...)
}

func (c *Client) RemoveHolding(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RemoveHolding", req, opts...)
}

func (c *Client) GetProjections(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetProjections", req, opts...)
}

func (c *Client) SetCurrency(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SetCurrency", req, opts...)
}

func (c *Client) PreviewHolding(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "PreviewHolding", req, opts...)
}
