package handler

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rl1809/stock-ledger/internal/core/domain"
	"github.com/rl1809/stock-ledger/internal/core/service"
)

const StockServiceName = "stockledger.v1.StockService"

// StockServiceServer is served over well-known protobuf types so no
// generated code is needed:
//
//	RecordMovement(Struct{productId, quantity, type, note}) -> Struct{productId, stock}
//	GetStock(StringValue productId) -> Int64Value
//	Reconcile(StringValue productId) -> Int64Value
type StockServiceServer interface {
	RecordMovement(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStock(context.Context, *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
	Reconcile(context.Context, *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
}

type GRPCHandler struct {
	stockService *service.StockService
}

func NewGRPCHandler(stockService *service.StockService) *GRPCHandler {
	return &GRPCHandler{stockService: stockService}
}

func (h *GRPCHandler) RecordMovement(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	productID := fields["productId"].GetStringValue()
	if productID == "" {
		return nil, status.Error(codes.InvalidArgument, "productId is required")
	}

	qv, ok := fields["quantity"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "quantity is required")
	}
	q := qv.GetNumberValue()
	if q != math.Trunc(q) || q > math.MaxInt32 || q < math.MinInt32 {
		return nil, status.Errorf(codes.InvalidArgument, "quantity must be an integer, got %v", q)
	}

	stock, err := h.stockService.RecordMovement(ctx,
		productID,
		int(q),
		domain.MovementType(fields["type"].GetStringValue()),
		fields["note"].GetStringValue(),
	)
	if err != nil {
		return nil, grpcError(err)
	}

	resp, err := structpb.NewStruct(map[string]any{
		"productId": productID,
		"stock":     stock,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return resp, nil
}

func (h *GRPCHandler) GetStock(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "productId is required")
	}
	stock, err := h.stockService.GetStock(ctx, req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return wrapperspb.Int64(int64(stock)), nil
}

func (h *GRPCHandler) Reconcile(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "productId is required")
	}
	stock, err := h.stockService.Reconcile(ctx, req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return wrapperspb.Int64(int64(stock)), nil
}

// RegisterGRPC installs the stock service and a health service reporting SERVING for it.
func RegisterGRPC(s *grpc.Server, h StockServiceServer) *health.Server {
	s.RegisterService(&StockServiceDesc, h)

	hs := health.NewServer()
	hs.SetServingStatus(StockServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

var StockServiceDesc = grpc.ServiceDesc{
	ServiceName: StockServiceName,
	HandlerType: (*StockServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RecordMovement", Handler: recordMovementHandler},
		{MethodName: "GetStock", Handler: getStockHandler},
		{MethodName: "Reconcile", Handler: reconcileHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func recordMovementHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockServiceServer).RecordMovement(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + StockServiceName + "/RecordMovement"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StockServiceServer).RecordMovement(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getStockHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockServiceServer).GetStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + StockServiceName + "/GetStock"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StockServiceServer).GetStock(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func reconcileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StockServiceServer).Reconcile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + StockServiceName + "/Reconcile"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StockServiceServer).Reconcile(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
