package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"catalog-service/internal/catalog"
	"catalog-service/internal/domain"
)

// CatalogServiceName is the fully qualified gRPC service name.
const CatalogServiceName = "catalog.v1.CatalogService"

// CatalogServiceServer is the read API other services call. Requests and
// responses are google.protobuf.Struct values:
//
//	GetCategoryTree {lang}             -> {categories: [...]}
//	GetListing      {listing_id, lang} -> listing view
type CatalogServiceServer interface {
	GetCategoryTree(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetListing(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// GRPCHandler implements CatalogServiceServer.
type GRPCHandler struct {
	categories *catalog.CategoryService
	listings   *catalog.ListingService
	logger     *zap.Logger
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(categories *catalog.CategoryService, listings *catalog.ListingService, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{categories: categories, listings: listings, logger: logger}
}

// RegisterCatalogServiceServer registers srv on s.
func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

// --- Helper: Error Mapping ---

func (s *GRPCHandler) mapServiceErrorToGrpcStatus(err error, method string) error {
	if err == nil {
		return nil
	}
	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrConflict):
		code = codes.AlreadyExists
	case errors.Is(err, domain.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, domain.ErrDependency):
		code = codes.Unavailable
	default:
		s.logger.Error("gRPC request failed", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

// toStruct converts a JSON-serializable value into a Struct through its JSON form,
// so the gRPC payload matches the HTTP one field for field.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return structpb.NewStruct(m)
}

func stringField(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	return req.GetFields()[name].GetStringValue()
}

// --- CatalogService Methods Implementation ---

func (s *GRPCHandler) GetCategoryTree(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tree, err := s.categories.ListTree(ctx, stringField(req, "lang"))
	if err != nil {
		return nil, s.mapServiceErrorToGrpcStatus(err, "GetCategoryTree")
	}
	resp, err := toStruct(map[string]any{"categories": tree})
	if err != nil {
		return nil, s.mapServiceErrorToGrpcStatus(err, "GetCategoryTree")
	}
	return resp, nil
}

func (s *GRPCHandler) GetListing(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	listingID, err := uuid.Parse(stringField(req, "listing_id"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "listing_id must be a UUID")
	}
	view, err := s.listings.GetListing(ctx, listingID, stringField(req, "lang"))
	if err != nil {
		return nil, s.mapServiceErrorToGrpcStatus(err, "GetListing")
	}
	resp, err := toStruct(view)
	if err != nil {
		return nil, s.mapServiceErrorToGrpcStatus(err, "GetListing")
	}
	return resp, nil
}

// --- Service descriptor ---

func getCategoryTreeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServiceServer).GetCategoryTree(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + CatalogServiceName + "/GetCategoryTree"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServiceServer).GetCategoryTree(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getListingHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServiceServer).GetListing(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + CatalogServiceName + "/GetListing"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServiceServer).GetListing(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCategoryTree", Handler: getCategoryTreeHandler},
		{MethodName: "GetListing", Handler: getListingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/catalog.proto",
}
