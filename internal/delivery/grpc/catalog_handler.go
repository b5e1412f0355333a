package grpc

import (
	"context"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Ojay1963/Delxta/internal/catalogrpc"
	"github.com/Ojay1963/Delxta/internal/domain"
)

var _ catalogrpc.CatalogServer = (*CatalogHandler)(nil)

type CatalogHandler struct {
	menuRepo domain.MenuRepository
	log      *logrus.Logger
}

func NewCatalogHandler(repo domain.MenuRepository, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		menuRepo: repo,
		log:      logger,
	}
}

func (h *CatalogHandler) FindMenuItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ids := catalogrpc.IDsFromRequest(req)
	h.log.Infof("gRPC Handler: Received FindMenuItems request for %d ids", len(ids))
	if len(ids) == 0 {
		return nil, status.Error(codes.InvalidArgument, "At least one menu item id is required")
	}

	items, err := h.menuRepo.FindMenuItemsByIDs(ctx, ids)
	if err != nil {
		h.log.Errorf("gRPC Handler: FindMenuItems repository error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}

	resp, err := catalogrpc.NewFindMenuItemsResponse(items)
	if err != nil {
		h.log.Errorf("gRPC Handler: Failed to encode FindMenuItems response: %v", err)
		return nil, status.Errorf(codes.Internal, "Internal server error: %v", err)
	}

	h.log.Infof("gRPC Handler: Found %d of %d menu items", len(items), len(ids))
	return resp, nil
}

func mapDomainErrorToGrpcStatus(err error) error {
	if err == nil {
		return nil
	}
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindInvalidStatus:
		return status.Error(codes.InvalidArgument, domain.MessageOf(err))
	case domain.KindItemNotFound, domain.KindOrderNotFound, domain.KindSessionNotFound:
		return status.Error(codes.NotFound, domain.MessageOf(err))
	case domain.KindConflict:
		return status.Error(codes.AlreadyExists, domain.MessageOf(err))
	case domain.KindForbidden:
		return status.Error(codes.PermissionDenied, domain.MessageOf(err))
	default:
		return status.Errorf(codes.Internal, "Internal server error: %v", err)
	}
}
