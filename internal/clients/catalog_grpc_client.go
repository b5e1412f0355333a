package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Ojay1963/Delxta/internal/catalogrpc"
	"github.com/Ojay1963/Delxta/internal/domain"
)

// CatalogClient looks menu items up by id. Unknown ids are absent from the result.
type CatalogClient interface {
	FindMenuItems(ctx context.Context, ids []string) ([]domain.MenuItem, error)
}

var _ CatalogClient = (*CatalogGRPCClient)(nil)

type CatalogGRPCClient struct {
	conn        *grpc.ClientConn
	log         *logrus.Logger
	callTimeout time.Duration
}

func NewCatalogGRPCClient(target string, logger *logrus.Logger, callTimeout time.Duration, opts ...grpc.DialOption) (*CatalogGRPCClient, error) {
	logger.Infof("CatalogClient: Creating gRPC client for target: %s", target)
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		logger.Errorf("CatalogClient: Failed to create client for %s: %v", target, err)
		return nil, fmt.Errorf("failed to connect to catalog service at %s: %w", target, err)
	}

	return &CatalogGRPCClient{
		conn:        conn,
		log:         logger,
		callTimeout: callTimeout,
	}, nil
}

func (c *CatalogGRPCClient) Close() error {
	if c.conn != nil {
		c.log.Info("CatalogClient: Closing gRPC connection")
		return c.conn.Close()
	}
	return nil
}

func (c *CatalogGRPCClient) FindMenuItems(ctx context.Context, ids []string) ([]domain.MenuItem, error) {
	c.log.Infof("CatalogClient(gRPC): Requesting %d menu items", len(ids))
	if len(ids) == 0 {
		return []domain.MenuItem{}, nil
	}

	req, err := catalogrpc.NewFindMenuItemsRequest(ids)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	res := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, catalogrpc.FindMenuItemsMethod, req, res); err != nil {
		if st, ok := status.FromError(err); ok {
			if st.Code() == codes.InvalidArgument {
				c.log.Warnf("CatalogClient(gRPC): Invalid lookup request: %s", st.Message())
				return nil, domain.NewValidationError("Order items are invalid.")
			}
			c.log.Errorf("CatalogClient(gRPC): FindMenuItems failed with code %s: %s", st.Code(), st.Message())
			return nil, fmt.Errorf("catalog service gRPC error (%s): %s", st.Code(), st.Message())
		}
		c.log.Errorf("CatalogClient(gRPC): Failed to execute FindMenuItems: %v", err)
		return nil, fmt.Errorf("failed to communicate with catalog service: %w", err)
	}

	items := catalogrpc.MenuItemsFromResponse(res)
	c.log.Infof("CatalogClient(gRPC): Received %d of %d requested menu items", len(items), len(ids))
	return items, nil
}
