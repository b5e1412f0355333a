// Package catalogrpc describes the catalog gRPC service. Messages are google.protobuf.Struct
// values, so both ends share this descriptor instead of generated stubs.
package catalogrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Ojay1963/Delxta/internal/domain"
)

const (
	ServiceName         = "delxta.catalog.v1.CatalogService"
	FindMenuItemsMethod = "/" + ServiceName + "/FindMenuItems"
)

type CatalogServer interface {
	FindMenuItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "FindMenuItems",
			Handler:    findMenuItemsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "delxta/catalog/v1/catalog.proto",
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func findMenuItemsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).FindMenuItems(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: FindMenuItemsMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).FindMenuItems(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func NewFindMenuItemsRequest(ids []string) (*structpb.Struct, error) {
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	req, err := structpb.NewStruct(map[string]any{"ids": values})
	if err != nil {
		return nil, fmt.Errorf("encode catalog request: %w", err)
	}
	return req, nil
}

// IDsFromRequest ignores non-string and empty entries.
func IDsFromRequest(req *structpb.Struct) []string {
	list := req.GetFields()["ids"].GetListValue()
	ids := make([]string, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		if id := v.GetStringValue(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func NewFindMenuItemsResponse(items []domain.MenuItem) (*structpb.Struct, error) {
	values := make([]any, 0, len(items))
	for _, item := range items {
		values = append(values, map[string]any{
			"id":       item.ID,
			"name":     item.Name,
			"price":    item.Price,
			"category": item.Category,
		})
	}
	resp, err := structpb.NewStruct(map[string]any{"items": values})
	if err != nil {
		return nil, fmt.Errorf("encode catalog response: %w", err)
	}
	return resp, nil
}

func MenuItemsFromResponse(resp *structpb.Struct) []domain.MenuItem {
	list := resp.GetFields()["items"].GetListValue()
	items := make([]domain.MenuItem, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		fields := v.GetStructValue().GetFields()
		if fields == nil {
			continue
		}
		items = append(items, domain.MenuItem{
			ID:       fields["id"].GetStringValue(),
			Name:     fields["name"].GetStringValue(),
			Price:    fields["price"].GetStringValue(),
			Category: fields["category"].GetStringValue(),
		})
	}
	return items
}
