// Package transport models the external (consumed) request/response
// exchange: a synchronous call keyed by service name, and the loopback
// implementation used to wire the core end-to-end for tests and for local,
// same-process embedding.
package transport

import (
	"context"
	"fmt"

	"xiaoshiai.cn/opcua/nodemgmt"
	"xiaoshiai.cn/opcua/statuscode"
	"xiaoshiai.cn/opcua/store"
)

// Service names, one per OPC UA service this transport carries.
const (
	CreateSubscription  = "createSubscription"
	CreateMonitoredItems = "createMonitoredItems"
	Publish              = "publish"
	DeleteMonitoredItems = "deleteMonitoredItems"
	DeleteSubscriptions  = "deleteSubscriptions"
	AddNodes             = "addNodes"
	AddReferences        = "addReferences"
	DeleteNodes          = "deleteNodes"
	DeleteReferences     = "deleteReferences"
	Browse               = "browse"
)

// Transport performs one synchronous request/response exchange. The
// server-side subscription and node-management RPCs are all modeled this
// way; secure channel, chunking, and socket I/O are assumed already done
// by the caller of Exchange.
type Transport interface {
	Exchange(ctx context.Context, serviceName string, request any) (response any, err error)
}

// ServiceResponse is embedded in every response the loopback transport
// returns, carrying the responseHeader.serviceResult.
type ServiceResponse struct {
	ServiceResult statuscode.StatusCode
}

// BrowseResponse is the body returned for a Browse exchange.
type BrowseResponse struct {
	ServiceResponse
	Results []store.BrowseResult
}

// AddNodesResponse is the body returned for an AddNodes exchange.
type AddNodesResponse struct {
	ServiceResponse
	Results []nodemgmt.AddNodesResult
}

// DeleteNodesResponse is the body returned for a DeleteNodes exchange.
type DeleteNodesResponse struct {
	ServiceResponse
	Results []statuscode.StatusCode
}

// ReferencesResponse is the body returned for AddReferences/DeleteReferences.
type ReferencesResponse struct {
	ServiceResponse
	Results []statuscode.StatusCode
}

// LoopbackTransport dispatches directly to a NodeManagement service and
// Browser over an in-process NodeStore, skipping the wire entirely, for a
// single-process server with no remote clients. It handles the
// node-management and browse services only; the subscription services
// return an error.
type LoopbackTransport struct {
	Store   *store.NodeStore
	NodeMgmt *nodemgmt.Service
}

func NewLoopback(s *store.NodeStore) *LoopbackTransport {
	return &LoopbackTransport{Store: s, NodeMgmt: nodemgmt.New(s)}
}

func (t *LoopbackTransport) Exchange(ctx context.Context, serviceName string, request any) (any, error) {
	switch serviceName {
	case AddNodes:
		items, ok := request.([]nodemgmt.AddNodesItem)
		if !ok {
			return nil, fmt.Errorf("transport: addNodes request has wrong type %T", request)
		}
		return AddNodesResponse{Results: t.NodeMgmt.AddNodes(ctx, items)}, nil

	case DeleteNodes:
		items, ok := request.([]nodemgmt.DeleteNodesItem)
		if !ok {
			return nil, fmt.Errorf("transport: deleteNodes request has wrong type %T", request)
		}
		return DeleteNodesResponse{Results: t.NodeMgmt.DeleteNodes(ctx, items)}, nil

	case AddReferences:
		items, ok := request.([]store.AddReferenceItem)
		if !ok {
			return nil, fmt.Errorf("transport: addReferences request has wrong type %T", request)
		}
		return ReferencesResponse{Results: t.NodeMgmt.AddReferences(ctx, items)}, nil

	case DeleteReferences:
		items, ok := request.([]store.DeleteReferenceItem)
		if !ok {
			return nil, fmt.Errorf("transport: deleteReferences request has wrong type %T", request)
		}
		return ReferencesResponse{Results: t.NodeMgmt.DeleteReferences(ctx, items)}, nil

	case Browse:
		descs, ok := request.([]store.BrowseDescription)
		if !ok {
			return nil, fmt.Errorf("transport: browse request has wrong type %T", request)
		}
		results := make([]store.BrowseResult, len(descs))
		for i, d := range descs {
			results[i] = t.browseSingle(d)
		}
		return BrowseResponse{Results: results}, nil

	default:
		return nil, fmt.Errorf("transport: service %q not handled by the loopback transport", serviceName)
	}
}

// browseSingle reaches the store's unexported browse through its exported
// wrapper, NodeStore.Browse, since store.NodeStore exposes browsing only
// through the named helpers plus this generic entry point.
func (t *LoopbackTransport) browseSingle(desc store.BrowseDescription) store.BrowseResult {
	return t.Store.Browse(desc)
}
