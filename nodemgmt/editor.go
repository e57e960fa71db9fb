package nodemgmt

import (
	"context"

	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
	"xiaoshiai.cn/opcua/store"
)

// SetValueCallback installs or clears a Variable node's value callback,
// the editor-pattern replacement for the original's per-attribute setter.
func (svc *Service) SetValueCallback(ctx context.Context, id nodeid.NodeId, cb *store.ValueCallback) statuscode.StatusCode {
	return svc.Store.Edit(ctx, id, func(_ context.Context, n *store.Node, _ any) statuscode.StatusCode {
		if n.VariableBody == nil {
			return statuscode.BadNodeClassInvalid
		}
		n.VariableBody.ValueCallback = cb
		return statuscode.Good
	}, nil)
}

// SetDataSource swaps a Variable node's value storage to a data source,
// replacing any embedded value.
func (svc *Service) SetDataSource(ctx context.Context, id nodeid.NodeId, ds store.DataSource) statuscode.StatusCode {
	return svc.Store.Edit(ctx, id, func(_ context.Context, n *store.Node, _ any) statuscode.StatusCode {
		if n.VariableBody == nil {
			return statuscode.BadNodeClassInvalid
		}
		n.VariableBody.DataSource = &ds
		n.VariableBody.ValueSource = store.ValueSourceDataSource
		return statuscode.Good
	}, nil)
}

// SetLifecycle installs constructor/destructor hooks on an ObjectType node.
func (svc *Service) SetLifecycle(ctx context.Context, id nodeid.NodeId, lifecycle store.LifecycleManagement) statuscode.StatusCode {
	return svc.Store.Edit(ctx, id, func(_ context.Context, n *store.Node, _ any) statuscode.StatusCode {
		if n.ObjectTypeBody == nil {
			return statuscode.BadNodeClassInvalid
		}
		n.ObjectTypeBody.Lifecycle = lifecycle
		return statuscode.Good
	}, nil)
}

// SetMethodCallback rebinds a Method node's callback and user context.
func (svc *Service) SetMethodCallback(ctx context.Context, id nodeid.NodeId, cb store.MethodCallback, userContext any) statuscode.StatusCode {
	return svc.Store.Edit(ctx, id, func(_ context.Context, n *store.Node, _ any) statuscode.StatusCode {
		if n.MethodBody == nil {
			return statuscode.BadNodeClassInvalid
		}
		n.MethodBody.Callback = cb
		n.MethodBody.UserContext = userContext
		return statuscode.Good
	}, nil)
}

// WriteValue writes a Variable's value, either into the embedded store or
// by forwarding to its data source.
func (svc *Service) WriteValue(ctx context.Context, id nodeid.NodeId, value store.DataValue) statuscode.StatusCode {
	node, status := svc.Store.Get(id)
	if !status.IsGood() {
		return status
	}
	vb := node.VariableBody
	if vb == nil {
		return statuscode.BadNodeClassInvalid
	}
	if vb.ValueSource == store.ValueSourceDataSource && vb.DataSource != nil && vb.DataSource.Write != nil {
		return vb.DataSource.Write(ctx, id, nil, value)
	}
	return svc.Store.Edit(ctx, id, func(_ context.Context, n *store.Node, _ any) statuscode.StatusCode {
		if n.VariableBody == nil {
			return statuscode.BadNodeClassInvalid
		}
		n.VariableBody.Value = value
		if n.VariableBody.ValueCallback != nil && n.VariableBody.ValueCallback.OnWrite != nil {
			n.VariableBody.ValueCallback.OnWrite(ctx, id, value)
		}
		return statuscode.Good
	}, nil)
}

// AddReferences exposes the reference engine as a NodeManagement service
// operation, one item at a time.
func (svc *Service) AddReferences(ctx context.Context, items []store.AddReferenceItem) []statuscode.StatusCode {
	results := make([]statuscode.StatusCode, len(items))
	for i, item := range items {
		results[i] = svc.Store.AddReferences_single(ctx, item)
	}
	return results
}

// DeleteReferences exposes DeleteReferences_single across a batch.
func (svc *Service) DeleteReferences(ctx context.Context, items []store.DeleteReferenceItem) []statuscode.StatusCode {
	results := make([]statuscode.StatusCode, len(items))
	for i, item := range items {
		results[i] = svc.Store.DeleteReferences_single(ctx, item)
	}
	return results
}
