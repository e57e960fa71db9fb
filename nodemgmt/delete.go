package nodemgmt

import (
	"context"

	"xiaoshiai.cn/opcua/log"
	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
	"xiaoshiai.cn/opcua/store"
)

// DeleteNodesItem describes one node to delete, exactly as decoded off the
// wire.
type DeleteNodesItem struct {
	NodeId               nodeid.NodeId
	DeleteTargetReferences bool
}

// DeleteNodes processes each item independently, collecting one StatusCode
// per item; a failure on one item does not block the others.
func (svc *Service) DeleteNodes(ctx context.Context, items []DeleteNodesItem) []statuscode.StatusCode {
	results := make([]statuscode.StatusCode, len(items))
	for i, item := range items {
		results[i] = svc.DeleteNodes_single(ctx, item.NodeId, item.DeleteTargetReferences)
	}
	return results
}

// DeleteNodes_single looks up id, invokes the destructor of every
// object-type on its type's supertype chain (GetTypeHierarchy, not just the
// nearest) for an Object node -- only the first supertype of each type is
// followed, so ancestors reachable only through a second supertype are not
// visited -- optionally severs every reference pointing at id from the far side, and
// finally removes the node.
func (svc *Service) DeleteNodes_single(ctx context.Context, id nodeid.NodeId, deleteReferences bool) statuscode.StatusCode {
	node, status := svc.Store.Get(id)
	if !status.IsGood() {
		return status
	}

	if node.Class == store.Object && node.ObjectBody != nil {
		if typeId, ok := svc.Store.TypeDefinition(id); ok {
			for _, ancestor := range svc.Store.GetTypeHierarchy(typeId) {
				typeNode, status := svc.Store.Get(ancestor)
				if !status.IsGood() || typeNode.ObjectTypeBody == nil {
					continue
				}
				if dtor := typeNode.ObjectTypeBody.Lifecycle.Destructor; dtor != nil {
					dtor(ctx, id, node.ObjectBody.InstanceHandle)
				}
			}
		}
	}

	if deleteReferences {
		for _, ref := range node.References {
			if !ref.TargetId.IsLocal() {
				continue
			}
			// The mirror's own forward flag is the negation of ref's,
			// which is exactly ref.IsInverse.
			status := svc.Store.DeleteReferences_single(ctx, store.DeleteReferenceItem{
				SourceId:        ref.TargetId.NodeId,
				ReferenceTypeId: ref.ReferenceTypeId,
				IsForward:       ref.IsInverse,
				TargetId:        nodeid.Local(id),
			})
			if !status.IsGood() {
				log.FromContext(ctx).V(1).Info("could not delete mirror reference during DeleteNodes", "nodeId", id.String(), "target", ref.TargetId.NodeId.String())
			}
		}
	}

	return svc.Store.Remove(id)
}
