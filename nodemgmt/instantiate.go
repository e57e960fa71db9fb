package nodemgmt

import (
	"context"

	"xiaoshiai.cn/opcua/collections"
	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
	"xiaoshiai.cn/opcua/store"
	"xiaoshiai.cn/opcua/txn"
)

// statusErr adapts a StatusCode to the error txn.Transaction deals in;
// StatusCode already implements error, so a failed status passes straight
// through and statuscode.FromError recovers it bit-exact on the other end.
func statusErr(status statuscode.StatusCode) error {
	if status.IsGood() {
		return nil
	}
	return status
}

// instantiate materialises id's aggregated children from typeDef and every
// supertype up to the root, runs the nearest constructor in the chain for
// Object nodes, and links id to typeDef with HasTypeDefinition.
func (svc *Service) instantiate(ctx context.Context, id, typeDef nodeid.NodeId) statuscode.StatusCode {
	if typeDef.IsNull() {
		return statuscode.Good
	}

	hierarchy := svc.Store.GetTypeHierarchy(typeDef)
	for _, t := range hierarchy {
		if status := svc.copyChildNodes(ctx, t, id); !status.IsGood() {
			return status
		}
	}

	node, status := svc.Store.Get(id)
	if !status.IsGood() {
		return status
	}
	if node.Class == store.Object {
		if status := svc.runConstructor(ctx, id, hierarchy); !status.IsGood() {
			return status
		}
		// Variable/VariableType nodes already got their HasTypeDefinition
		// reference ahead of the type check in AddNode_finish, since the
		// checker resolves the type through it; Objects get it here.
		if status := svc.Store.AddReferences_single(ctx, store.AddReferenceItem{
			SourceId:        id,
			ReferenceTypeId: nodeid.IdHasTypeDefinition,
			IsForward:       true,
			TargetId:        nodeid.Local(typeDef),
		}); !status.IsGood() {
			return status
		}
	}

	if svc.InstantiationCallback != nil {
		handle := any(nil)
		if n, ok := svc.Store.Get(id); ok.IsGood() && n.ObjectBody != nil {
			handle = n.ObjectBody.InstanceHandle
		}
		svc.InstantiationCallback(ctx, id, typeDef, handle)
	}
	return statuscode.Good
}

// runConstructor invokes the constructor of the nearest ancestor in
// hierarchy (leaves-first) that provides one, and stores the returned
// handle on the instance.
func (svc *Service) runConstructor(ctx context.Context, id nodeid.NodeId, hierarchy []nodeid.NodeId) statuscode.StatusCode {
	for _, t := range hierarchy {
		typeNode, status := svc.Store.Get(t)
		if !status.IsGood() || typeNode.ObjectTypeBody == nil {
			continue
		}
		ctor := typeNode.ObjectTypeBody.Lifecycle.Constructor
		if ctor == nil {
			continue
		}
		handle, status := ctor(ctx, id)
		if !status.IsGood() {
			return status
		}
		return svc.Store.Edit(ctx, id, func(_ context.Context, n *store.Node, _ any) statuscode.StatusCode {
			if n.ObjectBody == nil {
				return statuscode.BadNodeClassInvalid
			}
			n.ObjectBody.InstanceHandle = handle
			return statuscode.Good
		}, nil)
	}
	return statuscode.Good
}

// copyChildNodes instantiates typeId's aggregated children onto instanceId.
// Method children are linked in place (methods are shared, not cloned);
// Variable/Object children already present by BrowseName are recursed into
// for a deeper merge; otherwise the source child is deep-copied, inserted
// into the instance's namespace, and recursively finished against its own
// type. Each child becomes one txn.Transaction run through txn.Execute, so
// that a child copy failing partway through the type's child list reverts
// every sibling this call already committed -- not just the top-level
// instance stub -- before the error surfaces to the caller.
func (svc *Service) copyChildNodes(ctx context.Context, typeId, instanceId nodeid.NodeId) statuscode.StatusCode {
	existing := svc.childrenByBrowseName(instanceId)

	var txns []txn.Transaction
	for _, ref := range svc.Store.AggregatedChildren(typeId) {
		if !ref.TargetId.IsLocal() {
			continue
		}
		source, status := svc.Store.Get(ref.TargetId.NodeId)
		if !status.IsGood() {
			continue
		}

		if source.Class == store.Method {
			if _, ok := existing.Get(source.BrowseName); ok {
				continue
			}
			txns = append(txns, txn.CallbackTransaction{
				CommitFunc: func() error {
					return statusErr(svc.Store.AddReferences_single(ctx, store.AddReferenceItem{
						SourceId:        instanceId,
						ReferenceTypeId: ref.ReferenceTypeId,
						IsForward:       true,
						TargetId:        nodeid.Local(ref.TargetId.NodeId),
					}))
				},
				RevertFunc: func() error {
					svc.Store.DeleteReferences_single(ctx, store.DeleteReferenceItem{
						SourceId: instanceId, ReferenceTypeId: ref.ReferenceTypeId, IsForward: true,
						TargetId: nodeid.Local(ref.TargetId.NodeId), DeleteBidirectional: true,
					})
					return nil
				},
			})
			continue
		}

		if childId, ok := existing.Get(source.BrowseName); ok {
			// Deep-merge: the child already exists on the instance (created
			// by a more specific type earlier in the hierarchy walk);
			// recurse using the source child's own type as the next level.
			// A failure here has nothing of its own to revert -- the child
			// predates this call -- so it only reverts siblings, not itself.
			if childType, hasType := svc.Store.TypeDefinition(ref.TargetId.NodeId); hasType {
				txns = append(txns, txn.CallbackTransaction{
					CommitFunc: func() error {
						return statusErr(svc.copyChildNodes(ctx, childType, childId))
					},
				})
			}
			continue
		}

		var childId nodeid.NodeId
		txns = append(txns, txn.CallbackTransaction{
			CommitFunc: func() error {
				clone := source.Clone()
				clone.NodeId = nodeid.NodeId{NamespaceIndex: instanceId.NamespaceIndex}
				clone.References = nil
				id, status := svc.Store.Insert(clone)
				if !status.IsGood() {
					return status
				}
				childId = id

				childTypeDef, _ := svc.Store.TypeDefinition(ref.TargetId.NodeId)
				if status := svc.AddNode_finish(ctx, id, instanceId, ref.ReferenceTypeId, childTypeDef); !status.IsGood() {
					return status
				}
				existing.Set(source.BrowseName, id)
				return nil
			},
			RevertFunc: func() error {
				svc.DeleteNodes_single(ctx, childId, true)
				return nil
			},
		})
	}

	if err := txn.Execute(txns...); err != nil {
		return statuscode.FromError(err)
	}
	return statuscode.Good
}

func (svc *Service) childrenByBrowseName(instanceId nodeid.NodeId) collections.OrderedMap[nodeid.QualifiedName, nodeid.NodeId] {
	var m collections.OrderedMap[nodeid.QualifiedName, nodeid.NodeId]
	for _, ref := range svc.Store.AggregatedChildren(instanceId) {
		if ref.TargetId.IsLocal() {
			m.Set(ref.BrowseName, ref.TargetId.NodeId)
		}
	}
	return m
}
