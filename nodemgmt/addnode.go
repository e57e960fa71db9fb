package nodemgmt

import (
	"context"

	"xiaoshiai.cn/opcua/log"
	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
	"xiaoshiai.cn/opcua/store"
)

// InstantiationCallback is invoked after a new node is fully instantiated
// and linked to its type, carrying the handle its constructor produced (if
// any).
type InstantiationCallback func(ctx context.Context, newNodeId, typeId nodeid.NodeId, handle any)

// Service is the NodeManagement service: AddNode/DeleteNodes/AddReferences/
// DeleteReferences plus the editor callback dispatch, all operating on one
// NodeStore.
type Service struct {
	Store                  *store.NodeStore
	InstantiationCallback  InstantiationCallback
}

func New(s *store.NodeStore) *Service {
	return &Service{Store: s}
}

// AddNodesItem describes one node to add, exactly as decoded off the wire:
// the requested id/parent/reference/type plus its attribute payload.
type AddNodesItem struct {
	RequestedNewNodeId nodeid.NodeId
	ParentNodeId       nodeid.NodeId
	ReferenceTypeId    nodeid.NodeId
	BrowseName         nodeid.QualifiedName
	NodeClass          store.NodeClass
	Attributes         NodeAttributes
	TypeDefinition     nodeid.NodeId
}

// createNodeFromAttributes builds an unowned Node from a decoded attribute
// payload, discriminated by its declared Kind against the node class the
// caller requested.
func createNodeFromAttributes(class store.NodeClass, attrs NodeAttributes) (*store.Node, statuscode.StatusCode) {
	want := kindForClass(class)
	if want == AttributesUnspecified {
		return nil, statuscode.BadNodeClassInvalid
	}
	if attrs.Kind != want {
		return nil, statuscode.BadNodeAttributesInvalid
	}

	n := store.NewNode(class)
	switch class {
	case store.Object:
		a := attrs.Object
		if a == nil {
			return nil, statuscode.BadNodeAttributesInvalid
		}
		n.DisplayName, n.Description, n.WriteMask = a.DisplayName, a.Description, a.WriteMask
		n.ObjectBody.EventNotifier = a.EventNotifier
	case store.Variable:
		a := attrs.Variable
		if a == nil {
			return nil, statuscode.BadNodeAttributesInvalid
		}
		n.DisplayName, n.Description, n.WriteMask = a.DisplayName, a.Description, a.WriteMask
		n.VariableBody.DataType = a.DataType
		n.VariableBody.ValueRank = a.ValueRank
		n.VariableBody.ArrayDimensions = a.ArrayDimensions
		n.VariableBody.AccessLevel = a.AccessLevel
		n.VariableBody.MinimumSamplingInterval = a.MinimumSamplingInterval
		n.VariableBody.Historizing = a.Historizing
		n.VariableBody.Value = a.Value
	case store.Method:
		a := attrs.Method
		if a == nil {
			return nil, statuscode.BadNodeAttributesInvalid
		}
		n.DisplayName, n.Description, n.WriteMask = a.DisplayName, a.Description, a.WriteMask
		n.MethodBody.Executable = a.Executable
	case store.ObjectType:
		a := attrs.ObjectType
		if a == nil {
			return nil, statuscode.BadNodeAttributesInvalid
		}
		n.DisplayName, n.Description, n.WriteMask = a.DisplayName, a.Description, a.WriteMask
		n.ObjectTypeBody.IsAbstract = a.IsAbstract
	case store.VariableType:
		a := attrs.VariableType
		if a == nil {
			return nil, statuscode.BadNodeAttributesInvalid
		}
		n.DisplayName, n.Description, n.WriteMask = a.DisplayName, a.Description, a.WriteMask
		n.VariableTypeBody.DataType = a.DataType
		n.VariableTypeBody.ValueRank = a.ValueRank
		n.VariableTypeBody.ArrayDimensions = a.ArrayDimensions
		n.VariableTypeBody.Value = a.Value
		n.VariableTypeBody.IsAbstract = a.IsAbstract
	case store.ReferenceType:
		a := attrs.ReferenceType
		if a == nil {
			return nil, statuscode.BadNodeAttributesInvalid
		}
		n.DisplayName, n.Description, n.WriteMask = a.DisplayName, a.Description, a.WriteMask
		n.ReferenceTypeBody.IsAbstract = a.IsAbstract
		n.ReferenceTypeBody.Symmetric = a.Symmetric
		n.ReferenceTypeBody.InverseName = a.InverseName
	case store.DataType:
		a := attrs.DataType
		if a == nil {
			return nil, statuscode.BadNodeAttributesInvalid
		}
		n.DisplayName, n.Description, n.WriteMask = a.DisplayName, a.Description, a.WriteMask
		n.DataTypeBody.IsAbstract = a.IsAbstract
	case store.View:
		a := attrs.View
		if a == nil {
			return nil, statuscode.BadNodeAttributesInvalid
		}
		n.DisplayName, n.Description, n.WriteMask = a.DisplayName, a.Description, a.WriteMask
		n.ViewBody.ContainsNoLoops = a.ContainsNoLoops
		n.ViewBody.EventNotifier = a.EventNotifier
	}
	return n, statuscode.Good
}

// AddNode_begin validates the requested attribute payload, builds the node,
// and inserts it unlinked. The returned id is only provisional until
// AddNode_finish succeeds.
func (svc *Service) AddNode_begin(ctx context.Context, item AddNodesItem) (nodeid.NodeId, statuscode.StatusCode) {
	node, status := createNodeFromAttributes(item.NodeClass, item.Attributes)
	if !status.IsGood() {
		return nodeid.Null, status
	}
	node.NodeId = item.RequestedNewNodeId
	node.BrowseName = item.BrowseName

	id, status := svc.Store.Insert(node)
	if !status.IsGood() {
		return nodeid.Null, status
	}
	return id, statuscode.Good
}

// AddNode_finish validates and links a node created by AddNode_begin,
// running the type check and instantiation cascade. On failure the node is
// deleted with deleteReferences=true.
func (svc *Service) AddNode_finish(ctx context.Context, id, parentId, refTypeId, typeDef nodeid.NodeId) statuscode.StatusCode {
	status := svc.addNodeFinishInner(ctx, id, parentId, refTypeId, typeDef)
	if !status.IsGood() {
		log.FromContext(ctx).Error(status, "AddNode_finish failed, deleting stub", "nodeId", id.String())
		_ = svc.DeleteNodes_single(ctx, id, true)
	}
	return status
}

func (svc *Service) addNodeFinishInner(ctx context.Context, id, parentId, refTypeId, typeDef nodeid.NodeId) statuscode.StatusCode {
	node, status := svc.Store.Get(id)
	if !status.IsGood() {
		return status
	}

	// Step 1: type-category nodes are reinterpreted -- parentId is really
	// the supertype, refTypeId is really HasSubtype.
	if node.IsTypeNode() {
		refTypeId = nodeid.IdHasSubtype
	}

	// Step 2: substitute the default type definition.
	if typeDef.IsNull() {
		switch node.Class {
		case store.Variable:
			typeDef = nodeid.IdBaseDataVariableType
		case store.Object:
			typeDef = nodeid.IdBaseObjectType
		}
	}

	// Step 3: validate the parent reference.
	if !parentId.IsNull() || node.Class != store.Object {
		if status := svc.checkParentReference(parentId, refTypeId, node.Class); !status.IsGood() {
			return status
		}
	}

	// Step 4: type check variable / variable-type nodes. The HasTypeDefinition
	// reference must exist first, since the checker resolves it via the
	// browser, so we add it ahead of the general instantiation step for
	// these two classes.
	if node.Class == store.Variable || node.Class == store.VariableType {
		if !typeDef.IsNull() {
			if status := svc.Store.AddReferences_single(ctx, store.AddReferenceItem{
				SourceId:        id,
				ReferenceTypeId: nodeid.IdHasTypeDefinition,
				IsForward:       true,
				TargetId:        nodeid.Local(typeDef),
			}); !status.IsGood() {
				return status
			}
		}
		if status := svc.Store.TypeCheckVariableNode(ctx, id); !status.IsGood() {
			return status
		}
	}

	// Step 5: add the inverse parent reference.
	if !parentId.IsNull() {
		if status := svc.Store.AddReferences_single(ctx, store.AddReferenceItem{
			SourceId:        parentId,
			ReferenceTypeId: refTypeId,
			IsForward:       true,
			TargetId:        nodeid.Local(id),
		}); !status.IsGood() {
			return status
		}
	}

	// Step 6: instantiate.
	if node.Class == store.Variable || node.Class == store.Object {
		if status := svc.instantiate(ctx, id, typeDef); !status.IsGood() {
			return status
		}
	}

	return statuscode.Good
}

// AddNodesResult is the per-item outcome of an AddNodes service call.
type AddNodesResult struct {
	AddedNodeId nodeid.NodeId
	Status      statuscode.StatusCode
}

// AddNode runs AddNode_begin followed by AddNode_finish, the combination a
// transport-facing AddNodes service call makes for each item.
func (svc *Service) AddNode(ctx context.Context, item AddNodesItem) AddNodesResult {
	id, status := svc.AddNode_begin(ctx, item)
	if !status.IsGood() {
		return AddNodesResult{Status: status}
	}
	if status := svc.AddNode_finish(ctx, id, item.ParentNodeId, item.ReferenceTypeId, item.TypeDefinition); !status.IsGood() {
		return AddNodesResult{Status: status}
	}
	return AddNodesResult{AddedNodeId: id, Status: statuscode.Good}
}

// AddNodes processes a batch of AddNodesItem independently.
func (svc *Service) AddNodes(ctx context.Context, items []AddNodesItem) []AddNodesResult {
	results := make([]AddNodesResult, len(items))
	for i, item := range items {
		results[i] = svc.AddNode(ctx, item)
	}
	return results
}

// checkParentReference validates that parentId exists, is of a class
// allowed to own children, and that refTypeId is a hierarchical reference
// type.
func (svc *Service) checkParentReference(parentId, refTypeId nodeid.NodeId, childClass store.NodeClass) statuscode.StatusCode {
	if parentId.IsNull() {
		return statuscode.BadParentNodeIdInvalid
	}
	parent, status := svc.Store.Get(parentId)
	if !status.IsGood() {
		return statuscode.BadParentNodeIdInvalid
	}

	refType, status := svc.Store.Get(refTypeId)
	if !status.IsGood() || refType.Class != store.ReferenceType {
		return statuscode.BadReferenceTypeIdInvalid
	}
	if refType.ReferenceTypeBody.IsAbstract {
		return statuscode.BadReferenceTypeIdInvalid
	}

	if childClass == store.ObjectType || childClass == store.VariableType ||
		childClass == store.ReferenceType || childClass == store.DataType {
		if refTypeId.Equal(nodeid.IdHasSubtype) && parent.Class == childClass {
			return statuscode.Good
		}
		return statuscode.BadReferenceNotAllowed
	}

	if !svc.Store.IsHierarchicalReferenceType(refTypeId) {
		return statuscode.BadReferenceNotAllowed
	}
	return statuscode.Good
}
