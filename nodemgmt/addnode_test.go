package nodemgmt

import (
	"context"
	"testing"

	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
	"xiaoshiai.cn/opcua/store"
)

// newTestService bootstraps the minimal core-namespace lattice AddNode needs:
// a HierarchicalReferences root, HasSubtype and Aggregates as its hierarchical
// children, and the two base instantiable types.
func newTestService(t *testing.T) *Service {
	t.Helper()
	s := store.New()
	ctx := context.Background()

	mustInsert := func(class store.NodeClass, id nodeid.NodeId) nodeid.NodeId {
		n := store.NewNode(class)
		n.NodeId = id
		got, status := s.Insert(n)
		if !status.IsGood() {
			t.Fatalf("bootstrap insert %v failed: %v", id, status)
		}
		return got
	}
	mustLink := func(source, refType, target nodeid.NodeId, forward bool) {
		if status := s.AddReferences_single(ctx, store.AddReferenceItem{
			SourceId: source, ReferenceTypeId: refType, IsForward: forward, TargetId: nodeid.Local(target),
		}); !status.IsGood() {
			t.Fatalf("bootstrap link %v->%v failed: %v", source, target, status)
		}
	}

	mustInsert(store.ReferenceType, nodeid.IdHierarchicalReferences)
	mustInsert(store.ReferenceType, nodeid.IdHasSubtype)
	mustInsert(store.ReferenceType, nodeid.IdAggregates)
	mustLink(nodeid.IdHasSubtype, nodeid.IdHasSubtype, nodeid.IdHierarchicalReferences, false)
	mustLink(nodeid.IdAggregates, nodeid.IdHasSubtype, nodeid.IdHierarchicalReferences, false)

	mustInsert(store.ObjectType, nodeid.IdBaseObjectType)
	vt := store.NewNode(store.VariableType)
	vt.NodeId = nodeid.IdBaseDataVariableType
	vt.VariableTypeBody.ValueRank = store.ValueRankAny
	if _, status := s.Insert(vt); !status.IsGood() {
		t.Fatalf("bootstrap insert BaseDataVariableType failed: %v", status)
	}

	return New(s)
}

func addObject(t *testing.T, svc *Service, parent nodeid.NodeId, name string, typeDef nodeid.NodeId) AddNodesResult {
	t.Helper()
	return svc.AddNode(context.Background(), AddNodesItem{
		ParentNodeId:    parent,
		ReferenceTypeId: nodeid.IdAggregates,
		BrowseName:      nodeid.QualifiedName{Name: name},
		NodeClass:       store.Object,
		Attributes:      NodeAttributes{Kind: ObjectAttributesKind, Object: &ObjectAttributes{}},
		TypeDefinition:  typeDef,
	})
}

func TestAddNodeHierarchicalAdd(t *testing.T) {
	svc := newTestService(t)
	root := addObject(t, svc, nodeid.Null, "root", nodeid.IdBaseObjectType)
	if !root.Status.IsGood() {
		t.Fatalf("add root object failed: %v", root.Status)
	}

	child := addObject(t, svc, root.AddedNodeId, "child", nodeid.IdBaseObjectType)
	if !child.Status.IsGood() {
		t.Fatalf("add child object failed: %v", child.Status)
	}

	browsed := svc.Store.Browse(store.BrowseDescription{
		NodeId: root.AddedNodeId, ReferenceTypeId: nodeid.IdAggregates, Direction: store.BrowseForward, NodeClassMask: store.NodeClassMaskAll,
	})
	if len(browsed.References) != 1 || !browsed.References[0].TargetId.NodeId.Equal(child.AddedNodeId) {
		t.Fatalf("expected root to aggregate the new child, got %+v", browsed.References)
	}

	typeDef, ok := svc.Store.TypeDefinition(child.AddedNodeId)
	if !ok || !typeDef.Equal(nodeid.IdBaseObjectType) {
		t.Fatalf("expected child linked to BaseObjectType, got %v (ok=%v)", typeDef, ok)
	}
}

func addVariable(svc *Service, parent nodeid.NodeId, name string, typeDef nodeid.NodeId, rank int32) AddNodesResult {
	return svc.AddNode(context.Background(), AddNodesItem{
		ParentNodeId:    parent,
		ReferenceTypeId: nodeid.IdAggregates,
		BrowseName:      nodeid.QualifiedName{Name: name},
		NodeClass:       store.Variable,
		Attributes: NodeAttributes{Kind: VariableAttributesKind, Variable: &VariableAttributes{
			ValueRank: rank,
		}},
		TypeDefinition: typeDef,
	})
}

func TestAddNodeAbstractTypeRejection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	parent := addObject(t, svc, nodeid.Null, "root", nodeid.IdBaseObjectType)
	if !parent.Status.IsGood() {
		t.Fatalf("add root object failed: %v", parent.Status)
	}

	abstractVT := store.NewNode(store.VariableType)
	abstractVT.NodeId = nodeid.NewNumeric(0, 5000)
	abstractVT.VariableTypeBody.ValueRank = store.ValueRankAny
	abstractVT.VariableTypeBody.IsAbstract = true
	abstractTypeId, status := svc.Store.Insert(abstractVT)
	if !status.IsGood() {
		t.Fatalf("insert abstract variable type failed: %v", status)
	}
	if status := svc.Store.AddReferences_single(ctx, store.AddReferenceItem{
		SourceId: abstractTypeId, ReferenceTypeId: nodeid.IdHasSubtype, IsForward: false, TargetId: nodeid.Local(nodeid.IdBaseDataVariableType),
	}); !status.IsGood() {
		t.Fatalf("link abstract type supertype failed: %v", status)
	}

	result := addVariable(svc, parent.AddedNodeId, "v", abstractTypeId, store.ValueRankAny)
	if result.Status != statuscode.BadTypeDefinitionInvalid {
		t.Fatalf("expected BadTypeDefinitionInvalid for an abstract type definition, got %v", result.Status)
	}
	if !result.AddedNodeId.IsNull() {
		t.Fatalf("expected no surviving node id on rejection, got %v", result.AddedNodeId)
	}

	browsed := svc.Store.Browse(store.BrowseDescription{
		NodeId: parent.AddedNodeId, ReferenceTypeId: nodeid.IdAggregates, Direction: store.BrowseForward, NodeClassMask: store.NodeClassMaskAll,
	})
	if len(browsed.References) != 0 {
		t.Fatalf("expected no surviving reference to the rejected node, got %+v", browsed.References)
	}
}

func TestAddNodeRankMismatchCleansUpStub(t *testing.T) {
	svc := newTestService(t)
	parent := addObject(t, svc, nodeid.Null, "root", nodeid.IdBaseObjectType)
	if !parent.Status.IsGood() {
		t.Fatalf("add root object failed: %v", parent.Status)
	}

	// BaseDataVariableType short-circuits the type check entirely, so a
	// rank mismatch against it can never surface; exercise the mismatch
	// path against a concrete, non-base variable type instead.
	vt := store.NewNode(store.VariableType)
	vt.NodeId = nodeid.NewNumeric(0, 6000)
	vt.VariableTypeBody.ValueRank = store.ValueRankScalar
	typeId, status := svc.Store.Insert(vt)
	if !status.IsGood() {
		t.Fatalf("insert variable type failed: %v", status)
	}
	if status := svc.Store.AddReferences_single(context.Background(), store.AddReferenceItem{
		SourceId: typeId, ReferenceTypeId: nodeid.IdHasSubtype, IsForward: false, TargetId: nodeid.Local(nodeid.IdBaseDataVariableType),
	}); !status.IsGood() {
		t.Fatalf("link variable type supertype failed: %v", status)
	}

	mismatched := addVariable(svc, parent.AddedNodeId, "v2", typeId, store.ValueRankOneDimension)
	if mismatched.Status != statuscode.BadTypeMismatch {
		t.Fatalf("expected BadTypeMismatch, got %v", mismatched.Status)
	}

	browsed := svc.Store.Browse(store.BrowseDescription{
		NodeId: parent.AddedNodeId, ReferenceTypeId: nodeid.IdAggregates, Direction: store.BrowseForward, NodeClassMask: store.NodeClassMaskAll,
	})
	if len(browsed.References) != 0 {
		t.Fatalf("expected no surviving reference to the rank-mismatched node, got %+v", browsed.References)
	}
}
