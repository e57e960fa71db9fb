package nodemgmt

import (
	"context"
	"testing"

	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
	"xiaoshiai.cn/opcua/store"
)

// addChildVariable inserts a standalone Variable node under typeId's
// namespace and links it as an Aggregates child of typeId, the shape
// instantiation's copyChildNodes walks.
func addChildVariable(t *testing.T, svc *Service, typeId nodeid.NodeId, ns uint16, numericId uint32, name string) nodeid.NodeId {
	t.Helper()
	child := store.NewNode(store.Variable)
	child.NodeId = nodeid.NewNumeric(ns, numericId)
	child.BrowseName = nodeid.QualifiedName{Name: name}
	child.VariableBody.DataType = nodeid.Null
	id, status := svc.Store.Insert(child)
	if !status.IsGood() {
		t.Fatalf("insert child variable failed: %v", status)
	}
	if status := svc.Store.AddReferences_single(context.Background(), store.AddReferenceItem{
		SourceId: typeId, ReferenceTypeId: nodeid.IdAggregates, IsForward: true, TargetId: nodeid.Local(id),
	}); !status.IsGood() {
		t.Fatalf("link child variable to type failed: %v", status)
	}
	return id
}

func TestInstantiationCopiesAggregatedChildren(t *testing.T) {
	svc := newTestService(t)
	objType := store.NewNode(store.ObjectType)
	objType.NodeId = nodeid.NewNumeric(0, 7000)
	typeId, status := svc.Store.Insert(objType)
	if !status.IsGood() {
		t.Fatalf("insert object type failed: %v", status)
	}
	if status := svc.Store.AddReferences_single(context.Background(), store.AddReferenceItem{
		SourceId: typeId, ReferenceTypeId: nodeid.IdHasSubtype, IsForward: false, TargetId: nodeid.Local(nodeid.IdBaseObjectType),
	}); !status.IsGood() {
		t.Fatalf("link object type supertype failed: %v", status)
	}
	addChildVariable(t, svc, typeId, 0, 7001, "Temperature")

	root := addObject(t, svc, nodeid.Null, "root", nodeid.IdBaseObjectType)
	inst := addObject(t, svc, root.AddedNodeId, "instance", typeId)
	if !inst.Status.IsGood() {
		t.Fatalf("instantiate failed: %v", inst.Status)
	}

	children := svc.Store.AggregatedChildren(inst.AddedNodeId)
	if len(children) != 1 || children[0].BrowseName.Name != "Temperature" {
		t.Fatalf("expected one copied child named Temperature, got %+v", children)
	}
}

func TestInstantiationMergeByBrowseNameIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	objType := store.NewNode(store.ObjectType)
	objType.NodeId = nodeid.NewNumeric(0, 7100)
	typeId, status := svc.Store.Insert(objType)
	if !status.IsGood() {
		t.Fatalf("insert object type failed: %v", status)
	}
	if status := svc.Store.AddReferences_single(context.Background(), store.AddReferenceItem{
		SourceId: typeId, ReferenceTypeId: nodeid.IdHasSubtype, IsForward: false, TargetId: nodeid.Local(nodeid.IdBaseObjectType),
	}); !status.IsGood() {
		t.Fatalf("link object type supertype failed: %v", status)
	}
	addChildVariable(t, svc, typeId, 0, 7101, "Pressure")

	root := addObject(t, svc, nodeid.Null, "root", nodeid.IdBaseObjectType)
	inst := addObject(t, svc, root.AddedNodeId, "instance", typeId)
	if !inst.Status.IsGood() {
		t.Fatalf("instantiate failed: %v", inst.Status)
	}
	before := svc.Store.AggregatedChildren(inst.AddedNodeId)

	// Re-running instantiate against the same type must not duplicate the
	// already-merged child.
	if status := svc.instantiate(context.Background(), inst.AddedNodeId, typeId); !status.IsGood() {
		t.Fatalf("second instantiation failed: %v", status)
	}
	after := svc.Store.AggregatedChildren(inst.AddedNodeId)

	if len(before) != 1 || len(after) != 1 {
		t.Fatalf("expected exactly one child before and after re-instantiation, got before=%+v after=%+v", before, after)
	}
}

func TestInstantiationWithConstructorAndDestructor(t *testing.T) {
	svc := newTestService(t)
	objType := store.NewNode(store.ObjectType)
	objType.NodeId = nodeid.NewNumeric(0, 7200)

	type handle struct{ n int }
	wantHandle := &handle{n: 7}
	destructorCalls := 0
	var destructorId nodeid.NodeId
	var destructorHandle any

	objType.ObjectTypeBody.Lifecycle = store.LifecycleManagement{
		Constructor: func(ctx context.Context, id nodeid.NodeId) (any, statuscode.StatusCode) {
			return wantHandle, statuscode.Good
		},
		Destructor: func(ctx context.Context, id nodeid.NodeId, instanceHandle any) {
			destructorCalls++
			destructorId = id
			destructorHandle = instanceHandle
		},
	}
	typeId, status := svc.Store.Insert(objType)
	if !status.IsGood() {
		t.Fatalf("insert object type failed: %v", status)
	}
	if status := svc.Store.AddReferences_single(context.Background(), store.AddReferenceItem{
		SourceId: typeId, ReferenceTypeId: nodeid.IdHasSubtype, IsForward: false, TargetId: nodeid.Local(nodeid.IdBaseObjectType),
	}); !status.IsGood() {
		t.Fatalf("link object type supertype failed: %v", status)
	}

	root := addObject(t, svc, nodeid.Null, "root", nodeid.IdBaseObjectType)
	o1 := addObject(t, svc, root.AddedNodeId, "o1", typeId)
	if !o1.Status.IsGood() {
		t.Fatalf("instantiate failed: %v", o1.Status)
	}

	n, status := svc.Store.Get(o1.AddedNodeId)
	if !status.IsGood() {
		t.Fatalf("get instance failed: %v", status)
	}
	if n.ObjectBody.InstanceHandle != any(wantHandle) {
		t.Fatalf("expected constructor handle stored on the instance, got %v", n.ObjectBody.InstanceHandle)
	}

	if status := svc.DeleteNodes_single(context.Background(), o1.AddedNodeId, true); !status.IsGood() {
		t.Fatalf("delete node failed: %v", status)
	}
	if destructorCalls != 1 {
		t.Fatalf("expected destructor to run exactly once, got %d", destructorCalls)
	}
	if !destructorId.Equal(o1.AddedNodeId) {
		t.Fatalf("destructor saw id %v, want %v", destructorId, o1.AddedNodeId)
	}
	if destructorHandle != any(wantHandle) {
		t.Fatalf("destructor saw handle %v, want %v", destructorHandle, wantHandle)
	}
}
