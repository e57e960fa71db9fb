package nodemgmt

import (
	"context"
	"testing"

	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
	"xiaoshiai.cn/opcua/store"
)

func TestWriteValueEmbeddedFiresCallback(t *testing.T) {
	svc := newTestService(t)
	parent := addObject(t, svc, nodeid.Null, "root", nodeid.IdBaseObjectType)
	v := addVariable(svc, parent.AddedNodeId, "v", nodeid.IdBaseDataVariableType, store.ValueRankAny)
	if !v.Status.IsGood() {
		t.Fatalf("add variable failed: %v", v.Status)
	}

	var observed store.DataValue
	calls := 0
	if status := svc.SetValueCallback(context.Background(), v.AddedNodeId, &store.ValueCallback{
		OnWrite: func(_ context.Context, _ nodeid.NodeId, value store.DataValue) {
			calls++
			observed = value
		},
	}); !status.IsGood() {
		t.Fatalf("set value callback failed: %v", status)
	}

	want := store.DataValue{Value: store.Variant{Value: int32(42)}}
	if status := svc.WriteValue(context.Background(), v.AddedNodeId, want); !status.IsGood() {
		t.Fatalf("write value failed: %v", status)
	}

	if calls != 1 {
		t.Fatalf("expected OnWrite to fire exactly once, got %d", calls)
	}
	if observed.Value.Value != int32(42) {
		t.Fatalf("callback observed %v, want 42", observed.Value.Value)
	}

	n, status := svc.Store.Get(v.AddedNodeId)
	if !status.IsGood() {
		t.Fatalf("get failed: %v", status)
	}
	if n.VariableBody.Value.Value.Value != int32(42) {
		t.Fatalf("stored value = %v, want 42", n.VariableBody.Value.Value.Value)
	}
}

func TestWriteValueForwardsToDataSource(t *testing.T) {
	svc := newTestService(t)
	parent := addObject(t, svc, nodeid.Null, "root", nodeid.IdBaseObjectType)
	v := addVariable(svc, parent.AddedNodeId, "v", nodeid.IdBaseDataVariableType, store.ValueRankAny)
	if !v.Status.IsGood() {
		t.Fatalf("add variable failed: %v", v.Status)
	}

	var written store.DataValue
	if status := svc.SetDataSource(context.Background(), v.AddedNodeId, store.DataSource{
		Write: func(_ context.Context, _ nodeid.NodeId, _ any, value store.DataValue) statuscode.StatusCode {
			written = value
			return statuscode.Good
		},
	}); !status.IsGood() {
		t.Fatalf("set data source failed: %v", status)
	}

	want := store.DataValue{Value: store.Variant{Value: "hello"}}
	if status := svc.WriteValue(context.Background(), v.AddedNodeId, want); !status.IsGood() {
		t.Fatalf("write value failed: %v", status)
	}
	if written.Value.Value != "hello" {
		t.Fatalf("data source observed %v, want hello", written.Value.Value)
	}

	// The embedded value must be left untouched -- storage ownership moved
	// to the data source entirely.
	n, _ := svc.Store.Get(v.AddedNodeId)
	if n.VariableBody.Value.Value.Value != nil {
		t.Fatalf("expected embedded value to remain unset, got %v", n.VariableBody.Value.Value.Value)
	}
}

func TestAddAndDeleteReferencesBatch(t *testing.T) {
	svc := newTestService(t)
	a := addObject(t, svc, nodeid.Null, "a", nodeid.IdBaseObjectType)
	b := addObject(t, svc, nodeid.Null, "b", nodeid.IdBaseObjectType)

	addResults := svc.AddReferences(context.Background(), []store.AddReferenceItem{
		{SourceId: a.AddedNodeId, ReferenceTypeId: nodeid.IdOrganizes, IsForward: true, TargetId: nodeid.Local(b.AddedNodeId)},
	})
	if len(addResults) != 1 || !addResults[0].IsGood() {
		t.Fatalf("add references batch failed: %v", addResults)
	}

	deleteResults := svc.DeleteReferences(context.Background(), []store.DeleteReferenceItem{
		{SourceId: a.AddedNodeId, ReferenceTypeId: nodeid.IdOrganizes, IsForward: true, TargetId: nodeid.Local(b.AddedNodeId), DeleteBidirectional: true},
	})
	if len(deleteResults) != 1 || !deleteResults[0].IsGood() {
		t.Fatalf("delete references batch failed: %v", deleteResults)
	}
}
