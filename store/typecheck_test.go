package store

import (
	"context"
	"testing"

	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
)

func makeVariableType(t *testing.T, s *NodeStore, id nodeid.NodeId, dataType nodeid.NodeId, valueRank int32) nodeid.NodeId {
	t.Helper()
	n := NewNode(VariableType)
	n.NodeId = id
	n.VariableTypeBody.DataType = dataType
	n.VariableTypeBody.ValueRank = valueRank
	got, status := s.Insert(n)
	if !status.IsGood() {
		t.Fatalf("insert variable type failed: %v", status)
	}
	return got
}

func linkTypeDefinition(t *testing.T, s *NodeStore, instance, typeDef nodeid.NodeId) {
	t.Helper()
	status := s.AddReferences_single(context.Background(), AddReferenceItem{
		SourceId: instance, ReferenceTypeId: nodeid.IdHasTypeDefinition, IsForward: true, TargetId: nodeid.Local(typeDef),
	})
	if !status.IsGood() {
		t.Fatalf("link type definition failed: %v", status)
	}
}

func TestTypeCheckVariableNodeSkipsBaseDataVariableType(t *testing.T) {
	s := New()
	insertHelper(t, s, VariableType, nodeid.IdBaseDataVariableType)
	v := insertHelper(t, s, Variable, nodeid.NewNumeric(0, 1))
	linkTypeDefinition(t, s, v, nodeid.IdBaseDataVariableType)

	if status := s.TypeCheckVariableNode(context.Background(), v); !status.IsGood() {
		t.Fatalf("expected BaseDataVariableType to short-circuit, got %v", status)
	}
}

func TestTypeCheckVariableNodeRejectsDataTypeMismatch(t *testing.T) {
	s := New()
	int32Type := insertHelper(t, s, DataType, nodeid.NewNumeric(0, 100))
	stringType := insertHelper(t, s, DataType, nodeid.NewNumeric(0, 101))
	vt := makeVariableType(t, s, nodeid.NewNumeric(0, 200), int32Type, ValueRankScalar)

	v := NewNode(Variable)
	v.NodeId = nodeid.NewNumeric(0, 1)
	v.VariableBody.DataType = stringType
	v.VariableBody.ValueRank = ValueRankScalar
	id, status := s.Insert(v)
	if !status.IsGood() {
		t.Fatalf("insert failed: %v", status)
	}
	linkTypeDefinition(t, s, id, vt)

	if status := s.TypeCheckVariableNode(context.Background(), id); status != statuscode.BadTypeMismatch {
		t.Fatalf("expected BadTypeMismatch, got %v", status)
	}
}

func TestTypeCheckVariableNodeUpgradesAnyRank(t *testing.T) {
	s := New()
	dt := insertHelper(t, s, DataType, nodeid.NewNumeric(0, 100))
	vt := makeVariableType(t, s, nodeid.NewNumeric(0, 200), dt, ValueRankScalarOrOneDimension)

	v := NewNode(Variable)
	v.NodeId = nodeid.NewNumeric(0, 1)
	v.VariableBody.DataType = dt
	v.VariableBody.ValueRank = ValueRankAny
	v.VariableBody.Value = DataValue{Value: Variant{Value: []any{int32(1), int32(2)}}}
	id, status := s.Insert(v)
	if !status.IsGood() {
		t.Fatalf("insert failed: %v", status)
	}
	linkTypeDefinition(t, s, id, vt)

	if status := s.TypeCheckVariableNode(context.Background(), id); !status.IsGood() {
		t.Fatalf("type check failed: %v", status)
	}

	updated, _ := s.Get(id)
	if updated.VariableBody.ValueRank != ValueRankScalarOrOneDimension {
		t.Fatalf("expected rank upgraded to ScalarOrOneDimension, got %v", updated.VariableBody.ValueRank)
	}
}

func TestCompatibleValueRankArrayDimensions(t *testing.T) {
	cases := []struct {
		rank     int32
		dims     int
		expected bool
	}{
		{ValueRankScalar, 0, true},
		{ValueRankScalar, 1, false},
		{ValueRankScalarOrOneDimension, 1, true},
		{ValueRankScalarOrOneDimension, 2, false},
		{ValueRankOneDimension, 1, true},
		{2, 2, true},
		{2, 1, false},
	}
	for _, c := range cases {
		if got := compatibleValueRankArrayDimensions(c.rank, c.dims); got != c.expected {
			t.Errorf("compatibleValueRankArrayDimensions(%d, %d) = %v, want %v", c.rank, c.dims, got, c.expected)
		}
	}
}
