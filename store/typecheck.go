package store

import (
	"context"

	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
)

// TypeCheckVariableNode verifies that id -- a Variable or VariableType node
// already linked to its HasTypeDefinition -- is compatible with that type,
// upgrading id's own ValueRank in place to ScalarOrOneDimension when that
// rank is Any and the value is an array. BaseDataVariableType is universally compatible and short
// circuits the whole check.
func (s *NodeStore) TypeCheckVariableNode(ctx context.Context, id nodeid.NodeId) statuscode.StatusCode {
	node, status := s.Get(id)
	if !status.IsGood() {
		return status
	}
	vb := node.variableBody()
	if vb == nil {
		return statuscode.BadNodeClassInvalid
	}

	typeId, hasType := s.TypeDefinition(id)
	if !hasType {
		return statuscode.BadTypeDefinitionInvalid
	}
	if typeId.Equal(nodeid.IdBaseDataVariableType) {
		return statuscode.Good
	}

	typeNode, status := s.Get(typeId)
	if !status.IsGood() {
		return statuscode.BadTypeDefinitionInvalid
	}
	typeVb := typeNode.variableBody()
	if typeVb == nil {
		return statuscode.BadTypeDefinitionInvalid
	}
	if typeNode.IsAbstract() {
		return statuscode.BadTypeDefinitionInvalid
	}

	if !s.compatibleDataType(vb.DataType, typeVb.DataType) {
		return statuscode.BadTypeMismatch
	}

	value, status := vb.ReadValue(ctx, id, nil)
	if !status.IsGood() {
		return status
	}

	effectiveDims := vb.ArrayDimensions
	if len(effectiveDims) == 0 && value.Value.IsArray() {
		effectiveDims = []uint32{uint32(value.Value.ArrayLen())}
	}

	if !compatibleValueRankArrayDimensions(vb.ValueRank, len(effectiveDims)) {
		return statuscode.BadTypeMismatch
	}

	if !compatibleValueRanks(vb.ValueRank, typeVb.ValueRank) {
		return statuscode.BadTypeMismatch
	}

	if !compatibleArrayDimensions(typeVb.ArrayDimensions, effectiveDims) {
		return statuscode.BadTypeMismatch
	}

	if vb.ValueRank == ValueRankAny && value.Value.IsArray() {
		if status := s.writeValueRank(ctx, id, ValueRankScalarOrOneDimension); !status.IsGood() {
			return status
		}
	}

	return typeCheckValue(value, vb.DataType)
}

// compatibleDataType reports whether candidate is the wanted data type or
// one of its subtypes, walking DataType's HasSubtype hierarchy.
func (s *NodeStore) compatibleDataType(candidate, want nodeid.NodeId) bool {
	if want.IsNull() || candidate.Equal(want) {
		return true
	}
	return s.isSubtypeOfAny(candidate, []nodeid.NodeId{want})
}

// compatibleValueRankArrayDimensions reports whether a value carrying
// arrayLen dimensions is legal for a declared valueRank.
func compatibleValueRankArrayDimensions(valueRank int32, arrayLen int) bool {
	switch valueRank {
	case ValueRankScalarOrOneDimension:
		return arrayLen == 0 || arrayLen == 1
	case ValueRankScalar:
		return arrayLen == 0
	case ValueRankAny:
		return true
	default:
		if valueRank >= ValueRankOneDimension {
			return arrayLen == int(valueRank)
		}
		return false
	}
}

// compatibleValueRanks reports whether instanceRank satisfies the
// constraint imposed by typeRank: an instance left at the Any sentinel is
// always compatible (it is resolved by the later rank-upgrade step below);
// otherwise the type's rank, if fixed, must be matched exactly, and a
// ScalarOrOneDimension type rank widens to accept either Scalar or
// OneDimension on the instance.
func compatibleValueRanks(instanceRank, typeRank int32) bool {
	if instanceRank == ValueRankAny {
		return true
	}
	if typeRank == ValueRankAny {
		return true
	}
	if typeRank == instanceRank {
		return true
	}
	if typeRank == ValueRankScalarOrOneDimension {
		return instanceRank == ValueRankScalar || instanceRank == ValueRankOneDimension
	}
	return false
}

// writeValueRank persists an upgraded ValueRank on id through Edit, the
// only mutation path into the graph.
func (s *NodeStore) writeValueRank(ctx context.Context, id nodeid.NodeId, rank int32) statuscode.StatusCode {
	return s.Edit(ctx, id, func(_ context.Context, n *Node, _ any) statuscode.StatusCode {
		vb := n.variableBody()
		if vb == nil {
			return statuscode.BadNodeClassInvalid
		}
		vb.ValueRank = rank
		return statuscode.Good
	}, nil)
}

// compatibleArrayDimensions reports whether instance dimensions satisfy the
// type's constraint: a zero type dimension is unconstrained, any other
// must match exactly, and an unconstrained type (empty) always passes.
func compatibleArrayDimensions(typeDims, instanceDims []uint32) bool {
	if len(typeDims) == 0 {
		return true
	}
	if len(typeDims) != len(instanceDims) {
		return false
	}
	for i, want := range typeDims {
		if want != 0 && want != instanceDims[i] {
			return false
		}
	}
	return true
}

// typeCheckValue is the final step of the type check. It always returns
// Good: it does not inspect the value's shape or data type, and it does not
// coerce the value.
func typeCheckValue(value DataValue, dataType nodeid.NodeId) statuscode.StatusCode {
	if value.Value.Value == nil {
		return statuscode.Good
	}
	return statuscode.Good
}
