package store

import (
	"context"
	"testing"

	"xiaoshiai.cn/opcua/nodeid"
)

func TestBrowseFiltersByDirectionAndClass(t *testing.T) {
	s := New()
	ctx := context.Background()
	parent := insertHelper(t, s, Object, nodeid.NewNumeric(0, 1))
	child := insertHelper(t, s, Variable, nodeid.NewNumeric(0, 2))

	if status := s.AddReferences_single(ctx, AddReferenceItem{
		SourceId: parent, ReferenceTypeId: nodeid.IdOrganizes, IsForward: true, TargetId: nodeid.Local(child),
	}); !status.IsGood() {
		t.Fatalf("add reference failed: %v", status)
	}

	fwd := s.Browse(BrowseDescription{
		NodeId: parent, ReferenceTypeId: nodeid.IdOrganizes, Direction: BrowseForward, NodeClassMask: NodeClassMaskAll,
	})
	if len(fwd.References) != 1 || fwd.References[0].TargetClass != Variable {
		t.Fatalf("expected one forward Variable reference, got %+v", fwd.References)
	}

	inv := s.Browse(BrowseDescription{
		NodeId: parent, ReferenceTypeId: nodeid.IdOrganizes, Direction: BrowseInverse, NodeClassMask: NodeClassMaskAll,
	})
	if len(inv.References) != 0 {
		t.Fatalf("expected no inverse references on the parent side, got %+v", inv.References)
	}

	mask := NodeClassMask(1 << uint(Object-1))
	masked := s.Browse(BrowseDescription{
		NodeId: parent, Direction: BrowseForward, NodeClassMask: mask,
	})
	if len(masked.References) != 0 {
		t.Fatalf("expected Variable target to be filtered out by an Object-only mask, got %+v", masked.References)
	}
}

func TestGetTypeHierarchyIsLeavesFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	root := insertHelper(t, s, ObjectType, nodeid.NewNumeric(0, 10))
	mid := insertHelper(t, s, ObjectType, nodeid.NewNumeric(0, 11))
	leaf := insertHelper(t, s, ObjectType, nodeid.NewNumeric(0, 12))

	_ = s.AddReferences_single(ctx, AddReferenceItem{SourceId: root, ReferenceTypeId: nodeid.IdHasSubtype, IsForward: true, TargetId: nodeid.Local(mid)})
	_ = s.AddReferences_single(ctx, AddReferenceItem{SourceId: mid, ReferenceTypeId: nodeid.IdHasSubtype, IsForward: true, TargetId: nodeid.Local(leaf)})

	hierarchy := s.GetTypeHierarchy(leaf)
	want := []nodeid.NodeId{leaf, mid, root}
	if len(hierarchy) != len(want) {
		t.Fatalf("expected %d entries, got %v", len(want), hierarchy)
	}
	for i, w := range want {
		if !hierarchy[i].Equal(w) {
			t.Fatalf("hierarchy[%d] = %v, want %v", i, hierarchy[i], w)
		}
	}
}
