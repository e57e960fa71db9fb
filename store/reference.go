package store

import (
	"context"

	"xiaoshiai.cn/opcua/collections"
	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
)

// AddReferenceItem describes one half of a reference to add; the engine
// writes the forward direction and its mirror from a single item.
type AddReferenceItem struct {
	SourceId        nodeid.NodeId
	ReferenceTypeId nodeid.NodeId
	IsForward       bool
	TargetId        nodeid.ExpandedNodeId
}

// DeleteReferenceItem mirrors AddReferenceItem for deletion.
type DeleteReferenceItem struct {
	SourceId            nodeid.NodeId
	ReferenceTypeId      nodeid.NodeId
	IsForward            bool
	TargetId             nodeid.ExpandedNodeId
	DeleteBidirectional  bool
}

// addOneWay appends a single reference to node, growing the backing slice
// with geometric slack -- round capacity up to (n+1)|3 -- rather than
// relying on append's own growth curve, matching the source's intrusive
// list behavior.
func addOneWay(n *Node, ref Reference) {
	if len(n.References) == cap(n.References) {
		newCap := (len(n.References) + 1) | 3
		grown := make([]Reference, len(n.References), newCap)
		copy(grown, n.References)
		n.References = grown
	}
	n.References = append(n.References, ref)
}

// deleteOneWay removes the first reference on n matching
// (targetId, referenceTypeId, isForward), scanning in reverse and
// compacting by swapping the tail into the hole.
func deleteOneWay(n *Node, targetId nodeid.ExpandedNodeId, referenceTypeId nodeid.NodeId, isForward bool) statuscode.StatusCode {
	for i := len(n.References) - 1; i >= 0; i-- {
		ref := n.References[i]
		wantInverse := !isForward
		if ref.IsInverse != wantInverse {
			continue
		}
		if !ref.ReferenceTypeId.Equal(referenceTypeId) {
			continue
		}
		if !referenceTargetEqual(ref.TargetId, targetId) {
			continue
		}
		last := len(n.References) - 1
		n.References[i] = n.References[last]
		n.References = n.References[:last]
		return statuscode.Good
	}
	return statuscode.UncertainReferenceNotDeleted
}

func referenceTargetEqual(a, b nodeid.ExpandedNodeId) bool {
	return a.ServerIndex == b.ServerIndex && a.NodeId.Equal(b.NodeId)
}

// AddReferences_single writes the forward reference via Edit, then the
// mirror on the target with the role swapped and IsForward negated. If the
// mirror write fails, the forward reference is rolled back and the
// original error surfaces.
func (s *NodeStore) AddReferences_single(ctx context.Context, item AddReferenceItem) statuscode.StatusCode {
	sourceRef := Reference{
		ReferenceTypeId: item.ReferenceTypeId,
		TargetId:        item.TargetId,
		IsInverse:       !item.IsForward,
	}
	status := s.Edit(ctx, item.SourceId, func(_ context.Context, n *Node, _ any) statuscode.StatusCode {
		addOneWay(n, sourceRef)
		return statuscode.Good
	}, nil)
	if !status.IsGood() {
		return status
	}

	if !item.TargetId.IsLocal() {
		// Mirror lives on a remote server; nothing more to do locally.
		return statuscode.Good
	}

	mirrorRef := Reference{
		ReferenceTypeId: item.ReferenceTypeId,
		TargetId:        nodeid.Local(item.SourceId),
		IsInverse:       item.IsForward,
	}
	mirrorStatus := s.Edit(ctx, item.TargetId.NodeId, func(_ context.Context, n *Node, _ any) statuscode.StatusCode {
		addOneWay(n, mirrorRef)
		return statuscode.Good
	}, nil)
	if !mirrorStatus.IsGood() {
		// Roll back the forward reference we just wrote.
		_ = s.Edit(ctx, item.SourceId, func(_ context.Context, n *Node, _ any) statuscode.StatusCode {
			return deleteOneWay(n, item.TargetId, item.ReferenceTypeId, item.IsForward)
		}, nil)
		return mirrorStatus
	}
	return statuscode.Good
}

// DeleteReferences_single deletes source->target, and -- if
// DeleteBidirectional and the target is local -- the mirror as well.
func (s *NodeStore) DeleteReferences_single(ctx context.Context, item DeleteReferenceItem) statuscode.StatusCode {
	status := s.Edit(ctx, item.SourceId, func(_ context.Context, n *Node, _ any) statuscode.StatusCode {
		return deleteOneWay(n, item.TargetId, item.ReferenceTypeId, item.IsForward)
	}, nil)
	if !status.IsGood() {
		return status
	}
	if item.DeleteBidirectional && item.TargetId.IsLocal() {
		return s.Edit(ctx, item.TargetId.NodeId, func(_ context.Context, n *Node, _ any) statuscode.StatusCode {
			return deleteOneWay(n, nodeid.Local(item.SourceId), item.ReferenceTypeId, !item.IsForward)
		}, nil)
	}
	return statuscode.Good
}

// isNodeInTree walks upward from start -- following only the inverse
// (subtype-to-supertype) side of references whose type is a subtype of one
// of relationReferenceTypeIds -- returning true if any of roots is reached.
// Restricting the walk to the inverse direction, matching the direction
// isSubtypeOfRefType already uses, keeps it from crossing from one subtype
// branch to a sibling branch through their shared ancestor: an undirected
// walk would, e.g., reach HierarchicalReferences from a NonHierarchicalReferences
// subtype through their common supertype References.
func (s *NodeStore) isNodeInTree(start nodeid.NodeId, roots []nodeid.NodeId, relationReferenceTypeIds []nodeid.NodeId) bool {
	visited := collections.New[any]()
	queue := []nodeid.NodeId{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		key := cur.Key()
		if visited.Contains(key) {
			continue
		}
		visited.Insert(key)

		for _, root := range roots {
			if cur.Equal(root) {
				return true
			}
		}

		node, status := s.Get(cur)
		if !status.IsGood() {
			continue
		}
		for _, ref := range node.References {
			if !ref.IsInverse {
				continue
			}
			if !s.isSubtypeOfAny(ref.ReferenceTypeId, relationReferenceTypeIds) {
				continue
			}
			if !ref.TargetId.IsLocal() {
				continue
			}
			queue = append(queue, ref.TargetId.NodeId)
		}
	}
	return false
}

func (s *NodeStore) isSubtypeOfAny(candidate nodeid.NodeId, of []nodeid.NodeId) bool {
	for _, want := range of {
		if candidate.Equal(want) || s.isSubtypeOfRefType(candidate, want) {
			return true
		}
	}
	return false
}

// isSubtypeOfRefType walks candidate's HasSubtype-inverse chain (i.e.
// upward toward its supertypes) looking for of. This is the base relation
// isNodeInTree itself is built from, so it must not recurse back into it.
func (s *NodeStore) isSubtypeOfRefType(candidate nodeid.NodeId, of nodeid.NodeId) bool {
	visited := collections.New[any]()
	cur := candidate
	for {
		if cur.Equal(of) {
			return true
		}
		key := cur.Key()
		if visited.Contains(key) {
			return false
		}
		visited.Insert(key)

		node, status := s.Get(cur)
		if !status.IsGood() {
			return false
		}
		found := false
		for _, ref := range node.References {
			if ref.IsInverse && ref.ReferenceTypeId.Equal(nodeid.IdHasSubtype) && ref.TargetId.IsLocal() {
				cur = ref.TargetId.NodeId
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
}

// IsHierarchicalReferenceType reports whether refTypeId is HasSubtype of
// HierarchicalReferences (or is it).
func (s *NodeStore) IsHierarchicalReferenceType(refTypeId nodeid.NodeId) bool {
	return s.isNodeInTree(refTypeId, []nodeid.NodeId{nodeid.IdHierarchicalReferences}, []nodeid.NodeId{nodeid.IdHasSubtype})
}
