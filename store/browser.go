package store

import (
	"xiaoshiai.cn/opcua/collections"
	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
)

type BrowseDirection uint8

const (
	BrowseForward BrowseDirection = iota
	BrowseInverse
	BrowseBoth
)

// BrowseDescription selects a filtered slice of a single source node's
// reference list.
type BrowseDescription struct {
	NodeId          nodeid.NodeId
	ReferenceTypeId nodeid.NodeId
	IncludeSubtypes bool
	Direction       BrowseDirection
	NodeClassMask   NodeClassMask
}

// ReferenceDescription projects a Reference together with the target's
// class and name, as returned to a Browse caller.
type ReferenceDescription struct {
	ReferenceTypeId nodeid.NodeId
	IsForward       bool
	TargetId        nodeid.ExpandedNodeId
	BrowseName      nodeid.QualifiedName
	DisplayName     nodeid.LocalizedText
	TargetClass     NodeClass
}

type BrowseResult struct {
	References []ReferenceDescription
	Status     statuscode.StatusCode
}

// Browse is the exported entry point for a single BrowseDescription,
// wrapping browseSingle for callers outside this package.
func (s *NodeStore) Browse(desc BrowseDescription) BrowseResult {
	return s.browseSingle(desc)
}

// browseSingle walks the source node's reference list, filtered by
// (referenceTypeId + includeSubtypes via isNodeInTree, direction,
// nodeClassMask), and projects the requested fields for each match.
func (s *NodeStore) browseSingle(desc BrowseDescription) BrowseResult {
	source, status := s.Get(desc.NodeId)
	if !status.IsGood() {
		return BrowseResult{Status: status}
	}

	out := make([]ReferenceDescription, 0, len(source.References))
	for _, ref := range source.References {
		if !directionMatches(desc.Direction, ref.IsInverse) {
			continue
		}
		if !desc.ReferenceTypeId.IsNull() {
			if desc.IncludeSubtypes {
				if !s.isSubtypeOfAny(ref.ReferenceTypeId, []nodeid.NodeId{desc.ReferenceTypeId}) {
					continue
				}
			} else if !ref.ReferenceTypeId.Equal(desc.ReferenceTypeId) {
				continue
			}
		}

		rd := ReferenceDescription{
			ReferenceTypeId: ref.ReferenceTypeId,
			IsForward:       !ref.IsInverse,
			TargetId:        ref.TargetId,
		}
		if ref.TargetId.IsLocal() {
			target, tstatus := s.Get(ref.TargetId.NodeId)
			if tstatus.IsGood() {
				if !desc.NodeClassMask.Matches(target.Class) {
					continue
				}
				rd.BrowseName = target.BrowseName
				rd.DisplayName = target.DisplayName
				rd.TargetClass = target.Class
			}
		}
		out = append(out, rd)
	}
	return BrowseResult{References: out, Status: statuscode.Good}
}

func directionMatches(want BrowseDirection, isInverse bool) bool {
	switch want {
	case BrowseForward:
		return !isInverse
	case BrowseInverse:
		return isInverse
	default:
		return true
	}
}

// AggregatedChildren enumerates the Aggregates-or-subtype forward
// references of typeId or instanceId, i.e. the children instantiation
// copies from a type, or that already exist on an instance.
func (s *NodeStore) AggregatedChildren(id nodeid.NodeId) []ReferenceDescription {
	return s.browseSingle(BrowseDescription{
		NodeId:          id,
		ReferenceTypeId: nodeid.IdAggregates,
		IncludeSubtypes: true,
		Direction:       BrowseForward,
		NodeClassMask:   NodeClassMaskAll,
	}).References
}

// TypeDefinition returns the HasTypeDefinition target of id, if any.
func (s *NodeStore) TypeDefinition(id nodeid.NodeId) (nodeid.NodeId, bool) {
	refs := s.browseSingle(BrowseDescription{
		NodeId:          id,
		ReferenceTypeId: nodeid.IdHasTypeDefinition,
		IncludeSubtypes: false,
		Direction:       BrowseForward,
		NodeClassMask:   NodeClassMaskAll,
	}).References
	if len(refs) == 0 {
		return nodeid.Null, false
	}
	return refs[0].TargetId.NodeId, true
}

// Supertype returns the immediate HasSubtype-inverse target of id -- id's
// direct supertype -- if any.
func (s *NodeStore) Supertype(id nodeid.NodeId) (nodeid.NodeId, bool) {
	refs := s.browseSingle(BrowseDescription{
		NodeId:          id,
		ReferenceTypeId: nodeid.IdHasSubtype,
		IncludeSubtypes: false,
		Direction:       BrowseInverse,
		NodeClassMask:   NodeClassMaskAll,
	}).References
	if len(refs) == 0 {
		return nodeid.Null, false
	}
	return refs[0].TargetId.NodeId, true
}

// Subtypes returns the immediate HasSubtype-forward targets of id -- its
// direct subtypes.
func (s *NodeStore) Subtypes(id nodeid.NodeId) []nodeid.NodeId {
	refs := s.browseSingle(BrowseDescription{
		NodeId:          id,
		ReferenceTypeId: nodeid.IdHasSubtype,
		IncludeSubtypes: false,
		Direction:       BrowseForward,
		NodeClassMask:   NodeClassMaskAll,
	}).References
	out := make([]nodeid.NodeId, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.TargetId.NodeId)
	}
	return out
}

// GetTypeHierarchy walks typeId's supertype chain up to the root,
// returning it leaves-first: typeId itself, then its supertype, and so on.
// Only the first supertype reference of each type is followed; a type with
// several supertypes contributes just one of them to the chain.
func (s *NodeStore) GetTypeHierarchy(typeId nodeid.NodeId) []nodeid.NodeId {
	hierarchy := []nodeid.NodeId{typeId}
	visited := collections.New[any](typeId.Key())
	cur := typeId
	for {
		parent, ok := s.Supertype(cur)
		if !ok || visited.Contains(parent.Key()) {
			break
		}
		hierarchy = append(hierarchy, parent)
		visited.Insert(parent.Key())
		cur = parent
	}
	return hierarchy
}
