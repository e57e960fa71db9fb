// Package nodeid implements the namespaced identifiers used throughout the
// address space: NodeId, its expanded (cross-server) form, and the
// QualifiedName used for BrowseName/displayName-adjacent fields.
package nodeid

import (
	"fmt"

	"github.com/google/uuid"
)

// IdentifierType discriminates which field of NodeId is meaningful.
type IdentifierType uint8

const (
	Numeric IdentifierType = iota
	String
	Guid
	Opaque
)

// NodeId is process-wide unique once assigned: (namespaceIndex, identifier).
// Only one of Numeric/StringID/GuidID/OpaqueID is meaningful, selected by Type.
type NodeId struct {
	NamespaceIndex uint16
	Type           IdentifierType
	Numeric        uint32
	StringID       string
	GuidID         uuid.UUID
	OpaqueID       []byte
}

// Null is the distinguished empty NodeId. Passing it to Store.Insert means
// "allocate an id for me".
var Null = NodeId{}

func (n NodeId) IsNull() bool {
	return n.Equal(Null)
}

// IsZeroNumeric reports whether n is a numeric identifier of 0, the
// allocate-for-me sentinel recognised by Store.Insert regardless of
// namespace index.
func (n NodeId) IsZeroNumeric() bool {
	return n.Type == Numeric && n.Numeric == 0
}

func NewNumeric(ns uint16, id uint32) NodeId {
	return NodeId{NamespaceIndex: ns, Type: Numeric, Numeric: id}
}

func NewString(ns uint16, id string) NodeId {
	return NodeId{NamespaceIndex: ns, Type: String, StringID: id}
}

func NewGuid(ns uint16, id uuid.UUID) NodeId {
	return NodeId{NamespaceIndex: ns, Type: Guid, GuidID: id}
}

func NewOpaque(ns uint16, id []byte) NodeId {
	return NodeId{NamespaceIndex: ns, Type: Opaque, OpaqueID: append([]byte(nil), id...)}
}

// Equal compares two NodeIds by value; byte slices are compared by content.
func (n NodeId) Equal(other NodeId) bool {
	if n.NamespaceIndex != other.NamespaceIndex || n.Type != other.Type {
		return false
	}
	switch n.Type {
	case Numeric:
		return n.Numeric == other.Numeric
	case String:
		return n.StringID == other.StringID
	case Guid:
		return n.GuidID == other.GuidID
	case Opaque:
		if len(n.OpaqueID) != len(other.OpaqueID) {
			return false
		}
		for i := range n.OpaqueID {
			if n.OpaqueID[i] != other.OpaqueID[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Key returns a comparable value suitable for use as a map key, since
// NodeId itself is not comparable when it carries an Opaque identifier.
func (n NodeId) Key() any {
	switch n.Type {
	case Numeric:
		return fmt.Sprintf("%d:n:%d", n.NamespaceIndex, n.Numeric)
	case String:
		return fmt.Sprintf("%d:s:%s", n.NamespaceIndex, n.StringID)
	case Guid:
		return fmt.Sprintf("%d:g:%s", n.NamespaceIndex, n.GuidID)
	case Opaque:
		return fmt.Sprintf("%d:o:%s", n.NamespaceIndex, string(n.OpaqueID))
	default:
		return fmt.Sprintf("%d:?", n.NamespaceIndex)
	}
}

func (n NodeId) String() string {
	switch n.Type {
	case Numeric:
		return fmt.Sprintf("ns=%d;i=%d", n.NamespaceIndex, n.Numeric)
	case String:
		return fmt.Sprintf("ns=%d;s=%s", n.NamespaceIndex, n.StringID)
	case Guid:
		return fmt.Sprintf("ns=%d;g=%s", n.NamespaceIndex, n.GuidID)
	case Opaque:
		return fmt.Sprintf("ns=%d;b=%x", n.NamespaceIndex, n.OpaqueID)
	default:
		return fmt.Sprintf("ns=%d;?", n.NamespaceIndex)
	}
}

// ExpandedNodeId additionally carries the server the id belongs to: a
// serverIndex of 0 means the local server. Reference targets are always
// expanded ids so that a reference can, in principle, point off-box.
type ExpandedNodeId struct {
	NodeId      NodeId
	NamespaceURI string
	ServerIndex  uint32
}

func Local(id NodeId) ExpandedNodeId {
	return ExpandedNodeId{NodeId: id}
}

func (e ExpandedNodeId) IsLocal() bool {
	return e.ServerIndex == 0
}

// QualifiedName is (namespaceIndex, name): used for BrowseName, unique
// among the aggregated children of a given parent.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

func (q QualifiedName) Equal(other QualifiedName) bool {
	return q.NamespaceIndex == other.NamespaceIndex && q.Name == other.Name
}

func (q QualifiedName) String() string {
	return fmt.Sprintf("%d:%s", q.NamespaceIndex, q.Name)
}

// LocalizedText is the minimal displayName/description carrier.
type LocalizedText struct {
	Locale string
	Text   string
}
