// Package nodemgmt implements the NodeManagement service (C5): two-phase
// AddNode with type instantiation, DeleteNodes with destructor cascade, and
// the editor callback dispatch used for every in-place node mutation.
package nodemgmt

import (
	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/store"
)

// AttributesKind tags which field of NodeAttributes is populated, replacing
// the wire-level type-pointer-identity comparison with an explicit tag a
// caller cannot get wrong by construction.
type AttributesKind uint8

const (
	AttributesUnspecified AttributesKind = iota
	ObjectAttributesKind
	VariableAttributesKind
	MethodAttributesKind
	ObjectTypeAttributesKind
	VariableTypeAttributesKind
	ReferenceTypeAttributesKind
	DataTypeAttributesKind
	ViewAttributesKind
)

type ObjectAttributes struct {
	DisplayName   nodeid.LocalizedText
	Description   nodeid.LocalizedText
	WriteMask     uint32
	EventNotifier byte
}

type VariableAttributes struct {
	DisplayName             nodeid.LocalizedText
	Description              nodeid.LocalizedText
	WriteMask                uint32
	DataType                 nodeid.NodeId
	ValueRank                int32
	ArrayDimensions           []uint32
	AccessLevel               byte
	MinimumSamplingInterval   float64
	Historizing               bool
	Value                     store.DataValue
}

type MethodAttributes struct {
	DisplayName nodeid.LocalizedText
	Description nodeid.LocalizedText
	WriteMask   uint32
	Executable  bool
}

type ObjectTypeAttributes struct {
	DisplayName nodeid.LocalizedText
	Description nodeid.LocalizedText
	WriteMask   uint32
	IsAbstract  bool
}

type VariableTypeAttributes struct {
	DisplayName     nodeid.LocalizedText
	Description     nodeid.LocalizedText
	WriteMask       uint32
	DataType        nodeid.NodeId
	ValueRank       int32
	ArrayDimensions []uint32
	Value           store.DataValue
	IsAbstract      bool
}

type ReferenceTypeAttributes struct {
	DisplayName nodeid.LocalizedText
	Description nodeid.LocalizedText
	WriteMask   uint32
	IsAbstract  bool
	Symmetric   bool
	InverseName nodeid.LocalizedText
}

type DataTypeAttributes struct {
	DisplayName nodeid.LocalizedText
	Description nodeid.LocalizedText
	WriteMask   uint32
	IsAbstract  bool
}

type ViewAttributes struct {
	DisplayName     nodeid.LocalizedText
	Description     nodeid.LocalizedText
	WriteMask       uint32
	ContainsNoLoops bool
	EventNotifier   byte
}

// NodeAttributes is the attribute payload catalog: a tagged union
// discriminated by Kind, one pointer field per node class.
type NodeAttributes struct {
	Kind AttributesKind

	Object         *ObjectAttributes
	Variable       *VariableAttributes
	Method         *MethodAttributes
	ObjectType     *ObjectTypeAttributes
	VariableType   *VariableTypeAttributes
	ReferenceType  *ReferenceTypeAttributes
	DataType       *DataTypeAttributes
	View           *ViewAttributes
}

// kindForClass is the expected AttributesKind for each NodeClass, used to
// detect a mismatched tag.
func kindForClass(class store.NodeClass) AttributesKind {
	switch class {
	case store.Object:
		return ObjectAttributesKind
	case store.Variable:
		return VariableAttributesKind
	case store.Method:
		return MethodAttributesKind
	case store.ObjectType:
		return ObjectTypeAttributesKind
	case store.VariableType:
		return VariableTypeAttributesKind
	case store.ReferenceType:
		return ReferenceTypeAttributesKind
	case store.DataType:
		return DataTypeAttributesKind
	case store.View:
		return ViewAttributesKind
	default:
		return AttributesUnspecified
	}
}
