// Package store implements the server-side address space: the typed,
// richly-referenced graph of nodes together with the reference engine, the
// type checker and the filtered browser used to walk it.
//
// The only mutation path into the graph is NodeStore.Edit: every other
// write in this package and in nodemgmt goes through it.
package store

import (
	"context"
	"time"

	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
)

// NodeClass discriminates the variant body carried by a Node.
type NodeClass uint8

const (
	ClassUnspecified NodeClass = iota
	Object
	Variable
	Method
	ObjectType
	VariableType
	ReferenceType
	DataType
	View
)

func (c NodeClass) String() string {
	switch c {
	case Object:
		return "Object"
	case Variable:
		return "Variable"
	case Method:
		return "Method"
	case ObjectType:
		return "ObjectType"
	case VariableType:
		return "VariableType"
	case ReferenceType:
		return "ReferenceType"
	case DataType:
		return "DataType"
	case View:
		return "View"
	default:
		return "Unspecified"
	}
}

// NodeClassMask is the bitmask Browse uses to restrict which classes of
// target node are returned; bit positions follow NodeClass order.
type NodeClassMask uint32

const NodeClassMaskAll NodeClassMask = 0xFFFFFFFF

func (m NodeClassMask) Matches(c NodeClass) bool {
	if m == 0 {
		return true
	}
	return m&(1<<uint(c-1)) != 0
}

// ValueRank sentinels, named as the type checker refers to them.
const (
	ValueRankScalarOrOneDimension int32 = -2
	ValueRankScalar               int32 = -1
	ValueRankAny                  int32 = 0
	ValueRankOneDimension         int32 = 1
)

// Variant is a decoded attribute value: a scalar or an array of scalars.
type Variant struct {
	Value any
}

func (v Variant) IsArray() bool {
	switch v.Value.(type) {
	case []any:
		return true
	default:
		return false
	}
}

// ArrayLen returns the array length, or 0 for a scalar variant.
func (v Variant) ArrayLen() int {
	if arr, ok := v.Value.([]any); ok {
		return len(arr)
	}
	return 0
}

// DataValue is a value together with its status and timestamps, the shape
// every Read/Write and data-source exchange passes across.
type DataValue struct {
	Value           Variant
	Status          statuscode.StatusCode
	SourceTimestamp time.Time
	ServerTimestamp time.Time
}

// Reference is one edge of the graph, stored on its source node.
type Reference struct {
	ReferenceTypeId nodeid.NodeId
	TargetId        nodeid.ExpandedNodeId
	IsInverse       bool
}

// ValueCallback lets a caller observe reads/writes of an embedded value
// without taking over storage of the value itself.
type ValueCallback struct {
	OnRead  func(ctx context.Context, id nodeid.NodeId)
	OnWrite func(ctx context.Context, id nodeid.NodeId, value DataValue)
}

// DataSource replaces the embedded value entirely: reads and writes are
// forwarded to user code instead of touching stored state.
type DataSource struct {
	Read  func(ctx context.Context, id nodeid.NodeId, userContext any) (DataValue, statuscode.StatusCode)
	Write func(ctx context.Context, id nodeid.NodeId, userContext any, value DataValue) statuscode.StatusCode
}

type ValueSourceKind uint8

const (
	ValueSourceEmbedded ValueSourceKind = iota
	ValueSourceDataSource
)

// VariableBody is shared, field-for-field, by Variable and VariableType
// nodes; only IsAbstract (VariableType-only) lives outside it.
type VariableBody struct {
	DataType                nodeid.NodeId
	ValueRank               int32
	ArrayDimensions         []uint32
	AccessLevel             byte
	Historizing             bool
	MinimumSamplingInterval float64
	ValueSource             ValueSourceKind
	Value                   DataValue
	ValueCallback           *ValueCallback
	DataSource              *DataSource
}

func (b *VariableBody) ReadValue(ctx context.Context, id nodeid.NodeId, userContext any) (DataValue, statuscode.StatusCode) {
	if b.ValueSource == ValueSourceDataSource && b.DataSource != nil {
		return b.DataSource.Read(ctx, id, userContext)
	}
	if b.ValueCallback != nil && b.ValueCallback.OnRead != nil {
		b.ValueCallback.OnRead(ctx, id)
	}
	return b.Value, statuscode.Good
}

type VariableTypeBody struct {
	VariableBody
	IsAbstract bool
}

// LifecycleManagement is the pair of user hooks invoked on instantiation
// and destruction of an Object created from this ObjectType.
type LifecycleManagement struct {
	Constructor func(ctx context.Context, id nodeid.NodeId) (instanceHandle any, status statuscode.StatusCode)
	Destructor  func(ctx context.Context, id nodeid.NodeId, instanceHandle any)
}

type ObjectTypeBody struct {
	IsAbstract bool
	Lifecycle  LifecycleManagement
}

type ReferenceTypeBody struct {
	IsAbstract  bool
	Symmetric   bool
	InverseName nodeid.LocalizedText
}

type DataTypeBody struct {
	IsAbstract bool
}

type ViewBody struct {
	ContainsNoLoops bool
	EventNotifier   byte
}

type ObjectBody struct {
	EventNotifier  byte
	InstanceHandle any
}

// MethodCallback implements a callable Method node.
type MethodCallback func(ctx context.Context, id nodeid.NodeId, userContext any, inArgs []Variant) ([]Variant, statuscode.StatusCode)

type MethodBody struct {
	Executable  bool
	Callback    MethodCallback
	UserContext any
}

// Node is the sum type described by the data model: a common header plus
// exactly one non-nil variant body, selected by Class.
type Node struct {
	NodeId      nodeid.NodeId
	Class       NodeClass
	BrowseName  nodeid.QualifiedName
	DisplayName nodeid.LocalizedText
	Description nodeid.LocalizedText
	WriteMask   uint32
	References  []Reference

	VariableBody      *VariableBody
	VariableTypeBody  *VariableTypeBody
	ObjectTypeBody    *ObjectTypeBody
	ReferenceTypeBody *ReferenceTypeBody
	DataTypeBody      *DataTypeBody
	ViewBody          *ViewBody
	ObjectBody        *ObjectBody
	MethodBody        *MethodBody
}

// NewNode allocates the zero-value node for the requested class, with its
// single variant body pre-populated so callers can fill it in directly.
func NewNode(class NodeClass) *Node {
	n := &Node{Class: class}
	switch class {
	case Object:
		n.ObjectBody = &ObjectBody{}
	case Variable:
		n.VariableBody = &VariableBody{}
	case Method:
		n.MethodBody = &MethodBody{}
	case ObjectType:
		n.ObjectTypeBody = &ObjectTypeBody{}
	case VariableType:
		n.VariableTypeBody = &VariableTypeBody{}
	case ReferenceType:
		n.ReferenceTypeBody = &ReferenceTypeBody{}
	case DataType:
		n.DataTypeBody = &DataTypeBody{}
	case View:
		n.ViewBody = &ViewBody{}
	}
	return n
}

// Clone returns a deep copy safe to mutate outside the store, used by
// getCopy and by instantiation's deep-copy-then-insert step.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.References = append([]Reference(nil), n.References...)

	if n.VariableBody != nil {
		vb := *n.VariableBody
		vb.ArrayDimensions = append([]uint32(nil), n.VariableBody.ArrayDimensions...)
		c.VariableBody = &vb
	}
	if n.VariableTypeBody != nil {
		vtb := *n.VariableTypeBody
		vtb.ArrayDimensions = append([]uint32(nil), n.VariableTypeBody.ArrayDimensions...)
		c.VariableTypeBody = &vtb
	}
	if n.ObjectTypeBody != nil {
		otb := *n.ObjectTypeBody
		c.ObjectTypeBody = &otb
	}
	if n.ReferenceTypeBody != nil {
		rtb := *n.ReferenceTypeBody
		c.ReferenceTypeBody = &rtb
	}
	if n.DataTypeBody != nil {
		dtb := *n.DataTypeBody
		c.DataTypeBody = &dtb
	}
	if n.ViewBody != nil {
		vb := *n.ViewBody
		c.ViewBody = &vb
	}
	if n.ObjectBody != nil {
		ob := *n.ObjectBody
		c.ObjectBody = &ob
	}
	if n.MethodBody != nil {
		mb := *n.MethodBody
		c.MethodBody = &mb
	}
	return &c
}

// variableBody returns the Variable/VariableType value-bearing fields
// common to both, or nil if n carries neither.
func (n *Node) variableBody() *VariableBody {
	switch {
	case n.VariableBody != nil:
		return n.VariableBody
	case n.VariableTypeBody != nil:
		return &n.VariableTypeBody.VariableBody
	default:
		return nil
	}
}

// IsAbstract reports whether n is a type node marked abstract; a concrete
// (non-type) node is never abstract.
func (n *Node) IsAbstract() bool {
	switch n.Class {
	case ObjectType:
		return n.ObjectTypeBody.IsAbstract
	case VariableType:
		return n.VariableTypeBody.IsAbstract
	case ReferenceType:
		return n.ReferenceTypeBody.IsAbstract
	case DataType:
		return n.DataTypeBody.IsAbstract
	default:
		return false
	}
}

// IsTypeNode reports whether n's class is one of the four type classes,
// which may only connect to their supertype via HasSubtype.
func (n *Node) IsTypeNode() bool {
	switch n.Class {
	case ObjectType, VariableType, ReferenceType, DataType:
		return true
	default:
		return false
	}
}
