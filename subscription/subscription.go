// Package subscription implements the client-side subscription/publish
// engine (C6): Subscription and MonitoredItem lifecycle, the Publish loop,
// the acknowledgement ledger, and client-handle-based notification demux.
package subscription

import (
	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
)

type MonitoringMode uint8

const (
	Disabled MonitoringMode = iota
	Sampling
	Reporting
)

// MonitoredItemKind discriminates DataChange vs Event monitoring.
type MonitoredItemKind uint8

const (
	DataChangeKind MonitoredItemKind = iota
	EventKind
)

// DataChangeHandler is invoked with the id of the reporting item and its
// new value.
type DataChangeHandler func(monitoredItemId uint32, value DataValue)

// EventHandler is invoked with the id of the reporting item and the
// decoded select-clause field array.
type EventHandler func(monitoredItemId uint32, fields []Variant)

// Variant and DataValue mirror store's, kept distinct so this package does
// not need to import the server-side node model to describe wire payloads.
type Variant struct {
	Value any
}

type DataValue struct {
	Value  Variant
	Status statuscode.StatusCode
}

// MonitoredItem is a server-side sampler of one attribute of one node,
// identified on the wire by MonitoredItemId and on the client by an
// internally-allocated ClientHandle.
type MonitoredItem struct {
	MonitoredItemId  uint32
	ClientHandle     uint32
	NodeId           nodeid.NodeId
	AttributeId      uint32
	SamplingInterval float64
	QueueSize        uint32
	DiscardOldest    bool
	MonitoringMode   MonitoringMode
	Kind             MonitoredItemKind
	DataChange       DataChangeHandler
	Event            EventHandler

	SelectClauses []any
	WhereClauses  []any
}

// Subscription holds one server-side subscription and the monitored items
// multiplexed onto it.
type Subscription struct {
	SubscriptionId             uint32
	PublishingInterval         float64
	Lifetime                   uint32
	KeepAliveCount             uint32
	MaxNotificationsPerPublish uint32
	Priority                   byte
	MonitoredItems             map[uint32]*MonitoredItem
}

// PendingAck is one entry of the client's acknowledgement ledger: a
// notification message the server must stop retransmitting once the next
// Publish request echoes it back.
type PendingAck struct {
	SubscriptionId uint32
	SequenceNumber uint32
}

// SubscriptionSettings is the requested configuration passed to
// CreateSubscription; the server's revised values are what is actually
// stored.
type SubscriptionSettings struct {
	RequestedPublishingInterval float64
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount  uint32
	MaxNotificationsPerPublish  uint32
	Priority                    byte
}
