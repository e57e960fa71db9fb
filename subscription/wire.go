package subscription

import (
	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
)

// CreateSubscriptionRequest/Response model the createSubscription exchange.
type CreateSubscriptionRequest struct {
	Settings SubscriptionSettings
}

type CreateSubscriptionResponse struct {
	ServiceResult              statuscode.StatusCode
	SubscriptionId              uint32
	RevisedPublishingInterval   float64
	RevisedLifetimeCount        uint32
	RevisedMaxKeepAliveCount    uint32
}

// CreateMonitoredItemsRequest/Response model the createMonitoredItems
// exchange. Filter carries the EventFilter extension
// object for an event-mode item; nil for data-change.
type MonitoredItemCreateRequest struct {
	NodeId             nodeid.NodeId
	AttributeId        uint32
	MonitoringMode     MonitoringMode
	SamplingInterval   float64
	QueueSize          uint32
	DiscardOldest      bool
	Filter             any
}

type CreateMonitoredItemsRequest struct {
	SubscriptionId uint32
	ItemsToCreate  []MonitoredItemCreateRequest
}

type MonitoredItemCreateResult struct {
	StatusCode              statuscode.StatusCode
	MonitoredItemId         uint32
	RevisedSamplingInterval float64
	RevisedQueueSize        uint32
}

type CreateMonitoredItemsResponse struct {
	ServiceResult statuscode.StatusCode
	Results       []MonitoredItemCreateResult
}

// DeleteMonitoredItemsRequest/Response model deleteMonitoredItems.
type DeleteMonitoredItemsRequest struct {
	SubscriptionId   uint32
	MonitoredItemIds []uint32
}

type DeleteMonitoredItemsResponse struct {
	ServiceResult statuscode.StatusCode
	Results       []statuscode.StatusCode
}

// DeleteSubscriptionsRequest/Response model deleteSubscriptions.
type DeleteSubscriptionsRequest struct {
	SubscriptionIds []uint32
}

type DeleteSubscriptionsResponse struct {
	ServiceResult statuscode.StatusCode
	Results       []statuscode.StatusCode
}

// PublishRequest/Response model the long-poll publish exchange.
type PublishRequest struct {
	SubscriptionAcknowledgements []PendingAck
}

// MonitoredItemNotification is one entry of a DataChangeNotification.
type MonitoredItemNotification struct {
	ClientHandle uint32
	Value        DataValue
}

type DataChangeNotification struct {
	MonitoredItems []MonitoredItemNotification
}

// EventFieldList is one entry of an EventNotificationList.
type EventFieldList struct {
	ClientHandle uint32
	EventFields  []Variant
}

type EventNotificationList struct {
	Events []EventFieldList
}

// NotificationMessage carries a sequence number and a heterogeneous list
// of decoded notification bodies -- DataChangeNotification or
// EventNotificationList -- exactly as the wire decodes them.
type NotificationMessage struct {
	SequenceNumber   uint32
	NotificationData []any
}

type PublishResponse struct {
	ServiceResult       statuscode.StatusCode
	SubscriptionId       uint32
	AvailableSequenceNumbers []uint32
	MoreNotifications    bool
	NotificationMessage  NotificationMessage
	Results              []statuscode.StatusCode
}
