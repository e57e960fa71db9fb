package subscription

import (
	"context"
	"fmt"
	"time"

	"xiaoshiai.cn/opcua/log"
	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/statuscode"
	"xiaoshiai.cn/opcua/transport"
)

// ClientConfig is the client-side configuration the Publish loop consults.
type ClientConfig struct {
	Timeout time.Duration
}

// Client multiplexes Subscriptions and their MonitoredItems onto one
// transport, driving the Publish loop and maintaining the ack ledger.
// Every field here is touched only from the loop's own goroutine -- the
// client is single-threaded cooperative.
type Client struct {
	Transport transport.Transport
	Config    ClientConfig

	Subscriptions map[uint32]*Subscription
	PendingAcks   []PendingAck

	nextClientHandle uint32
}

func NewClient(t transport.Transport, config ClientConfig) *Client {
	return &Client{
		Transport:     t,
		Config:        config,
		Subscriptions: make(map[uint32]*Subscription),
	}
}

func (c *Client) allocateClientHandle() uint32 {
	c.nextClientHandle++
	return c.nextClientHandle
}

// CreateSubscription issues CreateSubscription and stores the revised
// (not requested) lifetime/keepalive/interval the server returns.
func (c *Client) CreateSubscription(ctx context.Context, settings SubscriptionSettings) (uint32, statuscode.StatusCode) {
	resp, err := c.Transport.Exchange(ctx, transport.CreateSubscription, CreateSubscriptionRequest{Settings: settings})
	if err != nil {
		return 0, statuscode.BadServerNotConnected
	}
	r, ok := resp.(CreateSubscriptionResponse)
	if !ok {
		return 0, statuscode.BadUnexpectedError
	}
	if !r.ServiceResult.IsGood() {
		return 0, r.ServiceResult
	}

	sub := &Subscription{
		SubscriptionId:             r.SubscriptionId,
		PublishingInterval:         r.RevisedPublishingInterval,
		Lifetime:                   r.RevisedLifetimeCount,
		KeepAliveCount:             r.RevisedMaxKeepAliveCount,
		MaxNotificationsPerPublish: settings.MaxNotificationsPerPublish,
		Priority:                   settings.Priority,
		MonitoredItems:             make(map[uint32]*MonitoredItem),
	}
	c.Subscriptions[sub.SubscriptionId] = sub
	return sub.SubscriptionId, statuscode.Good
}

// AddMonitoredItem allocates the next clientHandle and sends
// CreateMonitoredItems with {mode=Reporting, queueSize=1,
// discardOldest=true}. The item is registered only if both the service
// result and the per-item status code are Good.
func (c *Client) AddMonitoredItem(ctx context.Context, subId uint32, id nodeid.NodeId, attributeId uint32, handler DataChangeHandler, samplingInterval float64) (uint32, statuscode.StatusCode) {
	sub, ok := c.Subscriptions[subId]
	if !ok {
		return 0, statuscode.BadSubscriptionIdInvalid
	}

	handle := c.allocateClientHandle()
	req := CreateMonitoredItemsRequest{
		SubscriptionId: subId,
		ItemsToCreate: []MonitoredItemCreateRequest{{
			NodeId:           id,
			AttributeId:      attributeId,
			MonitoringMode:   Reporting,
			SamplingInterval: samplingInterval,
			QueueSize:        1,
			DiscardOldest:    true,
		}},
	}

	monitoredItemId, status := c.createMonitoredItem(ctx, req)
	if !status.IsGood() {
		return 0, status
	}

	sub.MonitoredItems[monitoredItemId] = &MonitoredItem{
		MonitoredItemId:  monitoredItemId,
		ClientHandle:     handle,
		NodeId:           id,
		AttributeId:      attributeId,
		SamplingInterval: samplingInterval,
		QueueSize:        1,
		DiscardOldest:    true,
		MonitoringMode:   Reporting,
		Kind:             DataChangeKind,
		DataChange:       handler,
	}
	return monitoredItemId, statuscode.Good
}

// AddMonitoredEvent variant carries an EventFilter extension object in the
// request item's Filter field; sampling 0, discardOldest=false.
func (c *Client) AddMonitoredEvent(ctx context.Context, subId uint32, id nodeid.NodeId, attributeId uint32, selectClauses, whereClauses []any, handler EventHandler) (uint32, statuscode.StatusCode) {
	sub, ok := c.Subscriptions[subId]
	if !ok {
		return 0, statuscode.BadSubscriptionIdInvalid
	}

	handle := c.allocateClientHandle()
	filter := struct {
		SelectClauses []any
		WhereClauses  []any
	}{selectClauses, whereClauses}

	req := CreateMonitoredItemsRequest{
		SubscriptionId: subId,
		ItemsToCreate: []MonitoredItemCreateRequest{{
			NodeId:           id,
			AttributeId:      attributeId,
			MonitoringMode:   Reporting,
			SamplingInterval: 0,
			QueueSize:        1,
			DiscardOldest:    false,
			Filter:           filter,
		}},
	}

	monitoredItemId, status := c.createMonitoredItem(ctx, req)
	if !status.IsGood() {
		return 0, status
	}

	sub.MonitoredItems[monitoredItemId] = &MonitoredItem{
		MonitoredItemId: monitoredItemId,
		ClientHandle:    handle,
		NodeId:          id,
		AttributeId:     attributeId,
		QueueSize:       1,
		DiscardOldest:   false,
		MonitoringMode:  Reporting,
		Kind:            EventKind,
		Event:           handler,
		SelectClauses:   selectClauses,
		WhereClauses:    whereClauses,
	}
	return monitoredItemId, statuscode.Good
}

// createMonitoredItem is shared by AddMonitoredItem/AddMonitoredEvent: it
// sends the request and applies the create-response dispatch rule --
// resultsSize==0 maps to the service result, resultsSize==1 to the
// per-item status code, resultsSize>1 is BadUnexpectedError -- releasing
// the allocation cleanly on any failure.
func (c *Client) createMonitoredItem(ctx context.Context, req CreateMonitoredItemsRequest) (uint32, statuscode.StatusCode) {
	resp, err := c.Transport.Exchange(ctx, transport.CreateMonitoredItems, req)
	if err != nil {
		return 0, statuscode.BadServerNotConnected
	}
	r, ok := resp.(CreateMonitoredItemsResponse)
	if !ok {
		return 0, statuscode.BadUnexpectedError
	}
	if !r.ServiceResult.IsGood() {
		return 0, r.ServiceResult
	}

	status := dispatchCreateResult(r.ServiceResult, r.Results)
	if !status.IsGood() {
		return 0, status
	}
	return r.Results[0].MonitoredItemId, statuscode.Good
}

// dispatchCreateResult implements the preserved create-response rule.
func dispatchCreateResult(serviceResult statuscode.StatusCode, results []MonitoredItemCreateResult) statuscode.StatusCode {
	switch len(results) {
	case 0:
		return serviceResult
	case 1:
		return results[0].StatusCode
	default:
		return statuscode.BadUnexpectedError
	}
}

// RemoveMonitoredItem sends DeleteMonitoredItems; tolerates
// BadMonitoredItemIdInvalid (server forgot it) as success, and always
// unlinks the item locally.
func (c *Client) RemoveMonitoredItem(ctx context.Context, subId, monitoredItemId uint32) statuscode.StatusCode {
	sub, ok := c.Subscriptions[subId]
	if !ok {
		return statuscode.BadSubscriptionIdInvalid
	}

	resp, err := c.Transport.Exchange(ctx, transport.DeleteMonitoredItems, DeleteMonitoredItemsRequest{
		SubscriptionId:   subId,
		MonitoredItemIds: []uint32{monitoredItemId},
	})
	delete(sub.MonitoredItems, monitoredItemId)
	if err != nil {
		return statuscode.BadServerNotConnected
	}
	r, ok2 := resp.(DeleteMonitoredItemsResponse)
	if !ok2 {
		return statuscode.BadUnexpectedError
	}

	status := dispatchDeleteResult(r.ServiceResult, r.Results)
	if status == statuscode.BadMonitoredItemIdInvalid {
		return statuscode.Good
	}
	return status
}

// dispatchDeleteResult implements the preserved DeleteMonitoredItems rule:
// if resultsSize <= 1 the aggregate (service-result) code wins and the
// per-item code is not inspected; the divergence from the obvious ">=1"
// reading is kept deliberately.
func dispatchDeleteResult(serviceResult statuscode.StatusCode, results []statuscode.StatusCode) statuscode.StatusCode {
	if len(results) <= 1 {
		return serviceResult
	}
	return results[0]
}

// dispatchDeleteSubscriptionsResult implements the DeleteSubscriptions
// dispatch rule, which is stricter than dispatchDeleteResult's: the
// original inspects results[0] whenever any result is present
// (resultsSize > 0), rather than only once more than one is present.
func dispatchDeleteSubscriptionsResult(serviceResult statuscode.StatusCode, results []statuscode.StatusCode) statuscode.StatusCode {
	if len(results) > 0 {
		return results[0]
	}
	return serviceResult
}

// RemoveSubscription iterates monitored items removing each, then sends
// DeleteSubscriptions; tolerates BadSubscriptionIdInvalid as success, and
// unlinks locally either way. forceDelete skips the wire calls entirely,
// for use when the session is already gone.
func (c *Client) RemoveSubscription(ctx context.Context, subId uint32, forceDelete bool) statuscode.StatusCode {
	sub, ok := c.Subscriptions[subId]
	if !ok {
		return statuscode.BadSubscriptionIdInvalid
	}

	if forceDelete {
		delete(c.Subscriptions, subId)
		return statuscode.Good
	}

	for itemId := range sub.MonitoredItems {
		if status := c.RemoveMonitoredItem(ctx, subId, itemId); !status.IsGood() {
			log.FromContext(ctx).V(1).Info("could not remove monitored item during subscription teardown", "subscriptionId", subId, "monitoredItemId", itemId)
		}
	}

	resp, err := c.Transport.Exchange(ctx, transport.DeleteSubscriptions, DeleteSubscriptionsRequest{SubscriptionIds: []uint32{subId}})
	delete(c.Subscriptions, subId)
	if err != nil {
		return statuscode.BadServerNotConnected
	}
	r, ok2 := resp.(DeleteSubscriptionsResponse)
	if !ok2 {
		return statuscode.BadUnexpectedError
	}

	status := dispatchDeleteSubscriptionsResult(r.ServiceResult, r.Results)
	if status == statuscode.BadSubscriptionIdInvalid {
		return statuscode.Good
	}
	return status
}

func (c *Client) String() string {
	return fmt.Sprintf("subscription.Client{subscriptions=%d}", len(c.Subscriptions))
}
