package subscription

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"xiaoshiai.cn/opcua/collections"
	"xiaoshiai.cn/opcua/log"
	"xiaoshiai.cn/opcua/statuscode"
)

// defaultPublishTimeout is used in place of a zero-value ClientConfig.Timeout,
// which would otherwise make the deadline below expire immediately.
const defaultPublishTimeout = 10 * time.Second

// ManuallySendPublishRequest runs the Publish cycle until either the
// server answers with no more queued notifications or the client's
// configured timeout is crossed, in which case it returns
// GoodNonCriticalTimeout rather than an error: more data may still be
// waiting on the server.
func (c *Client) ManuallySendPublishRequest(ctx context.Context) statuscode.StatusCode {
	deadline := time.Now().Add(collections.Def(c.Config.Timeout, defaultPublishTimeout))

	dctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	result := statuscode.Good
	_ = wait.PollUntilContextCancel(dctx, time.Millisecond, true, func(pollCtx context.Context) (bool, error) {
		more, status := c.publishOnce(ctx)
		result = status
		if !status.IsGood() {
			return true, nil
		}
		if time.Now().After(deadline) {
			result = statuscode.GoodNonCriticalTimeout
			return true, nil
		}
		return !more, nil
	})
	if dctx.Err() != nil && result == statuscode.Good {
		result = statuscode.GoodNonCriticalTimeout
	}
	return result
}

// publishOnce performs one Publish exchange: builds the request from the
// pending-ack snapshot, exchanges it, and dispatches the response.
// Returns whether the server reports more notifications still queued.
func (c *Client) publishOnce(ctx context.Context) (moreNotifications bool, status statuscode.StatusCode) {
	req := PublishRequest{SubscriptionAcknowledgements: append([]PendingAck(nil), c.PendingAcks...)}

	resp, err := c.Transport.Exchange(ctx, publishServiceName, req)
	if err != nil {
		return false, statuscode.BadServerNotConnected
	}
	r, ok := resp.(PublishResponse)
	if !ok {
		return false, statuscode.BadUnexpectedError
	}

	c.processPublishResponse(ctx, r)
	return r.MoreNotifications, statuscode.Good
}

const publishServiceName = "publish"

// processPublishResponse applies one PublishResponse: reconciles the ack
// ledger against the results the server returned for the previous
// request's acknowledgements, demuxes notifications to monitored items by
// client handle, and appends a fresh pending ack for this response's own
// sequence number.
//
// A non-Good service result is dropped silently; whether that should
// trigger session teardown is left to the caller observing a later
// BadServerNotConnected from the loop itself.
func (c *Client) processPublishResponse(ctx context.Context, r PublishResponse) {
	if !r.ServiceResult.IsGood() {
		return
	}

	sub, ok := c.Subscriptions[r.SubscriptionId]
	if !ok {
		return
	}

	acked := append([]PendingAck(nil), c.PendingAcks...)
	for i, result := range r.Results {
		if i >= len(acked) {
			break
		}
		if result.IsGood() || result == statuscode.BadSequenceNumberUnknown {
			c.removePendingAck(acked[i].SubscriptionId, acked[i].SequenceNumber)
		}
	}

	for _, data := range r.NotificationMessage.NotificationData {
		switch n := data.(type) {
		case DataChangeNotification:
			for _, item := range n.MonitoredItems {
				c.dispatchDataChange(ctx, sub, item)
			}
		case EventNotificationList:
			for _, event := range n.Events {
				c.dispatchEvent(ctx, sub, event)
			}
		default:
			log.FromContext(ctx).V(2).Info("publish: unrecognised notification type, skipping")
		}
	}

	c.PendingAcks = append(c.PendingAcks, PendingAck{
		SubscriptionId: r.SubscriptionId,
		SequenceNumber: r.NotificationMessage.SequenceNumber,
	})
}

func (c *Client) dispatchDataChange(ctx context.Context, sub *Subscription, n MonitoredItemNotification) {
	item := findByClientHandle(sub, n.ClientHandle)
	if item == nil || item.Kind != DataChangeKind || item.DataChange == nil {
		log.FromContext(ctx).V(2).Info("publish: unmatched client handle", "clientHandle", n.ClientHandle)
		return
	}
	item.DataChange(item.MonitoredItemId, n.Value)
}

func (c *Client) dispatchEvent(ctx context.Context, sub *Subscription, e EventFieldList) {
	item := findByClientHandle(sub, e.ClientHandle)
	if item == nil || item.Kind != EventKind || item.Event == nil {
		log.FromContext(ctx).V(2).Info("publish: unmatched client handle", "clientHandle", e.ClientHandle)
		return
	}
	item.Event(item.MonitoredItemId, e.EventFields)
}

func findByClientHandle(sub *Subscription, handle uint32) *MonitoredItem {
	for _, item := range sub.MonitoredItems {
		if item.ClientHandle == handle {
			return item
		}
	}
	return nil
}

func (c *Client) removePendingAck(subId, seq uint32) {
	for i, ack := range c.PendingAcks {
		if ack.SubscriptionId == subId && ack.SequenceNumber == seq {
			c.PendingAcks = append(c.PendingAcks[:i], c.PendingAcks[i+1:]...)
			return
		}
	}
}
