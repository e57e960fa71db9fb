// Package session implements the session registry (C7): just the local
// admin session sentinel used by service calls that bypass the wire.
package session

// ContinuationPoint is an opaque Browse-resume token; the session holds a
// bounded queue of them, never consulted by this core directly.
type ContinuationPoint struct {
	Id    []byte
	Value any
}

// Session carries the per-connection state a service call needs beyond
// the NodeStore itself: authorization context, continuation points, and
// (when subscriptions are enabled) the subscription/response queues.
type Session struct {
	Name                string
	Unrestricted        bool
	ContinuationPoints  []ContinuationPoint
	SubscriptionIds     []uint32
	ResponseQueue       []any
}

// NewAdminSession returns the process-wide admin session sentinel: an
// authenticated context with unrestricted rights, an empty continuation-
// point list, and empty subscription/response queues.
func NewAdminSession() *Session {
	return &Session{
		Name:               "admin",
		Unrestricted:       true,
		ContinuationPoints: nil,
		SubscriptionIds:    nil,
		ResponseQueue:      nil,
	}
}

// AddContinuationPoint appends cp, bounded by max (0 means unbounded).
func (s *Session) AddContinuationPoint(cp ContinuationPoint, max int) bool {
	if max > 0 && len(s.ContinuationPoints) >= max {
		return false
	}
	s.ContinuationPoints = append(s.ContinuationPoints, cp)
	return true
}

// TakeContinuationPoint removes and returns the continuation point with id,
// if present.
func (s *Session) TakeContinuationPoint(id []byte) (ContinuationPoint, bool) {
	for i, cp := range s.ContinuationPoints {
		if string(cp.Id) == string(id) {
			s.ContinuationPoints = append(s.ContinuationPoints[:i], s.ContinuationPoints[i+1:]...)
			return cp, true
		}
	}
	return ContinuationPoint{}, false
}
