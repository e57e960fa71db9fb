package store

import (
	"context"
	"sync"

	"xiaoshiai.cn/opcua/nodeid"
	"xiaoshiai.cn/opcua/rand"
	"xiaoshiai.cn/opcua/statuscode"
)

// NodeStore owns the node graph. It is the only place Node values live;
// everyone else holds either a read-only borrow, a deep copy, or a scoped
// exclusive handle obtained through Edit.
//
// Reads and the Edit grace period follow a read-copy-update discipline:
// a Node, once published into the map, is never mutated in place. Edit
// clones it, lets the callback mutate the clone, and only then swaps the
// pointer under the write lock, so a reader that grabbed the old pointer
// under Get never observes a half-written node.
type NodeStore struct {
	mu    sync.RWMutex
	nodes map[any]*Node
}

func New() *NodeStore {
	return &NodeStore{nodes: make(map[any]*Node)}
}

// NewNode allocates an unowned Node of the given class; it is not part of
// the graph until passed to Insert.
func (s *NodeStore) NewNode(class NodeClass) *Node {
	return NewNode(class)
}

// Insert adds node to the graph, allocating a random numeric identifier in
// node's namespace when node.NodeId is a numeric identifier of 0, whatever
// its namespace index.
func (s *NodeStore) Insert(node *Node) (nodeid.NodeId, statuscode.StatusCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := node.NodeId
	if id.IsZeroNumeric() {
		for {
			candidate := nodeid.NewNumeric(node.NodeId.NamespaceIndex, rand.Uint32())
			if _, exists := s.nodes[candidate.Key()]; !exists {
				id = candidate
				break
			}
		}
	} else if _, exists := s.nodes[id.Key()]; exists {
		return nodeid.Null, statuscode.BadNodeIdInvalid
	}

	stored := node.Clone()
	stored.NodeId = id
	s.nodes[id.Key()] = stored
	return id, statuscode.Good
}

// Get returns a read-only borrow of the node. The returned pointer must
// not be mutated by the caller; use GetCopy or Edit for that.
func (s *NodeStore) Get(id nodeid.NodeId) (*Node, statuscode.StatusCode) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id.Key()]
	if !ok {
		return nil, statuscode.BadNodeIdUnknown
	}
	return n, statuscode.Good
}

// GetCopy returns a deep clone safe to mutate and carry across an Edit
// boundary, e.g. while building a child node to insert elsewhere.
func (s *NodeStore) GetCopy(id nodeid.NodeId) (*Node, statuscode.StatusCode) {
	n, status := s.Get(id)
	if !status.IsGood() {
		return nil, status
	}
	return n.Clone(), statuscode.Good
}

// Remove deletes the node from the graph. Callers are responsible for
// having already cleaned up references that point at it.
func (s *NodeStore) Remove(id nodeid.NodeId) statuscode.StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id.Key()]; !ok {
		return statuscode.BadNodeIdUnknown
	}
	delete(s.nodes, id.Key())
	return statuscode.Good
}

// EditFunc mutates a scoped exclusive clone of the node in place and
// returns the status to persist it under, or a Bad status to discard the
// edit entirely.
type EditFunc func(ctx context.Context, n *Node, editContext any) statuscode.StatusCode

// Edit is the only mutation path into the store. It looks up id, hands a
// mutable clone to fn, and -- only if fn succeeds -- publishes the clone
// as the new version of the node.
func (s *NodeStore) Edit(ctx context.Context, id nodeid.NodeId, fn EditFunc, editContext any) statuscode.StatusCode {
	s.mu.RLock()
	current, ok := s.nodes[id.Key()]
	s.mu.RUnlock()
	if !ok {
		return statuscode.BadNodeIdUnknown
	}

	clone := current.Clone()
	if status := fn(ctx, clone, editContext); !status.IsGood() {
		return status
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id.Key()]; !ok {
		return statuscode.BadNodeIdUnknown
	}
	s.nodes[id.Key()] = clone
	return statuscode.Good
}
