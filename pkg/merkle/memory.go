package merkle

import (
	"context"
	"errors"
	"sync"
)

// MemoryStorer keeps nodes in a map. It is safe for concurrent use.
type MemoryStorer struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	order    []string
	children map[string]int
}

// NewMemoryStorer creates an empty in-memory store.
func NewMemoryStorer() *MemoryStorer {
	return &MemoryStorer{
		nodes:    make(map[string]*Node),
		children: make(map[string]int),
	}
}

// Put stores a copy of node.
func (s *MemoryStorer) Put(_ context.Context, node *Node) error {
	if node == nil {
		return errors.New("cannot store nil node")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.Hash]; ok {
		return nil
	}

	stored := *node
	s.nodes[node.Hash] = &stored
	s.order = append(s.order, node.Hash)
	if node.ParentHash != nil {
		s.children[*node.ParentHash]++
	}
	return nil
}

// Get returns a copy of the node with hash.
func (s *MemoryStorer) Get(_ context.Context, hash string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}
	out := *node
	return &out, nil
}

// Has reports whether hash is stored.
func (s *MemoryStorer) Has(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.nodes[hash]
	return ok, nil
}

// Ancestry walks parent links from hash to the root. A missing parent ends the walk.
func (s *MemoryStorer) Ancestry(_ context.Context, hash string) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}

	var path []*Node
	for node != nil {
		out := *node
		path = append(path, &out)
		if node.ParentHash == nil {
			break
		}
		node = s.nodes[*node.ParentHash]
	}
	return path, nil
}

// Leaves returns nodes nothing points at, in insertion order.
func (s *MemoryStorer) Leaves(_ context.Context) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var leaves []*Node
	for _, hash := range s.order {
		if s.children[hash] > 0 {
			continue
		}
		out := *s.nodes[hash]
		leaves = append(leaves, &out)
	}
	return leaves, nil
}

// Close is a no-op.
func (s *MemoryStorer) Close() error {
	return nil
}
