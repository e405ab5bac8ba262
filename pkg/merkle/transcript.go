package merkle

import (
	"context"

	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// Append stores turns as a chain under parentHash and returns the new head.
// An empty parentHash starts a new transcript.
func Append(ctx context.Context, s Storer, parentHash string, turns ...llm.Turn) (*Node, error) {
	var parent *Node
	if parentHash != "" {
		var err error
		parent, err = s.Get(ctx, parentHash)
		if err != nil {
			return nil, err
		}
	}

	for _, turn := range turns {
		node := NewNode(turn, parent)
		if err := s.Put(ctx, node); err != nil {
			return nil, err
		}
		parent = node
	}
	return parent, nil
}

// History returns the turns leading to head, oldest first. An empty head has
// no history.
func History(ctx context.Context, s Storer, head string) ([]llm.Turn, error) {
	if head == "" {
		return nil, nil
	}

	ancestry, err := s.Ancestry(ctx, head)
	if err != nil {
		return nil, err
	}

	turns := make([]llm.Turn, len(ancestry))
	for i, node := range ancestry {
		turns[len(ancestry)-1-i] = node.Content
	}
	return turns, nil
}

// All returns every node reachable from a leaf, each once, with parents
// before their children.
func All(ctx context.Context, s Storer) ([]*Node, error) {
	leaves, err := s.Leaves(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var nodes []*Node
	for _, leaf := range leaves {
		ancestry, err := s.Ancestry(ctx, leaf.Hash)
		if err != nil {
			return nil, err
		}
		for i := len(ancestry) - 1; i >= 0; i-- {
			n := ancestry[i]
			if seen[n.Hash] {
				continue
			}
			seen[n.Hash] = true
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}
