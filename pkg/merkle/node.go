// Package merkle is a content-addressed DAG of conversation turns. Each chat
// turn is a node whose hash covers its content and its parent, so a head hash
// identifies an entire transcript.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/papercomputeco/magicprompt/pkg/llm"
)

// Node represents a single content-addressed node in a Merkle DAG
type Node struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous turn.
	// This will be nil for root nodes.
	ParentHash *string `json:"parent_hash"`

	// Content is the turn carried by the node
	Content llm.Turn `json:"content"`
}

// hashInput is the canonical form that gets hashed.
type hashInput struct {
	Content llm.Turn `json:"content"`
	Parent  string   `json:"parent,omitempty"`
}

// NewNode creates a new node with the computed hash for the provided turn
func NewNode(content llm.Turn, parent *Node) *Node {
	n := &Node{
		Content: content,
	}

	if parent != nil {
		n.ParentHash = &parent.Hash
	}

	n.Hash = n.computeHash()
	return n
}

// Verify reports whether the stored hash matches the node's content.
func (n *Node) Verify() bool {
	return n.Hash == n.computeHash()
}

func (n *Node) computeHash() string {
	i := &hashInput{
		Content: n.Content,
	}

	if n.ParentHash != nil {
		i.Parent = *n.ParentHash
	}

	// llm.Turn has only string fields, so Marshal cannot fail and the
	// field order is fixed.
	data, _ := json.Marshal(i)

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
