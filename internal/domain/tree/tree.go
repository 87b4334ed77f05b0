// Package tree groups flat disease associations into a therapeutic-area
// tree using ontology ancestor paths.
package tree

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bhalbert/rest-api/internal/domain"
	"github.com/bhalbert/rest-api/internal/domain/assoc"
)

// RootCode is the sentinel code of the synthetic root node. It can never
// appear as a child.
const RootCode = "cttv_disease"

// Node is one tree node. Payload carries the association record for the
// node's disease; backfilled therapeutic-area nodes have none.
type Node struct {
	Code     string
	Payload  *assoc.Association
	children map[string]*Node
}

// NewRoot creates the synthetic root node.
func NewRoot() *Node {
	return &Node{Code: RootCode, children: map[string]*Node{}}
}

// NewNode creates a detached node for a disease code.
func NewNode(code string, payload *assoc.Association) *Node {
	return &Node{Code: code, Payload: payload, children: map[string]*Node{}}
}

func (n *Node) isRoot() bool { return n.Code == RootCode }

// AddChild attaches child under n. Attaching the root sentinel or a node to
// itself is a programming error, not a per-record skip. Re-adding an
// existing child code is a no-op.
func (n *Node) AddChild(child *Node) error {
	if child.isRoot() {
		return fmt.Errorf("%w: root cannot be a child", domain.ErrTreeInvariant)
	}
	if child == n || child.Code == n.Code {
		return fmt.Errorf("%w: node %s cannot be its own child", domain.ErrTreeInvariant, n.Code)
	}
	if _, ok := n.children[child.Code]; !ok {
		n.children[child.Code] = child
	}
	return nil
}

// Child returns the direct child with the given code.
func (n *Node) Child(code string) (*Node, bool) {
	c, ok := n.children[code]
	return c, ok
}

// WalkPath follows path from n, stopping at the deepest node found when a
// segment is missing.
func (n *Node) WalkPath(path []string) *Node {
	node := n
	for _, code := range path {
		next, ok := node.children[code]
		if !ok {
			break
		}
		node = next
	}
	return node
}

// MarshalJSON renders the node depth-first: the payload fields inline, the
// node code as "name" and the children as an ordered array. Leaves omit the
// children key.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if n.Payload != nil {
		raw, err := json.Marshal(n.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal node payload: %w", err)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("marshal node payload: %w", err)
		}
	}
	out["name"] = n.Code
	if len(n.children) > 0 {
		codes := make([]string, 0, len(n.children))
		for code := range n.children {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		kids := make([]*Node, 0, len(codes))
		for _, code := range codes {
			kids = append(kids, n.children[code])
		}
		out["children"] = kids
	}
	return json.Marshal(out)
}

type relation struct {
	code string
	path []string
}

// Build assembles the association tree. parentPaths maps each disease code
// to its root-less ancestor paths; the first element of a path is the
// therapeutic-area slot. When explicitDiseases is non-empty only those
// codes are placed, plus any therapeutic-area ancestor backfilled from path
// position one even when it carries no association of its own.
func Build(associations []*assoc.Association, parentPaths map[string][][]string, explicitDiseases []string) (*Node, error) {
	data := make(map[string]*assoc.Association, len(associations))
	for _, a := range associations {
		data[a.Disease.ID] = a
	}

	var relations []relation
	for code, paths := range parentPaths {
		if _, ok := data[code]; !ok {
			continue
		}
		for _, path := range paths {
			relations = append(relations, relation{code: code, path: path})
		}
	}

	eligible := make(map[string]struct{})
	if len(explicitDiseases) == 0 {
		for _, rel := range relations {
			eligible[rel.code] = struct{}{}
		}
	} else {
		for _, code := range explicitDiseases {
			eligible[code] = struct{}{}
		}
		// Backfill therapeutic-area ancestors so every placed disease has
		// its grouping node, scored or not.
		for _, rel := range relations {
			if len(rel.path) <= 1 {
				continue
			}
			ta := rel.path[0]
			if _, ok := eligible[ta]; ok {
				continue
			}
			eligible[ta] = struct{}{}
			relations = append(relations, relation{code: ta})
		}
	}

	// Shorter paths sit closer to the root and must be placed first so
	// every parent exists before its descendants.
	sort.SliceStable(relations, func(i, j int) bool {
		if len(relations[i].path) != len(relations[j].path) {
			return len(relations[i].path) < len(relations[j].path)
		}
		return relations[i].code < relations[j].code
	})

	root := NewRoot()
	for _, rel := range relations {
		if _, ok := eligible[rel.code]; !ok {
			continue
		}
		node := NewNode(rel.code, data[rel.code])
		parent := root.WalkPath(rel.path)
		if err := parent.AddChild(node); err != nil {
			return nil, err
		}
	}
	return root, nil
}
