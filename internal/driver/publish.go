package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/agenthands/mindmap/internal/mindmap"
)

// Publish writes a tree under mapID, replacing any prior publication with
// the same id. The tree itself is not modified; nodes become MindMapNode
// vertices and child order is kept on the HAS_CHILD edge position.
func Publish(ctx context.Context, d GraphDriver, mapID string, tree *mindmap.MindMap) error {
	if _, err := d.ExecuteQuery(ctx, DeleteMapQuery, map[string]interface{}{"map_id": mapID}); err != nil {
		return fmt.Errorf("failed to clear previous map %q: %w", mapID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var publishErr error
	tree.Walk(func(node, _ *mindmap.MindMap) {
		if publishErr != nil {
			return
		}
		_, publishErr = d.ExecuteQuery(ctx, SaveMapNodeQuery, map[string]interface{}{
			"map_id":     mapID,
			"node":       node.Node,
			"label":      node.Label,
			"summary":    node.Summary,
			"keywords":   node.Keywords,
			"created_at": now,
		})
	})
	if publishErr != nil {
		return fmt.Errorf("failed to save map nodes: %w", publishErr)
	}

	tree.Walk(func(node, parent *mindmap.MindMap) {
		if publishErr != nil || parent == nil {
			return
		}
		position := 0
		for i, sibling := range parent.Children {
			if sibling == node {
				position = i
				break
			}
		}
		_, publishErr = d.ExecuteQuery(ctx, SaveChildEdgeQuery, map[string]interface{}{
			"map_id":      mapID,
			"parent_node": parent.Node,
			"child_node":  node.Node,
			"position":    position,
		})
	})
	if publishErr != nil {
		return fmt.Errorf("failed to save map edges: %w", publishErr)
	}
	return nil
}
