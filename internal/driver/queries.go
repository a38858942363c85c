package driver

const (
	SaveMapNodeQuery = `
		MERGE (n:MindMapNode {map_id: $map_id, node: $node})
		SET n.label = $label,
			n.summary = $summary,
			n.keywords = $keywords,
			n.created_at = $created_at
		RETURN n.node AS node
	`

	SaveChildEdgeQuery = `
		MATCH (parent:MindMapNode {map_id: $map_id, node: $parent_node})
		MATCH (child:MindMapNode {map_id: $map_id, node: $child_node})
		MERGE (parent)-[e:HAS_CHILD]->(child)
		SET e.position = $position
		RETURN e.position AS position
	`

	DeleteMapQuery = `
		MATCH (n:MindMapNode {map_id: $map_id})
		DETACH DELETE n
	`

	GetMapRowsQuery = `
		MATCH (n:MindMapNode {map_id: $map_id})
		OPTIONAL MATCH (p:MindMapNode {map_id: $map_id})-[:HAS_CHILD]->(n)
		RETURN n.node AS node, n.label AS label, n.summary AS summary, p.node AS parent
		ORDER BY n.node
	`
)
