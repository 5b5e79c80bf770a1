package graph

import (
	"strconv"

	"github.com/coal/fwdash/internal/api"
)

// DefaultLimit is the number of flow records kept when no limit is set.
const DefaultLimit = 60

type nodeKey struct {
	role  Role
	label string
}

// Build truncates records to the first limit entries and builds the element
// set: one node per unique (role, label) and one edge per kept record.
// Records are expected to arrive sorted by count, highest first.
func Build(records []api.FlowRecord, limit int) Elements {
	records = Top(records, limit)

	seen := make(map[nodeKey]bool, len(records)*2)
	el := Elements{
		Nodes: make([]Node, 0, len(records)*2),
		Edges: make([]Edge, 0, len(records)),
	}

	addNode := func(role Role, label string) string {
		id := NodeID(role, label)
		k := nodeKey{role: role, label: label}
		if seen[k] {
			return id
		}
		seen[k] = true
		el.Nodes = append(el.Nodes, Node{ID: id, Label: label, Role: role})
		return id
	}

	for i, r := range records {
		src := addNode(RoleSrc, r.Src)
		dst := addNode(RoleDst, r.Dst)
		el.Edges = append(el.Edges, Edge{
			ID:     "e_" + strconv.Itoa(i),
			Source: src,
			Target: dst,
			Weight: r.Count,
		})
	}
	return el
}

// Top returns the first n records. n <= 0 means DefaultLimit.
func Top(records []api.FlowRecord, n int) []api.FlowRecord {
	if n <= 0 {
		n = DefaultLimit
	}
	if len(records) <= n {
		return records
	}
	return records[:n]
}
