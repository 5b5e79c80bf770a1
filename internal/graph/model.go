package graph

// Role is the side of a flow a node stands for.
type Role string

const (
	RoleSrc Role = "src"
	RoleDst Role = "dst"
)

// Node is a single host in the flow graph. Identity is (Role, Label).
type Node struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Role    Role   `json:"type"`
	Country string `json:"country,omitempty"`
}

// Edge is one flow record. Edges are never merged.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int64  `json:"weight"`
}

// Elements is the complete element set handed to a graph view.
type Elements struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Point is a layout position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeID returns the namespaced id for a (role, label) pair.
func NodeID(role Role, label string) string {
	if role == RoleDst {
		return "d_" + label
	}
	return "s_" + label
}
