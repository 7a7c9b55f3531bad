package models

// NodeKind distinguishes folder nodes from file nodes.
type NodeKind string

const (
	NodeFolder NodeKind = "folder"
	NodeFile   NodeKind = "file"
)

// TreeNode is a derived view element built from the flat record list.
// It is never persisted.
type TreeNode struct {
	Kind     NodeKind    `json:"type"`
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Children []*TreeNode `json:"children,omitempty"` // folders only, sorted by name
	MarkerID *int64      `json:"marker_id,omitempty"` // folders persisted by a marker record
	Record   *Record     `json:"record,omitempty"`    // files only
}

// IsFolder reports whether the node is a folder.
func (n *TreeNode) IsFolder() bool {
	return n.Kind == NodeFolder
}
