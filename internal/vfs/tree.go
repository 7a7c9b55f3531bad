package vfs

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"codefolio/internal/domain/models"
)

// treeBuilder holds the working root while a tree is populated.
// Nodes are indexed by their exact path.
type treeBuilder struct {
	root  *models.TreeNode
	nodes map[string]*models.TreeNode
}

// BuildTree converts a flat record list into an ordered forest.
//
// Folder markers materialize their folder and produce no visible child.
// A path already held by a file is never turned into a folder: walks that
// reach a file stop and the rest of that record is dropped. Duplicate file
// paths keep the first record seen. The result depends only on the input.
func BuildTree(records []models.Record) []*models.TreeNode {
	b := &treeBuilder{
		root:  &models.TreeNode{Kind: models.NodeFolder},
		nodes: make(map[string]*models.TreeNode, len(records)),
	}

	for i := range records {
		b.add(records[i])
	}

	sortChildren(b.root, collate.New(language.Und))
	return b.root.Children
}

func (b *treeBuilder) add(r models.Record) {
	if IsFolderMarker(r.Name) {
		segments := Segments(FolderPathOf(r.Name))
		if len(segments) == 0 {
			return
		}
		folder := b.folder(segments)
		if folder != nil && folder.MarkerID == nil {
			id := r.ID
			folder.MarkerID = &id
		}
		return
	}

	segments := Segments(r.Name)
	if len(segments) == 0 {
		return
	}
	parent := b.folder(segments[:len(segments)-1])
	if parent == nil {
		return
	}

	name := segments[len(segments)-1]
	path := Join(parent.Path, name)
	if _, exists := b.nodes[path]; exists {
		return
	}

	record := r
	node := &models.TreeNode{
		Kind:   models.NodeFile,
		Name:   name,
		Path:   path,
		Record: &record,
	}
	b.nodes[path] = node
	parent.Children = append(parent.Children, node)
}

// folder walks segments from the root creating folders as needed.
// Returns nil when a file occupies any step of the walk.
func (b *treeBuilder) folder(segments []string) *models.TreeNode {
	current := b.root
	for _, seg := range segments {
		path := Join(current.Path, seg)
		next, ok := b.nodes[path]
		if !ok {
			next = &models.TreeNode{Kind: models.NodeFolder, Name: seg, Path: path}
			b.nodes[path] = next
			current.Children = append(current.Children, next)
		} else if !next.IsFolder() {
			return nil
		}
		current = next
	}
	return current
}

// sortChildren orders siblings by locale-aware collation, falling back to
// byte order so the ordering is total.
func sortChildren(node *models.TreeNode, c *collate.Collator) {
	sort.SliceStable(node.Children, func(i, j int) bool {
		a, b := node.Children[i].Name, node.Children[j].Name
		if cmp := c.CompareString(a, b); cmp != 0 {
			return cmp < 0
		}
		return a < b
	})
	for _, child := range node.Children {
		if child.IsFolder() {
			sortChildren(child, c)
		}
	}
}

// Flatten returns the record names a forest represents: every file path and
// the marker name of every folder that carries a marker.
func Flatten(forest []*models.TreeNode) []string {
	var names []string
	var walk func(nodes []*models.TreeNode)
	walk = func(nodes []*models.TreeNode) {
		for _, n := range nodes {
			if !n.IsFolder() {
				names = append(names, n.Path)
				continue
			}
			if n.MarkerID != nil {
				names = append(names, MarkerName(n.Path))
			}
			walk(n.Children)
		}
	}
	walk(forest)
	return names
}

// FolderSet returns the normalized path of every derived folder: each marker's
// folder and every ancestor of every record.
func FolderSet(records []models.Record) map[string]struct{} {
	folders := make(map[string]struct{})
	for _, r := range records {
		name := r.Name
		if IsFolderMarker(name) {
			folder := FolderPathOf(name)
			if folder == "" {
				continue
			}
			folders[Normalize(folder)] = struct{}{}
			name = folder
		}
		for _, a := range Ancestors(name) {
			folders[Normalize(a)] = struct{}{}
		}
	}
	return folders
}

// NameSet returns the normalized name of every record.
func NameSet(records []models.Record) map[string]struct{} {
	names := make(map[string]struct{}, len(records))
	for _, r := range records {
		names[Normalize(r.Name)] = struct{}{}
	}
	return names
}
