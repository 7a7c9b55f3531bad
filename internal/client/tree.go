package client

import (
	"github.com/disiqueira/gotree/v3"

	"codefolio/internal/domain/models"
)

// RenderTree draws the folder tree as text under rootLabel.
// Folders end in "/"; files show their language.
func RenderTree(rootLabel string, forest []*models.TreeNode) string {
	root := gotree.New(rootLabel)
	for _, node := range forest {
		addNode(root, node)
	}
	return root.Print()
}

func addNode(parent gotree.Tree, node *models.TreeNode) {
	if node.IsFolder() {
		dir := parent.Add(node.Name + "/")
		for _, child := range node.Children {
			addNode(dir, child)
		}
		return
	}

	label := node.Name
	if node.Record != nil && node.Record.Language != "" {
		label += " (" + node.Record.Language + ")"
	}
	parent.Add(label)
}
