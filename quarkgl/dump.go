package quarkgl

// Dump renders the subtree rooted at n as box-drawing lines, one per node:
//
//	Car [Group]
//	  ├─Body [Mesh]
//	  └─Wheel [Mesh]
func Dump(n *Node) []string {
	if n == nil {
		return nil
	}
	return dumpNode(n, nil, true, "")
}

func dumpNode(n *Node, lines []string, last bool, prefix string) []string {
	branch := "├─"
	if last {
		branch = "└─"
	}
	name := n.Name
	if name == "" {
		name = "*no-name*"
	}
	if prefix == "" {
		branch = ""
	}
	lines = append(lines, prefix+branch+name+" ["+string(n.Kind())+"]")

	next := prefix + "│ "
	if last {
		next = prefix + "  "
	}
	for i, c := range n.children {
		lines = dumpNode(c, lines, i == len(n.children)-1, next)
	}
	return lines
}
