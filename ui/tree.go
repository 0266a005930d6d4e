// Package ui holds the box-drawing vocabulary shared by the console result
// table and the --list tree.
package ui

// Tree connectors, one per shape a row can take.
const (
	TreeBranch     = "├── " // entry with siblings below it
	TreeLastBranch = "└── " // final entry under its parent
	TreeContinue   = "│   " // pass-through under a parent with siblings below
	TreeIndent     = "    " // pass-through under a final parent
)

// TreePrefix renders the indentation for one node. depth counts edges from
// the root, isLast marks the final sibling at this level, and parentIsLast
// records the same flag for each ancestor, outermost first.
func TreePrefix(depth int, isLast bool, parentIsLast []bool) string {
	if depth == 0 {
		return ""
	}
	var prefix string
	for i := 0; i < depth-1; i++ {
		if i < len(parentIsLast) && parentIsLast[i] {
			prefix += TreeIndent
		} else {
			prefix += TreeContinue
		}
	}
	if isLast {
		return prefix + TreeLastBranch
	}
	return prefix + TreeBranch
}
