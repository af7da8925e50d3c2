package render

import (
	"maps"
	"text/template/parse"
)

// printedFields returns the key paths of actions that print a context value
// directly, such as {{.first_name}} or {{$.meta.name}}. Bodies of range and
// with are skipped because dot is rebound there.
func printedFields(root *parse.ListNode) [][]string {
	var paths [][]string
	var walk func(n parse.Node)
	walk = func(n parse.Node) {
		switch n := n.(type) {
		case *parse.ListNode:
			if n == nil {
				return
			}
			for _, c := range n.Nodes {
				walk(c)
			}
		case *parse.ActionNode:
			if p := printedPath(n.Pipe); p != nil {
				paths = append(paths, p)
			}
		case *parse.IfNode:
			walk(n.List)
			walk(n.ElseList)
		case *parse.RangeNode:
			walk(n.ElseList)
		case *parse.WithNode:
			walk(n.ElseList)
		}
	}
	walk(root)
	return paths
}

func printedPath(p *parse.PipeNode) []string {
	if p == nil || len(p.Decl) > 0 || len(p.Cmds) != 1 || len(p.Cmds[0].Args) != 1 {
		return nil
	}
	switch arg := p.Cmds[0].Args[0].(type) {
	case *parse.FieldNode:
		return arg.Ident
	case *parse.VariableNode:
		if len(arg.Ident) > 1 && arg.Ident[0] == "$" {
			return arg.Ident[1:]
		}
	}
	return nil
}

// fillMissing sets the last key of path to "" when its parent map exists but
// lacks it. Nested maps are cloned before they are written to, so maps shared
// with the caller are never modified.
func fillMissing(data map[string]any, path []string) {
	m := data
	for i, key := range path {
		v, ok := m[key]
		if i == len(path)-1 {
			if !ok {
				m[key] = ""
			}
			return
		}
		sub, isMap := v.(map[string]any)
		if !ok || !isMap {
			return
		}
		sub = maps.Clone(sub)
		m[key] = sub
		m = sub
	}
}
