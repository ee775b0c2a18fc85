// Package dag builds the prompt dependency graph, topologically orders
// it, detects cycles and output collisions, and computes regeneration
// closures.
package dag

import (
	"fmt"
	"sort"

	"github.com/clintonboys/lit/internal/prompt"
)

// Node is one prompt's position in the graph.
type Node struct {
	Path       string
	Imports    []string // forward edges: prompts this one depends on
	Dependents []string // reverse edges: prompts that depend on this one
	Outputs    []string
}

// DAG is the full prompt dependency graph, plus its cached topological
// order.
type DAG struct {
	nodes map[string]*Node
	order []string
}

// CycleError reports a cycle found during topological sort, with a
// concrete witness path.
type CycleError struct {
	Witness []string
}

func (e *CycleError) Error() string {
	s := ""
	for i, p := range e.Witness {
		if i > 0 {
			s += " -> "
		}
		s += p
	}
	return fmt.Sprintf("cycle: %s", s)
}

// OutputConflictError reports two or more prompts declaring the same
// output path.
type OutputConflictError struct {
	Path      string
	Claimants []string
}

func (e *OutputConflictError) Error() string {
	return fmt.Sprintf("output conflict: %s claimed by %v", e.Path, e.Claimants)
}

// UnknownImportError reports an import referencing a prompt that was
// never parsed.
type UnknownImportError struct {
	Prompt, Import string
}

func (e *UnknownImportError) Error() string {
	return fmt.Sprintf("%s: import %s not found among parsed prompts", e.Prompt, e.Import)
}

// Build constructs the DAG from a set of parsed prompts, detecting
// output collisions and cycles, and computing a stable topological
// order (lexicographic by path within each level).
func Build(prompts []*prompt.Prompt) (*DAG, error) {
	nodes := make(map[string]*Node, len(prompts))
	for _, p := range prompts {
		nodes[p.Path] = &Node{
			Path:    p.Path,
			Imports: append([]string(nil), p.Frontmatter.Imports...),
			Outputs: append([]string(nil), p.Frontmatter.Outputs...),
		}
	}

	outputOwners := make(map[string][]string)
	for _, n := range nodes {
		for _, out := range n.Outputs {
			outputOwners[out] = append(outputOwners[out], n.Path)
		}
	}
	var conflictPaths []string
	for out := range outputOwners {
		if len(outputOwners[out]) > 1 {
			conflictPaths = append(conflictPaths, out)
		}
	}
	if len(conflictPaths) > 0 {
		sort.Strings(conflictPaths)
		first := conflictPaths[0]
		claimants := append([]string(nil), outputOwners[first]...)
		sort.Strings(claimants)
		return nil, &OutputConflictError{Path: first, Claimants: claimants}
	}

	for _, n := range nodes {
		for _, imp := range n.Imports {
			target, ok := nodes[imp]
			if !ok {
				return nil, &UnknownImportError{Prompt: n.Path, Import: imp}
			}
			target.Dependents = append(target.Dependents, n.Path)
		}
	}
	for _, n := range nodes {
		sort.Strings(n.Dependents)
	}

	order, err := topoSort(nodes)
	if err != nil {
		return nil, err
	}

	return &DAG{nodes: nodes, order: order}, nil
}

// topoSort runs an iterative Kahn's algorithm, emitting nodes in
// lexicographic order within each ready set so the result is
// deterministic. On leftover in-degree it walks the remaining graph to
// find a concrete cycle witness.
func topoSort(nodes map[string]*Node) ([]string, error) {
	inDegree := make(map[string]int, len(nodes))
	for path, n := range nodes {
		inDegree[path] = len(n.Imports)
	}

	var ready []string
	for path, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dep := range nodes[next].Dependents {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(nodes) {
		witness := findCycleWitness(nodes, inDegree)
		return nil, &CycleError{Witness: witness}
	}

	return order, nil
}

// findCycleWitness performs a DFS from any remaining (unresolved) node
// looking for a repeated node on the current path, which bounds a
// concrete cycle.
func findCycleWitness(nodes map[string]*Node, inDegree map[string]int) []string {
	var start string
	var remaining []string
	for path, deg := range inDegree {
		if deg > 0 {
			remaining = append(remaining, path)
		}
	}
	sort.Strings(remaining)
	if len(remaining) > 0 {
		start = remaining[0]
	}

	visited := make(map[string]int) // 0 = unvisited, 1 = on stack, 2 = done
	var path []string

	var dfs func(cur string) []string
	dfs = func(cur string) []string {
		visited[cur] = 1
		path = append(path, cur)
		for _, imp := range nodes[cur].Imports {
			if visited[imp] == 1 {
				// found the cycle: slice path from imp's first occurrence
				for i, p := range path {
					if p == imp {
						witness := append([]string(nil), path[i:]...)
						witness = append(witness, imp)
						return witness
					}
				}
			}
			if visited[imp] == 0 {
				if w := dfs(imp); w != nil {
					return w
				}
			}
		}
		visited[cur] = 2
		path = path[:len(path)-1]
		return nil
	}

	if start == "" {
		return nil
	}
	return dfs(start)
}

// Order returns the cached topological order of the DAG.
func (d *DAG) Order() []string {
	return append([]string(nil), d.order...)
}

// Len returns the number of nodes in the DAG.
func (d *DAG) Len() int {
	return len(d.nodes)
}

// Node returns the node at path, or nil if not present.
func (d *DAG) Node(path string) *Node {
	return d.nodes[path]
}

// RegenerationSet returns the transitive downstream closure of changed,
// inclusive of changed itself: forward BFS over reverse edges.
func (d *DAG) RegenerationSet(changed []string) []string {
	visited := make(map[string]bool)
	var queue []string
	for _, c := range changed {
		if _, ok := d.nodes[c]; ok && !visited[c] {
			visited[c] = true
			queue = append(queue, c)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range d.nodes[cur].Dependents {
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	var result []string
	for path := range visited {
		result = append(result, path)
	}
	sort.Strings(result)
	return result
}

// Levels partitions the DAG into maximal antichains: nodes whose
// imports are all resolved by the end of the previous level. Each level
// is sorted lexicographically for deterministic dispatch order.
func (d *DAG) Levels() [][]string {
	resolved := make(map[string]bool, len(d.nodes))
	var levels [][]string

	for len(resolved) < len(d.nodes) {
		var level []string
		for path, n := range d.nodes {
			if resolved[path] {
				continue
			}
			ready := true
			for _, imp := range n.Imports {
				if !resolved[imp] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, path)
			}
		}
		if len(level) == 0 {
			// Should not happen: Build already rejects cycles.
			break
		}
		sort.Strings(level)
		for _, path := range level {
			resolved[path] = true
		}
		levels = append(levels, level)
	}

	return levels
}
