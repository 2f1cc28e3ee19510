package internal

import (
	"fmt"
	"sort"
)

type Node struct {
	ID           string
	Dependencies []string
}

// Graph orders services by their declared dependencies.
type Graph map[string]*Node

func NewDependsGraph() Graph {
	return make(Graph)
}

func (g Graph) AddNode(id string, dependencies ...string) {
	g[id] = &Node{
		ID:           id,
		Dependencies: dependencies,
	}
}

// Build returns a topological order. Independent nodes are visited by id so the order is stable between runs.
func (g Graph) Build() ([]string, error) {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	visited := make(map[string]bool, len(g))
	inStack := make(map[string]bool)
	result := make([]string, 0, len(g))

	for _, id := range ids {
		if err := g.visit(id, visited, inStack, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (g Graph) visit(id string, visited, inStack map[string]bool, result *[]string) error {
	if visited[id] {
		return nil
	}
	if inStack[id] {
		return fmt.Errorf("cycle detected for node: %s", id)
	}

	node, ok := g[id]
	if !ok {
		return fmt.Errorf("dependency not found: %s", id)
	}

	inStack[id] = true
	for _, dep := range node.Dependencies {
		if err := g.visit(dep, visited, inStack, result); err != nil {
			return err
		}
	}
	inStack[id] = false
	visited[id] = true

	*result = append(*result, id)

	return nil
}
