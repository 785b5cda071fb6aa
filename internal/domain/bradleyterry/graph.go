package bradleyterry

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// components returns the connected components of the undirected comparison
// graph as sorted identifier lists, ordered by their first identifier.
func (p *problem) components() [][]string {
	g := simple.NewUndirectedGraph()
	for i := range p.ids {
		g.AddNode(simple.Node(i))
	}
	for _, e := range p.edges {
		g.SetEdge(simple.Edge{F: simple.Node(e.i), T: simple.Node(e.j)})
	}
	return p.names(topo.ConnectedComponents(g))
}

// stronglyConnected reports whether every item can be reached from every other
// following winner-to-loser edges. Without it the likelihood has no finite maximum.
func (p *problem) stronglyConnected() bool {
	g := simple.NewDirectedGraph()
	for i := range p.ids {
		g.AddNode(simple.Node(i))
	}
	for _, e := range p.edges {
		if e.wij > 0 {
			g.SetEdge(simple.Edge{F: simple.Node(e.i), T: simple.Node(e.j)})
		}
		if e.wji > 0 {
			g.SetEdge(simple.Edge{F: simple.Node(e.j), T: simple.Node(e.i)})
		}
	}
	return len(topo.TarjanSCC(g)) == 1
}

func (p *problem) names(groups [][]graph.Node) [][]string {
	out := make([][]string, len(groups))
	for gi, nodes := range groups {
		ids := make([]string, len(nodes))
		for ni, n := range nodes {
			ids[ni] = p.ids[n.ID()]
		}
		sort.Strings(ids)
		out[gi] = ids
	}
	sort.Slice(out, func(a, b int) bool { return out[a][0] < out[b][0] })
	return out
}
