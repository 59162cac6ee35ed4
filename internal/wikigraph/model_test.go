package wikigraph

import (
	"testing"

	"github.com/rangulvers/wikigraph/internal/title"
)

func titles(ss ...string) Path {
	p := make(Path, len(ss))
	for i, s := range ss {
		p[i] = title.Title(s)
	}
	return p
}

func TestPath_Len(t *testing.T) {
	tests := []struct {
		name string
		path Path
		want int
	}{
		{name: "empty", path: titles(), want: 0},
		{name: "single node", path: titles("A"), want: 0},
		{name: "three hops", path: titles("A", "B", "C", "D"), want: 3},
	}
	for _, tt := range tests {
		if got := tt.path.Len(); got != tt.want {
			t.Errorf("%s: Len() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPath_HasRepeats(t *testing.T) {
	if titles("A", "B", "C").HasRepeats() {
		t.Error("expected no repeats")
	}
	if !titles("A", "B", "A").HasRepeats() {
		t.Error("expected repeats detected")
	}
}

func TestPath_Intermediates(t *testing.T) {
	got := titles("A", "B", "C", "D").Intermediates()
	want := titles("B", "C")
	if !Path(got).Equal(want) {
		t.Errorf("Intermediates() = %v, want %v", got, want)
	}
	if got := titles("A", "B").Intermediates(); got != nil {
		t.Errorf("expected nil intermediates for a direct edge, got %v", got)
	}
}

func TestPath_Equal(t *testing.T) {
	a := titles("A", "B", "C")
	b := titles("A", "B", "C")
	c := titles("A", "C", "B")
	if !a.Equal(b) {
		t.Error("expected equal paths to compare equal")
	}
	if a.Equal(c) {
		t.Error("expected differently ordered paths to compare unequal")
	}
}

func TestPath_Clone(t *testing.T) {
	a := titles("A", "B", "C")
	b := a.Clone()
	b[0] = "Z"
	if a[0] == "Z" {
		t.Error("mutating the clone mutated the original")
	}
}

func TestMerge(t *testing.T) {
	set := PathSet{Paths: []Path{
		titles("A", "B", "D"),
		titles("A", "C", "D"),
	}}

	g := Merge(set)

	if len(g.Nodes) != 4 {
		t.Fatalf("expected 4 distinct nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 4 {
		t.Fatalf("expected 4 distinct edges, got %d", len(g.Edges))
	}

	var nodeA, nodeD *GraphNode
	for i := range g.Nodes {
		switch g.Nodes[i].Title {
		case title.Title("A"):
			nodeA = &g.Nodes[i]
		case title.Title("D"):
			nodeD = &g.Nodes[i]
		}
	}
	if nodeA == nil || len(nodeA.PathIndices) != 2 {
		t.Fatalf("expected node A to belong to both paths, got %+v", nodeA)
	}
	if nodeD == nil || len(nodeD.PathIndices) != 2 {
		t.Fatalf("expected node D to belong to both paths, got %+v", nodeD)
	}
}
