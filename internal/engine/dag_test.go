package engine

import (
	"errors"
	"slices"
	"testing"
)

// newPipelineDAG — две параллельные ветки между init и end:
//
//	init → ppl   → cmp   → end
//	init → ppl-1 → cmp-1 → end
func newPipelineDAG(t *testing.T) *DAG {
	t.Helper()

	dag := NewDAG()
	dag.AddVertex("init", "ppl", "cmp", "ppl-1", "cmp-1", "end")

	edges := [][2]string{
		{"init", "ppl"}, {"ppl", "cmp"}, {"cmp", "end"},
		{"init", "ppl-1"}, {"ppl-1", "cmp-1"}, {"cmp-1", "end"},
	}
	for _, e := range edges {
		if err := dag.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("add edge %s -> %s: %v", e[0], e[1], err)
		}
	}
	return dag
}

func TestDAG_Structure(t *testing.T) {
	dag := newPipelineDAG(t)

	if dag.VertexSize() != 6 {
		t.Errorf("expected 6 vertices, got %d", dag.VertexSize())
	}
	if dag.EdgeSize() != 6 {
		t.Errorf("expected 6 edges, got %d", dag.EdgeSize())
	}

	if got := dag.Successors("init"); !slices.Equal(got, []string{"ppl", "ppl-1"}) {
		t.Errorf("successors(init): got %v", got)
	}
	if got := dag.Predecessors("cmp"); !slices.Equal(got, []string{"ppl"}) {
		t.Errorf("predecessors(cmp): got %v", got)
	}
	if got := dag.Predecessors("end"); !slices.Equal(got, []string{"cmp", "cmp-1"}) {
		t.Errorf("predecessors(end): got %v", got)
	}
	if got := dag.AllStarts(); !slices.Equal(got, []string{"init"}) {
		t.Errorf("all starts: got %v", got)
	}
}

func TestDAG_AddEdge_UnknownVertex(t *testing.T) {
	dag := newPipelineDAG(t)

	err := dag.AddEdge("init-x", "end")
	if !errors.Is(err, ErrUnknownVertex) {
		t.Fatalf("expected ErrUnknownVertex, got %v", err)
	}

	var gErr *GraphError
	if !errors.As(err, &gErr) {
		t.Fatalf("expected *GraphError, got %T", err)
	}
	if gErr.Kind != UnknownVertex || gErr.From != "init-x" || gErr.To != "end" {
		t.Errorf("unexpected error fields: %+v", gErr)
	}
	if dag.HasVertex("init-x") {
		t.Error("unknown vertex must not be created")
	}
	if dag.EdgeSize() != 6 {
		t.Errorf("graph changed: %d edges", dag.EdgeSize())
	}
}

func TestDAG_RemoveEdge_NotFound(t *testing.T) {
	dag := newPipelineDAG(t)

	err := dag.RemoveEdge("ppl-1", "cmp")
	if !errors.Is(err, ErrEdgeNotFound) {
		t.Fatalf("expected ErrEdgeNotFound, got %v", err)
	}
	if dag.EdgeSize() != 6 {
		t.Errorf("graph changed: %d edges", dag.EdgeSize())
	}
}

func TestDAG_AddEdge_Cycle(t *testing.T) {
	dag := newPipelineDAG(t)

	err := dag.AddEdge("end", "init")
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
	if dag.HasEdge("end", "init") {
		t.Error("rejected edge must not be stored")
	}
	if got := dag.Successors("end"); len(got) != 0 {
		t.Errorf("end should have no successors, got %v", got)
	}
}

func TestDAG_CycleDetectedThroughRemainingPath(t *testing.T) {
	dag := newPipelineDAG(t)

	clone := dag.Clone()
	if err := clone.RemoveEdge("ppl", "cmp"); err != nil {
		t.Fatalf("remove ppl -> cmp: %v", err)
	}
	if err := clone.RemoveEdge("cmp", "end"); err != nil {
		t.Fatalf("remove cmp -> end: %v", err)
	}

	if clone.EdgeSize() != 4 {
		t.Errorf("clone: expected 4 edges, got %d", clone.EdgeSize())
	}
	if dag.EdgeSize() != 6 {
		t.Errorf("original must stay untouched, got %d edges", dag.EdgeSize())
	}

	// Оригинал всё ещё содержит путь init → ppl-1 → cmp-1 → end.
	if err := dag.AddEdge("end", "init"); !errors.Is(err, ErrCycle) {
		t.Errorf("original: expected ErrCycle, got %v", err)
	}
	// Копия тоже: путь через ppl-1 остался.
	if err := clone.AddEdge("end", "init"); !errors.Is(err, ErrCycle) {
		t.Errorf("clone: expected ErrCycle, got %v", err)
	}
}

func TestDAG_SelfEdge(t *testing.T) {
	dag := NewDAG()
	dag.AddVertex("a")

	if err := dag.AddEdge("a", "a"); !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle for self edge, got %v", err)
	}
}

func TestDAG_AddVertex_Idempotent(t *testing.T) {
	dag := NewDAG()
	dag.AddVertex("a", "b")
	if err := dag.AddEdge("a", "b"); err != nil {
		t.Fatal(err)
	}

	dag.AddVertex("a", "b")

	if dag.VertexSize() != 2 {
		t.Errorf("expected 2 vertices, got %d", dag.VertexSize())
	}
	if !dag.HasEdge("a", "b") {
		t.Error("re-adding a vertex must keep its edges")
	}
}

func TestDAG_AddEdge_Duplicate(t *testing.T) {
	dag := NewDAG()
	dag.AddVertex("a", "b")

	for i := 0; i < 3; i++ {
		if err := dag.AddEdge("a", "b"); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if dag.EdgeSize() != 1 {
		t.Errorf("expected 1 edge, got %d", dag.EdgeSize())
	}
}

func TestDAG_RemoveEdge(t *testing.T) {
	dag := newPipelineDAG(t)

	if err := dag.RemoveEdge("init", "ppl"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dag.HasEdge("init", "ppl") {
		t.Error("edge still present")
	}
	if got := dag.AllStarts(); !slices.Equal(got, []string{"init", "ppl"}) {
		t.Errorf("all starts: got %v", got)
	}
	if err := dag.RemoveEdge("init", "ppl"); !errors.Is(err, ErrEdgeNotFound) {
		t.Errorf("second remove: expected ErrEdgeNotFound, got %v", err)
	}
}

func TestDAG_CanReach(t *testing.T) {
	dag := newPipelineDAG(t)

	tests := []struct {
		from, to string
		want     bool
	}{
		{"init", "end", true},
		{"ppl", "end", true},
		{"ppl", "cmp-1", false},
		{"end", "init", false},
		{"cmp", "cmp", true},
		{"init", "missing", false},
	}

	for _, tt := range tests {
		if got := dag.CanReach(tt.from, tt.to); got != tt.want {
			t.Errorf("CanReach(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDAG_TopologicalOrder(t *testing.T) {
	dag := newPipelineDAG(t)

	order := dag.TopologicalOrder()
	if len(order) != 6 {
		t.Fatalf("expected 6 vertices, got %v", order)
	}

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}

	for _, name := range dag.Vertices() {
		for _, next := range dag.Successors(name) {
			if pos[name] >= pos[next] {
				t.Errorf("%s must come before %s in %v", name, next, order)
			}
		}
	}

	if order[0] != "init" || order[len(order)-1] != "end" {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestGraphError_Message(t *testing.T) {
	err := &GraphError{Kind: Cycle, From: "end", To: "init"}

	if err.Error() != "graph: cycle: end -> init" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if Cycle.String() != "Cycle" {
		t.Errorf("unexpected kind name: %s", Cycle)
	}
}
