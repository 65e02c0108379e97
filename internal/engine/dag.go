package engine

import (
	"slices"
	"sync"
)

// DAG — направленный ациклический граф имён шагов.
//
// Хранит две карты смежности: forward (вершина → последователи) и
// backward (вершина → предшественники). Граф остаётся ацикличным после
// каждой мутации: AddEdge проверяет достижимость до вставки, поэтому
// планировщик может полагаться на завершение волнового алгоритма.
//
// Потокобезопасен. Во время планирования используется только на чтение.
type DAG struct {
	mu       sync.RWMutex
	vertices map[string]struct{}
	forward  map[string]map[string]struct{}
	backward map[string]map[string]struct{}
}

// NewDAG создаёт пустой граф.
func NewDAG() *DAG {
	return &DAG{
		vertices: make(map[string]struct{}),
		forward:  make(map[string]map[string]struct{}),
		backward: make(map[string]map[string]struct{}),
	}
}

// AddVertex добавляет вершины. Повторное добавление ничего не меняет.
func (d *DAG) AddVertex(names ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, name := range names {
		if _, exists := d.vertices[name]; exists {
			continue
		}
		d.vertices[name] = struct{}{}
		d.forward[name] = make(map[string]struct{})
		d.backward[name] = make(map[string]struct{})
	}
}

// AddEdge добавляет ребро from → to.
//
// Возвращает *GraphError:
//   - UnknownVertex, если одной из вершин нет;
//   - Cycle, если to уже достижима в from (включая from == to).
//
// При ошибке граф не меняется.
func (d *DAG) AddEdge(from, to string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasVertex(from) || !d.hasVertex(to) {
		return &GraphError{Kind: UnknownVertex, From: from, To: to}
	}

	if d.reachable(to, from) {
		return &GraphError{Kind: Cycle, From: from, To: to}
	}

	d.forward[from][to] = struct{}{}
	d.backward[to][from] = struct{}{}

	return nil
}

// RemoveEdge удаляет ребро from → to.
// Возвращает *GraphError с EdgeNotFound, если ребра нет в обеих картах.
func (d *DAG) RemoveEdge(from, to string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasEdge(from, to) {
		return &GraphError{Kind: EdgeNotFound, From: from, To: to}
	}

	delete(d.forward[from], to)
	delete(d.backward[to], from)

	return nil
}

// HasVertex проверяет наличие вершины.
func (d *DAG) HasVertex(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hasVertex(name)
}

// HasEdge проверяет наличие ребра from → to.
func (d *DAG) HasEdge(from, to string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hasEdge(from, to)
}

// CanReach проверяет, достижима ли to из from по существующим рёбрам.
func (d *DAG) CanReach(from, to string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.hasVertex(from) || !d.hasVertex(to) {
		return false
	}
	return d.reachable(from, to)
}

// VertexSize возвращает количество вершин.
func (d *DAG) VertexSize() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.vertices)
}

// EdgeSize возвращает количество рёбер.
func (d *DAG) EdgeSize() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	size := 0
	for _, next := range d.forward {
		size += len(next)
	}
	return size
}

// Successors возвращает прямых последователей вершины (отсортированы).
func (d *DAG) Successors(name string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedKeys(d.forward[name])
}

// Predecessors возвращает прямых предшественников вершины (отсортированы).
func (d *DAG) Predecessors(name string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedKeys(d.backward[name])
}

// AllStarts возвращает вершины без входящих рёбер (отсортированы).
func (d *DAG) AllStarts() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	starts := make([]string, 0)
	for name := range d.vertices {
		if len(d.backward[name]) == 0 {
			starts = append(starts, name)
		}
	}
	slices.Sort(starts)
	return starts
}

// Vertices возвращает все вершины (отсортированы).
func (d *DAG) Vertices() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedKeys(d.vertices)
}

// Clone возвращает глубокую копию графа.
func (d *DAG) Clone() *DAG {
	d.mu.RLock()
	defer d.mu.RUnlock()

	clone := NewDAG()
	for name := range d.vertices {
		clone.vertices[name] = struct{}{}
		clone.forward[name] = make(map[string]struct{}, len(d.forward[name]))
		clone.backward[name] = make(map[string]struct{}, len(d.backward[name]))
		for next := range d.forward[name] {
			clone.forward[name][next] = struct{}{}
		}
		for prev := range d.backward[name] {
			clone.backward[name][prev] = struct{}{}
		}
	}
	return clone
}

// TopologicalOrder возвращает вершины в топологическом порядке (алгоритм Кана).
// При равенстве вершины упорядочены по имени, поэтому результат детерминирован.
func (d *DAG) TopologicalOrder() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	inDegree := make(map[string]int, len(d.vertices))
	queue := make([]string, 0)
	for name := range d.vertices {
		inDegree[name] = len(d.backward[name])
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	slices.Sort(queue)

	order := make([]string, 0, len(d.vertices))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		for _, next := range sortedKeys(d.forward[name]) {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	return order
}

// --- Helpers (вызываются под d.mu) ---

func (d *DAG) hasVertex(name string) bool {
	_, ok := d.vertices[name]
	return ok
}

func (d *DAG) hasEdge(from, to string) bool {
	_, inForward := d.forward[from][to]
	_, inBackward := d.backward[to][from]
	return inForward && inBackward
}

// reachable — BFS по forward-рёбрам от from до to.
func (d *DAG) reachable(from, to string) bool {
	if from == to {
		return true
	}

	visited := map[string]bool{from: true}
	queue := []string{from}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		for next := range d.forward[name] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return false
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
