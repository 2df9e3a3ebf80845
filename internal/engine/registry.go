package engine

import (
	"fmt"
	"sort"

	"scoby_collective/internal/domain"
)

// workerRegistry owns the worker arena. Lookups outside it resolve by ID.
type workerRegistry struct {
	workers map[string]*domain.Worker
}

func newWorkerRegistry() *workerRegistry {
	return &workerRegistry{workers: make(map[string]*domain.Worker)}
}

func (r *workerRegistry) add(w *domain.Worker) error {
	if _, ok := r.workers[w.ID]; ok {
		return fmt.Errorf("%w: worker %s", ErrDuplicateID, w.ID)
	}
	r.workers[w.ID] = w
	return nil
}

func (r *workerRegistry) get(id string) (*domain.Worker, error) {
	w, ok := r.workers[id]
	if !ok {
		return nil, fmt.Errorf("%w: worker %s", ErrNotFound, id)
	}
	return w, nil
}

func (r *workerRegistry) remove(id string) (*domain.Worker, error) {
	w, ok := r.workers[id]
	if !ok {
		return nil, fmt.Errorf("%w: worker %s", ErrNotFound, id)
	}
	delete(r.workers, id)
	return w, nil
}

// list returns the workers sorted by ID so map iteration order never leaks
// into scheduling or rebalancing decisions.
func (r *workerRegistry) list() []*domain.Worker {
	out := make([]*domain.Worker, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, w)
	}
	sortWorkersByID(out)
	return out
}

func (r *workerRegistry) count() int { return len(r.workers) }

type taskStore struct {
	tasks map[string]*domain.Task
}

func newTaskStore() *taskStore {
	return &taskStore{tasks: make(map[string]*domain.Task)}
}

func (s *taskStore) add(t *domain.Task) error {
	if _, ok := s.tasks[t.ID]; ok {
		return fmt.Errorf("%w: task %s", ErrDuplicateID, t.ID)
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *taskStore) get(id string) (*domain.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	return t, nil
}

// list returns the tasks sorted by ID.
func (s *taskStore) list() []*domain.Task {
	out := make([]*domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *taskStore) count() int { return len(s.tasks) }
