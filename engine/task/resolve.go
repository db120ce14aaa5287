package task

// Resolve expands name into the ordered chain of its prerequisites followed
// by the task itself. Prerequisites are visited depth-first in declaration
// order and each task appears at most once. Aggregate tasks without work of
// their own (such as all) contribute only their prerequisites.
func (r *Registry) Resolve(name string) ([]Task, error) {
	if _, ok := r.byName[name]; !ok {
		return nil, &UnknownTaskError{Name: name, Known: r.Names()}
	}
	visited := make(map[string]struct{})
	var out []Task
	var visit func(n string)
	visit = func(n string) {
		if _, done := visited[n]; done {
			return
		}
		visited[n] = struct{}{}
		t := r.byName[n]
		for _, dep := range t.Needs {
			visit(dep)
		}
		if t.HasWork() {
			out = append(out, t)
		}
	}
	visit(name)
	return out, nil
}

// ResolveNames is Resolve reduced to task names.
func (r *Registry) ResolveNames(name string) ([]string, error) {
	tasks, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tasks))
	for _, t := range tasks {
		names = append(names, t.Name)
	}
	return names, nil
}
