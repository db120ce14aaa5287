package task

// Registry is the immutable, validated set of tasks.
//
// It is safe for concurrent read access.
type Registry struct {
	byName map[string]Task
	order  []string
}

// NewRegistry builds and validates a Registry.
//
// Validation rejects:
//   - empty or duplicate task names
//   - prerequisites referencing unknown tasks
//   - self-dependencies
//   - any cycle (direct or indirect)
func NewRegistry(tasks ...Task) (*Registry, error) {
	if len(tasks) == 0 {
		return nil, invalidf("no tasks")
	}
	r := &Registry{
		byName: make(map[string]Task, len(tasks)),
		order:  make([]string, 0, len(tasks)),
	}
	for _, t := range tasks {
		if t.Name == "" {
			return nil, invalidf("task name is required")
		}
		if _, exists := r.byName[t.Name]; exists {
			return nil, invalidf("duplicate task name: %q", t.Name)
		}
		t.Needs = append([]string(nil), t.Needs...)
		t.Commands = append([]string(nil), t.Commands...)
		r.byName[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	for _, name := range r.order {
		seen := make(map[string]struct{})
		for _, dep := range r.byName[name].Needs {
			if dep == name {
				return nil, &CyclicDependencyError{Path: []string{name, name}}
			}
			if _, ok := r.byName[dep]; !ok {
				return nil, invalidf("task %q needs unknown task %q", name, dep)
			}
			if _, dup := seen[dep]; dup {
				return nil, invalidf("task %q lists %q twice", name, dep)
			}
			seen[dep] = struct{}{}
		}
	}
	if cycle := r.findCycle(); cycle != nil {
		return nil, &CyclicDependencyError{Path: cycle}
	}
	return r, nil
}

// Get returns a task by name.
func (r *Registry) Get(name string) (Task, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns task names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Tasks returns the tasks in declaration order.
func (r *Registry) Tasks() []Task {
	out := make([]Task, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// findCycle runs a DFS over tasks in declaration order and returns one cycle
// as a closed path (first == last), or nil.
func (r *Registry) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(r.order))
	var stack []string
	var cycle []string

	var dfs func(name string) bool
	dfs = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)
		for _, dep := range r.byName[name].Needs {
			switch color[dep] {
			case white:
				if dfs(dep) {
					return true
				}
			case gray:
				for i, n := range stack {
					if n == dep {
						cycle = append(cycle, stack[i:]...)
						cycle = append(cycle, dep)
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return false
	}

	for _, name := range r.order {
		if color[name] != white {
			continue
		}
		if dfs(name) {
			return cycle
		}
	}
	return nil
}
