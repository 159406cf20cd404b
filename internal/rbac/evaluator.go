package rbac

// Hierarchy maps a role to the roles it directly dominates. The relation is
// a DAG; domination is transitive and every known role dominates itself.
type Hierarchy map[string][]string

// Evaluator answers whether a set of held roles satisfies a required role.
// Evaluation is pure: no I/O, no mutation. Roles absent from the hierarchy
// grant nothing and satisfy nothing (fail-closed).
type Evaluator struct {
	dominates map[string]map[string]struct{}
}

func NewEvaluator(h Hierarchy) *Evaluator {
	e := &Evaluator{dominates: make(map[string]map[string]struct{}, len(h))}
	for role := range h {
		closure := make(map[string]struct{})
		collect(h, role, closure)
		e.dominates[role] = closure
	}
	return e
}

func collect(h Hierarchy, role string, out map[string]struct{}) {
	if _, seen := out[role]; seen {
		return
	}
	out[role] = struct{}{}
	for _, below := range h[role] {
		collect(h, below, out)
	}
}

// Authorize allows iff some held role is equal to or a hierarchical ancestor
// of the required role. Unknown held roles and unknown required roles both
// deny.
func (e *Evaluator) Authorize(held []string, required string) bool {
	if required == "" {
		return false
	}
	for _, r := range held {
		if closure, ok := e.dominates[r]; ok {
			if _, ok := closure[required]; ok {
				return true
			}
		}
	}
	return false
}
