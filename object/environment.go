package object

// Environment holds the bindings of one scope and a link to the enclosing one.
// It is not safe for concurrent use; give each concurrent evaluation its own
// root environment.
type Environment struct {
	store map[string]Object
	outer *Environment
}

// NewEnvironment creates a new, top-level environment.
func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object), outer: nil}
}

// NewEnclosedEnvironment creates a new environment that is enclosed by an outer one.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Get retrieves an object by name, checking the local scope first and then
// each enclosing scope in turn.
func (e *Environment) Get(name string) (Object, bool) {
	obj, ok := e.store[name]
	if !ok && e.outer != nil {
		return e.outer.Get(name)
	}
	return obj, ok
}

// Set binds name in the local scope and returns val. An outer binding of the
// same name is shadowed, never modified.
func (e *Environment) Set(name string, val Object) Object {
	e.store[name] = val
	return val
}
