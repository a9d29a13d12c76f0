package native

import (
	cmap "github.com/orcaman/concurrent-map"
)

// key builds the composite lookup key the dispatch resolver uses for both
// the trap table and the deferred native registry: the owning class's
// internal name and the method's name concatenated with its raw
// descriptor, joined by '#', e.g.
// "java/lang/Integer#valueOf(I)Ljava/lang/Integer;".
func key(owner, nameDesc string) string {
	return owner + "#" + nameDesc
}

// Registry is the external native-method table a deferred binder
// consults on first invocation (§4.4). It's backed by a concurrent map
// rather than a plain map with a mutex: the teacher's execution engine
// (cvm/vm.go) reaches for the same library whenever multiple logical
// threads might touch one lookup table, and Method.code's "unbound →
// bound" transition is exactly that shape even though this core runs a
// single logical thread at a time.
type Registry struct {
	funcs cmap.ConcurrentMap
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: cmap.New()}
}

// Register installs fn as the native implementation of owner's
// name+descriptor. Panics on a duplicate registration: the registry is
// populated once at startup and a collision is a programming error, not
// a runtime condition.
func (r *Registry) Register(owner, nameDesc string, fn Func) {
	k := key(owner, nameDesc)
	if _, exists := r.funcs.Get(k); exists {
		panic("native: duplicate registration for " + k)
	}
	r.funcs.Set(k, fn)
}

// Lookup returns the registered Func for owner's name+descriptor, if any.
func (r *Registry) Lookup(owner, nameDesc string) (Func, bool) {
	v, ok := r.funcs.Get(key(owner, nameDesc))
	if !ok {
		return nil, false
	}
	return v.(Func), true
}

// RegisterStdlib populates reg with the small slice of the Java Class
// Library this core implements directly instead of interpreting real JCL
// bytecode: println, boxed Integer, and HashMap. These are grounded in
// the inline special-casing the teacher's interpreter used to do in
// invokevirtual/invokestatic; here they're proper registry entries so the
// dispatch resolver's deferred-binder path (§4.4) is the only way any
// non-trapped native method gets a body; trapped methods take theirs
// from the trap table.
func RegisterStdlib(reg *Registry) {
	registerPrintStream(reg)
	registerInteger(reg)
	registerHashMap(reg)
}
