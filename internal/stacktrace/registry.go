package stacktrace

import "github.com/yousuf/tracebox/internal/errobj"

// Registry owns the hidden-slot key for one isolate context. The key is
// created lazily on first use and reused for the lifetime of the context;
// two live contexts never share a key, so a chain attached in one context is
// invisible to another context's registry.
type Registry struct {
	key *errobj.SlotKey
}

// NewRegistry creates a registry for a new isolate context.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) slotKey() *errobj.SlotKey {
	if r.key == nil {
		r.key = errobj.NewSlotKey("stack")
	}
	return r.key
}

// Seen reports whether this registry has already attached a trace to the
// error.
func (r *Registry) Seen(err *errobj.Object) bool {
	_, ok := err.GetSlot(r.slotKey())
	return ok
}

// Attach records the first boundary crossing for an error this registry has
// not seen: the snapshot becomes the hidden trace and the stack accessor is
// installed.
func (r *Registry) Attach(err *errobj.Object, snap *Snapshot) {
	r.install(err, Captured{Snap: snap})
}

// Chain records a boundary crossing. If the error already carries a trace,
// the new snapshot is paired on top of it (newer first); otherwise Chain
// tries to recover a pre-existing trace from the error before attaching.
func (r *Registry) Chain(err *errobj.Object, snap *Snapshot) {
	existing, ok := err.GetSlot(r.slotKey())
	if !ok {
		// The error has not passed through this registry yet. Prefer the
		// stack the runtime recorded when the error was thrown.
		if ns, isSnap := err.NativeStack().(*Snapshot); isSnap && ns != nil {
			existing = Captured{Snap: ns}
		} else {
			// Probably reconstructed from a cross-boundary copy, which
			// flattens the trace into a plain `stack` string.
			v, found := err.Get("stack")
			s, isText := v.(string)
			if !found || !isText {
				r.Attach(err, snap)
				return
			}
			existing = Text(s)
		}
	}
	older, isNode := existing.(Node)
	if !isNode {
		// Slot held something this package never wrote; treat the error as
		// unseen rather than chain onto garbage.
		r.Attach(err, snap)
		return
	}
	r.install(err, Pair{Newer: Captured{Snap: snap}, Older: older})
}

// install writes the hidden trace slot and (re)installs the non-enumerable
// stack accessor. Reinstalling is idempotent.
func (r *Registry) install(err *errobj.Object, n Node) {
	key := r.slotKey()
	err.SetSlot(key, n)
	err.DefineAccessor("stack", func(o *errobj.Object) errobj.Value {
		msg, _ := o.Get("message")
		slot, _ := o.GetSlot(key)
		node, _ := slot.(Node)
		return o.ConstructorName() + ": " + errobj.ToText(msg) + Render(node)
	}, nil, false)
}

// RenderedStack reads the error's stack accessor as text. It returns ok
// false if the error has no stack property at all.
func RenderedStack(err *errobj.Object) (string, bool) {
	v, ok := err.Get("stack")
	if !ok {
		return "", false
	}
	return errobj.ToText(v), true
}
