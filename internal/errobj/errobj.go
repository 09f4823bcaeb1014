package errobj

import (
	"encoding/json"
	"fmt"
)

// Value is any guest-visible value held by an object property.
type Value = any

// Getter computes a property value on read.
type Getter func(o *Object) Value

// Setter stores a property value on write.
type Setter func(o *Object, v Value)

// SlotKey is an opaque key for a hidden per-object slot. Two keys are never
// equal unless they are the same allocation, so a slot written with one key
// cannot be read with another.
type SlotKey struct {
	label string
}

// NewSlotKey creates a new hidden-slot key. The label is for debugging only
// and does not participate in identity.
func NewSlotKey(label string) *SlotKey {
	return &SlotKey{label: label}
}

func (k *SlotKey) String() string {
	return fmt.Sprintf("slot(%s)", k.label)
}

// property is a single named property: either a plain value or an accessor.
type property struct {
	value      Value
	getter     Getter
	setter     Setter
	accessor   bool
	enumerable bool
}

// Object is a guest-style object: ordered string-keyed properties (plain
// values or accessors with enumerability control) plus hidden slots that are
// invisible to enumeration and serialization.
type Object struct {
	constructor string
	names       []string
	props       map[string]*property
	slots       map[*SlotKey]Value
	nativeStack Value
}

// New creates an empty object with the given constructor name.
func New(constructor string) *Object {
	return &Object{
		constructor: constructor,
		props:       make(map[string]*property),
	}
}

// NewError creates an error-shaped object: constructor name plus an
// enumerable "message" property.
func NewError(name, message string) *Object {
	if name == "" {
		name = "Error"
	}
	o := New(name)
	o.Set("message", message)
	return o
}

// ConstructorName returns the name of the constructor this object was
// created with.
func (o *Object) ConstructorName() string {
	return o.constructor
}

// Get reads a property, invoking its getter if it is an accessor. The second
// return is false if the property does not exist.
func (o *Object) Get(name string) (Value, bool) {
	p, ok := o.props[name]
	if !ok {
		return nil, false
	}
	if p.accessor {
		if p.getter == nil {
			return nil, true
		}
		return p.getter(o), true
	}
	return p.value, true
}

// Set writes a plain enumerable value property. Writing through an accessor
// that has a setter invokes the setter; writing through an accessor without
// one redefines the property as a plain value (shadowing the accessor).
func (o *Object) Set(name string, v Value) {
	if p, ok := o.props[name]; ok {
		if p.accessor && p.setter != nil {
			p.setter(o, v)
			return
		}
		*p = property{value: v, enumerable: true}
		return
	}
	o.names = append(o.names, name)
	o.props[name] = &property{value: v, enumerable: true}
}

// DefineAccessor installs a getter/setter property, replacing any existing
// property of the same name in place.
func (o *Object) DefineAccessor(name string, get Getter, set Setter, enumerable bool) {
	p, ok := o.props[name]
	if !ok {
		o.names = append(o.names, name)
		p = &property{}
		o.props[name] = p
	}
	*p = property{getter: get, setter: set, accessor: true, enumerable: enumerable}
}

// Keys returns the enumerable property names in definition order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.names))
	for _, name := range o.names {
		if o.props[name].enumerable {
			keys = append(keys, name)
		}
	}
	return keys
}

// GetSlot reads a hidden slot. Hidden slots never appear in Keys or in
// serialized output.
func (o *Object) GetSlot(key *SlotKey) (Value, bool) {
	v, ok := o.slots[key]
	return v, ok
}

// SetSlot writes a hidden slot.
func (o *Object) SetSlot(key *SlotKey, v Value) {
	if o.slots == nil {
		o.slots = make(map[*SlotKey]Value)
	}
	o.slots[key] = v
}

// SetNativeStack records the stack the runtime captured when the error was
// thrown. It is a sidecar, not a property: reading "stack" does not see it.
func (o *Object) SetNativeStack(v Value) {
	o.nativeStack = v
}

// NativeStack returns the runtime-captured stack, or nil if none was
// recorded.
func (o *Object) NativeStack() Value {
	return o.nativeStack
}

// MarshalJSON serializes the enumerable properties only. Accessor properties
// are read through their getters; hidden slots and the native stack are
// never included.
func (o *Object) MarshalJSON() ([]byte, error) {
	out := make(map[string]Value, len(o.names))
	for _, name := range o.Keys() {
		v, _ := o.Get(name)
		out[name] = v
	}
	return json.Marshal(out)
}

// ToText converts a property value to text the way a guest runtime would:
// missing values convert to the empty string, strings pass through, and
// everything else goes through its generic string conversion.
func ToText(v Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
