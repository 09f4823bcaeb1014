package errobj

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestGetSet(t *testing.T) {
	o := New("Error")
	if _, ok := o.Get("message"); ok {
		t.Fatal("Get on missing property should report not found")
	}

	o.Set("message", "boom")
	v, ok := o.Get("message")
	if !ok || v != "boom" {
		t.Fatalf("Get(message) = %v, %v; want boom, true", v, ok)
	}

	o.Set("message", "boom 2")
	if v, _ := o.Get("message"); v != "boom 2" {
		t.Fatalf("Get(message) after overwrite = %v; want boom 2", v)
	}
}

func TestNewErrorDefaultsConstructorName(t *testing.T) {
	o := NewError("", "boom")
	if got := o.ConstructorName(); got != "Error" {
		t.Fatalf("ConstructorName() = %q; want Error", got)
	}
	if v, _ := o.Get("message"); v != "boom" {
		t.Fatalf("Get(message) = %v; want boom", v)
	}
}

func TestAccessorReplacesValueProperty(t *testing.T) {
	o := New("Error")
	o.Set("stack", "plain value")
	o.DefineAccessor("stack", func(o *Object) Value {
		return "computed"
	}, nil, false)

	v, ok := o.Get("stack")
	if !ok || v != "computed" {
		t.Fatalf("Get(stack) = %v, %v; want computed, true", v, ok)
	}

	// Non-enumerable accessor must not show up in Keys.
	for _, k := range o.Keys() {
		if k == "stack" {
			t.Fatal("non-enumerable accessor listed in Keys")
		}
	}
}

func TestSetShadowsAccessorWithoutSetter(t *testing.T) {
	o := New("Error")
	o.DefineAccessor("stack", func(o *Object) Value {
		return "computed"
	}, nil, false)

	o.Set("stack", "shadowed")
	if v, _ := o.Get("stack"); v != "shadowed" {
		t.Fatalf("Get(stack) = %v; want shadowed", v)
	}
}

func TestSetInvokesSetter(t *testing.T) {
	o := New("Error")
	var wrote Value
	o.DefineAccessor("stack", nil, func(o *Object, v Value) {
		wrote = v
	}, false)

	o.Set("stack", "via setter")
	if wrote != "via setter" {
		t.Fatalf("setter saw %v; want via setter", wrote)
	}
}

func TestHiddenSlotsInvisible(t *testing.T) {
	o := NewError("TypeError", "x is not a function")
	key := NewSlotKey("stack")
	o.SetSlot(key, "hidden payload")

	v, ok := o.GetSlot(key)
	if !ok || v != "hidden payload" {
		t.Fatalf("GetSlot = %v, %v; want hidden payload, true", v, ok)
	}

	// A different key with the same label must not read the slot.
	other := NewSlotKey("stack")
	if _, ok := o.GetSlot(other); ok {
		t.Fatal("slot readable through a distinct key")
	}

	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "hidden payload") {
		t.Fatalf("hidden slot leaked into JSON: %s", data)
	}
}

func TestMarshalJSONReadsGetters(t *testing.T) {
	o := NewError("Error", "boom")
	o.DefineAccessor("code", func(o *Object) Value {
		return 42
	}, nil, true)

	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out["message"] != "boom" {
		t.Fatalf("message = %v; want boom", out["message"])
	}
	if out["code"] != float64(42) {
		t.Fatalf("code = %v; want 42", out["code"])
	}
}

func TestToText(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"nil", nil, ""},
		{"string", "boom", "boom"},
		{"int", 7, "7"},
		{"stringer", NewSlotKey("x"), "slot(x)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToText(tt.in); got != tt.want {
				t.Errorf("ToText(%v) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}
