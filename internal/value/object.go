package value

// ObjectWrapper is the payload of a KindObject Value: a base Value plus
// an attribute bag (names/class/dim, per spec.md section 3). Attribute
// names are interned string ids, consistent with Character elements.
type ObjectWrapper struct {
	Base  Value
	Attrs map[int32]Value
}

// AttachAttribute returns a new Object wrapper with attribute name set to
// attr. Setting any attribute on a non-Object value promotes it to an
// Object wrapping the original value, per spec.md section 4.A.
func AttachAttribute(v Value, name int32, attr Value) Value {
	var w ObjectWrapper
	if v.Kind == KindObject {
		existing := v.Ref.(*ObjectWrapper)
		w.Base = existing.Base
		w.Attrs = make(map[int32]Value, len(existing.Attrs)+1)
		for k, val := range existing.Attrs {
			w.Attrs[k] = val
		}
	} else {
		w.Base = v
		w.Attrs = make(map[int32]Value, 1)
	}
	w.Attrs[name] = attr
	return Value{Kind: KindObject, Ref: &w}
}

// DetachAttribute returns v with attribute name removed. If the result has
// no attributes left, the Object wrapper is dropped and the base Value is
// returned directly, so a fully-stripped Object is indistinguishable from
// one that was never wrapped.
func DetachAttribute(v Value, name int32) Value {
	if v.Kind != KindObject {
		return v
	}
	existing := v.Ref.(*ObjectWrapper)
	if _, ok := existing.Attrs[name]; !ok {
		return v
	}
	attrs := make(map[int32]Value, len(existing.Attrs)-1)
	for k, val := range existing.Attrs {
		if k != name {
			attrs[k] = val
		}
	}
	if len(attrs) == 0 {
		return existing.Base
	}
	return Value{Kind: KindObject, Ref: &ObjectWrapper{Base: existing.Base, Attrs: attrs}}
}

// GetAttribute returns the attribute named name, or Nil if v is not an
// Object or does not carry that attribute.
func GetAttribute(v Value, name int32) Value {
	if v.Kind != KindObject {
		return Nil()
	}
	w := v.Ref.(*ObjectWrapper)
	if attr, ok := w.Attrs[name]; ok {
		return attr
	}
	return Nil()
}

// BaseValue unwraps an Object to its underlying Value; non-Objects are
// returned unchanged.
func BaseValue(v Value) Value {
	if v.Kind != KindObject {
		return v
	}
	return v.Ref.(*ObjectWrapper).Base
}
