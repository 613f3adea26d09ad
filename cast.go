// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metaval

import (
	"fmt"
	"reflect"
	"unsafe"
)

// CanCast reports whether CastTo would succeed. It performs the same work as
// the cast itself, so callers that want the converted value should call
// CastTo directly rather than pre-checking.
func (v *Variant) CanCast(to *MetaType) bool {
	_, err := v.castTo(to)
	return err == nil
}

// CanCastAs is CanCast against the descriptor of the Go type T.
func CanCastAs[T any](v *Variant) bool {
	return v.CanCast(MetaTypeOf[T]())
}

// CastTo converts the held value to the target type, returning a new
// Variant with the converted value. Casting between references or pointers
// of registered classes delegates to the class registry; everything else
// goes through value-level conversion (identity, the numeric table, and
// registered converters).
//
// The result's descriptor is not guaranteed to carry the exact qualifiers
// of the target (a reference may collapse to a value or the other way
// around) but it always satisfies CanGet for the target type, its
// reference, and its unqualified form.
func (v *Variant) CastTo(to *MetaType) (*Variant, error) {
	return v.castTo(to)
}

// CastSilentlyTo is CastTo returning the empty sentinel instead of an error.
func (v *Variant) CastSilentlyTo(to *MetaType) *Variant {
	out, err := v.castTo(to)
	if err != nil {
		return Empty()
	}
	return out
}

// Cast is CastTo against the descriptor of the Go type T.
func Cast[T any](v *Variant) (*Variant, error) {
	return v.castTo(MetaTypeOf[T]())
}

// CastSilently is CastSilentlyTo against the descriptor of the Go type T.
func CastSilently[T any](v *Variant) *Variant {
	return v.CastSilentlyTo(MetaTypeOf[T]())
}

func (v *Variant) castTo(to *MetaType) (*Variant, error) {
	if to == nil {
		return nil, fmt.Errorf("cast to nil type: %w", ErrBadCast)
	}

	// Variant targets take the container itself, nested or not.
	if isVariantOrRefVariant(to) {
		return v.innerVariant().Copy(), nil
	}
	src := v.innerVariant()
	from := src.MetaType()
	if from.kind == KindVoid {
		return nil, fmt.Errorf("cast from empty variant: %w", ErrBadCast)
	}

	f, t := NonReference(from), NonReference(to)
	switch {
	case from.IsReference() && to.IsReference():
		return src.referenceCast(f, t)
	case f.IsPointer() && t.IsPointer():
		return src.pointerCast(f, t)
	case f.IsPointer() != t.IsPointer():
		return nil, fmt.Errorf("cast %s to %s: %w", from, to, ErrBadCast)
	default:
		return src.valueCast(f, t)
	}
}

// referenceCast handles reference-to-reference targets. Registered classes
// resolve through the class registry and the result stays a reference to
// the adjusted referent. Identical types stay a reference. Anything else
// falls back to value conversion and the result is no longer a reference.
func (v *Variant) referenceCast(f, t *MetaType) (*Variant, error) {
	if r := classResolver(); r.isClass(f) && r.isClass(t) {
		adjusted, ok := r.Adjust(f, t, v.Address())
		if !ok {
			return nil, fmt.Errorf("cast %s & to %s &: %w", f, t, ErrBadCast)
		}
		return &Variant{
			mt:   RefOf(t),
			cell: storageCell{repr: reprReferent, word: adjusted},
		}, nil
	}
	if sameShape(f, t) {
		return &Variant{
			mt:   RefOf(t),
			cell: storageCell{repr: reprReferent, word: v.Address()},
		}, nil
	}
	return v.valueCast(f, t)
}

// pointerCast handles pointer-to-pointer targets. Pointer-to-void (Go's
// unsafe.Pointer) converts to and from any pointer unconditionally;
// registered class pointers resolve through the class registry; anything
// else requires identical element types.
func (v *Variant) pointerCast(f, t *MetaType) (*Variant, error) {
	word := *(*unsafe.Pointer)(v.Address())
	fe, te := f.referred, t.referred
	switch {
	case fe.kind == KindVoid || te.kind == KindVoid:
		// void pointer wildcard
	case sameShape(fe, te):
	default:
		r := classResolver()
		if !r.isClass(fe) || !r.isClass(te) {
			return nil, fmt.Errorf("cast %s to %s: %w", f, t, ErrBadCast)
		}
		adjusted, ok := r.Adjust(fe, te, word)
		if !ok {
			return nil, fmt.Errorf("cast %s to %s: %w", f, t, ErrBadCast)
		}
		word = adjusted
	}
	out := &Variant{mt: t, cell: storageCell{repr: reprWord, word: word}}
	return out, nil
}

// valueCast performs value-level conversion: identity, then registered
// converters, then the numeric conversion table.
func (v *Variant) valueCast(f, t *MetaType) (*Variant, error) {
	addr := v.Address()
	if sameShape(f, t) {
		return FromType(t, addr, StrategyCopy)
	}
	if fn := f.converterTo(t); fn != nil {
		return fn(addr)
	}
	if f.kind.isNumeric() && t.kind.isNumeric() {
		converted := reflect.NewAt(f.goType, addr).Elem().Convert(t.goType)
		holder := reflect.New(t.goType)
		holder.Elem().Set(converted)
		return FromType(t, holder.UnsafePointer(), StrategyCopy)
	}
	return nil, fmt.Errorf("cast %s to %s: %w", f, t, ErrBadCast)
}
