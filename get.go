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
)

// CanGet reports whether the held value can be retrieved as the queried
// type without conversion. With V the held descriptor and T the queried
// one, the rules apply in order:
//
//  1. T is Variant or reference to Variant: always retrievable.
//  2. V is Variant or reference to Variant: the query is delegated to the
//     nested Variant.
//  3. Both T and V are references: retrievable without checking the
//     referent types. This is the fast unchecked path; retrieval through a
//     mismatched reference reinterprets memory at the caller's risk.
//  4. Both are pointers after stripping references: retrievable, element
//     types unchecked.
//  5. Both are fixed-size arrays after stripping references: retrievable,
//     element types unchecked.
//  6. Exactly one is a reference: retrievable only when the other side's
//     type is the referent type.
//  7. Otherwise: retrievable only when T and V are the same type.
func (v *Variant) CanGet(to *MetaType) bool {
	if to == nil {
		return false
	}
	if isVariantOrRefVariant(to) {
		return true
	}
	if isVariantOrRefVariant(v.MetaType()) {
		return v.innerVariant().CanGet(to)
	}

	from := v.MetaType()
	if to.IsReference() && from.IsReference() {
		return true
	}
	t, f := NonReference(to), NonReference(from)
	if t.IsPointer() && f.IsPointer() {
		return true
	}
	if t.IsArray() && f.IsArray() {
		return true
	}
	return sameShape(t, f)
}

// CanGetAs is CanGet against the descriptor of the Go type T.
func CanGetAs[T any](v *Variant) bool {
	return v.CanGet(MetaTypeOf[T]())
}

// Get retrieves the held value as T without conversion. References are read
// through; a Variant holding a nested Variant delegates to it; T == Variant
// yields the (nested) Variant itself.
//
// Get performs no validation outside debug builds (build tag metavaldebug):
// calling it when CanGet would answer false, or through a reference whose
// referent type differs from T, reinterprets the underlying memory and the
// result is undefined. Use CheckedGet for the validating form.
func Get[T any](v *Variant) T {
	to := MetaTypeOf[T]()
	if debugChecks && !v.CanGet(to) {
		panic(fmt.Sprintf("metaval: get %s from %s", to, v.MetaType()))
	}
	src := v.innerVariant()
	if to.kind == KindVariant {
		// Copy, not a bitwise read: the result co-owns boxed storage.
		return any(*src.Copy()).(T)
	}
	return *(*T)(src.Address())
}

// CheckedGet is Get with the CanGet precondition verified unconditionally,
// failing with ErrBadCast instead of misbehaving.
func CheckedGet[T any](v *Variant) (T, error) {
	to := MetaTypeOf[T]()
	if !v.CanGet(to) {
		var zero T
		return zero, fmt.Errorf("get %s from %s: %w", to, v.MetaType(), ErrBadCast)
	}
	return Get[T](v), nil
}

// AsVariant resolves nesting: when v holds a Variant or a reference to one,
// the innermost Variant is returned, otherwise v itself.
func (v *Variant) AsVariant() *Variant {
	return v.innerVariant()
}

func (v *Variant) innerVariant() *Variant {
	for isVariantOrRefVariant(v.MetaType()) {
		next := (*Variant)(v.Address())
		if next == nil || next == v {
			break
		}
		v = next
	}
	return v
}
