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

// Variant is a runtime-typed value container. It pairs a meta type with a
// storage cell and can hold a value of any registered type: scalars,
// strings, structs, pointers, arrays, functions, references to external
// objects, and other Variants.
//
// The zero Variant is the empty sentinel: it denotes void, holds nothing,
// and answers false to every CanGet and CanCast query except for Variant
// targets.
type Variant struct {
	mt   *MetaType
	cell storageCell
}

// Empty returns a fresh empty sentinel.
func Empty() *Variant {
	return &Variant{mt: voidType}
}

// New constructs a Variant holding a copy of value. The descriptor is the
// value type of T; to hold a reference use Ref, to hold a const-qualified
// value use NewConst. Construction fails only when T has been registered as
// neither copyable nor movable.
func New[T any](value T) (*Variant, error) {
	return FromType(MetaTypeOf[T](), unsafe.Pointer(&value))
}

// MustNew is New, panicking on construction failure.
func MustNew[T any](value T) *Variant {
	v, err := New(value)
	if err != nil {
		panic(err)
	}
	return v
}

// NewConst constructs a Variant holding a const-qualified copy of value.
func NewConst[T any](value T) (*Variant, error) {
	return FromType(ConstOf(MetaTypeOf[T]()), unsafe.Pointer(&value))
}

// FromType constructs a Variant of the given descriptor from the object at
// src. A nil src default-constructs the value. For reference descriptors,
// src becomes the referent. src must point at an object of the descriptor's
// exact type; this cannot be validated.
func FromType(mt *MetaType, src unsafe.Pointer, strategy ...CopyStrategy) (*Variant, error) {
	st := AutoDetect
	if len(strategy) > 0 {
		st = strategy[0]
	}
	cell, err := newCell(mt, src, st)
	if err != nil {
		return nil, err
	}
	return &Variant{mt: mt, cell: cell}, nil
}

// Ref constructs a Variant referencing target. The Variant does not own the
// referent; mutating through Address or Assign is visible to every alias.
func Ref[T any](target *T) *Variant {
	return &Variant{
		mt:   RefOf(MetaTypeOf[T]()),
		cell: storageCell{repr: reprReferent, word: unsafe.Pointer(target)},
	}
}

// ConstRef constructs a reference-to-const Variant for target.
func ConstRef[T any](target *T) *Variant {
	return &Variant{
		mt:   RefOf(ConstOf(MetaTypeOf[T]())),
		cell: storageCell{repr: reprReferent, word: unsafe.Pointer(target)},
	}
}

// RefVariant constructs a reference to the Variant v itself, not to its
// contents. This enables double-indirection aliasing: retrieval and casts on
// the result are delegated to v.
func RefVariant(v *Variant) *Variant {
	return &Variant{
		mt:   RefOf(metaTypeFor(variantGoType)),
		cell: storageCell{repr: reprReferent, word: unsafe.Pointer(v)},
	}
}

// TakeFrom adopts the heap object at instance into an owning Variant without
// constructing a new value. The descriptor must be the pointee's type, not
// the pointer type; a mismatch is undefined behavior. After the call the
// Variant owns the object: its dispose hook, if any, runs when the last
// owner calls Release.
func TakeFrom(mt *MetaType, instance unsafe.Pointer) *Variant {
	return &Variant{mt: mt, cell: adoptCell(mt, instance)}
}

// TakeFromVariant adopts the pointee of a pointer-holding Variant. The
// source must hold a pointer, not a direct object; afterwards the source is
// reset to the empty sentinel and no longer refers to the pointee.
func TakeFromVariant(v *Variant) (*Variant, error) {
	mt := v.MetaType()
	if !mt.IsPointer() || mt.referred == nil || mt.referred.kind == KindVoid {
		return nil, fmt.Errorf("take from variant holding %s: %w", mt, ErrBadCast)
	}
	out := TakeFrom(mt.referred, *(*unsafe.Pointer)(v.cell.address()))
	v.reset()
	return out, nil
}

// Retype reinterprets v's storage under a new descriptor, without conversion
// or validation and without allocating new storage. The caller attests that
// the storage layout is compatible; it is undefined behavior otherwise.
func Retype(mt *MetaType, v *Variant) *Variant {
	out := v.Copy()
	out.mt = mt
	return out
}

// MetaType returns the held descriptor. It is never nil; the empty sentinel
// answers the void descriptor.
func (v *Variant) MetaType() *MetaType {
	if v.mt == nil {
		return voidType
	}
	return v.mt
}

// IsEmpty reports whether the Variant denotes void.
func (v *Variant) IsEmpty() bool {
	return v.MetaType().kind == KindVoid
}

// Address returns the address of the held object: the referent's address
// when the Variant is a reference, the storage address otherwise. Writing
// through it is the supported way to mutate the held object in place.
func (v *Variant) Address() unsafe.Pointer {
	return v.cell.address()
}

// Copy duplicates the Variant with class semantics: boxed storage is shared
// and gains an owner, inline storage is bit-copied, referents stay aliased.
// Copying never deep-copies boxed data; see Clone for that.
func (v *Variant) Copy() *Variant {
	return &Variant{mt: v.MetaType(), cell: v.cell.share()}
}

// Move transfers the storage into a new Variant and leaves v as the empty
// sentinel.
func (v *Variant) Move() *Variant {
	out := &Variant{mt: v.MetaType(), cell: v.cell}
	v.reset()
	return out
}

// Set replaces v wholesale with a copy of other: the old descriptor and
// storage are discarded and other's are adopted. This is class-semantics
// replacement; for value-semantics assignment through the held type, see
// Assign.
func (v *Variant) Set(other *Variant) *Variant {
	cell := other.cell.share()
	v.cell.release()
	v.mt = other.MetaType()
	v.cell = cell
	return v
}

// Swap exchanges descriptor and storage with another Variant.
func (v *Variant) Swap(other *Variant) {
	v.mt, other.mt = other.MetaType(), v.MetaType()
	v.cell, other.cell = other.cell, v.cell
}

// Release drops v's ownership of its storage and resets it to the empty
// sentinel. The dispose hook of a boxed value runs when the last owner
// releases. Release is only required for deterministic disposal (values
// adopted via TakeFrom with a dispose hook); memory itself is reclaimed by
// the garbage collector either way.
func (v *Variant) Release() {
	v.cell.release()
	v.reset()
}

func (v *Variant) reset() {
	v.mt = voidType
	v.cell = storageCell{}
}

// Equal compares the held values after stripping references. Two empty
// Variants are equal; an empty and a non-empty one are not.
func (v *Variant) Equal(other *Variant) bool {
	a := NonReference(v.MetaType())
	b := NonReference(other.MetaType())
	if a.kind == KindVoid || b.kind == KindVoid {
		return a.kind == b.kind
	}
	if !sameShape(a, b) {
		return false
	}
	av := reflect.NewAt(a.goType, v.Address()).Elem().Interface()
	bv := reflect.NewAt(b.goType, other.Address()).Elem().Interface()
	return reflect.DeepEqual(av, bv)
}
