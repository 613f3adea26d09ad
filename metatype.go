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
	"io"
	"reflect"
	"sync"
	"unsafe"

	"github.com/satori/go.uuid"
)

// Kind is the coarse classification of a meta type.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindUintptr
	KindFloat32
	KindFloat64
	KindString
	KindUUID
	KindObject
	KindPointer
	KindReference
	KindArray
	KindFunc
	KindVariant
)

var kindNames = map[Kind]string{
	KindVoid:      "void",
	KindBool:      "bool",
	KindInt:       "int",
	KindInt8:      "int8",
	KindInt16:     "int16",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindUint:      "uint",
	KindUint8:     "uint8",
	KindUint16:    "uint16",
	KindUint32:    "uint32",
	KindUint64:    "uint64",
	KindUintptr:   "uintptr",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindString:    "string",
	KindUUID:      "uuid",
	KindObject:    "object",
	KindPointer:   "pointer",
	KindReference: "reference",
	KindArray:     "array",
	KindFunc:      "func",
	KindVariant:   "variant",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// isNumeric reports whether values of the kind take part in the default
// numeric conversion table. Bool is excluded on purpose.
func (k Kind) isNumeric() bool {
	return KindInt <= k && k <= KindFloat64
}

const ptrSize = unsafe.Sizeof(uintptr(0))

// ConverterFunc converts the value at src into a fresh Variant of the
// converter's target type.
type ConverterFunc func(src unsafe.Pointer) (*Variant, error)

// MetaType describes a concrete type at runtime: its kind, qualifiers, size
// and capabilities. Meta types are interned, so two descriptors for the same
// type are pointer-identical. A descriptor, once registered, lives for the
// rest of the process.
type MetaType struct {
	kind        Kind
	referred    *MetaType // reference target, pointer element, or array element
	length      int       // array length
	size        uintptr
	constQ      bool
	pointerFree bool
	copyable    bool
	movable     bool
	goType      reflect.Type
	ops         typeOps
	dispose     func(unsafe.Pointer)
	printer     func(io.Writer, unsafe.Pointer) error
	scanner     func(io.Reader, unsafe.Pointer) error
	converters  map[*MetaType]ConverterFunc

	// canon points at the unqualified descriptor; derived qualifier
	// descriptors are cached so pointer identity holds per qualifier.
	canon     *MetaType
	refType   *MetaType
	constType *MetaType
}

func (mt *MetaType) Kind() Kind          { return mt.kind }
func (mt *MetaType) Size() uintptr       { return mt.size }
func (mt *MetaType) IsReference() bool   { return mt.kind == KindReference }
func (mt *MetaType) IsConst() bool       { return mt.constQ }
func (mt *MetaType) IsPointer() bool     { return mt.kind == KindPointer }
func (mt *MetaType) IsArray() bool       { return mt.kind == KindArray }
func (mt *MetaType) IsFunc() bool        { return mt.kind == KindFunc }
func (mt *MetaType) IsVariant() bool     { return mt.kind == KindVariant }
func (mt *MetaType) IsCopyable() bool    { return mt.copyable }
func (mt *MetaType) IsMovable() bool     { return mt.movable }
func (mt *MetaType) Referred() *MetaType { return mt.referred }

// Len returns the length of an array type, and 0 for every other kind.
func (mt *MetaType) Len() int { return mt.length }

// Equal reports strict descriptor equality, qualifiers included.
func (mt *MetaType) Equal(other *MetaType) bool {
	if mt == other {
		return true
	}
	if mt == nil || other == nil {
		return false
	}
	if mt.kind != other.kind || mt.constQ != other.constQ {
		return false
	}
	if mt.kind == KindReference {
		return mt.referred.Equal(other.referred)
	}
	return mt.goType == other.goType
}

// sameShape compares two non-reference descriptors ignoring constness. This
// is the equality the compatibility rules use: const int and int have the
// same shape, int and int64 do not.
func sameShape(a, b *MetaType) bool {
	if a == b {
		return true
	}
	return a.kind == b.kind && a.goType == b.goType
}

func (mt *MetaType) String() string {
	switch {
	case mt == nil:
		return "<nil>"
	case mt.kind == KindVoid:
		return "void"
	case mt.kind == KindReference:
		return mt.referred.String() + " &"
	}
	prefix := ""
	if mt.constQ {
		prefix = "const "
	}
	if mt.goType != nil {
		return prefix + mt.goType.String()
	}
	return prefix + mt.kind.String()
}

// NonReference strips one level of reference off a descriptor.
func NonReference(mt *MetaType) *MetaType {
	if mt != nil && mt.kind == KindReference {
		return mt.referred
	}
	return mt
}

func isVariantOrRefVariant(mt *MetaType) bool {
	if mt == nil {
		return false
	}
	return mt.kind == KindVariant ||
		(mt.kind == KindReference && mt.referred.kind == KindVariant)
}

// voidType is the empty sentinel's descriptor. A Variant never carries a nil
// descriptor; the default state is void.
var voidType = &MetaType{
	kind:        KindVoid,
	pointerFree: true,
	copyable:    true,
	movable:     true,
}

// VoidType returns the descriptor denoting the empty sentinel.
func VoidType() *MetaType { return voidType }

var (
	variantGoType = reflect.TypeOf(Variant{})
	uuidGoType    = reflect.TypeOf(uuid.UUID{})
)

var registry = struct {
	mu       sync.RWMutex
	byGoType map[reflect.Type]*MetaType
}{
	byGoType: make(map[reflect.Type]*MetaType),
}

// MetaTypeOf returns the interned descriptor for the Go type T. Function
// types are stored decayed, as their single-word func value.
func MetaTypeOf[T any]() *MetaType {
	return metaTypeFor(reflect.TypeOf((*T)(nil)).Elem())
}

func metaTypeFor(rt reflect.Type) *MetaType {
	registry.mu.RLock()
	mt := registry.byGoType[rt]
	registry.mu.RUnlock()
	if mt != nil {
		return mt
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return metaTypeForLocked(rt)
}

func metaTypeForLocked(rt reflect.Type) *MetaType {
	if mt := registry.byGoType[rt]; mt != nil {
		return mt
	}

	mt := &MetaType{
		kind:        kindOf(rt),
		size:        rt.Size(),
		pointerFree: isPointerFree(rt),
		copyable:    true,
		movable:     true,
		goType:      rt,
		ops:         reflectOps{rt},
	}
	mt.canon = mt
	// Insert before resolving element types so that self-referential types
	// terminate.
	registry.byGoType[rt] = mt

	switch rt.Kind() {
	case reflect.Ptr:
		mt.referred = metaTypeForLocked(rt.Elem())
	case reflect.UnsafePointer:
		mt.referred = voidType
	case reflect.Array:
		if mt.kind == KindArray {
			mt.referred = metaTypeForLocked(rt.Elem())
			mt.length = rt.Len()
		}
	}
	return mt
}

func kindOf(rt reflect.Type) Kind {
	if rt == variantGoType {
		return KindVariant
	}
	if rt == uuidGoType {
		return KindUUID
	}
	switch rt.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int:
		return KindInt
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int64:
		return KindInt64
	case reflect.Uint:
		return KindUint
	case reflect.Uint8:
		return KindUint8
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint64:
		return KindUint64
	case reflect.Uintptr:
		return KindUintptr
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	case reflect.String:
		return KindString
	case reflect.Ptr, reflect.UnsafePointer:
		return KindPointer
	case reflect.Array:
		return KindArray
	case reflect.Func:
		return KindFunc
	default:
		return KindObject
	}
}

// isPointerFree reports whether a value of the type contains no pointer
// words, which makes it safe to relocate bitwise into the inline buffer.
func isPointerFree(rt reflect.Type) bool {
	switch rt.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return isPointerFree(rt.Elem())
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			if !isPointerFree(rt.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// RefOf returns the reference descriptor for mt. References to references do
// not exist; RefOf on a reference returns it unchanged.
func RefOf(mt *MetaType) *MetaType {
	if mt.kind == KindReference {
		return mt
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if mt.refType == nil {
		mt.refType = &MetaType{
			kind:     KindReference,
			referred: mt,
			size:     ptrSize,
			copyable: true,
			movable:  true,
			canon:    mt.canon,
		}
	}
	return mt.refType
}

// ConstOf returns the const-qualified descriptor for mt. The const variant
// shares the underlying capabilities and conversion table.
func ConstOf(mt *MetaType) *MetaType {
	if mt.constQ {
		return mt
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if mt.constType == nil {
		c := *mt
		c.constQ = true
		c.refType = nil
		c.constType = nil
		mt.constType = &c
	}
	return mt.constType
}

// TypeOption customizes a descriptor at registration time.
type TypeOption func(*MetaType)

// NotCopyable marks the type as not copy-constructible.
func NotCopyable() TypeOption {
	return func(mt *MetaType) { mt.copyable = false }
}

// NotMovable marks the type as not move-constructible.
func NotMovable() TypeOption {
	return func(mt *MetaType) { mt.movable = false }
}

// WithDispose installs a hook run exactly once when the last owner of a
// boxed value of the type releases it.
func WithDispose(fn func(unsafe.Pointer)) TypeOption {
	return func(mt *MetaType) { mt.dispose = fn }
}

// WithPrinter installs the stream output hook for the type.
func WithPrinter(fn func(io.Writer, unsafe.Pointer) error) TypeOption {
	return func(mt *MetaType) { mt.printer = fn }
}

// WithScanner installs the stream input hook for the type.
func WithScanner(fn func(io.Reader, unsafe.Pointer) error) TypeOption {
	return func(mt *MetaType) { mt.scanner = fn }
}

// RegisterType interns the descriptor for T and applies the given options.
// Registration is expected to happen during program startup, before the
// descriptor is used concurrently.
func RegisterType[T any](opts ...TypeOption) *MetaType {
	mt := MetaTypeOf[T]()
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for _, opt := range opts {
		opt(mt)
	}
	return mt
}

// RegisterConverter adds a value-level conversion from one type to another
// to the conversion table consulted by Cast. Qualifiers on either side are
// ignored; the table is keyed by unqualified descriptors. Registration must
// happen before concurrent use.
func RegisterConverter(from, to *MetaType, fn ConverterFunc) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	f := from.canon
	if f.converters == nil {
		f.converters = make(map[*MetaType]ConverterFunc)
	}
	f.converters[to.canon] = fn
}

func (mt *MetaType) converterTo(to *MetaType) ConverterFunc {
	if mt.canon == nil || mt.canon.converters == nil {
		return nil
	}
	return mt.canon.converters[to.canon]
}
