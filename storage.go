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
	"sync/atomic"
	"unsafe"

	"github.com/satori/go.uuid"
)

// inlineCapacity is the size of the in-place buffer. Values at most this
// large, with no pointer words, are stored directly inside the Variant.
const inlineCapacity = 16

type storageRepr uint8

const (
	reprNone storageRepr = iota

	// reprInline holds pointer-free bytes in the inline buffer.
	reprInline

	// reprWord holds a single GC-visible pointer word (pointer and func
	// values).
	reprWord

	// reprBoxed holds a reference-counted heap value shared across copies.
	reprBoxed

	// reprReferent aliases an externally owned object; the Variant does not
	// own its lifetime.
	reprReferent
)

// sharedBox is the reference-counted owner of one heap value. The count is
// atomic so copies may be made and released from different goroutines;
// mutation of the boxed value itself is the caller's concern.
type sharedBox struct {
	refs int32
	id   string
	ptr  unsafe.Pointer
	mt   *MetaType
}

func newBox(mt *MetaType, ptr unsafe.Pointer) *sharedBox {
	return &sharedBox{
		refs: 1,
		id:   uuid.Must(uuid.NewV4()).String(),
		ptr:  ptr,
		mt:   mt,
	}
}

func (b *sharedBox) acquire() {
	atomic.AddInt32(&b.refs, 1)
}

// release drops one owner. The dispose hook, if any, runs on the release
// that drops the last owner.
func (b *sharedBox) release() {
	if atomic.AddInt32(&b.refs, -1) != 0 {
		return
	}
	if b.mt != nil {
		dispose := b.mt.dispose
		if dispose == nil && b.mt.canon != nil {
			dispose = b.mt.canon.dispose
		}
		if dispose != nil {
			dispose(b.ptr)
		}
	}
	b.ptr = nil
}

// storageCell is a tagged union over the three storage representations plus
// the word slot. Raw bytes and pointer words never share a slot, so the
// garbage collector always sees pointers as pointers.
type storageCell struct {
	inline [inlineCapacity]byte
	word   unsafe.Pointer
	box    *sharedBox
	repr   storageRepr
}

func usesWord(mt *MetaType) bool {
	return mt.kind == KindPointer || mt.kind == KindFunc
}

// newCell applies the placement rule: reference types alias their referent,
// pointer-shaped values live in the word slot, small pointer-free values go
// inline, everything else is boxed on the heap.
func newCell(mt *MetaType, src unsafe.Pointer, strategy CopyStrategy) (storageCell, error) {
	if mt.IsReference() {
		return storageCell{repr: reprReferent, word: src}, nil
	}

	if src != nil {
		var err error
		if strategy, err = resolveStrategy(mt, strategy); err != nil {
			return storageCell{}, err
		}
	}

	switch {
	case usesWord(mt):
		c := storageCell{repr: reprWord}
		if src != nil {
			c.word = *(*unsafe.Pointer)(src)
		}
		return c, nil
	case mt.pointerFree && mt.size <= inlineCapacity:
		c := storageCell{repr: reprInline}
		if src != nil {
			copy(c.inline[:mt.size], unsafe.Slice((*byte)(src), mt.size))
		}
		return c, nil
	default:
		return storageCell{
			repr: reprBoxed,
			box:  newBox(mt, mt.ops.construct(src, strategy)),
		}, nil
	}
}

// adoptCell wraps an existing heap pointer into a box without constructing
// anything. The descriptor must match the pointee's real type; this is an
// unchecked precondition.
func adoptCell(mt *MetaType, instance unsafe.Pointer) storageCell {
	return storageCell{repr: reprBoxed, box: newBox(mt, instance)}
}

// address returns the address of the stored value: the referent for
// references, the box payload for boxed values, the slot itself otherwise.
func (c *storageCell) address() unsafe.Pointer {
	switch c.repr {
	case reprInline:
		return unsafe.Pointer(&c.inline[0])
	case reprWord:
		return unsafe.Pointer(&c.word)
	case reprBoxed:
		return c.box.ptr
	case reprReferent:
		return c.word
	}
	return nil
}

// share duplicates the cell with copy semantics: boxes gain an owner, inline
// bytes are bit-copied, referents stay aliased.
func (c storageCell) share() storageCell {
	if c.repr == reprBoxed {
		c.box.acquire()
	}
	return c
}

func (c *storageCell) release() {
	if c.repr == reprBoxed && c.box != nil {
		c.box.release()
	}
	*c = storageCell{}
}
