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
	"unsafe"
)

// adjuster converts an address of one class into the address of a related
// class, following one registered relation.
type adjuster func(unsafe.Pointer) unsafe.Pointer

type classEdge struct {
	to *MetaType
	fn adjuster
}

// ClassRegistry answers whether an instance of one registered class can be
// viewed as another, and adjusts pointers accordingly. It is built during
// program startup and installed with SetClassRegistry; afterwards it is
// read-only and safe for concurrent use. Relations compose: registering
// kitten→cat and cat→animal makes kitten viewable as animal.
type ClassRegistry struct {
	members map[*MetaType]bool
	edges   map[*MetaType][]classEdge
}

func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{
		members: make(map[*MetaType]bool),
		edges:   make(map[*MetaType][]classEdge),
	}
}

// RegisterRelation records that Derived can be viewed as Base and back. up
// and down perform the pointer adjustment; with Go embedding, up is
// typically a field address and down the inverse. A nil adjuster makes that
// direction unviewable.
func RegisterRelation[Derived, Base any](r *ClassRegistry, up func(*Derived) *Base, down func(*Base) *Derived) {
	d := MetaTypeOf[Derived]()
	b := MetaTypeOf[Base]()
	r.members[d] = true
	r.members[b] = true
	if up != nil {
		r.edges[d] = append(r.edges[d], classEdge{to: b, fn: func(p unsafe.Pointer) unsafe.Pointer {
			return unsafe.Pointer(up((*Derived)(p)))
		}})
	}
	if down != nil {
		r.edges[b] = append(r.edges[b], classEdge{to: d, fn: func(p unsafe.Pointer) unsafe.Pointer {
			return unsafe.Pointer(down((*Base)(p)))
		}})
	}
}

// isClass reports whether the descriptor takes part in any relation.
func (r *ClassRegistry) isClass(mt *MetaType) bool {
	if r == nil {
		return false
	}
	return r.members[mt.canon]
}

// CanView reports whether an instance of class from can be viewed as class
// to, directly or through intermediate relations.
func (r *ClassRegistry) CanView(from, to *MetaType) bool {
	if r == nil {
		return false
	}
	return r.path(from.canon, to.canon) != nil
}

// Adjust converts an address of class from into the address of class to.
// The second result is false when the classes are unrelated.
func (r *ClassRegistry) Adjust(from, to *MetaType, ptr unsafe.Pointer) (unsafe.Pointer, bool) {
	if r == nil {
		return nil, false
	}
	fns := r.path(from.canon, to.canon)
	if fns == nil {
		return nil, false
	}
	for _, fn := range fns {
		if ptr == nil {
			break
		}
		ptr = fn(ptr)
	}
	return ptr, true
}

// path finds the chain of adjusters from one class to another, breadth
// first. The empty (non-nil) chain means from and to are the same class.
func (r *ClassRegistry) path(from, to *MetaType) []adjuster {
	if !r.members[from] || !r.members[to] {
		return nil
	}
	if from == to {
		return []adjuster{}
	}

	type node struct {
		mt  *MetaType
		fns []adjuster
	}
	seen := map[*MetaType]bool{from: true}
	queue := []node{{mt: from}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range r.edges[n.mt] {
			if seen[e.to] {
				continue
			}
			fns := append(append([]adjuster{}, n.fns...), e.fn)
			if e.to == to {
				return fns
			}
			seen[e.to] = true
			queue = append(queue, node{mt: e.to, fns: fns})
		}
	}
	return nil
}

var classRegistry *ClassRegistry

// SetClassRegistry installs the process-wide class-relationship resolver
// consulted by Cast for class pointers and references. It must be called
// before any concurrent use of the library; the registry must not be
// mutated afterwards.
func SetClassRegistry(r *ClassRegistry) {
	classRegistry = r
}

func classResolver() *ClassRegistry {
	return classRegistry
}
