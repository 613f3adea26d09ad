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

// CopyStrategy selects how a source value is brought into storage when a
// Variant is constructed from a (descriptor, address) pair.
type CopyStrategy int

const (
	// AutoDetect copies when the type is copyable, otherwise moves.
	AutoDetect CopyStrategy = iota

	// StrategyCopy always copies, failing when the type is not copyable.
	StrategyCopy

	// StrategyMove always moves, failing when the type is not movable.
	// Moving zeroes the source.
	StrategyMove
)

// resolveStrategy turns AutoDetect into a concrete strategy and checks the
// type's capabilities against the requested one.
func resolveStrategy(mt *MetaType, strategy CopyStrategy) (CopyStrategy, error) {
	switch strategy {
	case StrategyCopy:
		if !mt.copyable {
			return strategy, fmt.Errorf("copying %s: %w", mt, ErrNotConstructible)
		}
	case StrategyMove:
		if !mt.movable {
			return strategy, fmt.Errorf("moving %s: %w", mt, ErrNotConstructible)
		}
	default:
		if mt.copyable {
			return StrategyCopy, nil
		}
		if mt.movable {
			return StrategyMove, nil
		}
		return strategy, fmt.Errorf("constructing %s: %w", mt, ErrNotConstructible)
	}
	return strategy, nil
}

// typeOps is the capability a descriptor attaches to manipulate values of
// its type behind untyped addresses. The Variant core only ever works
// through this interface, never through the concrete Go type.
type typeOps interface {
	// construct heap-allocates a value of the type. A nil src
	// default-constructs; otherwise the value at src is copied or moved in
	// per the already resolved strategy.
	construct(src unsafe.Pointer, strategy CopyStrategy) unsafe.Pointer

	// assign overwrites the value at dst with the value at src, in place.
	assign(dst, src unsafe.Pointer)

	// clear zeroes the value at p.
	clear(p unsafe.Pointer)
}

// reflectOps is the single typeOps implementation; reflect supplies uniform
// construction and assignment for every concrete Go type.
type reflectOps struct {
	rt reflect.Type
}

func (o reflectOps) construct(src unsafe.Pointer, strategy CopyStrategy) unsafe.Pointer {
	p := reflect.New(o.rt)
	if src == nil {
		return p.UnsafePointer()
	}
	from := reflect.NewAt(o.rt, src).Elem()
	p.Elem().Set(from)
	if strategy == StrategyMove {
		from.Set(reflect.Zero(o.rt))
	}
	return p.UnsafePointer()
}

func (o reflectOps) assign(dst, src unsafe.Pointer) {
	reflect.NewAt(o.rt, dst).Elem().Set(reflect.NewAt(o.rt, src).Elem())
}

func (o reflectOps) clear(p unsafe.Pointer) {
	reflect.NewAt(o.rt, p).Elem().Set(reflect.Zero(o.rt))
}
