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
	"io"
	"reflect"
	"unsafe"

	"github.com/satori/go.uuid"
)

// registerScalar interns T's descriptor and installs reflect-driven stream
// hooks for it.
func registerScalar[T any]() *MetaType {
	mt := MetaTypeOf[T]()
	rt := mt.goType
	return RegisterType[T](
		WithPrinter(func(w io.Writer, p unsafe.Pointer) error {
			_, err := fmt.Fprintf(w, "%v", reflect.NewAt(rt, p).Elem().Interface())
			return err
		}),
		WithScanner(func(r io.Reader, p unsafe.Pointer) error {
			_, err := fmt.Fscan(r, reflect.NewAt(rt, p).Interface())
			return err
		}),
	)
}

func init() {
	registerScalar[bool]()
	registerScalar[int]()
	registerScalar[int8]()
	registerScalar[int16]()
	registerScalar[int32]()
	registerScalar[int64]()
	registerScalar[uint]()
	registerScalar[uint8]()
	registerScalar[uint16]()
	registerScalar[uint32]()
	registerScalar[uint64]()
	registerScalar[uintptr]()
	registerScalar[float32]()
	registerScalar[float64]()
	stringType := registerScalar[string]()

	uuidType := RegisterType[uuid.UUID](
		WithPrinter(func(w io.Writer, p unsafe.Pointer) error {
			_, err := io.WriteString(w, (*uuid.UUID)(p).String())
			return err
		}),
		WithScanner(func(r io.Reader, p unsafe.Pointer) error {
			var token string
			if _, err := fmt.Fscan(r, &token); err != nil {
				return err
			}
			id, err := uuid.FromString(token)
			if err != nil {
				return err
			}
			*(*uuid.UUID)(p) = id
			return nil
		}),
	)

	RegisterConverter(uuidType, stringType, func(src unsafe.Pointer) (*Variant, error) {
		return New((*uuid.UUID)(src).String())
	})
	RegisterConverter(stringType, uuidType, func(src unsafe.Pointer) (*Variant, error) {
		id, err := uuid.FromString(*(*string)(src))
		if err != nil {
			return nil, fmt.Errorf("converting %q to uuid: %w", *(*string)(src), ErrBadCast)
		}
		return New(id)
	})
}
