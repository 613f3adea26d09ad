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
	"strings"
)

// FprintVariant writes the held value to w through the descriptor's print
// hook. Types without a hook fail with ErrUnsupported at the call site, not
// at construction.
func FprintVariant(w io.Writer, v *Variant) error {
	src := v.innerVariant()
	mt := NonReference(src.MetaType())
	hook := mt.printer
	if hook == nil && mt.canon != nil {
		hook = mt.canon.printer
	}
	if hook == nil {
		return fmt.Errorf("printing %s: %w", mt, ErrUnsupported)
	}
	return hook(w, src.Address())
}

// FscanVariant reads a value from r into the held object through the
// descriptor's scan hook, mutating it in place. Types without a hook fail
// with ErrUnsupported.
func FscanVariant(r io.Reader, v *Variant) error {
	src := v.innerVariant()
	mt := NonReference(src.MetaType())
	hook := mt.scanner
	if hook == nil && mt.canon != nil {
		hook = mt.canon.scanner
	}
	if hook == nil {
		return fmt.Errorf("scanning %s: %w", mt, ErrUnsupported)
	}
	return hook(r, src.Address())
}

// String renders the held value when the type has a print hook, and an
// opaque marker otherwise. Boxed values without stream support render their
// box identity, so aliasing copies show the same marker.
func (v *Variant) String() string {
	if v.IsEmpty() {
		return "void"
	}
	var b strings.Builder
	if err := FprintVariant(&b, v); err == nil {
		return b.String()
	}
	if v.cell.repr == reprBoxed {
		return fmt.Sprintf("<%s:%s>", v.MetaType(), v.cell.box.id)
	}
	return fmt.Sprintf("<%s>", v.MetaType())
}
