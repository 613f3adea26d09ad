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

// Assign writes other's value into v's existing storage, in place, with
// value semantics: other is first cast to v's held type, then the converted
// value overwrites the held object. v's descriptor never changes. When v is
// a reference, the referent is mutated and the write is visible to every
// alias of that memory. Assigning to the empty sentinel or through a const
// descriptor fails with ErrBadCast.
//
// This is the counterpart of plain assignment in the held type's world and
// is distinct from Set, which discards v's descriptor and storage wholesale.
func (v *Variant) Assign(other *Variant) error {
	if v.IsEmpty() {
		return fmt.Errorf("assign to empty variant: %w", ErrBadCast)
	}
	target := NonReference(v.MetaType())
	if target.IsConst() {
		return fmt.Errorf("assign to const %s: %w", target, ErrBadCast)
	}
	casted, err := other.CastTo(target)
	if err != nil {
		return err
	}
	target.ops.assign(v.Address(), casted.Address())
	return nil
}
