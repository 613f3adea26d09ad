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

// Clone duplicates the underlying object and returns a Variant owning the
// duplicate. Unlike Copy, mutations of the original are not observable
// through the clone.
//
// Cloning a reference copies the referent into an owned value of the
// referred type; a clone cannot keep aliasing externally owned memory.
// Cloning requires the type to be copyable and fails with
// ErrNotConstructible otherwise.
func (v *Variant) Clone() (*Variant, error) {
	if v.IsEmpty() {
		return Empty(), nil
	}
	mt := v.MetaType()
	if mt.IsReference() {
		mt = mt.referred
	}
	return FromType(mt, v.Address(), StrategyCopy)
}

// MustClone is Clone, panicking on failure.
func (v *Variant) MustClone() *Variant {
	out, err := v.Clone()
	if err != nil {
		panic(err)
	}
	return out
}
