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
	"errors"
)

var (
	// ErrNotConstructible is returned when a value must be copied or moved
	// into storage but its type supports neither operation required by the
	// requested strategy.
	ErrNotConstructible = errors.New("not constructible")

	// ErrBadCast is returned by CheckedGet, Cast and Assign when the
	// requested type is not reachable from the held type.
	ErrBadCast = errors.New("bad cast")

	// ErrUnsupported is returned by the streaming entry points when the
	// underlying type provides no print or scan hook.
	ErrUnsupported = errors.New("unsupported operation")
)
