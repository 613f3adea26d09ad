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
	"sync/atomic"
	"unsafe"

	"github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *Zuite) TestStoragePlacement() {
	n := 9

	cases := map[*Variant]storageRepr{
		MustNew(5):                         reprInline,
		MustNew(3.14):                      reprInline,
		MustNew(uuid.Must(uuid.NewV4())):   reprInline,
		MustNew("hello"):                   reprBoxed,
		MustNew(payload{}):                 reprBoxed,
		MustNew(&n):                        reprWord,
		MustNew(unsafe.Pointer(&n)):        reprWord,
		MustNew(func() int { return n }):   reprWord,
		Ref(&n):                            reprReferent,
		ConstRef(&n):                       reprReferent,
	}
	for v, expected := range cases {
		assert.Equal(s.T(), expected, v.cell.repr, "%s", v.MetaType())
	}
}

func (s *Zuite) TestNotConstructible() {
	_, err := New(pinned{token: 1})
	assert.True(s.T(), errors.Is(err, ErrNotConstructible))

	// copy requested on a move-only type
	j := journal{}
	_, err = FromType(MetaTypeOf[journal](), unsafe.Pointer(&j), StrategyCopy)
	assert.True(s.T(), errors.Is(err, ErrNotConstructible))

	// auto-detect falls back to move for a move-only type
	_, err = FromType(MetaTypeOf[journal](), unsafe.Pointer(&j))
	assert.NoError(s.T(), err)

	// move requested on a copy-only type
	a := anchor{}
	_, err = FromType(MetaTypeOf[anchor](), unsafe.Pointer(&a), StrategyMove)
	assert.True(s.T(), errors.Is(err, ErrNotConstructible))
	_, err = FromType(MetaTypeOf[anchor](), unsafe.Pointer(&a), StrategyCopy)
	assert.NoError(s.T(), err)
}

func (s *Zuite) TestDefaultConstruction() {
	// a nil source default-constructs, even for an unconstructible type
	v, err := FromType(MetaTypeOf[pinned](), nil)
	require.NoError(s.T(), err)
	assert.False(s.T(), v.IsEmpty())
	assert.Equal(s.T(), pinned{}, Get[pinned](v))

	v, err = FromType(MetaTypeOf[string](), nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "", Get[string](v))
}

func (s *Zuite) TestMoveZeroesSource() {
	p := payload{data: [4]int64{1, 2, 3, 4}}
	v, err := FromType(MetaTypeOf[payload](), unsafe.Pointer(&p), StrategyMove)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), payload{}, p)
	assert.Equal(s.T(), [4]int64{1, 2, 3, 4}, Get[payload](v).data)
}

func (s *Zuite) TestSharedBoxRefcount() {
	v := MustNew(payload{data: [4]int64{7}})
	box := v.cell.box
	require.NotNil(s.T(), box)
	assert.Equal(s.T(), int32(1), atomic.LoadInt32(&box.refs))

	c := v.Copy()
	assert.True(s.T(), c.cell.box == box)
	assert.Equal(s.T(), int32(2), atomic.LoadInt32(&box.refs))

	c.Release()
	assert.Equal(s.T(), int32(1), atomic.LoadInt32(&box.refs))
	assert.True(s.T(), c.IsEmpty())

	v.Release()
	assert.Equal(s.T(), int32(0), atomic.LoadInt32(&box.refs))
}

func (s *Zuite) TestInlineCopyIsBitwise() {
	v := MustNew(5)
	c := v.Copy()

	*(*int)(v.Address()) = 38
	assert.Equal(s.T(), 38, Get[int](v))
	assert.Equal(s.T(), 5, Get[int](c))
}

func (s *Zuite) TestBoxIdentity() {
	v := MustNew(payload{})
	c := v.Copy()
	assert.Equal(s.T(), v.cell.box.id, c.cell.box.id)

	other := MustNew(payload{})
	assert.NotEqual(s.T(), v.cell.box.id, other.cell.box.id)
}
