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
	"math"
	"unsafe"

	"github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *Zuite) TestRoundTrip() {
	assert.Equal(s.T(), 5, Get[int](MustNew(5)))
	assert.Equal(s.T(), 38.2, Get[float64](MustNew(38.2)))
	assert.Equal(s.T(), "hello", Get[string](MustNew("hello")))
	assert.Equal(s.T(), true, Get[bool](MustNew(true)))
	assert.Equal(s.T(), [3]int{1, 2, 3}, Get[[3]int](MustNew([3]int{1, 2, 3})))

	id := uuid.Must(uuid.NewV4())
	assert.Equal(s.T(), id, Get[uuid.UUID](MustNew(id)))

	n := 9
	assert.True(s.T(), Get[*int](MustNew(&n)) == &n)

	c := cat{animal: animal{name: "felix"}, lives: 9}
	assert.Equal(s.T(), c, Get[cat](MustNew(c)))
}

func (s *Zuite) TestEmptySentinel() {
	var v Variant

	assert.True(s.T(), v.IsEmpty())
	assert.Equal(s.T(), KindVoid, v.MetaType().Kind())
	assert.Equal(s.T(), "void", v.String())

	assert.False(s.T(), v.CanGet(MetaTypeOf[int]()))
	assert.False(s.T(), v.CanCast(MetaTypeOf[int]()))
	assert.True(s.T(), v.CanGet(RefOf(metaTypeFor(variantGoType))))

	_, err := CheckedGet[int](&v)
	assert.True(s.T(), errors.Is(err, ErrBadCast))

	assert.True(s.T(), Empty().IsEmpty())
}

func (s *Zuite) TestCopyAliasesAndCloneDoesNot() {
	v := MustNew(payload{data: [4]int64{1, 2, 3, 4}})
	c := v.Copy()
	cl := v.MustClone()

	(*payload)(v.Address()).data[0] = 99

	assert.Equal(s.T(), int64(99), Get[payload](c).data[0])
	assert.Equal(s.T(), int64(1), Get[payload](cl).data[0])
}

func (s *Zuite) TestCloneOfReference() {
	n := 5
	r := Ref(&n)

	cl := r.MustClone()
	assert.False(s.T(), cl.MetaType().IsReference())
	assert.Equal(s.T(), 5, Get[int](cl))

	n = 7
	assert.Equal(s.T(), 5, Get[int](cl))
	assert.Equal(s.T(), 7, Get[int](r))
}

func (s *Zuite) TestCloneRequiresCopyable() {
	j, err := FromType(MetaTypeOf[journal](), nil)
	require.NoError(s.T(), err)

	_, err = j.Clone()
	assert.True(s.T(), errors.Is(err, ErrNotConstructible))
}

func (s *Zuite) TestSetIsClassSemantics() {
	t := MustNew(5)
	assert.True(s.T(), t.MetaType().Equal(MetaTypeOf[int]()))
	assert.Equal(s.T(), 5, Get[int](t))

	u := MustNew(38.2)
	t.Set(u)
	assert.True(s.T(), t.MetaType().Equal(MetaTypeOf[float64]()))
	assert.Equal(s.T(), 38.2, Get[float64](t))
}

func (s *Zuite) TestMoveLeavesEmptySentinel() {
	v := MustNew("payload")
	m := v.Move()

	assert.True(s.T(), v.IsEmpty())
	assert.Equal(s.T(), "payload", Get[string](m))
}

func (s *Zuite) TestSwap() {
	a := MustNew(5)
	b := MustNew("five")

	a.Swap(b)
	assert.Equal(s.T(), "five", Get[string](a))
	assert.Equal(s.T(), 5, Get[int](b))
}

func (s *Zuite) TestReferenceConstruction() {
	n := 5

	v1 := Ref(&n)
	assert.True(s.T(), v1.MetaType().IsReference())
	assert.True(s.T(), v1.Address() == unsafe.Pointer(&n))

	v2, err := NewConst(n)
	require.NoError(s.T(), err)
	assert.True(s.T(), v2.MetaType().IsConst())

	// plain construction is by value, never by reference
	v3 := MustNew(n)
	assert.False(s.T(), v3.MetaType().IsReference())
	assert.False(s.T(), v3.MetaType().IsConst())

	cr := ConstRef(&n)
	assert.True(s.T(), cr.MetaType().IsReference())
	assert.True(s.T(), cr.MetaType().Referred().IsConst())
}

func (s *Zuite) TestRefVariantAliasesTheVariantItself() {
	inner := MustNew(5)
	rv := RefVariant(inner)

	assert.True(s.T(), rv.MetaType().IsReference())
	assert.True(s.T(), rv.MetaType().Referred().IsVariant())
	assert.True(s.T(), rv.AsVariant() == inner)
	assert.Equal(s.T(), 5, Get[int](rv))

	// mutating through the original is seen through the reference
	*(*int)(inner.Address()) = 6
	assert.Equal(s.T(), 6, Get[int](rv))
}

func (s *Zuite) TestAddressMutation() {
	v1 := MustNew(5)
	assert.Equal(s.T(), 5, Get[int](v1))
	*(*int)(v1.Address()) = 38
	assert.Equal(s.T(), 38, Get[int](v1))

	n1, n2 := 8, 9
	v2 := MustNew(&n1)
	assert.Equal(s.T(), 8, *Get[*int](v2))
	*(**int)(v2.Address()) = &n2
	assert.Equal(s.T(), 9, *Get[*int](v2))

	m := 10
	v3 := Ref(&m)
	*(*int)(v3.Address()) = 15
	assert.Equal(s.T(), 15, m)
}

func (s *Zuite) TestTakeFromOwnershipTransfer() {
	handleDisposals = 0

	v1 := MustNew(&handle{fd: 3})
	v2, err := TakeFromVariant(v1)
	require.NoError(s.T(), err)

	assert.True(s.T(), v1.IsEmpty())
	assert.Equal(s.T(), 3, Get[handle](v2).fd)

	c := v2.Copy()
	v2.Release()
	assert.Equal(s.T(), 0, handleDisposals)
	c.Release()
	assert.Equal(s.T(), 1, handleDisposals)

	// releasing an already empty variant is a no-op
	v2.Release()
	assert.Equal(s.T(), 1, handleDisposals)
}

func (s *Zuite) TestTakeFromRequiresPointer() {
	v := MustNew(handle{fd: 1})
	_, err := TakeFromVariant(v)
	assert.True(s.T(), errors.Is(err, ErrBadCast))
	assert.False(s.T(), v.IsEmpty())
}

func (s *Zuite) TestTakeFromRawPointer() {
	instance := new(string)
	*instance = "Hello"

	v := TakeFrom(MetaTypeOf[string](), unsafe.Pointer(instance))
	got, err := CheckedGet[string](v)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Hello", got)
}

func (s *Zuite) TestRetypeReinterpretsStorage() {
	v := MustNew(int32(-1))
	r := Retype(MetaTypeOf[uint32](), v)

	assert.Equal(s.T(), uint32(math.MaxUint32), Get[uint32](r))
	assert.Equal(s.T(), reprInline, r.cell.repr)

	// retyping shares storage, it never reallocates
	b := MustNew(payload{data: [4]int64{42}})
	rb := Retype(MetaTypeOf[[4]int64](), b)
	assert.True(s.T(), rb.cell.box == b.cell.box)
	assert.Equal(s.T(), int64(42), Get[[4]int64](rb)[0])
}

func (s *Zuite) TestEqual() {
	assert.True(s.T(), MustNew(5).Equal(MustNew(5)))
	assert.False(s.T(), MustNew(5).Equal(MustNew(6)))
	assert.False(s.T(), MustNew(5).Equal(MustNew(5.0)))
	assert.True(s.T(), MustNew("a").Equal(MustNew("a")))
	assert.True(s.T(), Empty().Equal(Empty()))
	assert.False(s.T(), Empty().Equal(MustNew(5)))

	// references compare their referents
	n := 5
	assert.True(s.T(), Ref(&n).Equal(MustNew(5)))
}
