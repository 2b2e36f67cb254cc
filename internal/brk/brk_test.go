// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package brk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlatistiv/qalloc/internal/brk"
)

func TestSim(t *testing.T) {
	t.Parallel()

	const pagesize = 4096
	b := brk.NewSim(16*pagesize, pagesize)

	base := b.Current()
	assert.False(t, base.Misaligned(pagesize))
	assert.Equal(t, pagesize, b.Pagesize())

	old, err := b.Extend(4 * pagesize)
	require.NoError(t, err)
	assert.Equal(t, base, old)
	assert.Equal(t, 4*pagesize, b.Current().ByteSub(base))

	// The region is writable end to end.
	p := base.AssertValid()
	*p = 0xAA
	*b.Current().ByteAdd(-1).AssertValid() = 0xBB
	assert.Equal(t, byte(0xAA), *p)
}

func TestSimExhausted(t *testing.T) {
	t.Parallel()

	const pagesize = 4096
	b := brk.NewSim(2*pagesize, pagesize)

	_, err := b.Extend(2 * pagesize)
	require.NoError(t, err)

	before := b.Current()
	_, err = b.Extend(pagesize)
	require.ErrorIs(t, err, brk.ErrExhausted)
	assert.Equal(t, before, b.Current(), "failed extension must not move the break")
}

func TestMap(t *testing.T) {
	t.Parallel()

	b, err := brk.NewMap(1 << 20)
	require.NoError(t, err)

	pagesize := b.Pagesize()
	base := b.Current()
	assert.False(t, base.Misaligned(pagesize))

	old, err := b.Extend(pagesize)
	require.NoError(t, err)
	assert.Equal(t, base, old)

	// Committed pages are writable.
	*base.AssertValid() = 1
	*b.Current().ByteAdd(-1).AssertValid() = 1
}
