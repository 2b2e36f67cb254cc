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

package xunsafe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlatistiv/qalloc/internal/xunsafe"
)

func TestAddrArithmetic(t *testing.T) {
	t.Parallel()

	buf := make([]uint64, 8)
	a := xunsafe.AddrOf(&buf[0])

	assert.Equal(t, a.ByteAdd(8), a.Add(1))
	assert.Equal(t, a.ByteAdd(32), a.Add(4))
	assert.Equal(t, 32, a.Add(4).ByteSub(a))
	assert.Equal(t, &buf[2], a.Add(2).AssertValid())

	assert.True(t, xunsafe.Addr[byte](0).IsNil())
	assert.False(t, a.IsNil())
}

func TestAddrAlign(t *testing.T) {
	t.Parallel()

	a := xunsafe.Addr[byte](0x1008)
	assert.Equal(t, xunsafe.Addr[byte](0x1010), a.RoundUpTo(16))
	assert.Equal(t, 8, a.Padding(16))
	assert.True(t, a.Misaligned(16))
	assert.False(t, a.RoundUpTo(16).Misaligned(16))
}

func TestCopyClear(t *testing.T) {
	t.Parallel()

	src := []byte("0123456789abcdef")
	dst := make([]byte, 16)

	xunsafe.Copy(&dst[0], &src[0], 16)
	require.Equal(t, src, dst)

	xunsafe.Clear(&dst[0], 8)
	require.Equal(t, make([]byte, 8), dst[:8])
	require.Equal(t, src[8:], dst[8:])
}
