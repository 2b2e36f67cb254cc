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

package stats_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zlatistiv/qalloc/internal/stats"
)

func TestCounter(t *testing.T) {
	t.Parallel()

	var c stats.Counter
	assert.Equal(t, int64(0), c.Get())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				c.Inc()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8000), c.Get())
}

func TestMean(t *testing.T) {
	t.Parallel()

	var m stats.Mean
	assert.Equal(t, 0.0, m.Get())

	m.Record(16)
	m.Record(48)
	assert.Equal(t, 32.0, m.Get())
}
