/*
 * Copyright 2025 The Redline Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmap_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/pkg/cmap"
)

func TestMap(t *testing.T) {
	t.Run("set and get test", func(t *testing.T) {
		m := cmap.New[string, int]()
		m.Set("a", 1)
		m.Set("b", 2)

		v, ok := m.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, 2, m.Len())
		assert.True(t, m.Has("b"))
		assert.False(t, m.Has("c"))
	})

	t.Run("upsert test", func(t *testing.T) {
		m := cmap.New[string, int]()
		res := m.Upsert("counter", func(value int, exists bool) int {
			assert.False(t, exists)
			return 1
		})
		assert.Equal(t, 1, res)

		res = m.Upsert("counter", func(value int, exists bool) int {
			assert.True(t, exists)
			return value + 1
		})
		assert.Equal(t, 2, res)
	})

	t.Run("conditional delete test", func(t *testing.T) {
		m := cmap.New[string, int]()
		m.Set("a", 1)

		deleted := m.Delete("a", func(value int, exists bool) bool {
			return value > 1
		})
		assert.False(t, deleted)
		assert.True(t, m.Has("a"))

		deleted = m.Delete("a", func(value int, exists bool) bool {
			return exists
		})
		assert.True(t, deleted)
		assert.False(t, m.Has("a"))
	})

	t.Run("concurrent access test", func(t *testing.T) {
		m := cmap.New[int, int]()

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				m.Set(n, n)
				m.Upsert(n, func(value int, exists bool) int {
					return value * 2
				})
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 100, m.Len())
		v, ok := m.Get(7)
		assert.True(t, ok)
		assert.Equal(t, 14, v)
		assert.Len(t, m.Keys(), 100)
		assert.Len(t, m.Values(), 100)
	})
}
