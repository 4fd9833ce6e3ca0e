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
 *
 * This file was written with reference to moby/locker.
 *   https://github.com/moby/locker
 */

package locker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockerLock(t *testing.T) {
	l := New()
	l.Lock("doc-1")
	ctr := l.locks["doc-1"]

	assert.Equal(t, int32(0), ctr.count())

	chDone := make(chan struct{})
	go func() {
		l.Lock("doc-1")
		close(chDone)
	}()

	chWaiting := make(chan struct{})
	go func() {
		for range time.Tick(1 * time.Millisecond) {
			if ctr.count() == 1 {
				close(chWaiting)
				break
			}
		}
	}()

	select {
	case <-chWaiting:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for lock waiters to be incremented")
	}

	select {
	case <-chDone:
		t.Fatal("lock should not have returned while it was still held")
	default:
	}

	assert.NoError(t, l.Unlock("doc-1"))

	select {
	case <-chDone:
	case <-time.After(3 * time.Second):
		t.Fatal("lock should have completed")
	}

	assert.Equal(t, int32(0), ctr.count())
}

func TestLockerUnlock(t *testing.T) {
	l := New()

	l.Lock("doc-1")
	assert.NoError(t, l.Unlock("doc-1"))

	chDone := make(chan struct{})
	go func() {
		l.Lock("doc-1")
		close(chDone)
	}()

	select {
	case <-chDone:
	case <-time.After(3 * time.Second):
		t.Fatal("lock should not be blocked")
	}
}

func TestLockerUnknownName(t *testing.T) {
	l := New()
	assert.ErrorIs(t, l.Unlock("unknown"), ErrNoSuchLock)
}

func TestLockerTryLock(t *testing.T) {
	l := New()
	assert.True(t, l.TryLock("doc-1"))
	assert.False(t, l.TryLock("doc-1"))
	assert.True(t, l.TryLock("doc-2"))
	assert.NoError(t, l.Unlock("doc-1"))
	assert.True(t, l.TryLock("doc-1"))
}

func TestLockerConcurrency(t *testing.T) {
	l := New()

	var wg sync.WaitGroup
	for i := 0; i <= 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock("doc-1")
			// pause to make sure locks are waited on
			time.Sleep(1 * time.Millisecond)
			_ = l.Unlock("doc-1")
		}()
	}
	wg.Wait()

	// since everything has unlocked the lock should have been deleted
	_, exists := l.locks["doc-1"]
	assert.False(t, exists)
}
