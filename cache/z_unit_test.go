// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type report struct {
	Total float64 `json:"total"`
	Seed  int64   `json:"seed"`
}

func TestLRUEviction(t *testing.T) {
	c := New[int](2)
	c.Put(1, 10)
	c.Put(2, 20)
	if _, ok := c.Get(1); !ok {
		t.Fatalf("key 1 should be cached")
	}
	c.Put(3, 30) // 淘汰最久未用的 2
	if _, ok := c.Get(2); ok {
		t.Fatalf("key 2 should be evicted")
	}
	if v, ok := c.Get(1); !ok || v != 10 {
		t.Fatalf("key 1 should survive, got %d %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("len should be 2, got %d", c.Len())
	}
	st := c.Stats()
	if st.Hits != 2 || st.Misses != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestZeroCapacityKeepsNothing(t *testing.T) {
	c := New[int](0)
	c.Put(1, 1)
	if _, ok := c.Get(1); ok {
		t.Fatalf("zero capacity cache should not keep values")
	}
}

func TestDoCollapsesConcurrentCalls(t *testing.T) {
	c := New[*report](4)
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (*report, error) {
		calls.Add(1)
		<-release
		return &report{Total: 0.5}, nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _, err := c.Do(context.Background(), 42, fn)
			if err != nil || r.Total != 0.5 {
				t.Errorf("unexpected result %v %v", r, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if calls.Load() != 1 {
		// 8 個呼叫都在 release 前進入 singleflight
		t.Fatalf("expected 1 computation, got %d", calls.Load())
	}
	if _, shared, _ := c.Do(context.Background(), 42, fn); !shared {
		t.Fatalf("second call should hit the cache")
	}
}

func TestDoDoesNotCacheErrors(t *testing.T) {
	c := New[int](4)
	boom := errors.New("boom")
	if _, _, err := c.Do(context.Background(), 7, func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := c.Get(7); ok {
		t.Fatalf("failed computation must not be cached")
	}
}

func TestDoSurvivesLeaderCancel(t *testing.T) {
	c := New[int](4)
	started, release := make(chan struct{}), make(chan struct{})
	fn := func(ctx context.Context) (int, error) {
		close(started)
		select {
		case <-release:
			return 7, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	leader, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := c.Do(leader, 9, fn)
		leaderErr <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	follower := make(chan result, 1)
	go func() {
		v, _, err := c.Do(context.Background(), 9, fn)
		follower <- result{v, err}
	}()
	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("leader should see its own cancel, got %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)

	got := <-follower
	if got.err != nil || got.v != 7 {
		t.Fatalf("follower should get the shared result, got %v %v", got.v, got.err)
	}
	if v, ok := c.Get(9); !ok || v != 7 {
		t.Fatalf("result should be cached after the leader left")
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := New[*report](3)
	for i := 1; i <= 3; i++ {
		c.Put(uint64(i), &report{Total: float64(i) / 10, Seed: int64(i)})
	}
	c.Get(1) // 1 變成最新
	var buf bytes.Buffer
	if err := c.Snapshot(&buf); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	d := New[*report](2)
	n, err := d.Restore(&buf)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 records, got %d", n)
	}
	// 容量 2：只留下最新的 3 與 1
	if _, ok := d.Get(2); ok {
		t.Fatalf("oldest record should be evicted on restore")
	}
	r, ok := d.Get(1)
	if !ok || r.Seed != 1 || r.Total != 0.1 {
		t.Fatalf("record 1 not restored: %+v %v", r, ok)
	}
}

func TestFingerprintStable(t *testing.T) {
	a, err := Fingerprint(report{Total: 1, Seed: 2})
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	b, _ := Fingerprint(report{Total: 1, Seed: 2})
	c, _ := Fingerprint(report{Total: 1, Seed: 3})
	if a != b || a == c {
		t.Fatalf("fingerprint should depend only on content")
	}
}
