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

// Package cache 計算結果的 LRU 快取。
//
// 相同請求以指紋（xxhash）為 key；併發的相同請求由 singleflight 合併為一次計算。
// 快取內容可用 Snapshot/Restore 以 zstd 壓縮後寫入檔案，供服務重啟時預熱。
package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/zintix-labs/invlab/errs"
	"golang.org/x/sync/singleflight"
)

// Cache 以 uint64 指紋為 key 的 LRU。V 在放入後視為唯讀。
// capacity <= 0 時不保存任何結果，只保留 singleflight 合併。
type Cache[V any] struct {
	mu    sync.Mutex
	cap   int
	ll    *list.List
	items map[uint64]*list.Element
	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	shared atomic.Int64
}

type entry[V any] struct {
	key uint64
	val V
}

func New[V any](capacity int) *Cache[V] {
	return &Cache[V]{
		cap:   max(0, capacity),
		ll:    list.New(),
		items: make(map[uint64]*list.Element, max(0, capacity)),
	}
}

// Fingerprint 以 JSON 編碼後的 xxhash 作為指紋；v 的欄位順序固定時結果固定。
func Fingerprint(v any) (uint64, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0, errs.Wrap(err, "fingerprint marshal failed")
	}
	return xxhash.Sum64(raw), nil
}

func (c *Cache[V]) Get(key uint64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		c.hits.Add(1)
		return el.Value.(*entry[V]).val, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

func (c *Cache[V]) Put(key uint64, val V) {
	if c.cap == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, val)
}

func (c *Cache[V]) put(key uint64, val V) {
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[V]).val = val
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&entry[V]{key: key, val: val})
	for c.ll.Len() > c.cap {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.items, last.Value.(*entry[V]).key)
	}
}

// Do 先查快取；未命中時以 fn 計算，同 key 的併發呼叫只會執行一次 fn。
// 只有成功的結果會被保存。shared 表示結果來自快取或其他呼叫者的計算。
//
// fn 收到的 ctx 不隨任何一個呼叫者取消，只保留第一個呼叫者的期限；
// 每個呼叫者仍以自己的 ctx 等待，離開後計算照常完成並寫入快取。
func (c *Cache[V]) Do(ctx context.Context, key uint64, fn func(context.Context) (V, error)) (val V, shared bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	ch := c.group.DoChan(strconv.FormatUint(key, 16), func() (any, error) {
		run, cancel := detach(ctx)
		defer cancel()
		v, err := fn(run)
		if err != nil {
			return v, err
		}
		c.Put(key, v)
		return v, nil
	})
	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.shared.Add(1)
		}
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		return res.Val.(V), res.Shared, nil
	}
}

// detach 去掉 ctx 的取消訊號，保留其期限。
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	run := context.WithoutCancel(ctx)
	if dl, ok := ctx.Deadline(); ok {
		return context.WithDeadline(run, dl)
	}
	return context.WithCancel(run)
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Purge 清空快取，不影響計數
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	clear(c.items)
}

// Stats 快取觀測快照
type Stats struct {
	Capacity int   `json:"capacity"`
	Len      int   `json:"len"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Shared   int64 `json:"shared"`
}

func (c *Cache[V]) Stats() Stats {
	return Stats{
		Capacity: c.cap,
		Len:      c.Len(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Shared:   c.shared.Load(),
	}
}
