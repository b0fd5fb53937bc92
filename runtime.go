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

package invlab

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/invlab/cache"
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/grid"
	"github.com/zintix-labs/invlab/spec"
	"github.com/zintix-labs/invlab/stats"
)

// Runtime 對外服務的執行入口：請求驗證 → 快取 → 模擬器池。
//
// 快取 key 包含盤面、物品、覆寫參數與引擎設定。
// 指定 seed 的請求以 seed 區分；未指定 seed 的請求共用同一筆結果（任一個 seed 的結果都是合法樣本）。
type Runtime struct {
	lab   *Lab
	pool  *Pool
	cache *cache.Cache[*stats.ProbReport]

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

func newRuntime(l *Lab, poolSize int, cacheSize int) (*Runtime, error) {
	if l == nil {
		return nil, errs.NewFatal("lab required")
	}
	rt := &Runtime{
		lab:   l,
		pool:  newPool(poolSize, &l.es, l.cf),
		cache: cache.New[*stats.ProbReport](cacheSize),
		done:  make(chan struct{}),
	}
	rt.reason.Store("")
	return rt, nil
}

// fingerprint 快取 key 的內容
type fingerprint struct {
	Width    int                `json:"w"`
	Height   int                `json:"h"`
	Items    []grid.Item        `json:"items"`
	Blocked  []grid.Coords      `json:"blocked"`
	Seed     *int64             `json:"seed"`
	Sims     int                `json:"sims"`
	Strategy string             `json:"strategy"`
	Engine   spec.EngineSetting `json:"engine"`
}

func (j *job) key() (uint64, error) {
	fp := fingerprint{
		Width:    j.prob.Width,
		Height:   j.prob.Height,
		Items:    j.prob.Items,
		Blocked:  j.prob.Blocked,
		Sims:     j.sims,
		Strategy: j.strategy.String(),
		Engine:   *j.es,
	}
	if j.seeded {
		fp.Seed = &j.seed
	}
	return cache.Fingerprint(fp)
}

// Simulate 與 Lab.Simulate 相同的語意，但經由快取與模擬器池執行。
// 回傳的報告可能與其他請求共用，呼叫端不可修改。
func (rt *Runtime) Simulate(ctx context.Context, prob Problem, opt Options) (*stats.ProbReport, error) {
	select {
	case <-ctx.Done():
		return nil, errs.Wrap(ctx.Err(), "simulate canceled before start")
	case <-rt.done:
		rt.closed.Store(true)
		return nil, errs.NewFatal("runtime closed: " + rt.ClosedReason())
	default:
	}

	j, err := rt.lab.compile(prob, opt)
	if err != nil {
		return nil, err
	}
	key, err := j.key()
	if err != nil {
		return nil, err
	}
	rep, _, err := rt.cache.Do(ctx, key, func(run context.Context) (*stats.ProbReport, error) {
		return rt.pool.Run(run, j)
	})
	return rep, err
}

func (rt *Runtime) Lab() *Lab {
	return rt.lab
}

// RuntimeMetrics 模擬器池與快取的觀測快照
type RuntimeMetrics struct {
	Pool   PoolMetrics `json:"pool"`
	Cache  cache.Stats `json:"cache"`
	Closed bool        `json:"closed"`
}

func (rt *Runtime) Metrics() RuntimeMetrics {
	return RuntimeMetrics{
		Pool:   rt.pool.Metrics(),
		Cache:  rt.cache.Stats(),
		Closed: rt.Closed(),
	}
}

// SnapshotCache 以 zstd 壓縮寫出快取內容
func (rt *Runtime) SnapshotCache(w io.Writer) error {
	return rt.cache.Snapshot(w)
}

// RestoreCache 讀入 SnapshotCache 的輸出，回傳筆數
func (rt *Runtime) RestoreCache(r io.Reader) (int, error) {
	return rt.cache.Restore(r)
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *Runtime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *Runtime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		rt.pool.closeWithReason(reason)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *Runtime) Closed() bool {
	return rt.closed.Load()
}

func (rt *Runtime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
