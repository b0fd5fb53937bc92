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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/core"
	"github.com/zintix-labs/invlab/spec"
	"github.com/zintix-labs/invlab/stats"
)

// Pool 管理對外服務用的模擬器實例，每個請求借出一組 Simulator（SeedVariations 台機台）。
// 它透過兩個通道管理生命週期：
//  1. pool：健康且可用的模擬器，供 Run() 借出 / 歸還。
//  2. broken：在運作過程中 panic 或回報 Fatal 的模擬器，送往此通道以便後續檢查或丟棄。
//
// 壞掉的模擬器會被立即補上一組新的以維持容量；池大小同時限制了同時計算的請求數。
type Pool struct {
	es            *spec.EngineSetting
	cf            core.PRNGFactory
	pool          chan *Simulator // 可用模擬器的通道，用於取得和歸還
	broken        chan *Simulator // 壞掉模擬器的通道
	done          chan struct{}   // 關閉訊號：關閉後不再允許借出/歸還/補機
	closeOnce     sync.Once       // 確保 Close() 只執行一次
	poolsize      int             // 目標容量
	rebuild       atomic.Int32    // 補機次數
	inflight      atomic.Int32    // 使用中
	panics        atomic.Int32    // panic 次數
	fatals        atomic.Int32    // fatal 次數（狀態不可信）
	closeReason   atomic.Value    // string: 關閉原因
	closeInflight atomic.Int32    // 關閉當下 inflight（快照）
	closeAvail    atomic.Int32    // 關閉當下 pool 可用數量（len(pool) 快照）
	closeBroken   atomic.Int32    // 關閉當下 broken backlog（len(broken) 快照）
}

// newPool 建立 n 組模擬器（至少 1 組）並全部上架。
func newPool(n int, es *spec.EngineSetting, cf core.PRNGFactory) *Pool {
	n = max(1, n)
	p := &Pool{
		es:       es,
		cf:       cf,
		pool:     make(chan *Simulator, n),
		broken:   make(chan *Simulator, 100),
		done:     make(chan struct{}),
		poolsize: n,
	}

	p.closeReason.Store("")
	p.closeInflight.Store(-1)
	p.closeAvail.Store(-1)
	p.closeBroken.Store(-1)

	for i := 0; i < n; i++ {
		p.pool <- newSimulator(es, cf)
	}
	return p
}

// Close 進入關閉狀態：之後所有 Run() 直接回 error。
func (p *Pool) Close() {
	p.closeWithReason("closed")
}

// Closed 回報池是否已進入關閉狀態。
func (p *Pool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// closeWithReason 進入關閉狀態並記錄原因（thread-safe, reason 只會被寫入一次）。
func (p *Pool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		p.closeInflight.Store(p.inflight.Load())
		p.closeAvail.Store(int32(len(p.pool)))
		p.closeBroken.Store(int32(len(p.broken)))
		close(p.done)
	})
}

// isFatalErr 判斷本次錯誤是否代表「模擬器狀態不可信」需要淘汰/補機。
//
// 原則：
//   - panic 一律視為 broken（由 caller 端的 defer/recover 處理）
//   - 請求不合法、無解、逾時/取消都不淘汰
//   - 只有錯誤本身明確為 Fatal 時才視為 broken
func isFatalErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if e, ok := errs.AsErr(err); ok {
		return e.ErrLv == errs.Fatal
	}
	return false
}

// Run 借出一組模擬器執行 j；ctx 結束前拿不到模擬器時回傳 ctx 錯誤。
func (p *Pool) Run(ctx context.Context, j *job) (rep *stats.ProbReport, err error) {
	var s *Simulator
	select {
	case <-p.done:
		return nil, errs.NewFatal("simulator pool closed: " + p.ClosedReason())
	case <-ctx.Done():
		return nil, errs.Wrap(ctx.Err(), "wait for simulator")
	case s = <-p.pool:
		p.inflight.Add(1)
	}

	if s == nil {
		return nil, errs.NewFatal("simulator pool got nil simulator")
	}

	var isPanic bool

	defer func() {
		p.inflight.Add(-1)
		if r := recover(); r != nil {
			isPanic = true
			p.panics.Add(1)
			rep = nil
			err = errs.NewFatal(fmt.Sprintf("simulator panic : %v", r))
		}

		// 若已關閉，直接丟棄（不歸還、不補機）
		if p.Closed() {
			return
		}

		if isPanic || isFatalErr(err) {
			if !isPanic {
				p.fatals.Add(1)
			}
			select {
			case p.broken <- s:
			default:
				// broken 通道滿代表系統可能正在連續故障：進入關閉狀態讓上層接管維護。
				p.closeWithReason("overwhelmed_by_failures")
				return
			}

			fresh := newSimulator(p.es, p.cf)
			p.rebuild.Add(1)
			select {
			case <-p.done:
			case p.pool <- fresh:
			}
			return
		}

		select {
		case <-p.done:
		case p.pool <- s:
		}
	}()

	rep, _, err = s.Run(ctx, j, false)
	return rep, err
}

func (p *Pool) PoolSize() int {
	return p.poolsize
}

func (p *Pool) Inflight() int {
	return int(p.inflight.Load())
}

func (p *Pool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// PoolMetrics 拉取式（pull）觀測快照。
//
// Available/BrokenBacklog 來自 len(chan)，高併發下是近似值。
// Close* 欄位只在 Close 時寫入一次，尚未關閉時為 -1。
type PoolMetrics struct {
	PoolSize      int    `json:"pool_size"`
	Available     int    `json:"available"`
	Inflight      int    `json:"inflight"`
	BrokenBacklog int    `json:"broken_backlog"`
	Rebuild       int    `json:"rebuild"`
	Panics        int    `json:"panics"`
	Fatals        int    `json:"fatals"`
	Closed        bool   `json:"closed"`
	CloseReason   string `json:"close_reason"`

	CloseInflight int `json:"close_inflight"`
	CloseAvail    int `json:"close_avail"`
	CloseBroken   int `json:"close_broken"`
}

func (p *Pool) Metrics() PoolMetrics {
	return PoolMetrics{
		PoolSize:      p.poolsize,
		Available:     len(p.pool),
		Inflight:      int(p.inflight.Load()),
		BrokenBacklog: len(p.broken),
		Rebuild:       int(p.rebuild.Load()),
		Panics:        int(p.panics.Load()),
		Fatals:        int(p.fatals.Load()),
		Closed:        p.Closed(),
		CloseReason:   p.ClosedReason(),
		CloseInflight: int(p.closeInflight.Load()),
		CloseAvail:    int(p.closeAvail.Load()),
		CloseBroken:   int(p.closeBroken.Load()),
	}
}
