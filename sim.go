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
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/recorder"
	"github.com/zintix-labs/invlab/sdk/core"
	"github.com/zintix-labs/invlab/sdk/search"
	"github.com/zintix-labs/invlab/spec"
	"github.com/zintix-labs/invlab/stats"
)

// Simulator 一組 SeedVariations 台機台，負責單次計算的策略選擇、併發試驗與合併。
//
// 同一個 Simulator 可重複使用，但一次只能執行一個 Run。
type Simulator struct {
	es   *spec.EngineSetting
	cf   core.PRNGFactory
	mBuf []*Machine        // 併發執行機台實例
	rBuf []*recorder.Tally // 合併用，依機台順序
}

func newSimulator(es *spec.EngineSetting, cf core.PRNGFactory) *Simulator {
	n := max(1, es.SeedVariations)
	s := &Simulator{
		es:   es,
		cf:   cf,
		mBuf: make([]*Machine, n),
		rBuf: make([]*recorder.Tally, 0, n),
	}
	for i := range s.mBuf {
		s.mBuf[i] = newMachineWithSeed(cf, 0)
	}
	return s
}

// Run 執行一次計算並回傳報告與用時。
//
// 策略：
//   - auto：先在 ExhaustiveBudget 內窮舉，完成即為精確結果；未完成則改為隨機試驗。
//   - exhaustive：只窮舉；預算用盡時回傳部分結果（Exact=false）。
//   - montecarlo：Simulations 次試驗平均分給各機台，各機台 seed 由 job.seed 以 seedMaker 派生，
//     依機台順序合併，因此同 seed 結果逐位元一致。
func (s *Simulator) Run(ctx context.Context, j *job, showpb bool) (*stats.ProbReport, time.Duration, error) {
	defer s.reset()
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, 0, errs.Wrap(err, "simulation interrupted")
	}

	sm := newSeedMaker(j.seed)
	for _, m := range s.mBuf {
		m.reseed(sm.next())
		if err := m.load(j); err != nil {
			return nil, 0, err
		}
	}

	var (
		rep *stats.ProbReport
		err error
	)
	switch j.strategy {
	case search.StrategyAuto, search.StrategyExhaustive:
		rep, err = s.exhaustive(ctx, j)
		if rep == nil && err == nil {
			rep, err = s.monteCarlo(ctx, j, showpb)
		}
	default:
		rep, err = s.monteCarlo(ctx, j, showpb)
	}
	if err != nil {
		return nil, 0, err
	}
	used := time.Since(start)
	rep.Summary.Seed = j.seed
	rep.Summary.UsedMs = used.Milliseconds()
	return rep, used, nil
}

// exhaustive 窮舉階段。auto 且預算用盡時回傳 (nil, nil)，交由隨機試驗接手。
func (s *Simulator) exhaustive(ctx context.Context, j *job) (*stats.ProbReport, error) {
	m := s.mBuf[0]
	out, err := m.explore(ctx, s.es.ExhaustiveBudget)
	if err != nil {
		return nil, err
	}
	if !out.Complete && j.strategy == search.StrategyAuto {
		m.tally.Reset()
		return nil, nil
	}
	if out.Solutions == 0 {
		if out.Complete {
			return nil, search.ErrUnsatisfiable
		}
		return nil, errs.Wrap(stats.ErrNoData, "exhaustive budget exhausted before the first solution")
	}
	return m.tally.Done(out.Complete, search.StrategyExhaustive.String()), nil
}

// monteCarlo 平行執行各機台，合併統計結果
func (s *Simulator) monteCarlo(ctx context.Context, j *job, showpb bool) (*stats.ProbReport, error) {
	mp := len(s.mBuf)
	bar := pb.New(j.sims)
	if showpb {
		bar.Start()
	}

	errBuf := make([]error, mp)
	wg := new(sync.WaitGroup)
	wg.Add(mp)
	for i := 0; i < mp; i++ {
		trials := j.sims / mp
		if i < j.sims%mp {
			trials++
		}
		go func(i int, trials int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errBuf[i] = errs.Fatalf("machine %d panic: %v", i, r)
				}
			}()
			errBuf[i] = s.mBuf[i].sample(ctx, trials, s.es.TrialNodeBudget, bar)
		}(i, trials)
	}
	wg.Wait()
	if showpb {
		bar.Finish()
	}
	for _, err := range errBuf {
		if err != nil {
			return nil, err
		}
	}

	refuted := false
	for _, m := range s.mBuf {
		s.rBuf = append(s.rBuf, m.tally)
		refuted = refuted || m.refuted
	}
	t, err := recorder.MergeTally(s.rBuf)
	if err != nil {
		return nil, err
	}
	if t.Basic.Solutions == 0 {
		if refuted {
			return nil, errs.Wrap(search.ErrUnsatisfiable, "search space exhausted without a complete placement")
		}
		return nil, errs.WrapWithExtra(stats.ErrNoData, "no trial completed within the node budget",
			fmt.Sprintf("%d trials", t.Basic.Trials))
	}
	return t.Done(false, search.StrategyMonteCarlo.String()), nil
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// state 的推進是原子的：
//   - 使用 CAS（Compare-And-Swap）迴圈確保每次呼叫都會取得唯一的下一個 state。
//   - 回傳值使用推進後的 state 經 mix63 打散後的結果。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
