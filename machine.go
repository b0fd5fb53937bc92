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

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/recorder"
	"github.com/zintix-labs/invlab/sdk/bias"
	"github.com/zintix-labs/invlab/sdk/core"
	"github.com/zintix-labs/invlab/sdk/grid"
	"github.com/zintix-labs/invlab/sdk/search"
)

const (
	// ctxCheckEvery 隨機試驗時每隔多少次檢查一次 ctx
	ctxCheckEvery = 1024
	// giveUpTrials 前這麼多次試驗全部失敗時，該機台提早停止
	giveUpTrials = 256
)

// Machine 一台計算機台：RNG 核心 + 暫存盤面 + 計數紀錄員。
//
// 並發語意：
//   - Machine 不是 goroutine-safe；盤面在回溯時被就地放置/移除，同一台 Machine 只能由一個 goroutine 使用。
//   - 併發計算由 Simulator 建立多台 Machine 分散到不同 goroutine。
//
// 同一 seed 下的試驗序列完全決定，重現一次計算只需要 job 的 seed。
type Machine struct {
	cf      core.PRNGFactory // 亂數核心工廠
	core    *core.Core       // RNG 核心
	g       *grid.Grid       // 暫存盤面（回溯時就地修改）
	tally   *recorder.Tally  // 計數紀錄員
	sampler *search.Sampler  // 綁定 g 的隨機回溯器（第一次隨機試驗時建立）
	weigher bias.Weigher     // 偏差權重；nil 表示不啟用
	plan    *search.Plan     // 目前載入的物品配置
	refuted bool             // 隨機試驗已完整搜尋並證明無解
}

// newMachineWithSeed 以指定 seed 建立 Machine；盤面在 load 時才建立。
func newMachineWithSeed(cf core.PRNGFactory, seed int64) *Machine {
	return &Machine{
		cf:   cf,
		core: core.New(cf.New(seed)),
	}
}

// reseed 以新 seed 重建 RNG 核心
func (m *Machine) reseed(seed int64) {
	m.core = core.New(m.cf.New(seed))
}

// load 載入一次計算：建立盤面與紀錄員，清掉上一輪的 sampler。
func (m *Machine) load(j *job) error {
	g, err := grid.New(j.prob.Width, j.prob.Height, j.prob.Blocked)
	if err != nil {
		return err
	}
	t, err := recorder.NewTally(g, len(j.plan.Items))
	if err != nil {
		return err
	}
	m.g = g
	m.tally = t
	m.plan = j.plan
	m.weigher = j.weigher
	m.sampler = nil
	m.refuted = false
	return nil
}

// explore 在節點預算內窮舉所有不同擺放並全部計入。
func (m *Machine) explore(ctx context.Context, budget int) (search.Outcome, error) {
	out, err := search.Exhaustive(ctx, m.g, m.plan, budget, func(sol grid.Solution) {
		m.tally.Record(sol, bias.Of(m.weigher, m.g, sol))
	})
	m.tally.AddNodes(out.Nodes)
	return out, err
}

// sample 連續執行 trials 次隨機試驗；bar 可為 nil。
//
// 提早結束：
//   - 某次失敗已完整搜尋（盤面無解），標記 refuted。
//   - 前 giveUpTrials 次全部失敗（每次最多 2×nodeBudget 節點），整體耗時因此有上限。
func (m *Machine) sample(ctx context.Context, trials int, nodeBudget int, bar *pb.ProgressBar) error {
	if m.sampler == nil {
		m.sampler = search.NewSampler(m.plan, m.g, nodeBudget)
	}
	before := m.sampler.Nodes()
	defer func() { m.tally.AddNodes(m.sampler.Nodes() - before) }()
	for i := 0; i < trials; i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return errs.Wrap(err, "simulation interrupted")
			}
		}
		if sol, ok := m.sampler.Sample(m.core); ok {
			m.tally.Record(sol, bias.Of(m.weigher, m.g, sol))
		} else {
			m.tally.RecordFailure()
			if m.sampler.Refuted() {
				m.refuted = true
				return nil
			}
			if i+1 >= giveUpTrials && m.tally.Basic.Solutions == 0 {
				return nil
			}
		}
		if bar != nil {
			bar.Increment()
		}
	}
	return nil
}
