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
	"cmp"
	"slices"

	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/bias"
	"github.com/zintix-labs/invlab/sdk/grid"
	"github.com/zintix-labs/invlab/sdk/search"
	"github.com/zintix-labs/invlab/spec"
)

// Problem 一次計算的盤面與物品。Width/Height 為 0 時使用 EngineSetting 的預設尺寸。
type Problem struct {
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Items   []grid.Item   `json:"items"`
	Blocked []grid.Coords `json:"blocked"`
}

// Options 單次計算的覆寫參數，零值表示沿用 EngineSetting。
type Options struct {
	Seed        *int64 // nil 時以 crypto/rand 產生
	Simulations int
	Strategy    string
	ShowPB      bool
}

// job 驗證完成、可直接交給 Simulator 的計算內容
type job struct {
	prob     Problem
	plan     *search.Plan
	strategy search.Strategy
	sims     int
	seed     int64
	seeded   bool
	es       *spec.EngineSetting
	weigher  bias.Weigher
}

// compile 驗證 Problem 與 Options。
//
// 錯誤分級：
//   - Warn：尺寸、物品、座標、參數不合法。
//   - Log：可行性檢查失敗（總面積超過空格數、或某種物品無處可放）。
func (l *Lab) compile(prob Problem, opt Options) (*job, error) {
	es := &l.es
	if prob.Width == 0 && prob.Height == 0 {
		prob.Width, prob.Height = es.Width, es.Height
	}
	if prob.Width <= 0 || prob.Height <= 0 || prob.Width > spec.MaxSide || prob.Height > spec.MaxSide {
		return nil, errs.Warnf("grid size must be within 1..%d, got %dx%d", spec.MaxSide, prob.Width, prob.Height)
	}
	prob.Blocked = normalizeBlocked(prob.Blocked)
	g, err := grid.New(prob.Width, prob.Height, prob.Blocked)
	if err != nil {
		return nil, err
	}
	plan, err := search.NewPlan(prob.Items, search.Options{Order: es.OrderValue(), Rotation: es.Rotation})
	if err != nil {
		return nil, err
	}
	for i, it := range prob.Items {
		if it.Count > 0 && !it.FitsIn(prob.Width, prob.Height, es.Rotation) {
			return nil, errs.Warnf("item %d (%dx%d) does not fit in a %dx%d grid", i, it.Width, it.Height, prob.Width, prob.Height)
		}
	}

	j := &job{
		prob:     prob,
		plan:     plan,
		strategy: es.StrategyValue(),
		sims:     es.Simulations,
		es:       es,
		weigher:  bias.FromSetting(es.Bias),
	}
	if opt.Strategy != "" {
		if j.strategy, err = search.ParseStrategy(opt.Strategy); err != nil {
			return nil, err
		}
	}
	if opt.Simulations != 0 {
		if opt.Simulations < 0 || opt.Simulations > spec.MaxSimulations {
			return nil, errs.Warnf("simulations must be within 1..%d, got %d", spec.MaxSimulations, opt.Simulations)
		}
		j.sims = opt.Simulations
	}
	if opt.Seed != nil {
		j.seed, j.seeded = *opt.Seed, true
	} else if j.seed, err = newSeed(); err != nil {
		return nil, err
	}

	if err := plan.Feasible(g); err != nil {
		return nil, err
	}
	return j, nil
}

// normalizeBlocked 排序並去除重複封鎖格，讓相同盤面得到相同指紋。
func normalizeBlocked(src []grid.Coords) []grid.Coords {
	if len(src) == 0 {
		return nil
	}
	out := slices.Clone(src)
	slices.SortFunc(out, func(a, b grid.Coords) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	return slices.Compact(out)
}
