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

// Package invlab 提供背包擺放機率引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Lab 把三個地基組裝在一起：
//  1. Catalog：活動關卡目錄，列出內建或外部注入的 preset。
//  2. EngineSetting：盤面預設尺寸、試驗次數、搜尋策略、偏差設定。
//  3. PRNGFactory：亂數核心工廠，保證同 seed 可重現。
//
// 一次計算的流程：Problem 驗證 → 可行性檢查 → 窮舉或隨機回溯 → Tally 計數 → ProbReport。
//
// 典型使用情境：
//   - CLI：lab.Simulate(ctx, prob, opt) 單次計算並顯示進度條。
//   - 後端服務：lab.BuildRuntime(n, cache) 取得帶機台池與快取的 Runtime。
package invlab

import (
	"context"
	"crypto/rand"
	"fmt"
	"io/fs"
	"math"
	"math/big"

	"github.com/zintix-labs/invlab/catalog"
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/presets"
	"github.com/zintix-labs/invlab/sdk/core"
	"github.com/zintix-labs/invlab/sdk/grid"
	"github.com/zintix-labs/invlab/spec"
	"github.com/zintix-labs/invlab/stats"
)

// Lab 組裝器。建立後唯讀，可被多個 goroutine 共用。
type Lab struct {
	cat *catalog.Catalog
	es  spec.EngineSetting
	cf  core.PRNGFactory
}

// New 建立 Lab。cfgs 為 preset 設定來源；未提供時使用內建 presets。
//
// 所有 preset 會在此時解析並凍結目錄，設定錯誤一律為 Fatal。
func New(es spec.EngineSetting, cfgs ...fs.FS) (*Lab, error) {
	if err := es.Check(); err != nil {
		return nil, &errs.E{Message: "engine setting invalid", Cause: err, ErrLv: errs.Fatal}
	}
	if len(cfgs) == 0 {
		cfgs = []fs.FS{presets.FS}
	}
	cat, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	if err := cat.Discover(); err != nil {
		return nil, err
	}
	cat.Freeze()
	return &Lab{
		cat: cat,
		es:  es,
		cf:  es.PRNGFactory(),
	}, nil
}

// Default 以預設引擎設定與內建 presets 建立 Lab。
func Default() (*Lab, error) {
	return New(spec.DefaultEngineSetting())
}

func (l *Lab) Catalog() *catalog.Catalog {
	return l.cat
}

func (l *Lab) Setting() spec.EngineSetting {
	return l.es
}

func (l *Lab) Presets() []catalog.Summary {
	return l.cat.Summaries()
}

// PresetProblem 以 preset 的第 round 回合（1 起算）組出 Problem。
func (l *Lab) PresetProblem(id string, round int, blocked []grid.Coords) (Problem, spec.Round, error) {
	ps, err := l.cat.PresetByID(id)
	if err != nil {
		return Problem{}, spec.Round{}, err
	}
	r, err := ps.Round(round)
	if err != nil {
		return Problem{}, spec.Round{}, err
	}
	prob := Problem{
		Width:   ps.Width,
		Height:  ps.Height,
		Items:   r.Items,
		Blocked: blocked,
	}
	return prob, r, nil
}

// Simulate 單次計算。Problem 不合法回 Warn、無合法擺放回 Log（search.ErrUnsatisfiable），
// 系統錯誤與 panic 一律轉為 Fatal，不會穿出 API。
func (l *Lab) Simulate(ctx context.Context, prob Problem, opt Options) (rep *stats.ProbReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			rep = nil
			err = errs.Fatalf("simulate panic: %v", r)
		}
	}()
	j, err := l.compile(prob, opt)
	if err != nil {
		return nil, err
	}
	rep, _, err = l.NewSimulator().Run(ctx, j, opt.ShowPB)
	return rep, err
}

// NewSimulator 建立一組可重複使用的模擬器（SeedVariations 台機台）。
func (l *Lab) NewSimulator() *Simulator {
	return newSimulator(&l.es, l.cf)
}

// BuildRuntime 建立對外服務用的 Runtime：poolSize 組模擬器、cacheSize 筆結果快取（0 關閉快取）。
func (l *Lab) BuildRuntime(poolSize int, cacheSize int) (*Runtime, error) {
	return newRuntime(l, poolSize, cacheSize)
}

// newSeed 未指定 seed 時以 crypto/rand 產生，並回報在結果中以便重現。
func newSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return seed.Int64(), nil
}

func (l *Lab) String() string {
	return fmt.Sprintf("invlab presets=%d %s", len(l.cat.IDs()), l.es)
}
