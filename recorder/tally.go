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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/grid"
	"github.com/zintix-labs/invlab/stats"
)

// Tally 覆蓋計數紀錄員
//
// Tally 負責累積每組擺放對每格的覆蓋次數與權重，並透過 Done 輸出機率報告。
// 紀錄時只做整數與浮點累加，換算交給 stats。
type Tally struct {
	Width   int
	Height  int
	Types   int
	Basic   *BasicRecord
	blocked []bool
	counts  []int
	mass    []float64
}

// BasicRecord 試驗概況
type BasicRecord struct {
	Solutions int
	Trials    int
	Failed    int
	Nodes     int
	Weight    float64
}

// NewTally 依盤面尺寸與物品種類數建立 Tally；封鎖格由 g 取得。
func NewTally(g *grid.Grid, types int) (*Tally, error) {
	if types <= 0 || types > grid.MaxItemTypes {
		return nil, errs.NewFatal(fmt.Sprintf("tally item types err %d", types))
	}
	n := g.Size()
	t := &Tally{
		Width:   g.Width,
		Height:  g.Height,
		Types:   types,
		Basic:   new(BasicRecord),
		blocked: make([]bool, n),
		counts:  make([]int, n*(1+types)),
		mass:    make([]float64, n*(1+types)),
	}
	for _, b := range g.BlockedCoords() {
		t.blocked[b.Y*g.Width+b.X] = true
	}
	return t, nil
}

// Record 以一組合法擺放更新計數，weight 為偏差權重（未啟用時為 1）。
func (t *Tally) Record(sol grid.Solution, weight float64) {
	stride := 1 + t.Types
	for _, p := range sol {
		for dy := 0; dy < p.Height; dy++ {
			row := (p.Y + dy) * t.Width
			for dx := 0; dx < p.Width; dx++ {
				i := (row + p.X + dx) * stride
				t.counts[i]++
				t.counts[i+1+p.Type]++
				t.mass[i] += weight
				t.mass[i+1+p.Type] += weight
			}
		}
	}
	t.Basic.Solutions++
	t.Basic.Trials++
	t.Basic.Weight += weight
}

// RecordFailure 一次未能產生完整擺放的試驗
func (t *Tally) RecordFailure() {
	t.Basic.Trials++
	t.Basic.Failed++
}

// AddNodes 累加搜尋節點數
func (t *Tally) AddNodes(n int) {
	t.Basic.Nodes += n
}

// Reset 清空計數，保留盤面資訊，供 Machine 重複使用。
func (t *Tally) Reset() {
	clear(t.counts)
	clear(t.mass)
	*t.Basic = BasicRecord{}
}

// MergeTally 依傳入順序合併；順序固定時浮點加總結果也固定。
func MergeTally(ts []*Tally) (*Tally, error) {
	if len(ts) == 0 {
		return nil, errs.NewFatal("merge tally err : empty input")
	}
	t0 := ts[0]
	m := &Tally{
		Width:   t0.Width,
		Height:  t0.Height,
		Types:   t0.Types,
		Basic:   new(BasicRecord),
		blocked: append([]bool(nil), t0.blocked...),
		counts:  make([]int, len(t0.counts)),
		mass:    make([]float64, len(t0.mass)),
	}
	for _, v := range ts {
		if v.Width != t0.Width || v.Height != t0.Height {
			return nil, errs.NewFatal("merge tally err : different grid size")
		}
		if v.Types != t0.Types {
			return nil, errs.NewFatal("merge tally err : different item types")
		}
		for i := range v.counts {
			m.counts[i] += v.counts[i]
			m.mass[i] += v.mass[i]
		}
		m.Basic.Solutions += v.Basic.Solutions
		m.Basic.Trials += v.Basic.Trials
		m.Basic.Failed += v.Basic.Failed
		m.Basic.Nodes += v.Basic.Nodes
		m.Basic.Weight += v.Basic.Weight
	}
	return m, nil
}

// Done 產生機率報告。回傳的報告持有計數副本，Tally 之後可繼續使用或 Reset。
func (t *Tally) Done(exact bool, strategy string) *stats.ProbReport {
	sum := stats.Summary{
		Solutions: t.Basic.Solutions,
		Trials:    t.Basic.Trials,
		Failed:    t.Basic.Failed,
		Weight:    t.Basic.Weight,
		Nodes:     t.Basic.Nodes,
		Exact:     exact,
		Strategy:  strategy,
	}
	r := stats.NewProbReport(t.Width, t.Height, t.Types,
		append([]bool(nil), t.blocked...),
		append([]int(nil), t.counts...),
		append([]float64(nil), t.mass...),
		sum)
	r.Done()
	return r
}
