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

package stats

import (
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/grid"
)

// ErrNoData 沒有任何可用的擺放權重，無法換算機率
var ErrNoData = errs.NewLog("no simulation data")

// 信賴區間
type CI struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// CellCounts 原始計數：有多少組擺放覆蓋此格（總數與各物品）
type CellCounts struct {
	Total     int   `json:"total"     yaml:"total"`
	ItemTypes []int `json:"itemTypes" yaml:"itemTypes"`
}

// CellProb 單格機率
type CellProb struct {
	Total     float64    `json:"total"             yaml:"total"`
	ItemTypes []float64  `json:"itemTypes"         yaml:"itemTypes"`
	Counts    CellCounts `json:"counts"            yaml:"counts"`
	CI        CI         `json:"ci"                yaml:"ci"`
	Blocked   bool       `json:"blocked,omitempty" yaml:"blocked,omitempty"`
}

// Summary 一次計算的概況
type Summary struct {
	Solutions int     `json:"solutions" yaml:"solutions"`
	Trials    int     `json:"trials"    yaml:"trials"`
	Failed    int     `json:"failed"    yaml:"failed"`
	Weight    float64 `json:"weight"    yaml:"weight"`
	Nodes     int     `json:"nodes"     yaml:"nodes"`
	Exact     bool    `json:"exact"     yaml:"exact"`
	Strategy  string  `json:"strategy"  yaml:"strategy"`
	Seed      int64   `json:"seed"      yaml:"seed"`
	UsedMs    int64   `json:"used_ms"   yaml:"used_ms"`
}

// ProbReport 機率盤面報告
//
// 紀錄階段只保存整數計數與權重和，Done() 一次性換算成 Cells。
type ProbReport struct {
	Width     int          `json:"width"      yaml:"width"`
	Height    int          `json:"height"     yaml:"height"`
	ItemTypes int          `json:"item_types" yaml:"item_types"`
	Summary   Summary      `json:"summary"    yaml:"summary"`
	Cells     [][]CellProb `json:"cells"      yaml:"cells"`

	blocked []bool
	counts  []int     // 每格 (1+ItemTypes) 個：總數、各物品
	mass    []float64 // 與 counts 同排列的加權和
	isDone  bool
}

// NewProbReport 由原始計數建立報告。counts 與 mass 的長度必須為 w*h*(1+types)。
func NewProbReport(w, h, types int, blocked []bool, counts []int, mass []float64, sum Summary) *ProbReport {
	return &ProbReport{
		Width:     w,
		Height:    h,
		ItemTypes: types,
		Summary:   sum,
		blocked:   blocked,
		counts:    counts,
		mass:      mass,
	}
}

// Done 將計數換算為機率並鎖定；重複呼叫不會重算。
// 總權重為 0 時 Cells 保持 nil，Err() 回傳 ErrNoData。
func (r *ProbReport) Done() {
	// Cells 已存在表示報告由 JSON/YAML 還原，不再寫入任何欄位
	if r.isDone || r.Cells != nil {
		return
	}
	r.isDone = true
	if r.Summary.Weight <= 0 || r.Summary.Solutions == 0 {
		return
	}
	stride := 1 + r.ItemTypes
	n := r.Summary.Solutions
	r.Cells = make([][]CellProb, r.Height)
	for y := 0; y < r.Height; y++ {
		row := make([]CellProb, r.Width)
		for x := 0; x < r.Width; x++ {
			i := (y*r.Width + x) * stride
			c := CellProb{
				ItemTypes: make([]float64, r.ItemTypes),
				Counts:    CellCounts{Total: r.counts[i], ItemTypes: make([]int, r.ItemTypes)},
				Blocked:   r.blocked[y*r.Width+x],
			}
			if !c.Blocked {
				c.Total = clamp01(r.mass[i] / r.Summary.Weight)
				for t := 0; t < r.ItemTypes; t++ {
					c.ItemTypes[t] = clamp01(r.mass[i+1+t] / r.Summary.Weight)
					c.Counts.ItemTypes[t] = r.counts[i+1+t]
				}
			}
			if r.Summary.Exact {
				c.CI = CI{Lo: c.Total, Hi: c.Total}
			} else {
				_, c.CI = proportionCICP(c.Counts.Total, n, 0.95)
			}
			row[x] = c
		}
		r.Cells[y] = row
	}
}

// Err 報告無法換算時回傳 ErrNoData
func (r *ProbReport) Err() error {
	r.Done()
	if r.Cells == nil {
		return ErrNoData
	}
	return nil
}

// At 取得 (x,y) 的機率；無資料時回傳零值。
func (r *ProbReport) At(x, y int) CellProb {
	r.Done()
	if r.Cells == nil || y < 0 || y >= r.Height || x < 0 || x >= r.Width {
		return CellProb{}
	}
	return r.Cells[y][x]
}

// MostLikely 回傳 (x,y) 最可能出現的物品種類；全部為 0 時回傳 -1。
func (r *ProbReport) MostLikely(x, y int) int {
	c := r.At(x, y)
	best, idx := 0.0, -1
	for t, p := range c.ItemTypes {
		if p > best {
			best, idx = p, t
		}
	}
	return idx
}

// AreaCheck 每種物品：所有格子機率總和 vs 數量×面積
type AreaCheck struct {
	Expected float64 `json:"expected" yaml:"expected"`
	Observed float64 `json:"observed" yaml:"observed"`
}

// AreaCheck 面積守恆檢查。每組合法擺放中，物品 t 恰好覆蓋 count×area 格，
// 因此機率總和必須等於 count×area（加權後亦同）。
func (r *ProbReport) AreaCheck(items []grid.Item) []AreaCheck {
	r.Done()
	out := make([]AreaCheck, len(items))
	for t, it := range items {
		out[t].Expected = float64(it.Count * it.Area())
		if r.Cells == nil || t >= r.ItemTypes {
			continue
		}
		for _, row := range r.Cells {
			for _, c := range row {
				out[t].Observed += c.ItemTypes[t]
			}
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
