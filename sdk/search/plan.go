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

// Package search 產生合法的完整擺放：小盤面以窮舉回溯取得精確分佈，
// 大盤面以隨機化回溯（Monte Carlo）取樣。
//
// 所有函式都只接受呼叫端傳入的 *core.Core 與 *grid.Grid，沒有任何全域狀態。
package search

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/grid"
)

// ErrUnsatisfiable 在給定封鎖格與物品下不存在任何合法擺放
var ErrUnsatisfiable = errs.NewLog("no valid placement satisfies the constraints")

// Order 物品種類的放置順序
type Order uint8

const (
	// OrderLargestFirst 依佔地面積由大到小，失敗最早發生
	OrderLargestFirst Order = iota
	// OrderRandom 每次試驗均勻打亂種類順序
	OrderRandom
	// OrderAreaWeighted 以面積為權重的加權打亂
	OrderAreaWeighted
)

var orderNames = map[Order]string{
	OrderLargestFirst: "largest_first",
	OrderRandom:       "random",
	OrderAreaWeighted: "area_weighted",
}

func (o Order) String() string {
	return orderNames[o]
}

// ParseOrder 由設定字串取得 Order；空字串為 OrderRandom。
func ParseOrder(s string) (Order, error) {
	if s == "" {
		return OrderRandom, nil
	}
	for k, v := range orderNames {
		if v == s {
			return k, nil
		}
	}
	return 0, errs.NewWithExtra(errs.Warn, "unknown placement order", s)
}

// Strategy 搜尋策略
type Strategy uint8

const (
	// StrategyAuto 先在節點預算內窮舉，未完成則改用 Monte Carlo
	StrategyAuto Strategy = iota
	StrategyExhaustive
	StrategyMonteCarlo
)

var strategyNames = map[Strategy]string{
	StrategyAuto:       "auto",
	StrategyExhaustive: "exhaustive",
	StrategyMonteCarlo: "montecarlo",
}

func (s Strategy) String() string {
	return strategyNames[s]
}

// ParseStrategy 由設定字串取得 Strategy；空字串為 StrategyAuto。
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyAuto, nil
	}
	for k, v := range strategyNames {
		if v == s {
			return k, nil
		}
	}
	return 0, errs.NewWithExtra(errs.Warn, "unknown strategy", s)
}

// Options 建立 Plan 的參數
type Options struct {
	Order    Order
	Rotation bool
}

// Plan 一次計算的物品配置：每種物品的方向、總面積與最大優先順序。
// Plan 建立後唯讀，可被多個 Machine 共用。
type Plan struct {
	Items    []grid.Item
	Order    Order
	Rotation bool

	orients [][]grid.Orientation
	largest []int // 種類索引，面積由大到小（同面積依索引）
	area    int
	total   int
}

// NewPlan 驗證物品並建立 Plan。
func NewPlan(items []grid.Item, opt Options) (*Plan, error) {
	if len(items) == 0 {
		return nil, errs.NewWarn("at least one item type is required")
	}
	if len(items) > grid.MaxItemTypes {
		return nil, errs.Warnf("at most %d item types are supported, got %d", grid.MaxItemTypes, len(items))
	}
	p := &Plan{
		Items:    slices.Clone(items),
		Order:    opt.Order,
		Rotation: opt.Rotation,
		orients:  make([][]grid.Orientation, len(items)),
		largest:  make([]int, len(items)),
	}
	for i, it := range items {
		if it.Width <= 0 || it.Height <= 0 {
			return nil, errs.Warnf("item %d has non-positive size %dx%d", i, it.Width, it.Height)
		}
		if it.Count < 0 {
			return nil, errs.Warnf("item %d has negative count %d", i, it.Count)
		}
		p.orients[i] = it.Orientations(opt.Rotation)
		p.largest[i] = i
		p.area += it.Area() * it.Count
		p.total += it.Count
	}
	slices.SortStableFunc(p.largest, func(a, b int) int {
		return cmp.Compare(items[b].Area(), items[a].Area())
	})
	return p, nil
}

// Area 所有物品實例的總佔地
func (p *Plan) Area() int {
	return p.area
}

// Instances 物品實例總數
func (p *Plan) Instances() int {
	return p.total
}

// candidate 一種物品在特定盤面上的可能擺放（只考慮封鎖格）
type candidate struct {
	p   grid.Placement
	key int
}

// bind 計算每種物品在盤面 g 上的所有候選擺放，依 key 遞增排序。
// key = (y*W+x)*2 + 方向索引，同種物品的多個實例以 key 嚴格遞增放置即可去除重複排列。
func (p *Plan) bind(g *grid.Grid) [][]candidate {
	out := make([][]candidate, len(p.Items))
	for t, os := range p.orients {
		var cs []candidate
		for oi, o := range os {
			for y := 0; y+o.Height <= g.Height; y++ {
				for x := 0; x+o.Width <= g.Width; x++ {
					if !g.CanPlace(x, y, o.Width, o.Height) {
						continue
					}
					cs = append(cs, candidate{
						p:   grid.Placement{Type: t, X: x, Y: y, Width: o.Width, Height: o.Height, Rotated: o.Rotated},
						key: (y*g.Width+x)*2 + oi,
					})
				}
			}
		}
		slices.SortFunc(cs, func(a, b candidate) int { return cmp.Compare(a.key, b.key) })
		out[t] = cs
	}
	return out
}

// Feasible 在搜尋前做快速檢查：總面積超過可用格數，或某種物品在盤面上無處可放，
// 皆回傳 ErrUnsatisfiable。g 必須是尚未放置任何物品的盤面。
func (p *Plan) Feasible(g *grid.Grid) error {
	if p.area > g.FreeCells() {
		return errs.WrapWithExtra(ErrUnsatisfiable, "item area exceeds free cells",
			fmt.Sprintf("area=%d free=%d", p.area, g.FreeCells()))
	}
	cands := p.bind(g)
	for t, it := range p.Items {
		if it.Count > 0 && len(cands[t]) == 0 {
			return errs.WrapWithExtra(ErrUnsatisfiable, "item fits nowhere on the grid",
				fmt.Sprintf("item=%d size=%dx%d", t, it.Width, it.Height))
		}
	}
	return nil
}

// sequence 依種類順序展開成實例序列（每個元素為種類索引）
func (p *Plan) sequence(dst []int, typeOrder []int) []int {
	dst = dst[:0]
	for _, t := range typeOrder {
		for k := 0; k < p.Items[t].Count; k++ {
			dst = append(dst, t)
		}
	}
	return dst
}
