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

package search

import (
	"github.com/zintix-labs/invlab/sdk/core"
	"github.com/zintix-labs/invlab/sdk/grid"
	"github.com/zintix-labs/invlab/sdk/sampler"
)

// Sampler 以隨機化回溯產生單組擺放。每次試驗：
//  1. 依 Plan.Order 決定物品種類順序。
//  2. 逐個實例以隨機順序嘗試候選位置，深度優先放置，失敗即回溯；單次嘗試的節點數受 budget 限制。
//  3. 若非 OrderLargestFirst 的順序在預算內失敗，改用面積由大到小再試一次。
//
// 剪枝（只移除必然無解的子樹，不改變找到第一組解的分佈）：
//   - 前向檢查：每次放置後，剩餘的每種物品都必須還有足夠的可放候選。
//   - 同種物品：某候選的子樹已完整搜尋且無解後，同層其餘分支的同種實例不再嘗試它。
//
// 未觸及預算就失敗表示整棵樹已搜尋完畢，Refuted 回傳 true，盤面確定無解。
//
// Sampler 綁定一個盤面，不是 goroutine-safe。
type Sampler struct {
	plan   *Plan
	g      *grid.Grid
	cands  [][]candidate
	budget int

	typeOrder []int
	weights   []int
	seq       []int
	need      [][grid.MaxItemTypes]int // need[d][t]：深度 d 起（含）還要放的 t 實例數
	perm      [][]int                  // 每層候選的嘗試順序，跨試驗沿用並逐步打亂
	banned    [][]bool                 // [種類][候選]
	undo      [][]int                  // 每層加入 banned 的候選，離開時還原
	sol       grid.Solution
	nodes     int
	total     int
	refuted   bool
}

// NewSampler 建立綁定 g 的 Sampler；nodeBudget 為單次嘗試可放置的節點數上限，<= 0 時不限。
func NewSampler(plan *Plan, g *grid.Grid, nodeBudget int) *Sampler {
	n := plan.Instances()
	s := &Sampler{
		plan:      plan,
		g:         g,
		cands:     plan.bind(g),
		budget:    nodeBudget,
		typeOrder: make([]int, 0, len(plan.Items)),
		weights:   make([]int, len(plan.Items)),
		seq:       make([]int, 0, n),
		need:      make([][grid.MaxItemTypes]int, n+1),
		perm:      make([][]int, n),
		banned:    make([][]bool, len(plan.Items)),
		undo:      make([][]int, n),
		sol:       make(grid.Solution, 0, n),
	}
	for t, it := range plan.Items {
		if it.Count > 0 {
			s.weights[t] = it.Area()
		}
		s.banned[t] = make([]bool, len(s.cands[t]))
	}
	return s
}

// Nodes 累計放置過的節點數
func (s *Sampler) Nodes() int {
	return s.total
}

// Refuted 上一次 Sample 失敗且已完整搜尋，盤面確定無解。
func (s *Sampler) Refuted() bool {
	return s.refuted
}

// Sample 執行一次試驗。成功時回傳的 Solution 只在下一次呼叫前有效；無論成敗盤面都會還原。
func (s *Sampler) Sample(c *core.Core) (grid.Solution, bool) {
	s.refuted = false
	s.order(c)
	if s.try(c) {
		return s.sol, true
	}
	if s.refuted || s.plan.Order == OrderLargestFirst {
		return nil, false
	}
	s.typeOrder = append(s.typeOrder[:0], s.plan.largest...)
	if s.try(c) {
		return s.sol, true
	}
	return nil, false
}

func (s *Sampler) order(c *core.Core) {
	switch s.plan.Order {
	case OrderLargestFirst:
		s.typeOrder = append(s.typeOrder[:0], s.plan.largest...)
	case OrderAreaWeighted:
		s.typeOrder = append(s.typeOrder[:0], sampler.WeightedShuffleWithFilter(c, s.weights)...)
	default:
		s.typeOrder = s.typeOrder[:0]
		for t := range s.plan.Items {
			s.typeOrder = append(s.typeOrder, t)
		}
		c.ShuffleInts(s.typeOrder)
	}
}

func (s *Sampler) try(c *core.Core) bool {
	s.seq = s.plan.sequence(s.seq, s.typeOrder)
	n := len(s.seq)
	s.need[n] = [grid.MaxItemTypes]int{}
	for d := n - 1; d >= 0; d-- {
		s.need[d] = s.need[d+1]
		s.need[d][s.seq[d]]++
	}
	s.sol = s.sol[:0]
	s.nodes = 0
	ok := s.dfs(c, 0)
	s.total += s.nodes
	if ok {
		for _, p := range s.sol {
			s.g.Remove(p)
		}
		return true
	}
	s.refuted = !s.spent()
	return false
}

func (s *Sampler) spent() bool {
	return s.budget > 0 && s.nodes >= s.budget
}

func (s *Sampler) dfs(c *core.Core, depth int) bool {
	if depth == len(s.seq) {
		return true
	}
	t := s.seq[depth]
	cs := s.cands[t]
	idx := s.perm[depth]
	if len(idx) != len(cs) {
		if cap(idx) < len(cs) {
			idx = make([]int, len(cs))
		}
		idx = idx[:len(cs)]
		for i := range idx {
			idx[i] = i
		}
		s.perm[depth] = idx
	}
	ok := false
	// 逐步 Fisher-Yates：只打亂實際嘗試到的部分
	for k := 0; k < len(idx); k++ {
		j := k + c.IntN(len(idx)-k)
		idx[k], idx[j] = idx[j], idx[k]
		i := idx[k]
		if s.banned[t][i] {
			continue
		}
		p := cs[i].p
		if !s.g.CanPlace(p.X, p.Y, p.Width, p.Height) {
			continue
		}
		if s.spent() {
			break
		}
		s.nodes++
		s.g.Place(p)
		s.sol = append(s.sol, p)
		if s.viable(depth+1) && s.dfs(c, depth+1) {
			ok = true
			break
		}
		s.sol = s.sol[:len(s.sol)-1]
		s.g.Remove(p)
		if s.spent() {
			break
		}
		s.banned[t][i] = true
		s.undo[depth] = append(s.undo[depth], i)
	}
	for _, i := range s.undo[depth] {
		s.banned[t][i] = false
	}
	s.undo[depth] = s.undo[depth][:0]
	return ok
}

// viable 前向檢查：深度 depth 起剩餘的每種物品，可放且未排除的候選數不少於剩餘實例數。
func (s *Sampler) viable(depth int) bool {
	for t, need := range s.need[depth] {
		if need == 0 {
			continue
		}
		free := 0
		for i, cd := range s.cands[t] {
			if s.banned[t][i] || !s.g.CanPlace(cd.p.X, cd.p.Y, cd.p.Width, cd.p.Height) {
				continue
			}
			if free++; free >= need {
				break
			}
		}
		if free < need {
			return false
		}
	}
	return true
}
