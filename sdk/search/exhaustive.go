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
	"context"

	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/grid"
)

// ctxCheckNodes 窮舉時每隔多少節點檢查一次 ctx
const ctxCheckNodes = 4096

// Outcome 窮舉結果
type Outcome struct {
	Solutions int
	Nodes     int
	Complete  bool // false 表示節點預算用盡，Solutions 只是部分結果
}

// Visitor 接收一組完整擺放。sol 在回呼結束後會被覆寫，需要保存時請自行複製。
type Visitor func(sol grid.Solution)

// Exhaustive 以回溯窮舉 g 上所有不同的合法擺放，每組只呼叫 visit 一次。
//
// 剪枝：
//   - 只嘗試與封鎖格/已放置物品不衝突的候選位置。
//   - 同種物品的多個實例以候選 key 嚴格遞增放置，不會產生重複排列。
//   - 同種物品剩餘候選數少於剩餘實例數時直接回退。
//
// budget <= 0 表示不限節點數。ctx 取消時中止並回傳其錯誤。g 在返回時恢復原狀。
func Exhaustive(ctx context.Context, g *grid.Grid, plan *Plan, budget int, visit Visitor) (Outcome, error) {
	e := &exhaustive{
		ctx:    ctx,
		g:      g,
		cands:  plan.bind(g),
		budget: budget,
		visit:  visit,
	}
	e.seq = plan.sequence(nil, plan.largest)
	e.sol = make(grid.Solution, 0, len(e.seq))
	complete := e.dfs(0, 0)
	out := Outcome{Solutions: e.solutions, Nodes: e.nodes, Complete: complete}
	if e.err != nil {
		return out, errs.Wrap(e.err, "exhaustive search interrupted")
	}
	return out, nil
}

type exhaustive struct {
	ctx       context.Context
	err       error
	g         *grid.Grid
	cands     [][]candidate
	seq       []int
	sol       grid.Solution
	budget    int
	visit     Visitor
	nodes     int
	solutions int
}

// dfs 回傳 false 表示預算用盡或 ctx 已取消
func (e *exhaustive) dfs(depth, from int) bool {
	if depth == len(e.seq) {
		e.solutions++
		if e.visit != nil {
			e.visit(e.sol)
		}
		return true
	}
	t := e.seq[depth]
	cs := e.cands[t]
	start := 0
	if depth > 0 && e.seq[depth-1] == t {
		start = from
	}
	// 同種物品還剩幾個要放（含本層）
	left := 1
	for d := depth + 1; d < len(e.seq) && e.seq[d] == t; d++ {
		left++
	}
	for i := start; i < len(cs); i++ {
		if len(cs)-i < left {
			break
		}
		p := cs[i].p
		if !e.g.CanPlace(p.X, p.Y, p.Width, p.Height) {
			continue
		}
		if e.budget > 0 && e.nodes >= e.budget {
			return false
		}
		if e.nodes%ctxCheckNodes == 0 {
			if e.err = e.ctx.Err(); e.err != nil {
				return false
			}
		}
		e.nodes++
		e.g.Place(p)
		e.sol = append(e.sol, p)
		ok := e.dfs(depth+1, i+1)
		e.sol = e.sol[:len(e.sol)-1]
		e.g.Remove(p)
		if !ok {
			return false
		}
	}
	return true
}
