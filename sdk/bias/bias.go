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

// Package bias 提供可插拔的偏差權重。
//
// 權重只會乘在一組已經合法的擺放上（重要性加權），不會新增或修改擺放，因此盤面的硬性條件永遠成立。
// 所有係數預設為 1；停用時整個 Weigher 為 nil，計數退化為均勻統計。
package bias

import (
	"github.com/zintix-labs/invlab/sdk/grid"
	"github.com/zintix-labs/invlab/spec"
)

// Weigher 回傳一組擺放的權重，值域 (0,1]。
type Weigher interface {
	Weight(g *grid.Grid, sol grid.Solution) float64
}

// Chain 依序相乘多個 Weigher
type Chain []Weigher

func (c Chain) Weight(g *grid.Grid, sol grid.Solution) float64 {
	w := 1.0
	for _, x := range c {
		w *= x.Weight(g, sol)
	}
	return w
}

// Edge 每個貼齊指定邊界的 (擺放, 邊界) 乘上 Factor
type Edge struct {
	Top, Bottom, Left, Right bool
	Factor                   float64
}

func (e Edge) Weight(g *grid.Grid, sol grid.Solution) float64 {
	w := 1.0
	for _, p := range sol {
		if e.Top && p.Y == 0 {
			w *= e.Factor
		}
		if e.Bottom && p.Y+p.Height == g.Height {
			w *= e.Factor
		}
		if e.Left && p.X == 0 {
			w *= e.Factor
		}
		if e.Right && p.X+p.Width == g.Width {
			w *= e.Factor
		}
	}
	return w
}

// Spread 兩個面積不超過 MaxArea 的擺放共用邊時乘上 Factor
type Spread struct {
	MaxArea int
	Factor  float64
}

func (s Spread) Weight(_ *grid.Grid, sol grid.Solution) float64 {
	w := 1.0
	for i := 0; i < len(sol); i++ {
		if sol[i].Area() > s.MaxArea {
			continue
		}
		for j := i + 1; j < len(sol); j++ {
			if sol[j].Area() <= s.MaxArea && sol[i].Touches(sol[j]) {
				w *= s.Factor
			}
		}
	}
	return w
}

// FromSetting 依設定組出 Weigher。未啟用或所有係數皆為 1 時回傳 nil。
func FromSetting(bs spec.BiasSetting) Weigher {
	if !bs.Enabled {
		return nil
	}
	var c Chain
	if bs.Edge.Factor != 1 && len(bs.Edge.Edges) > 0 {
		e := Edge{Factor: bs.Edge.Factor}
		for _, name := range bs.Edge.Edges {
			switch name {
			case spec.EdgeTop:
				e.Top = true
			case spec.EdgeBottom:
				e.Bottom = true
			case spec.EdgeLeft:
				e.Left = true
			case spec.EdgeRight:
				e.Right = true
			}
		}
		c = append(c, e)
	}
	if bs.Spread.Factor != 1 {
		c = append(c, Spread{MaxArea: bs.Spread.MaxArea, Factor: bs.Spread.Factor})
	}
	if len(c) == 0 {
		return nil
	}
	return c
}

// Of 計算權重；w 為 nil 時回傳 1。
func Of(w Weigher, g *grid.Grid, sol grid.Solution) float64 {
	if w == nil {
		return 1
	}
	return w.Weight(g, sol)
}
