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

package grid

import (
	"fmt"

	"github.com/zintix-labs/invlab/errs"
)

// Placement 一個物品實例的擺放：左上角 (X,Y)、實際佔地 Width×Height。
type Placement struct {
	Type    int  `json:"type"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Width   int  `json:"width"`
	Height  int  `json:"height"`
	Rotated bool `json:"rotated,omitempty"`
}

// Area 佔地格數
func (p Placement) Area() int {
	return p.Width * p.Height
}

// Touches 兩個擺放是否有共用邊（不含只碰角）
func (p Placement) Touches(o Placement) bool {
	xOverlap := p.X < o.X+o.Width && o.X < p.X+p.Width
	yOverlap := p.Y < o.Y+o.Height && o.Y < p.Y+p.Height
	if xOverlap && (p.Y+p.Height == o.Y || o.Y+o.Height == p.Y) {
		return true
	}
	if yOverlap && (p.X+p.Width == o.X || o.X+o.Width == p.X) {
		return true
	}
	return false
}

func (p Placement) String() string {
	return fmt.Sprintf("t%d@(%d,%d)%dx%d", p.Type, p.X, p.Y, p.Width, p.Height)
}

// Solution 一組完整的擺放：每種物品恰好放滿要求數量
type Solution []Placement

// Validate 檢查 sol 是否滿足所有硬性條件：不越界、不重疊、不壓封鎖格、方向合法、數量守恆。
// 僅讀取 g 的封鎖格，不修改 g。
func Validate(g *Grid, items []Item, sol Solution, rotation bool) error {
	seen := make([]int, g.Size())
	per := make([]int, len(items))
	for _, p := range sol {
		if p.Type < 0 || p.Type >= len(items) {
			return errs.NewWithExtra(errs.Fatal, "placement with unknown item type", p.String())
		}
		if !orientationOK(items[p.Type], p, rotation) {
			return errs.NewWithExtra(errs.Fatal, "placement footprint does not match item", p.String())
		}
		if p.X < 0 || p.Y < 0 || p.X+p.Width > g.Width || p.Y+p.Height > g.Height {
			return errs.NewWithExtra(errs.Fatal, "placement out of bounds", p.String())
		}
		for dy := 0; dy < p.Height; dy++ {
			for dx := 0; dx < p.Width; dx++ {
				x, y := p.X+dx, p.Y+dy
				if g.IsBlocked(x, y) {
					return errs.NewWithExtra(errs.Fatal, "placement covers blocked cell", p.String())
				}
				i := g.idx(x, y)
				if seen[i] != 0 {
					return errs.NewWithExtra(errs.Fatal, "placements overlap", p.String())
				}
				seen[i] = p.Type + 1
			}
		}
		per[p.Type]++
	}
	for i, it := range items {
		if per[i] != it.Count {
			return errs.Fatalf("item %d placed %d times, want %d", i, per[i], it.Count)
		}
	}
	return nil
}

func orientationOK(it Item, p Placement, rotation bool) bool {
	for _, o := range it.Orientations(rotation) {
		if o.Width == p.Width && o.Height == p.Height {
			return true
		}
	}
	return false
}
