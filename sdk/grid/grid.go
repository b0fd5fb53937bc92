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

// Package grid 定義盤面、物品與擺放的資料模型。
//
// 盤面以 row-major 的 []int8 保存：-1 為封鎖格，0 為空格，k>0 代表第 k-1 種物品。
// Grid 不是 goroutine-safe；搜尋時由單一 Machine 獨佔並以 Place/Remove 回溯。
package grid

import (
	"fmt"

	"github.com/zintix-labs/invlab/errs"
)

const (
	blockedCell int8 = -1
	emptyCell   int8 = 0
)

// Coords 盤面座標，X 為欄、Y 為列，原點在左上。
type Coords struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (c Coords) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Grid W×H 盤面
type Grid struct {
	Width   int
	Height  int
	cells   []int8
	blocked int
}

// New 建立盤面並標記封鎖格；座標越界回傳 Warn。重複的封鎖格只計一次。
func New(width, height int, blocked []Coords) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errs.Warnf("grid size must be positive, got %dx%d", width, height)
	}
	g := &Grid{Width: width, Height: height, cells: make([]int8, width*height)}
	for _, b := range blocked {
		if !g.In(b.X, b.Y) {
			return nil, errs.NewWithExtra(errs.Warn, "blocked cell out of bounds", b.String())
		}
		i := g.idx(b.X, b.Y)
		if g.cells[i] != blockedCell {
			g.cells[i] = blockedCell
			g.blocked++
		}
	}
	return g, nil
}

func (g *Grid) idx(x, y int) int {
	return y*g.Width + x
}

// In 座標是否在盤面內
func (g *Grid) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// Size 格子總數
func (g *Grid) Size() int {
	return g.Width * g.Height
}

// IsBlocked 是否為封鎖格
func (g *Grid) IsBlocked(x, y int) bool {
	return g.cells[g.idx(x, y)] == blockedCell
}

// Occupant 回傳佔據該格的物品種類；空格或封鎖格回傳 -1。
func (g *Grid) Occupant(x, y int) int {
	v := g.cells[g.idx(x, y)]
	if v <= emptyCell {
		return -1
	}
	return int(v) - 1
}

// Blocked 封鎖格數量
func (g *Grid) Blocked() int {
	return g.blocked
}

// FreeCells 未封鎖的格子數（含已被暫時佔據者）
func (g *Grid) FreeCells() int {
	return g.Size() - g.blocked
}

// CanPlace w×h 矩形以 (x,y) 為左上角時是否完全落在盤面內且只覆蓋空格
func (g *Grid) CanPlace(x, y, w, h int) bool {
	if x < 0 || y < 0 || x+w > g.Width || y+h > g.Height {
		return false
	}
	for dy := 0; dy < h; dy++ {
		row := (y+dy)*g.Width + x
		for dx := 0; dx < w; dx++ {
			if g.cells[row+dx] != emptyCell {
				return false
			}
		}
	}
	return true
}

// Place 寫入一個擺放；呼叫端需先以 CanPlace 確認。
func (g *Grid) Place(p Placement) {
	g.fill(p, int8(p.Type+1))
}

// Remove 撤銷 Place
func (g *Grid) Remove(p Placement) {
	g.fill(p, emptyCell)
}

func (g *Grid) fill(p Placement, v int8) {
	for dy := 0; dy < p.Height; dy++ {
		row := (p.Y+dy)*g.Width + p.X
		for dx := 0; dx < p.Width; dx++ {
			g.cells[row+dx] = v
		}
	}
}

// Reset 清除所有擺放，保留封鎖格
func (g *Grid) Reset() {
	for i, v := range g.cells {
		if v != blockedCell {
			g.cells[i] = emptyCell
		}
	}
}

// Clone 深拷貝
func (g *Grid) Clone() *Grid {
	c := *g
	c.cells = append([]int8(nil), g.cells...)
	return &c
}

// BlockedCoords 依 row-major 順序回傳所有封鎖格
func (g *Grid) BlockedCoords() []Coords {
	out := make([]Coords, 0, g.blocked)
	for i, v := range g.cells {
		if v == blockedCell {
			out = append(out, Coords{X: i % g.Width, Y: i / g.Width})
		}
	}
	return out
}
