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

// MaxItemTypes 單次計算最多可同時考慮的物品種類數
const MaxItemTypes = 3

// Item 一種物品：佔地 Width×Height，尚未找到的數量 Count。
type Item struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	Count  int `json:"count" yaml:"count"`
}

// Area 單一物品的佔地格數
func (it Item) Area() int {
	return it.Width * it.Height
}

// Orientation 物品的一種擺放方向
type Orientation struct {
	Width   int
	Height  int
	Rotated bool
}

// Orientations 回傳物品可用的擺放方向；正方形或 rotation=false 時只有原方向。
func (it Item) Orientations(rotation bool) []Orientation {
	o := []Orientation{{Width: it.Width, Height: it.Height}}
	if rotation && it.Width != it.Height {
		o = append(o, Orientation{Width: it.Height, Height: it.Width, Rotated: true})
	}
	return o
}

// FitsIn 物品在 w×h 盤面中是否至少有一個方向放得下（不考慮封鎖格）
func (it Item) FitsIn(w, h int, rotation bool) bool {
	for _, o := range it.Orientations(rotation) {
		if o.Width <= w && o.Height <= h {
			return true
		}
	}
	return false
}
