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

package spec

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/grid"
)

// PresetSetting 一個活動的所有回合。每回合固定 3 種物品。
type PresetSetting struct {
	ID     string                `yaml:"id"     json:"id"`
	Name   string                `yaml:"name"   json:"name"`
	Width  int                   `yaml:"width"  json:"width"`
	Height int                   `yaml:"height" json:"height"`
	Items  map[string]PresetItem `yaml:"items"  json:"items"`
	Rounds [][]RoundItem         `yaml:"rounds" json:"rounds"`
}

// PresetItem 物品外觀與尺寸
type PresetItem struct {
	Name   string `yaml:"name"   json:"name"`
	Width  int    `yaml:"width"  json:"width"`
	Height int    `yaml:"height" json:"height"`
}

// RoundItem 回合中某物品的數量
type RoundItem struct {
	Item  string `yaml:"item"  json:"item"`
	Count int    `yaml:"count" json:"count"`
}

// Round 一個回合展開後的結果
type Round struct {
	Index int         `json:"round"`
	Names []string    `json:"names"`
	Items []grid.Item `json:"items"`
}

func (ps *PresetSetting) init() error {
	ps.ID = strings.TrimSpace(ps.ID)
	if ps.Width == 0 && ps.Height == 0 {
		ps.Width, ps.Height = DefaultWidth, DefaultHeight
	}
	return ps.valid()
}

func (ps *PresetSetting) valid() error {
	if ps.ID == "" {
		return errs.NewFatal("preset id required")
	}
	if ps.Width <= 0 || ps.Height <= 0 || ps.Width > MaxSide || ps.Height > MaxSide {
		return errs.NewFatal(fmt.Sprintf("preset %s: invalid grid %dx%d", ps.ID, ps.Width, ps.Height))
	}
	for key, it := range ps.Items {
		if it.Width <= 0 || it.Height <= 0 {
			return errs.NewFatal(fmt.Sprintf("preset %s: item %s has invalid size", ps.ID, key))
		}
	}
	if len(ps.Rounds) == 0 {
		return errs.NewFatal(fmt.Sprintf("preset %s: empty rounds", ps.ID))
	}
	for i, r := range ps.Rounds {
		if len(r) == 0 || len(r) > grid.MaxItemTypes {
			return errs.NewFatal(fmt.Sprintf("preset %s: round %d must have 1..%d items", ps.ID, i+1, grid.MaxItemTypes))
		}
		area := 0
		for _, ri := range r {
			it, ok := ps.Items[ri.Item]
			if !ok {
				return errs.NewFatal(fmt.Sprintf("preset %s: round %d references unknown item %q", ps.ID, i+1, ri.Item))
			}
			if ri.Count < 0 {
				return errs.NewFatal(fmt.Sprintf("preset %s: round %d negative count", ps.ID, i+1))
			}
			area += it.Width * it.Height * ri.Count
		}
		if area > ps.Width*ps.Height {
			return errs.NewFatal(fmt.Sprintf("preset %s: round %d item area %d exceeds grid", ps.ID, i+1, area))
		}
	}
	return nil
}

// Round 取得第 n 回合（1 起算）。
func (ps *PresetSetting) Round(n int) (Round, error) {
	if n < 1 || n > len(ps.Rounds) {
		return Round{}, errs.Warnf("preset %s has rounds 1..%d, got %d", ps.ID, len(ps.Rounds), n)
	}
	src := ps.Rounds[n-1]
	r := Round{Index: n, Names: make([]string, len(src)), Items: make([]grid.Item, len(src))}
	for i, ri := range src {
		it := ps.Items[ri.Item]
		r.Names[i] = it.Name
		r.Items[i] = grid.Item{Width: it.Width, Height: it.Height, Count: ri.Count}
	}
	return r, nil
}
