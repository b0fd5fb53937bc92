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
	"github.com/zintix-labs/invlab/errs"
)

// 偏差邊界名稱
const (
	EdgeTop    = "top"
	EdgeBottom = "bottom"
	EdgeLeft   = "left"
	EdgeRight  = "right"
)

// BiasSetting 偏差權重。所有係數預設為 1（等於不啟用），實際數值需以真實盤面資料校正。
type BiasSetting struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Edge    EdgeSetting   `yaml:"edge"    json:"edge"`
	Spread  SpreadSetting `yaml:"spread"  json:"spread"`
}

// EdgeSetting 物品貼齊指定邊界時，每個 (物品, 邊界) 乘上 Factor。
type EdgeSetting struct {
	Edges  []string `yaml:"edges"  json:"edges"`
	Factor float64  `yaml:"factor" json:"factor"`
}

// SpreadSetting 兩個面積不超過 MaxArea 的物品相鄰時乘上 Factor。
type SpreadSetting struct {
	MaxArea int     `yaml:"max_area" json:"max_area"`
	Factor  float64 `yaml:"factor"   json:"factor"`
}

func DefaultBiasSetting() BiasSetting {
	return BiasSetting{
		Edge:   EdgeSetting{Factor: 1},
		Spread: SpreadSetting{MaxArea: 2, Factor: 1},
	}
}

// Check 係數需落在 (0,1]；權重只會降低一組擺放的貢獻，不會憑空產生擺放。
func (bs *BiasSetting) Check() error {
	if !bs.Enabled {
		return nil
	}
	if bs.Edge.Factor <= 0 || bs.Edge.Factor > 1 {
		return errs.Warnf("bias.edge.factor must be within (0,1], got %v", bs.Edge.Factor)
	}
	for _, e := range bs.Edge.Edges {
		switch e {
		case EdgeTop, EdgeBottom, EdgeLeft, EdgeRight:
		default:
			return errs.NewWithExtra(errs.Warn, "unknown bias edge", e)
		}
	}
	if bs.Spread.Factor <= 0 || bs.Spread.Factor > 1 {
		return errs.Warnf("bias.spread.factor must be within (0,1], got %v", bs.Spread.Factor)
	}
	if bs.Spread.MaxArea < 0 {
		return errs.Warnf("bias.spread.max_area must not be negative, got %d", bs.Spread.MaxArea)
	}
	return nil
}
