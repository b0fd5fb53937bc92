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

// Package sampler 提供一系列高效能的加權抽樣演算法與工具。
//
// 本檔案 (weightitem.go) 提供加權全排列，搜尋計畫用它決定「大物品優先但仍帶隨機」的物品順序。
//
// 注意：weight = 0 的項目直接剔除，不會出現在結果中。
package sampler

import (
	"cmp"
	"slices"

	"github.com/zintix-labs/invlab/sdk/core"
)

// weightItem 是加權排序中的基本單元。
// 它封裝了原始數據的索引 (Index) 與計算出的隨機權重分數 (Score)。
type weightItem struct {
	idx   int     // 原始數據的 Index
	score float64 // 根據權重與隨機數計算出的排序分數
}

// -----------------------------------------------------------------------------
// 公開 API (Public APIs)
// -----------------------------------------------------------------------------

// WeightedShuffleWithFilter 加權不放回抽樣 - 全排列但過濾零權重
//
// 演算法：Efraimidis-Spirakis Algorithm A-ExpJ
// 參考文獻：2006, "Weighted random sampling with a reservoir"
//
// 核心邏輯：
//  1. 為每個元素 i 生成一個特徵分數 $k_i = U_i^(1/w_i)$。
//     為了數值穩定與效能，實作上使用 Log 轉換： $Score_i = -ln(U_i) / w_i$。
//     其中 $-ln(U_i)$ 即為標準指數分佈 (ExpFloat64)。
//  2. 權重 $w_i$ 越大，分母越大，分數 $Score_i$ 越小。
//  3. 將所有元素按 Score 由小到大排序，排序後的順序即為加權隨機排列的結果。
//
// 回傳長度 M (M <= N)，僅包含權重 > 0 的項目；權重 < 0 時 panic。
//
// 適用場景：
//   - 依佔地面積加權的物品放置順序，數量為 0 的物品種類不參與。
//
// 複雜度：O(N log N) 時間、O(N) 空間。
func WeightedShuffleWithFilter[T Numbers](c *core.Core, weights []T) []int {
	n := len(weights)
	if n == 0 {
		return []int{}
	}

	// 1. 分數生成 (Score Generation)
	// 預分配容量但長度為 0，動態 append 有效項目
	items := make([]weightItem, 0, n)

	for i, w := range weights {
		if w < 0 {
			panic("WeightedShuffleWithFilter: negative weight")
		}
		// 權重為 0 的元素直接忽略，不加入列表
		if w == 0 {
			continue
		}

		// ExpFloat64 是隨機的「路程」，Weight 是「速度」，Score 越小排名越前
		score := c.ExpFloat64() / float64(w)
		items = append(items, weightItem{idx: i, score: score})
	}

	// 2. 排序 (Sorting)
	slices.SortFunc(items, func(a, b weightItem) int {
		return cmp.Compare(a.score, b.score)
	})

	// 3. 提取結果 (Extract Indices)
	result := make([]int, len(items))
	for i, item := range items {
		result[i] = item.idx
	}

	return result
}
