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

package dto

import (
	"errors"

	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/stats"
)

// 回應狀態
const (
	StatusOK            = "ok"
	StatusUnsatisfiable = "unsatisfiable"
	StatusNoData        = "no_data" // 預算內沒有任何成功試驗，不代表無解
	StatusInvalid       = "invalid"
	StatusError         = "error"
)

// SimResponse 對外回應：result 與 error 只會有一個不為 null。
type SimResponse struct {
	Result    [][]CellResult `json:"result"`              // [y][x]
	Error     *string        `json:"error"`               // 錯誤訊息
	Status    string         `json:"status"`              // ok / unsatisfiable / no_data / invalid / error
	Solutions int            `json:"solutions,omitempty"` // 完整擺放數（或成功試驗數）
	Exact     bool           `json:"exact,omitempty"`     // 窮舉完成
	Strategy  string         `json:"strategy,omitempty"`  // 實際使用的策略
	Seed      int64          `json:"seed,omitempty"`      // 實際使用的種子
	UsedMs    int64          `json:"used_ms,omitempty"`   // 計算耗時
	Names     []string       `json:"names,omitempty"`     // preset 模式下的物品名稱
}

// CellResult 單格機率
type CellResult struct {
	Total     float64   `json:"total"`
	ItemTypes []float64 `json:"itemTypes"`
}

// NewSimResponse 將報告轉成對外結構；報告無資料時回傳 no_data。
func NewSimResponse(rep *stats.ProbReport) SimResponse {
	if rep == nil {
		return ErrorResponse(errs.NewFatal("report is nil"))
	}
	if err := rep.Err(); err != nil {
		return ErrorResponse(err)
	}
	res := make([][]CellResult, rep.Height)
	for y := 0; y < rep.Height; y++ {
		row := make([]CellResult, rep.Width)
		for x := 0; x < rep.Width; x++ {
			c := rep.At(x, y)
			row[x] = CellResult{Total: c.Total, ItemTypes: c.ItemTypes}
		}
		res[y] = row
	}
	return SimResponse{
		Result:    res,
		Status:    StatusOK,
		Solutions: rep.Summary.Solutions,
		Exact:     rep.Summary.Exact,
		Strategy:  rep.Summary.Strategy,
		Seed:      rep.Summary.Seed,
		UsedMs:    rep.Summary.UsedMs,
	}
}

// ErrorResponse 依錯誤分級決定狀態；result 固定為 null。
func ErrorResponse(err error) SimResponse {
	msg := "internal error"
	status := StatusError
	if e, ok := errs.AsErr(err); ok {
		switch e.ErrLv {
		case errs.Warn:
			status, msg = StatusInvalid, e.Msg()
		case errs.Log:
			status, msg = StatusUnsatisfiable, e.Msg()
			if errors.Is(err, stats.ErrNoData) {
				status = StatusNoData
			}
		}
	}
	return SimResponse{Error: &msg, Status: status}
}

