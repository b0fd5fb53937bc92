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

package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/invlab/errs"
)

// StatusCode 將錯誤映射成 HTTP status code。
//
// 規則：
//   - ctx timeout/cancel → 504/408
//   - errs.Warn         → 400（請求/參數問題）
//   - errs.Log          → 200（無解屬於正常回應，由 body 的 status 表達）
//   - errs.Fatal        → 500
//
// 本函數屬於 HTTP 邊界層，核心 errs 不依賴 net/http。
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	switch errs.LevelOf(err) {
	case errs.Warn:
		return http.StatusBadRequest
	case errs.Log:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// Errs 以純文字寫回錯誤；非 JSON 端點使用。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	msg := http.StatusText(status)
	if e, ok := errs.AsErr(err); ok && e.ErrLv != errs.Fatal {
		msg = e.Msg()
	}
	http.Error(w, msg, status)
}

// JSON 寫回 JSON body
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Log 只記錄值得注意的錯誤：逾時/取消記 Warn，5xx 記 Error；Warn/Log 屬於請求本身的問題，不記。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		log.Warn(msg, slog.Any("err", err))
	case status >= 500:
		log.Error(msg, slog.Any("err", err))
	}
}
