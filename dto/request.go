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
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/zintix-labs/invlab"
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/grid"
)

//go:embed request.schema.json
var requestSchema string

var schema = jsonschema.MustCompileString("request.schema.json", requestSchema)

// maxBody POST body 上限
const maxBody = 1 << 20

// SimRequest 對外的計算請求。
//
// 兩種輸入方式擇一：
//   - items：直接指定 1..3 種物品（width/height 缺省時使用引擎預設 9x5）。
//   - preset + round：使用內建活動關卡的某一回合（盤面尺寸以 preset 為準）。
type SimRequest struct {
	Width        *int      `json:"width,omitempty"`
	Height       *int      `json:"height,omitempty"`
	Preset       string    `json:"preset,omitempty"`
	Round        int       `json:"round,omitempty"`
	Items        []ItemDTO `json:"items,omitempty"`
	BlockedCells []CellDTO `json:"blockedCells,omitempty"`
	Seed         *int64    `json:"seed,omitempty"`
	Simulations  int       `json:"simulations,omitempty"`
	Strategy     string    `json:"strategy,omitempty"`
}

type ItemDTO struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Count  int `json:"count"`
}

type CellDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DecodeSimRequest 會把 HTTP 請求解碼成 SimRequest。
//
// 支援：
//   - GET：從 query string 讀取 preset/round/blocked/seed/simulations/strategy；
//     blocked 格式為 "x:y,x:y"。GET 只支援 preset 模式。
//   - POST：JSON body，先以 JSON Schema 驗證，再以 DisallowUnknownFields 解碼。
//
// 這裡只負責解碼與格式驗證；盤面是否可解由引擎決定。所有錯誤皆為 Warn。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	switch r.Method {
	case http.MethodGet:
		return decodeQuery(r)
	case http.MethodPost:
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
		if err != nil {
			return nil, errs.NewWarn("read body failed: " + err.Error())
		}
		if len(raw) > maxBody {
			return nil, errs.NewWarn("request body too large")
		}
		return DecodeSimJSON(raw)
	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// DecodeSimJSON 驗證並解碼 JSON 請求；CLI 讀檔時也使用同一套規則。
func DecodeSimJSON(raw []byte) (*SimRequest, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, errs.NewWarn("invalid json: " + err.Error())
	}
	if err := schema.Validate(doc); err != nil {
		return nil, errs.NewWithExtra(errs.Warn, "request does not match schema", schemaMsg(err))
	}
	req := new(SimRequest)
	dec = json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return nil, errs.NewWarn("invalid json: " + err.Error())
	}
	if err := req.Valid(); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeQuery(r *http.Request) (*SimRequest, error) {
	q := r.URL.Query()
	req := &SimRequest{Preset: q.Get("preset"), Strategy: q.Get("strategy")}
	if req.Preset == "" {
		return nil, errs.NewWarn("preset is required")
	}
	if s := q.Get("round"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errs.NewWarn(fmt.Sprintf("invalid round: %v", err))
		}
		req.Round = v
	} else {
		req.Round = 1
	}
	if s := q.Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn(fmt.Sprintf("invalid seed: %v", err))
		}
		req.Seed = &v
	}
	if s := q.Get("simulations"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, errs.NewWarn(fmt.Sprintf("invalid simulations: %v", err))
		}
		req.Simulations = v
	}
	if s := q.Get("blocked"); s != "" {
		cells, err := ParseCells(s)
		if err != nil {
			return nil, err
		}
		req.BlockedCells = cells
	}
	if err := req.Valid(); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseCells 解析 "x:y,x:y" 格式的座標列表
func ParseCells(s string) ([]CellDTO, error) {
	parts := strings.Split(s, ",")
	out := make([]CellDTO, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		xs, ys, ok := strings.Cut(p, ":")
		if !ok {
			return nil, errs.NewWithExtra(errs.Warn, "invalid cell, want x:y", p)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(xs))
		y, errY := strconv.Atoi(strings.TrimSpace(ys))
		if errX != nil || errY != nil || x < 0 || y < 0 {
			return nil, errs.NewWithExtra(errs.Warn, "invalid cell, want x:y", p)
		}
		out = append(out, CellDTO{X: x, Y: y})
	}
	return out, nil
}

// Valid 業務規則：items 與 preset 擇一，參數範圍。
func (req *SimRequest) Valid() error {
	hasItems := len(req.Items) > 0
	hasPreset := req.Preset != ""
	switch {
	case hasItems && hasPreset:
		return errs.NewWarn("items and preset are mutually exclusive")
	case !hasItems && !hasPreset:
		return errs.NewWarn("items or preset is required")
	case hasPreset && (req.Width != nil || req.Height != nil):
		return errs.NewWarn("grid size comes from the preset")
	case !hasPreset && req.Round != 0:
		return errs.NewWarn("round requires preset")
	}
	if (req.Width == nil) != (req.Height == nil) {
		return errs.NewWarn("width and height must be given together")
	}
	if req.Simulations < 0 {
		return errs.Warnf("simulations must be positive, got %d", req.Simulations)
	}
	if hasPreset && req.Round < 1 {
		return errs.Warnf("round must be >= 1, got %d", req.Round)
	}
	return nil
}

// Problem 轉成引擎輸入；preset 模式由呼叫端以 Lab.PresetProblem 取得。
func (req *SimRequest) Problem() invlab.Problem {
	prob := invlab.Problem{
		Items:   make([]grid.Item, len(req.Items)),
		Blocked: req.Blocked(),
	}
	if req.Width != nil && req.Height != nil {
		prob.Width, prob.Height = *req.Width, *req.Height
	}
	for i, it := range req.Items {
		prob.Items[i] = grid.Item{Width: it.Width, Height: it.Height, Count: it.Count}
	}
	return prob
}

func (req *SimRequest) Blocked() []grid.Coords {
	if len(req.BlockedCells) == 0 {
		return nil
	}
	out := make([]grid.Coords, len(req.BlockedCells))
	for i, c := range req.BlockedCells {
		out[i] = grid.Coords{X: c.X, Y: c.Y}
	}
	return out
}

func (req *SimRequest) Options() invlab.Options {
	return invlab.Options{
		Seed:        req.Seed,
		Simulations: req.Simulations,
		Strategy:    req.Strategy,
	}
}

// schemaMsg 取最內層的驗證訊息，避免把整棵錯誤樹回給前端
func schemaMsg(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}
