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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/invlab"
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/grid"
	"github.com/zintix-labs/invlab/stats"
)

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/v1/simulate", strings.NewReader(body))
}

func TestDecodePostItems(t *testing.T) {
	req, err := DecodeSimRequest(post(`{
		"width": 4, "height": 3,
		"items": [{"width": 2, "height": 1, "count": 2}, {"width": 1, "height": 1, "count": 1}],
		"blockedCells": [{"x": 0, "y": 0}, {"x": 3, "y": 2}],
		"seed": 7, "simulations": 500, "strategy": "montecarlo"
	}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	prob := req.Problem()
	if prob.Width != 4 || prob.Height != 3 {
		t.Fatalf("unexpected size %dx%d", prob.Width, prob.Height)
	}
	if len(prob.Items) != 2 || prob.Items[0] != (grid.Item{Width: 2, Height: 1, Count: 2}) {
		t.Fatalf("unexpected items %+v", prob.Items)
	}
	if len(prob.Blocked) != 2 || prob.Blocked[1] != (grid.Coords{X: 3, Y: 2}) {
		t.Fatalf("unexpected blocked %+v", prob.Blocked)
	}
	opt := req.Options()
	if opt.Seed == nil || *opt.Seed != 7 || opt.Simulations != 500 || opt.Strategy != "montecarlo" {
		t.Fatalf("unexpected options %+v", opt)
	}
}

func TestDecodePostDefaultSize(t *testing.T) {
	req, err := DecodeSimJSON([]byte(`{"items":[{"width":1,"height":1,"count":1}]}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	prob := req.Problem()
	if prob.Width != 0 || prob.Height != 0 {
		t.Fatalf("omitted size should stay zero, got %dx%d", prob.Width, prob.Height)
	}
	if req.Options().Seed != nil {
		t.Fatalf("omitted seed should stay nil")
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"unknown field":   `{"items":[{"width":1,"height":1,"count":1}],"foo":1}`,
		"too many items":  `{"items":[{"width":1,"height":1,"count":1},{"width":1,"height":1,"count":1},{"width":1,"height":1,"count":1},{"width":1,"height":1,"count":1}]}`,
		"zero width":      `{"items":[{"width":0,"height":1,"count":1}]}`,
		"negative count":  `{"items":[{"width":1,"height":1,"count":-1}]}`,
		"bad strategy":    `{"items":[{"width":1,"height":1,"count":1}],"strategy":"greedy"}`,
		"float width":     `{"width":2.5,"height":2,"items":[{"width":1,"height":1,"count":1}]}`,
		"huge grid":       `{"width":99,"height":2,"items":[{"width":1,"height":1,"count":1}]}`,
		"negative cell":   `{"items":[{"width":1,"height":1,"count":1}],"blockedCells":[{"x":-1,"y":0}]}`,
		"half size":       `{"width":3,"items":[{"width":1,"height":1,"count":1}]}`,
		"no input":        `{}`,
		"both inputs":     `{"preset":"schale_s7","round":1,"items":[{"width":1,"height":1,"count":1}]}`,
		"round no preset": `{"round":2,"items":[{"width":1,"height":1,"count":1}]}`,
		"preset size":     `{"preset":"schale_s7","round":1,"width":3,"height":3}`,
	}
	for name, body := range cases {
		_, err := DecodeSimRequest(post(body))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if errs.LevelOf(err) != errs.Warn {
			t.Fatalf("%s: expected warn, got %v", name, err)
		}
	}
}

func TestDecodeMethod(t *testing.T) {
	r := httptest.NewRequest(http.MethodPut, "/v1/simulate", nil)
	if _, err := DecodeSimRequest(r); err == nil {
		t.Fatalf("PUT should be rejected")
	}
	if _, err := DecodeSimRequest(nil); err == nil {
		t.Fatalf("nil request should be rejected")
	}
}

func TestDecodeBodyLimit(t *testing.T) {
	body := `{"items":[{"width":1,"height":1,"count":1}],"preset":"` + strings.Repeat("a", maxBody) + `"}`
	_, err := DecodeSimRequest(post(body))
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected body too large, got %v", err)
	}
}

func TestDecodeQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/simulate?preset=schale_s7&round=3&blocked=0:0,%202:1&seed=11&simulations=300&strategy=auto", nil)
	req, err := DecodeSimRequest(r)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if req.Preset != "schale_s7" || req.Round != 3 {
		t.Fatalf("unexpected preset %q round %d", req.Preset, req.Round)
	}
	if len(req.BlockedCells) != 2 || req.BlockedCells[1] != (CellDTO{X: 2, Y: 1}) {
		t.Fatalf("unexpected blocked %+v", req.BlockedCells)
	}
	if req.Seed == nil || *req.Seed != 11 || req.Simulations != 300 || req.Strategy != "auto" {
		t.Fatalf("unexpected options %+v", req)
	}

	r = httptest.NewRequest(http.MethodGet, "/v1/simulate?preset=schale_s7", nil)
	req, err = DecodeSimRequest(r)
	if err != nil || req.Round != 1 {
		t.Fatalf("round should default to 1, got %+v err=%v", req, err)
	}

	for _, q := range []string{"", "preset=x&round=a", "preset=x&seed=1.5", "preset=x&blocked=1-2", "preset=x&round=0", "preset=x&simulations=-1"} {
		r = httptest.NewRequest(http.MethodGet, "/v1/simulate?"+q, nil)
		if _, err := DecodeSimRequest(r); errs.LevelOf(err) != errs.Warn {
			t.Fatalf("query %q: expected warn, got %v", q, err)
		}
	}
}

func TestParseCells(t *testing.T) {
	cells, err := ParseCells("1:2,,3:4,")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(cells) != 2 || cells[0] != (CellDTO{X: 1, Y: 2}) || cells[1] != (CellDTO{X: 3, Y: 4}) {
		t.Fatalf("unexpected cells %+v", cells)
	}
	for _, s := range []string{"1", "a:1", "1:-1"} {
		if _, err := ParseCells(s); err == nil {
			t.Fatalf("%q should fail", s)
		}
	}
}

func TestErrorResponse(t *testing.T) {
	cases := []struct {
		err    error
		status string
		msg    string
	}{
		{errs.NewWithExtra(errs.Warn, "blocked cell out of bounds", "(9,0)"), StatusInvalid, "blocked cell out of bounds: (9,0)"},
		{errs.Wrap(errs.NewLog("unsatisfiable"), "simulate"), StatusUnsatisfiable, "simulate"},
		{errs.WrapWithExtra(stats.ErrNoData, "no trial completed within the node budget", "5 trials"), StatusNoData, "no trial completed within the node budget: 5 trials"},
		{errs.NewFatal("pool closed"), StatusError, "internal error"},
		{context.DeadlineExceeded, StatusError, "internal error"},
	}
	for _, c := range cases {
		resp := ErrorResponse(c.err)
		if resp.Status != c.status || resp.Error == nil || *resp.Error != c.msg || resp.Result != nil {
			t.Fatalf("%v: unexpected response %+v", c.err, resp)
		}
	}

	raw, err := json.Marshal(ErrorResponse(errs.NewLog("unsatisfiable")))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(raw), `"result":null`) || !strings.Contains(string(raw), `"error":"unsatisfiable"`) {
		t.Fatalf("unexpected json %s", raw)
	}
}

func TestNewSimResponse(t *testing.T) {
	lab, err := invlab.Default()
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	req, err := DecodeSimJSON([]byte(`{"width":2,"height":2,"items":[{"width":2,"height":2,"count":1}],"seed":1}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	rep, err := lab.Simulate(context.Background(), req.Problem(), req.Options())
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	resp := NewSimResponse(rep)
	if resp.Status != StatusOK || resp.Error != nil || !resp.Exact || resp.Solutions != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(resp.Result) != 2 || len(resp.Result[0]) != 2 {
		t.Fatalf("result should be 2x2")
	}
	for y := range resp.Result {
		for x, c := range resp.Result[y] {
			if c.Total != 1 || len(c.ItemTypes) != 1 || c.ItemTypes[0] != 1 {
				t.Fatalf("(%d,%d) unexpected cell %+v", x, y, c)
			}
		}
	}

	raw, _ := json.Marshal(resp)
	if !strings.Contains(string(raw), `"error":null`) || !strings.Contains(string(raw), `"itemTypes":[1]`) {
		t.Fatalf("unexpected json %s", raw)
	}

	if NewSimResponse(nil).Status != StatusError {
		t.Fatalf("nil report should be error")
	}
}
