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

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/invlab"
	"github.com/zintix-labs/invlab/catalog"
	"github.com/zintix-labs/invlab/dto"
	"github.com/zintix-labs/invlab/server/netsvr"
	"github.com/zintix-labs/invlab/server/svrcfg"
)

func newTestServer(t *testing.T) (*httptest.Server, *svrcfg.SvrCfg) {
	t.Helper()
	lab, err := invlab.Default()
	if err != nil {
		t.Fatalf("lab: %v", err)
	}
	cfg := &svrcfg.SvrCfg{Lab: lab, PoolSize: 2, CacheSize: 16}
	if err := cfg.Vaild(); err != nil {
		t.Fatalf("cfg: %v", err)
	}
	svr := netsvr.NewChiServerDefault()
	if err := RegisterRoutes(svr, cfg); err != nil {
		t.Fatalf("routes: %v", err)
	}
	ts := httptest.NewServer(svr.Handler())
	t.Cleanup(func() {
		ts.Close()
		cfg.Runtime.Close()
	})
	return ts, cfg
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func postJSON(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/v1/simulate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestSimulateOK(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts, `{"width":3,"height":3,"items":[{"width":1,"height":1,"count":1}],"seed":3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	out := decode[dto.SimResponse](t, resp)
	if out.Status != dto.StatusOK || out.Error != nil || !out.Exact {
		t.Fatalf("unexpected response %+v", out)
	}
	if len(out.Result) != 3 || len(out.Result[2]) != 3 {
		t.Fatalf("result should be 3x3")
	}
	for y := range out.Result {
		for x, c := range out.Result[y] {
			if c.Total < 1.0/9-1e-9 || c.Total > 1.0/9+1e-9 {
				t.Fatalf("(%d,%d) want 1/9, got %v", x, y, c.Total)
			}
		}
	}
}

func TestSimulateUnsatisfiable(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts, `{"width":2,"height":2,"items":[{"width":1,"height":1,"count":1}],
		"blockedCells":[{"x":0,"y":0},{"x":1,"y":0},{"x":0,"y":1},{"x":1,"y":1}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unsatisfiable should be 200, got %d", resp.StatusCode)
	}
	out := decode[dto.SimResponse](t, resp)
	if out.Status != dto.StatusUnsatisfiable || out.Result != nil || out.Error == nil {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestSimulateInvalid(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, body := range []string{
		`{"width":2,"height":2,"items":[{"width":1,"height":1,"count":1}],"blockedCells":[{"x":5,"y":0}]}`,
		`{"items":[{"width":1,"height":1,"count":1}],"extra":true}`,
		`not json`,
	} {
		resp := postJSON(t, ts, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d", body, resp.StatusCode)
		}
		out := decode[dto.SimResponse](t, resp)
		if out.Status != dto.StatusInvalid || out.Result != nil || out.Error == nil || *out.Error == "" {
			t.Fatalf("%s: unexpected response %+v", body, out)
		}
	}
}

func TestSimulatePresetGet(t *testing.T) {
	ts, cfg := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/simulate?preset=schale_s7&round=1&seed=5&simulations=200&strategy=montecarlo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	out := decode[dto.SimResponse](t, resp)
	if out.Status != dto.StatusOK || len(out.Result) != 5 || len(out.Result[0]) != 9 {
		t.Fatalf("unexpected response status=%s rows=%d", out.Status, len(out.Result))
	}
	if len(out.Names) == 0 || len(out.Names) != len(out.Result[0][0].ItemTypes) {
		t.Fatalf("names should match item types: %v", out.Names)
	}
	if out.Seed != 5 || out.Strategy != "montecarlo" {
		t.Fatalf("unexpected summary seed=%d strategy=%s", out.Seed, out.Strategy)
	}

	// 相同 seed 第二次命中快取
	resp, err = http.Get(ts.URL + "/v1/simulate?preset=schale_s7&round=1&seed=5&simulations=200&strategy=montecarlo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if cfg.Runtime.Metrics().Cache.Hits != 1 {
		t.Fatalf("second request should hit cache, stats %+v", cfg.Runtime.Metrics().Cache)
	}

	resp, err = http.Get(ts.URL + "/v1/simulate?preset=nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown preset should be 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPresets(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/presets")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	list := decode[[]catalog.Summary](t, resp)
	if len(list) == 0 {
		t.Fatalf("presets should not be empty")
	}

	resp, err = http.Get(ts.URL + "/v1/presets/" + list[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	one := decode[map[string]any](t, resp)
	if one["id"] != list[0].ID {
		t.Fatalf("unexpected preset %v", one["id"])
	}

	resp, err = http.Get(ts.URL + "/v1/presets/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts, cfg := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/v1/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	m := decode[invlab.RuntimeMetrics](t, resp)
	if m.Pool.PoolSize != 2 || m.Cache.Capacity != 16 {
		t.Fatalf("unexpected metrics %+v", m)
	}

	cfg.Runtime.Close()
	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("closed runtime should be 503, got %d", resp.StatusCode)
	}
}
