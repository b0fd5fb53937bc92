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

package bias

import (
	"math"
	"testing"

	"github.com/zintix-labs/invlab/sdk/grid"
	"github.com/zintix-labs/invlab/spec"
)

func TestFromSettingDisabled(t *testing.T) {
	if w := FromSetting(spec.DefaultBiasSetting()); w != nil {
		t.Fatalf("default bias should be nil, got %T", w)
	}
	bs := spec.DefaultBiasSetting()
	bs.Enabled = true
	if w := FromSetting(bs); w != nil {
		t.Fatalf("enabled with unit factors should be nil, got %T", w)
	}
	g, _ := grid.New(3, 3, nil)
	if Of(nil, g, grid.Solution{{X: 0, Y: 0, Width: 1, Height: 1}}) != 1 {
		t.Fatalf("nil weigher must weigh 1")
	}
}

func TestEdgeWeight(t *testing.T) {
	g, _ := grid.New(3, 3, nil)
	e := Edge{Top: true, Left: true, Factor: 0.5}
	corner := grid.Solution{{X: 0, Y: 0, Width: 1, Height: 1}}
	centre := grid.Solution{{X: 1, Y: 1, Width: 1, Height: 1}}
	if w := e.Weight(g, corner); math.Abs(w-0.25) > 1e-12 {
		t.Fatalf("corner weight = %v", w)
	}
	if w := e.Weight(g, centre); w != 1 {
		t.Fatalf("centre weight = %v", w)
	}
}

func TestSpreadWeight(t *testing.T) {
	g, _ := grid.New(4, 1, nil)
	s := Spread{MaxArea: 1, Factor: 0.1}
	together := grid.Solution{{X: 0, Y: 0, Width: 1, Height: 1}, {X: 1, Y: 0, Width: 1, Height: 1}}
	apart := grid.Solution{{X: 0, Y: 0, Width: 1, Height: 1}, {X: 3, Y: 0, Width: 1, Height: 1}}
	if w := s.Weight(g, together); math.Abs(w-0.1) > 1e-12 {
		t.Fatalf("touching weight = %v", w)
	}
	if w := s.Weight(g, apart); w != 1 {
		t.Fatalf("apart weight = %v", w)
	}
}

func TestChainFromSetting(t *testing.T) {
	bs := spec.DefaultBiasSetting()
	bs.Enabled = true
	bs.Edge = spec.EdgeSetting{Edges: []string{spec.EdgeBottom}, Factor: 0.5}
	bs.Spread = spec.SpreadSetting{MaxArea: 1, Factor: 0.5}
	w := FromSetting(bs)
	if w == nil {
		t.Fatalf("expected chain")
	}
	g, _ := grid.New(2, 1, nil)
	sol := grid.Solution{{X: 0, Y: 0, Width: 1, Height: 1}, {X: 1, Y: 0, Width: 1, Height: 1}}
	// 兩個都貼底 (0.5*0.5)，且相鄰 (0.5)
	if got := w.Weight(g, sol); math.Abs(got-0.125) > 1e-12 {
		t.Fatalf("chain weight = %v", got)
	}
}
