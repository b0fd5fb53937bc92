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
	"testing"

	"github.com/zintix-labs/invlab/errs"
)

func TestEngineSettingYAMLKeepsDefaults(t *testing.T) {
	es, err := GetEngineSettingByYAML([]byte("simulations: 500\nrotation: false\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if es.Simulations != 500 || es.Rotation {
		t.Fatalf("overrides not applied: %+v", es)
	}
	if es.Width != DefaultWidth || es.Height != DefaultHeight || es.SeedVariations != DefaultSeedVariations {
		t.Fatalf("defaults lost: %+v", es)
	}
}

func TestEngineSettingInvalidIsFatal(t *testing.T) {
	_, err := GetEngineSettingByJSON([]byte(`{"strategy":"greedy"}`))
	if err == nil {
		t.Fatalf("unknown strategy accepted")
	}
	if errs.LevelOf(err) != errs.Fatal {
		t.Fatalf("config error should be fatal, got %v", err)
	}
	es := DefaultEngineSetting()
	es.Width = 0
	if err := es.Check(); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("Check should return warn, got %v", err)
	}
}

func TestBiasCheck(t *testing.T) {
	bs := DefaultBiasSetting()
	bs.Enabled = true
	if err := bs.Check(); err != nil {
		t.Fatalf("default bias should be valid: %v", err)
	}
	bs.Edge.Factor = 1.5
	if err := bs.Check(); err == nil {
		t.Fatalf("factor above 1 accepted")
	}
	bs.Edge.Factor = 0.5
	bs.Edge.Edges = []string{"diagonal"}
	if err := bs.Check(); err == nil {
		t.Fatalf("unknown edge accepted")
	}
}

const presetYAML = `
id: sample
name: Sample Event
items:
  pen: { name: Pen, width: 2, height: 1 }
  box: { name: Box, width: 2, height: 2 }
rounds:
  - [{ item: box, count: 1 }, { item: pen, count: 3 }]
`

func TestPresetRound(t *testing.T) {
	ps, err := GetPresetSettingByYAML([]byte(presetYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ps.Width != DefaultWidth || ps.Height != DefaultHeight {
		t.Fatalf("default grid not applied: %dx%d", ps.Width, ps.Height)
	}
	r, err := ps.Round(1)
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if len(r.Items) != 2 || r.Items[0].Area() != 4 || r.Items[1].Count != 3 || r.Names[1] != "Pen" {
		t.Fatalf("unexpected round %+v", r)
	}
	if _, err := ps.Round(2); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("missing round should be warn, got %v", err)
	}
}

func TestPresetUnknownItem(t *testing.T) {
	bad := `
id: bad
items:
  pen: { name: Pen, width: 2, height: 1 }
rounds:
  - [{ item: cup, count: 1 }]
`
	if _, err := GetPresetSettingByYAML([]byte(bad)); err == nil {
		t.Fatalf("unknown item accepted")
	}
}
