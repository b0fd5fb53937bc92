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

package stats

import (
	"math"

	"github.com/zintix-labs/invlab/errs"
	"gonum.org/v1/gonum/stat"
)

const logLossEps = 1e-12

// Calibration 報告對實際揭曉盤面的校準程度，數值越小越好。
type Calibration struct {
	Brier   float64 `json:"brier"    yaml:"brier"`
	LogLoss float64 `json:"log_loss" yaml:"log_loss"`
	Cells   int     `json:"cells"    yaml:"cells"`
}

// Score 以實際盤面評估報告。observed[y][x] 為該格物品種類，空格為 -1。
// 每格視為 (空, 物品0, 物品1, ...) 的多類別預測；封鎖格不計。
func Score(r *ProbReport, observed [][]int) (Calibration, error) {
	if err := r.Err(); err != nil {
		return Calibration{}, err
	}
	if len(observed) != r.Height {
		return Calibration{}, errs.Warnf("observed board has %d rows, want %d", len(observed), r.Height)
	}
	var brier, logloss []float64
	for y, row := range observed {
		if len(row) != r.Width {
			return Calibration{}, errs.Warnf("observed row %d has %d cells, want %d", y, len(row), r.Width)
		}
		for x, obs := range row {
			c := r.Cells[y][x]
			if c.Blocked {
				continue
			}
			if obs < -1 || obs >= r.ItemTypes {
				return Calibration{}, errs.Warnf("observed cell (%d,%d) has unknown item %d", x, y, obs)
			}
			empty := 1 - c.Total
			b := sq(empty - indicator(obs == -1))
			hit := empty
			for t, p := range c.ItemTypes {
				b += sq(p - indicator(obs == t))
				if obs == t {
					hit = p
				}
			}
			brier = append(brier, b)
			logloss = append(logloss, -math.Log(math.Max(hit, logLossEps)))
		}
	}
	if len(brier) == 0 {
		return Calibration{}, ErrNoData
	}
	return Calibration{
		Brier:   stat.Mean(brier, nil),
		LogLoss: stat.Mean(logloss, nil),
		Cells:   len(brier),
	}, nil
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func sq(v float64) float64 {
	return v * v
}
