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

// Package spec 定義引擎、偏差與預設關卡的設定結構，並負責 YAML/JSON 解析與基本檢查。
package spec

import (
	"fmt"

	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/core"
	"github.com/zintix-labs/invlab/sdk/search"
)

const (
	DefaultWidth            = 9
	DefaultHeight           = 5
	DefaultSimulations      = 30000
	DefaultSeedVariations   = 5
	DefaultExhaustiveBudget = 500_000
	DefaultTrialNodeBudget  = 512

	// MaxSide 盤面單邊上限
	MaxSide = 32
	// MaxSimulations 單次請求的試驗次數上限
	MaxSimulations = 1_000_000
)

// EngineSetting 一次計算所需的引擎參數。
type EngineSetting struct {
	Width            int         `yaml:"width"             json:"width"`
	Height           int         `yaml:"height"            json:"height"`
	Simulations      int         `yaml:"simulations"       json:"simulations"`
	SeedVariations   int         `yaml:"seed_variations"   json:"seed_variations"`
	Strategy         string      `yaml:"strategy"          json:"strategy"`
	Order            string      `yaml:"order"             json:"order"`
	Rotation         bool        `yaml:"rotation"          json:"rotation"`
	ExhaustiveBudget int         `yaml:"exhaustive_budget" json:"exhaustive_budget"`
	TrialNodeBudget  int         `yaml:"trial_node_budget" json:"trial_node_budget"`
	PRNG             string      `yaml:"prng"              json:"prng"`
	Bias             BiasSetting `yaml:"bias"              json:"bias"`
}

// DefaultEngineSetting 回傳預設設定：9x5 盤面、30000 次試驗分散到 5 組 seed、允許旋轉、不啟用偏差。
func DefaultEngineSetting() EngineSetting {
	return EngineSetting{
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		Simulations:      DefaultSimulations,
		SeedVariations:   DefaultSeedVariations,
		Strategy:         search.StrategyAuto.String(),
		Order:            search.OrderRandom.String(),
		Rotation:         true,
		ExhaustiveBudget: DefaultExhaustiveBudget,
		TrialNodeBudget:  DefaultTrialNodeBudget,
		PRNG:             "pcg64",
		Bias:             DefaultBiasSetting(),
	}
}

// Check 檢查設定值；錯誤一律為 Warn，由呼叫端決定是否提升為 Fatal。
func (es *EngineSetting) Check() error {
	if es.Width <= 0 || es.Height <= 0 || es.Width > MaxSide || es.Height > MaxSide {
		return errs.Warnf("grid size must be within 1..%d, got %dx%d", MaxSide, es.Width, es.Height)
	}
	if es.Simulations <= 0 || es.Simulations > MaxSimulations {
		return errs.Warnf("simulations must be within 1..%d, got %d", MaxSimulations, es.Simulations)
	}
	if es.SeedVariations <= 0 {
		return errs.Warnf("seed_variations must be positive, got %d", es.SeedVariations)
	}
	if es.ExhaustiveBudget < 0 || es.TrialNodeBudget < 0 {
		return errs.NewWarn("node budgets must not be negative")
	}
	if _, err := search.ParseStrategy(es.Strategy); err != nil {
		return err
	}
	if _, err := search.ParseOrder(es.Order); err != nil {
		return err
	}
	if _, ok := core.ByName(es.PRNG); !ok {
		return errs.NewWithExtra(errs.Warn, "unknown prng", es.PRNG)
	}
	return es.Bias.Check()
}

// init 設定檔載入後的檢查，任何錯誤都是 Fatal。
func (es *EngineSetting) init() error {
	if err := es.Check(); err != nil {
		return &errs.E{Message: "engine setting invalid", Cause: err, ErrLv: errs.Fatal}
	}
	return nil
}

// StrategyValue 已通過 Check 的策略
func (es *EngineSetting) StrategyValue() search.Strategy {
	s, _ := search.ParseStrategy(es.Strategy)
	return s
}

// OrderValue 已通過 Check 的放置順序
func (es *EngineSetting) OrderValue() search.Order {
	o, _ := search.ParseOrder(es.Order)
	return o
}

// PRNGFactory 已通過 Check 的亂數工廠
func (es *EngineSetting) PRNGFactory() core.PRNGFactory {
	f, ok := core.ByName(es.PRNG)
	if !ok {
		return core.Default()
	}
	return f
}

func (es EngineSetting) String() string {
	return fmt.Sprintf("%dx%d sims=%d seeds=%d strategy=%s order=%s rotation=%t prng=%s",
		es.Width, es.Height, es.Simulations, es.SeedVariations, es.Strategy, es.Order, es.Rotation, es.PRNG)
}
