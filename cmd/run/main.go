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

package main

import (
	"fmt"
	"os"

	"github.com/zintix-labs/invlab/sdk/perf"
)

// 命令列計算入口：
//
//	go run ./cmd/run -preset schale_s7 -round 3 -blocked 0:0,1:0
//	go run ./cmd/run -in req.json -format json -o out.json
//	go run ./cmd/run -preset schale_s7 -round 3 -seed 1 -observed board.yaml
//	go run ./cmd/run -preset schale_s7 -round 5 -strategy montecarlo -sims 200000 -pb -p cpu
func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := perf.Run(cfg.execute, cfg.pprofmode, ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
