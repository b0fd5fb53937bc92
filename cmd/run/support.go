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
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/zintix-labs/invlab"
	"github.com/zintix-labs/invlab/dto"
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/sdk/perf"
	"github.com/zintix-labs/invlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

type config struct {
	preset    string
	round     int
	blocked   string
	in        string
	seed      int64
	sims      int
	strategy  string
	format    string
	out       string
	observed  string
	showpb    bool
	list      bool
	pprofmode string

	stdout io.Writer
	stderr io.Writer
}

func parseFlags(args []string) (*config, error) {
	cfg := &config{stdout: os.Stdout, stderr: os.Stderr}
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.StringVar(&cfg.preset, "preset", "", "preset id (see -list)")
	fs.IntVar(&cfg.round, "round", 1, "preset round, 1-based")
	fs.StringVar(&cfg.blocked, "blocked", "", "blocked cells x:y,x:y")
	fs.StringVar(&cfg.in, "in", "", "request json file (same schema as POST /v1/simulate), - for stdin")
	fs.Int64Var(&cfg.seed, "seed", -1, "int64 seed, < 0 for random")
	fs.IntVar(&cfg.sims, "sims", 0, "monte carlo trials, 0 for engine default")
	fs.StringVar(&cfg.strategy, "strategy", "", "auto|exhaustive|montecarlo")
	fs.StringVar(&cfg.format, "format", "table", "table|heatmap|json|yaml")
	fs.StringVar(&cfg.out, "o", "", "output file, empty for stdout")
	fs.StringVar(&cfg.observed, "observed", "", "revealed board (yaml/json [][]int, item index or -1) to score the report against")
	fs.BoolVar(&cfg.showpb, "pb", false, "show progress bar")
	fs.BoolVar(&cfg.list, "list", false, "list presets and exit")
	fs.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, cfg.valid()
}

func (cfg *config) valid() error {
	if cfg.list {
		return nil
	}
	if (cfg.preset == "") == (cfg.in == "") {
		return errs.NewWarn("exactly one of -preset or -in is required")
	}
	if cfg.format != "table" {
		if _, ok := stats.RenderByName(cfg.format); !ok {
			return errs.NewWithExtra(errs.Warn, "unknown format", cfg.format)
		}
	}
	return perf.ValidMode(cfg.pprofmode)
}

// request 將 flag 轉成與 HTTP 相同的 SimRequest
func (cfg *config) request() (*dto.SimRequest, error) {
	var req *dto.SimRequest
	if cfg.in != "" {
		raw, err := readInput(cfg.in)
		if err != nil {
			return nil, err
		}
		if req, err = dto.DecodeSimJSON(raw); err != nil {
			return nil, err
		}
	} else {
		req = &dto.SimRequest{Preset: cfg.preset, Round: cfg.round}
		if cfg.blocked != "" {
			cells, err := dto.ParseCells(cfg.blocked)
			if err != nil {
				return nil, err
			}
			req.BlockedCells = cells
		}
	}
	// flag 覆寫檔案內容
	if cfg.seed >= 0 {
		s := cfg.seed
		req.Seed = &s
	}
	if cfg.sims > 0 {
		req.Simulations = cfg.sims
	}
	if cfg.strategy != "" {
		req.Strategy = cfg.strategy
	}
	return req, req.Valid()
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, errs.Wrap(err, "read stdin")
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "read request file", path)
	}
	return raw, nil
}

func (cfg *config) execute() error {
	lab, err := invlab.Default()
	if err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	if cfg.list {
		for _, s := range lab.Presets() {
			p.Fprintf(cfg.stdout, "%-24s %dx%d  rounds=%d  %s\n", s.ID, s.Width, s.Height, s.Rounds, s.Name)
		}
		return nil
	}

	req, err := cfg.request()
	if err != nil {
		return err
	}
	prob := req.Problem()
	title := fmt.Sprintf("%dx%d", prob.Width, prob.Height)
	if req.Preset != "" {
		pp, r, err := lab.PresetProblem(req.Preset, req.Round, req.Blocked())
		if err != nil {
			return err
		}
		prob = pp
		title = fmt.Sprintf("%s #%d [%s]", req.Preset, r.Index, strings.Join(r.Names, " / "))
	}
	var board [][]int
	if cfg.observed != "" {
		if board, err = readBoard(cfg.observed); err != nil {
			return err
		}
	}
	opt := req.Options()
	opt.ShowPB = cfg.showpb

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	green, reset := "\033[1;32m", "\033[0m"
	if cfg.format == "table" {
		p.Fprintf(cfg.stdout, "%s[INVLAB] %s items=%d blocked=%d%s\n", green, title, len(prob.Items), len(prob.Blocked), reset)
	}

	rep, err := lab.Simulate(ctx, prob, opt)
	if err != nil {
		if errs.LevelOf(err) == errs.Log {
			// 無解與預算內無資料都是正常結果
			label := dto.StatusUnsatisfiable
			if errors.Is(err, stats.ErrNoData) {
				label = dto.StatusNoData
			}
			fmt.Fprintf(cfg.stdout, "%s: %v\n", label, err)
			return nil
		}
		return err
	}
	if err := cfg.write(rep, title); err != nil {
		return err
	}
	if board == nil {
		return nil
	}
	return cfg.score(rep, board)
}

// readBoard 讀取實際揭曉的盤面：board[y][x] 為物品索引（依請求順序），空格或封鎖格為 -1。
func readBoard(path string) ([][]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WrapWithExtra(err, "read observed board", path)
	}
	var board [][]int
	if err := yaml.Unmarshal(raw, &board); err != nil {
		return nil, errs.NewWithExtra(errs.Warn, "observed board must be a list of int rows", err.Error())
	}
	if len(board) == 0 {
		return nil, errs.NewWithExtra(errs.Warn, "observed board is empty", path)
	}
	return board, nil
}

// score 輸出報告對實際盤面的校準；json/yaml 報告佔用 stdout 時改寫到 stderr。
func (cfg *config) score(rep *stats.ProbReport, board [][]int) error {
	cal, err := stats.Score(rep, board)
	if err != nil {
		return err
	}
	w := cfg.stdout
	if cfg.format != "table" && cfg.out == "" {
		w = cfg.stderr
	}
	fmt.Fprintf(w, "calibration brier=%.4f log_loss=%.4f cells=%d\n", cal.Brier, cal.LogLoss, cal.Cells)
	return nil
}

func (cfg *config) write(rep *stats.ProbReport, title string) error {
	w := cfg.stdout
	if cfg.out != "" {
		f, err := os.Create(cfg.out)
		if err != nil {
			return errs.WrapWithExtra(err, "create output", cfg.out)
		}
		defer f.Close()
		w = f
	}
	if cfg.format == "table" {
		rep.StdOut(w, title, time.Duration(rep.Summary.UsedMs)*time.Millisecond)
		return nil
	}
	r, _ := stats.RenderByName(cfg.format)
	if err := rep.WriteWith(w, r); err != nil {
		return errs.Wrap(err, "render report")
	}
	return nil
}
