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
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// lineFilter 回傳 false 表示該行不輸出
type lineFilter func(line string) bool

// goCmd 執行 go 子指令；filter 不為 nil 時合併 stdout/stderr 逐行過濾並上色。
func goCmd(filter lineFilter, args ...string) error {
	cmd := exec.Command("go", args...)
	if filter == nil {
		cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
		return cmd.Run()
	}
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start go %s: %w", args[0], err)
	}
	colorLines(pipe, filter)
	return cmd.Wait()
}

func colorLines(r io.Reader, filter lineFilter) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if !filter(line) {
			continue
		}
		switch {
		case strings.HasPrefix(line, "ok"):
			PrintGreen(line)
		case strings.HasPrefix(line, "FAIL"), strings.HasPrefix(line, "--- FAIL"):
			PrintRed(line)
		default:
			PrintDefault(line)
		}
	}
}

func cleanCache() error {
	if err := goCmd(nil, "clean", "-testcache"); err != nil {
		return fmt.Errorf("go clean -testcache: %w", err)
	}
	return nil
}

func runTest(args []string) error {
	PrintGreen("running tests")
	if err := cleanCache(); err != nil {
		return err
	}
	// 編譯錯誤不以 ok/FAIL 開頭，另外保留
	keep := func(l string) bool {
		return strings.HasPrefix(l, "ok") || strings.HasPrefix(l, "FAIL") ||
			strings.Contains(l, "build failed") || strings.Contains(l, "setup failed")
	}
	if err := goCmd(keep, append([]string{"test", "./...", "-cover", "-count=1"}, args...)...); err != nil {
		return fmt.Errorf("tests finished with errors")
	}
	return nil
}

func runTestAll(args []string) error {
	PrintGreen("running tests (all with coverage)")
	if err := cleanCache(); err != nil {
		return err
	}
	return goCmd(nil, append([]string{"test", "./...", "-cover"}, args...)...)
}

func runTestDetail(args []string) error {
	PrintGreen("running tests (detail)")
	if err := cleanCache(); err != nil {
		return err
	}
	keep := func(l string) bool { return !strings.Contains(l, "[no test files]") }
	return goCmd(keep, append([]string{"test", "./...", "-v", "-count=1"}, args...)...)
}

func runBench(args []string) error {
	PrintGreen("running benchmarks")
	return goCmd(nil, append([]string{"test", "./sdk/search", "./sdk/grid", "-run", "^$", "-bench", ".", "-benchmem"}, args...)...)
}

// runPGO 以 cmd/run 的 cpu profile 產生 default.pgo（預設使用 schale_s7 第 5 回合）
func runPGO(args []string) error {
	if len(args) == 0 {
		args = []string{"-preset", "schale_s7", "-round", "5", "-strategy", "montecarlo", "-sims", "200000", "-seed", "1"}
	}
	PrintGreen("profiling " + strings.Join(args, " "))
	if err := goCmd(nil, append([]string{"run", "./cmd/run", "-p", "cpu"}, args...)...); err != nil {
		return err
	}
	raw, err := os.ReadFile("build/profiling/cpu.pprof")
	if err != nil {
		return err
	}
	if err := os.WriteFile("cmd/svr/default.pgo", raw, 0o644); err != nil {
		return err
	}
	PrintGreen("wrote cmd/svr/default.pgo")
	return nil
}
