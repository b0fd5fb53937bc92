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

// Package perf 以 runtime/pprof 包裝一次計算，輸出 cpu/heap/allocs profile，供效能分析與 PGO 使用。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/invlab/errs"
)

// DefaultDir profile 預設寫入路徑
const DefaultDir = "build/profiling"

// Modes 支援的 profile 種類；空字串表示不做 profiling
var Modes = []string{"", "cpu", "heap", "allocs"}

// ValidMode 檢查 mode 是否受支援
func ValidMode(mode string) error {
	for _, m := range Modes {
		if m == mode {
			return nil
		}
	}
	return errs.NewWithExtra(errs.Warn, "unknown pprof mode, want cpu|heap|allocs", mode)
}

// Run 依 mode 執行 exe 並寫出對應 profile 到 dir（空字串用 DefaultDir）。
// exe 的錯誤優先於 profile 的錯誤回傳。
func Run(exe func() error, mode string, dir string) error {
	if err := ValidMode(mode); err != nil {
		return err
	}
	if mode == "" {
		return exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrap(err, "create profiling dir")
	}
	path := filepath.Join(dir, mode+".pprof")

	if mode == "cpu" {
		return cpu(exe, path)
	}
	runErr := exe()
	if err := snapshot(mode, path); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func cpu(exe func() error, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.WrapWithExtra(err, "create cpu profile", path)
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// snapshot heap 為當下存活物件（先 GC 以貼近實況），allocs 為累積配置。
func snapshot(mode string, path string) error {
	if mode == "heap" {
		runtime.GC()
	}
	f, err := os.Create(path)
	if err != nil {
		return errs.WrapWithExtra(err, "create profile", path)
	}
	defer f.Close()
	prof := pprof.Lookup(mode)
	if prof == nil {
		return errs.NewWithExtra(errs.Fatal, "profile not found", mode)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.WrapWithExtra(err, "write profile", path)
	}
	return nil
}
