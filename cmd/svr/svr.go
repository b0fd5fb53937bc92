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
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zintix-labs/invlab"
	"github.com/zintix-labs/invlab/presets"
	"github.com/zintix-labs/invlab/server"
	"github.com/zintix-labs/invlab/server/logger"
	"github.com/zintix-labs/invlab/server/svrcfg"
	"github.com/zintix-labs/invlab/spec"
)

// HTTP 服務入口：
//
//	go run ./cmd/svr -addr :5808 -pool 4 -cache 256 -snapshot build/cache.zst
//
// -presets 指定外部關卡目錄時會與內建關卡一起載入。
func main() {
	os.Exit(run())
}

type config struct {
	Addr      string
	LogMode   string
	PoolSize  int
	CacheSize int
	Timeout   time.Duration
	Origins   string
	Presets   string
	Snapshot  string
	Engine    string
}

func run() int {
	cfg := new(config)
	flag.StringVar(&cfg.Addr, "addr", svrcfg.DefaultAddr, "listen address")
	flag.StringVar(&cfg.LogMode, "log-mode", "dev", "log mode: dev|prod|silence")
	flag.IntVar(&cfg.PoolSize, "pool", svrcfg.DefaultPoolSize, "number of simulators serving requests concurrently (1..16)")
	flag.IntVar(&cfg.CacheSize, "cache", svrcfg.DefaultCacheSize, "result cache entries, 0 disables the cache")
	flag.DurationVar(&cfg.Timeout, "timeout", svrcfg.DefaultReqTimeout, "per request timeout")
	flag.StringVar(&cfg.Origins, "cors", "", "comma separated allowed origins, empty allows all")
	flag.StringVar(&cfg.Presets, "presets", "", "extra preset directory (flat, *.yaml|*.json)")
	flag.StringVar(&cfg.Snapshot, "snapshot", "", "cache snapshot file, restored on start and written on shutdown")
	flag.StringVar(&cfg.Engine, "engine", "", "engine setting yaml, empty for defaults")
	flag.Parse()

	mode, err := logger.ParseMode(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	log, ah := logger.NewAsync(4096, mode)
	defer ah.Close()

	lab, err := cfg.lab()
	if err != nil {
		log.Error("build lab", slog.Any("err", err))
		return 1
	}
	rt, err := lab.BuildRuntime(cfg.PoolSize, cfg.CacheSize)
	if err != nil {
		log.Error("build runtime", slog.Any("err", err))
		return 1
	}
	defer rt.Close()
	cfg.restore(rt, log)

	sCfg := &svrcfg.SvrCfg{
		Log:          log,
		Addr:         cfg.Addr,
		PoolSize:     cfg.PoolSize,
		CacheSize:    cfg.CacheSize,
		ReqTimeout:   cfg.Timeout,
		AllowOrigins: splitList(cfg.Origins),
		Runtime:      rt,
	}
	runErr := server.Run(sCfg)
	cfg.save(rt, log)
	if runErr != nil {
		return 1
	}
	return 0
}

func (cfg *config) lab() (*invlab.Lab, error) {
	es := spec.DefaultEngineSetting()
	if cfg.Engine != "" {
		raw, err := os.ReadFile(cfg.Engine)
		if err != nil {
			return nil, err
		}
		parse := spec.GetEngineSettingByYAML
		if strings.EqualFold(filepath.Ext(cfg.Engine), ".json") {
			parse = spec.GetEngineSettingByJSON
		}
		loaded, err := parse(raw)
		if err != nil {
			return nil, err
		}
		es = *loaded
	}
	cfgs := []fs.FS{presets.FS}
	if cfg.Presets != "" {
		cfgs = append(cfgs, os.DirFS(cfg.Presets))
	}
	return invlab.New(es, cfgs...)
}

func (cfg *config) restore(rt *invlab.Runtime, log *slog.Logger) {
	if cfg.Snapshot == "" || cfg.CacheSize == 0 {
		return
	}
	f, err := os.Open(cfg.Snapshot)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		log.Warn("open cache snapshot", slog.Any("err", err))
		return
	}
	defer f.Close()
	n, err := rt.RestoreCache(f)
	if err != nil {
		log.Warn("restore cache snapshot", slog.Int("restored", n), slog.Any("err", err))
		return
	}
	log.Info("cache restored", slog.Int("entries", n), slog.String("file", cfg.Snapshot))
}

func (cfg *config) save(rt *invlab.Runtime, log *slog.Logger) {
	if cfg.Snapshot == "" || cfg.CacheSize == 0 {
		return
	}
	tmp := cfg.Snapshot + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		log.Warn("create cache snapshot", slog.Any("err", err))
		return
	}
	err = rt.SnapshotCache(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, cfg.Snapshot)
	}
	if err != nil {
		log.Warn("write cache snapshot", slog.Any("err", err))
		_ = os.Remove(tmp)
		return
	}
	log.Info("cache saved", slog.String("file", cfg.Snapshot))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
