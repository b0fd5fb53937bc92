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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/invlab"
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/server/logger"
)

const (
	DefaultAddr       = ":5808"
	DefaultPoolSize   = 4
	DefaultCacheSize  = 256
	DefaultReqTimeout = 30 * time.Second
)

// SvrCfg server 組裝所需的全部依賴。
//
// Runtime 可由外部建好傳入；為 nil 時以 Lab + PoolSize/CacheSize 在 Vaild 中建立。
type SvrCfg struct {
	Log          *slog.Logger
	Addr         string
	PoolSize     int
	CacheSize    int
	ReqTimeout   time.Duration
	AllowOrigins []string
	Lab          *invlab.Lab
	Runtime      *invlab.Runtime
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log = logger.NewDefaultLogger(logger.ModeSilence)
	}
	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	if sc.ReqTimeout <= 0 {
		sc.ReqTimeout = DefaultReqTimeout
	}

	// 1 <= PoolSize <= 16，每個模擬器本身已平行跑多台機器
	if sc.PoolSize == 0 {
		sc.PoolSize = DefaultPoolSize
	}
	sc.PoolSize = max(1, sc.PoolSize)
	sc.PoolSize = min(16, sc.PoolSize)
	if sc.CacheSize < 0 {
		sc.CacheSize = 0
	}

	if sc.Runtime != nil {
		if sc.Runtime.Closed() {
			return errs.NewFatal("runtime already closed")
		}
		sc.Lab = sc.Runtime.Lab()
		return nil
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab or runtime is required")
	}
	rt, err := sc.Lab.BuildRuntime(sc.PoolSize, sc.CacheSize)
	if err != nil {
		return errs.Wrap(err, "build runtime")
	}
	sc.Runtime = rt
	return nil
}
