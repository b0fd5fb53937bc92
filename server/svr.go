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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/server/api"
	"github.com/zintix-labs/invlab/server/app"
	"github.com/zintix-labs/invlab/server/netsvr"
	"github.com/zintix-labs/invlab/server/svrcfg"
)

// Run 組裝預設 chi server、註冊路由並阻塞直到收到終止信號。
//
// Runtime 的生命週期屬於呼叫端：Run 返回後由呼叫端決定是否寫出快取快照並 Close。
func Run(sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Vaild(); err != nil {
		// logger 可能不可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr, netsvr.Timeouts{Write: sCfg.ReqTimeout + netsvr.DefaultTimeouts.Read}))
}

// RunWithSvr 與 Run 相同，但使用呼叫端注入的 NetSvr（其他框架的 adapter、自訂 listener 或 TLS 設定）。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		err := errs.NewFatal("svr is required")
		sCfg.Log.Error(err.Error())
		return err
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		err := errs.NewFatal("chi server is not ready")
		sCfg.Log.Error(err.Error())
		return err
	}
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		sCfg.Log.Error("register routes", slog.Any("err", err))
		return err
	}

	a := app.NewWith(svr).WithLogger(sCfg.Log)
	sCfg.Log.Info("[invlab] listening", slog.String("addr", svr.Address()), slog.String("lab", sCfg.Lab.String()))
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	return nil
}
