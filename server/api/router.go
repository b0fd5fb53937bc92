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

package api

import (
	v1 "github.com/zintix-labs/invlab/server/api/v1"
	"github.com/zintix-labs/invlab/server/netsvr"
	"github.com/zintix-labs/invlab/server/netsvr/middleware"
	"github.com/zintix-labs/invlab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與所有路由；sCfg 需先通過 Vaild。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg)
	svr.Get("/healthz", v1.Health(sCfg.Runtime))
	return registerV1API(svr, sCfg)
}

func registerMiddleware(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(sCfg.Log))
	svr.Use(middleware.Recover(sCfg.Log))
	svr.Use(middleware.CORS(sCfg.AllowOrigins))
	svr.Use(middleware.Timeout(sCfg.ReqTimeout))
	svr.Use(middleware.Compression)
}

func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	s, err := v1.NewSimHandler(sCfg.Runtime, sCfg.Log)
	if err != nil {
		return err
	}
	p, err := v1.NewPresetHandler(sCfg.Lab)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/simulate", s.Simulate)
		vOne.Post("/simulate", s.Simulate)

		vOne.Get("/presets", p.List)
		vOne.Get("/presets/{id}", p.Get)

		vOne.Get("/metrics", v1.Metrics(sCfg.Runtime))
	})
	return nil
}
