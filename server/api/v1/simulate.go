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

package v1

import (
	"log/slog"
	"net/http"

	"github.com/zintix-labs/invlab"
	"github.com/zintix-labs/invlab/dto"
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/server/httperr"
)

type SimHandler struct {
	rt  *invlab.Runtime
	log *slog.Logger
}

func NewSimHandler(rt *invlab.Runtime, log *slog.Logger) (*SimHandler, error) {
	if rt == nil {
		return nil, errs.NewFatal("runtime is required")
	}
	return &SimHandler{rt: rt, log: log}, nil
}

// Simulate GET（preset 模式）與 POST（JSON body）共用。
//
// 回應一律是 dto.SimResponse；無合法擺放時 HTTP 200、status=unsatisfiable、result=null。
// 隨機模擬在節點預算內沒有任何成功試驗時同樣回 200，status=no_data。
func (sh *SimHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		sh.fail(w, err)
		return
	}

	prob := req.Problem()
	var names []string
	if req.Preset != "" {
		p, round, err := sh.rt.Lab().PresetProblem(req.Preset, req.Round, req.Blocked())
		if err != nil {
			sh.fail(w, err)
			return
		}
		prob, names = p, round.Names
	}

	rep, err := sh.rt.Simulate(r.Context(), prob, req.Options())
	if err != nil {
		httperr.Log(sh.log, "simulate", err)
		sh.fail(w, err)
		return
	}
	resp := dto.NewSimResponse(rep)
	resp.Names = names
	httperr.JSON(w, http.StatusOK, resp)
}

func (sh *SimHandler) fail(w http.ResponseWriter, err error) {
	httperr.JSON(w, httperr.StatusCode(err), dto.ErrorResponse(err))
}
