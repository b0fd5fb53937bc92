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
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/invlab"
	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/server/httperr"
)

type PresetHandler struct {
	lab *invlab.Lab
}

func NewPresetHandler(lab *invlab.Lab) (*PresetHandler, error) {
	if lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	return &PresetHandler{lab: lab}, nil
}

// List 所有關卡摘要，依 id 排序
func (ph *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	httperr.JSON(w, http.StatusOK, ph.lab.Presets())
}

// Get 單一關卡完整設定（物品與每回合數量）
func (ph *PresetHandler) Get(w http.ResponseWriter, r *http.Request) {
	ps, err := ph.lab.Catalog().PresetByID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "preset not found", http.StatusNotFound)
		return
	}
	httperr.JSON(w, http.StatusOK, ps)
}
