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

	"github.com/zintix-labs/invlab"
	"github.com/zintix-labs/invlab/server/httperr"
)

// Metrics 模擬器池與快取的觀測快照
func Metrics(rt *invlab.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httperr.JSON(w, http.StatusOK, rt.Metrics())
	}
}

// Health runtime 關閉後回 503
func Health(rt *invlab.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rt.Closed() {
			httperr.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "closed", "reason": rt.ClosedReason()})
			return
		}
		httperr.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
