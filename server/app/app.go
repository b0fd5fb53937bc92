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

// Package app 管理長期運行元件的啟動與優雅關閉。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

const defaultGrace = 5 * time.Second

// App 啟動所有 Component，收到 SIGINT/SIGTERM、ctx 結束或任一元件返回時依序關閉。
type App struct {
	comps []Component
	grace time.Duration
	log   *slog.Logger
}

func New() *App { return &App{grace: defaultGrace} }

// NewWith 建立並註冊多個 Component
func NewWith(comps ...Component) *App {
	a := New()
	for _, c := range comps {
		a.Register(c)
	}
	return a
}

func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// WithGrace 設定關閉期限（<= 0 沿用預設）
func (a *App) WithGrace(d time.Duration) *App {
	if d > 0 {
		a.grace = d
	}
	return a
}

// WithLogger 關閉錯誤的輸出位置；未設定時不輸出。
func (a *App) WithLogger(log *slog.Logger) *App {
	a.log = log
	return a
}

// Run 等同 RunContext(context.Background())
func (a *App) Run() error {
	return a.RunContext(context.Background())
}

// RunContext 阻塞直到收到終止信號、ctx 結束或任一元件的 Run 返回。
// 信號與 ctx 結束回傳 nil；元件提前返回時回傳其錯誤（http.ErrServerClosed 視為 nil）。
func (a *App) RunContext(ctx context.Context) error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	select {
	case <-sigCtx.Done():
	case err = <-errCh:
	}
	a.shutdown()
	if errors.Is(err, errServerClosed) {
		return nil
	}
	return err
}

// shutdown 在 grace 期限內依註冊順序呼叫 Shutdown
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil && a.log != nil {
			a.log.Error("shutdown", slog.Any("err", err))
		}
	}
}
