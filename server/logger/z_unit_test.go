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

package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuf) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestAsyncDrainOnClose(t *testing.T) {
	out := &lockedBuf{}
	ah := NewAsyncHandler(slog.NewTextHandler(out, nil), 64)
	log := slog.New(ah).With("req", "r1")
	for i := 0; i < 10; i++ {
		log.Info("simulate", "i", i)
	}
	ah.Close()
	ah.Close()
	if n := strings.Count(out.String(), "msg=simulate"); n+int(ah.Dropped()) != 10 {
		t.Fatalf("want 10 records written or dropped, got %d written %d dropped", n, ah.Dropped())
	}
	if !strings.Contains(out.String(), "req=r1") {
		t.Fatalf("attrs lost: %s", out.String())
	}

	log.Info("after close")
	if strings.Contains(out.String(), "after close") {
		t.Fatalf("closed handler should drop new records")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(" PROD "); err != nil || m != ModeProd {
		t.Fatalf("want prod, got %v %v", m, err)
	}
	if _, err := ParseMode("verbose"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}
