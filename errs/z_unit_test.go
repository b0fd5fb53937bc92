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

package errs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrapKeepsLevel(t *testing.T) {
	base := NewWarn("bad width")
	w := Wrap(base, "validate request")
	if w.ErrLv != Warn {
		t.Fatalf("wrap should keep warn level, got %s", ErrLv(w.ErrLv))
	}
	if !errors.Is(w, base) {
		t.Fatalf("errors.Is should reach the wrapped cause")
	}
}

func TestWrapForeignIsFatal(t *testing.T) {
	w := WrapWithExtra(io.ErrUnexpectedEOF, "read preset", "s7.yaml")
	if w.ErrLv != Fatal {
		t.Fatalf("foreign cause should be fatal, got %s", ErrLv(w.ErrLv))
	}
	if !strings.Contains(w.Error(), "s7.yaml") {
		t.Fatalf("extra missing from message: %s", w.Error())
	}
}

func TestLevelOf(t *testing.T) {
	if LevelOf(nil) != None {
		t.Fatalf("nil should be None")
	}
	if LevelOf(io.EOF) != Fatal {
		t.Fatalf("foreign error should be Fatal")
	}
	if LevelOf(Wrap(NewLog("no solution"), "simulate")) != Log {
		t.Fatalf("wrapped log should stay Log")
	}
}

func TestMsg(t *testing.T) {
	e := NewWithExtra(Warn, "blocked cell out of bounds", "(9,0)")
	if e.Msg() != "blocked cell out of bounds: (9,0)" {
		t.Fatalf("unexpected msg %q", e.Msg())
	}
}
