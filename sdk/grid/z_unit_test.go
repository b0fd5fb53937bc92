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

package grid

import (
	"testing"

	"github.com/zintix-labs/invlab/errs"
)

func TestNewRejectsOutOfBounds(t *testing.T) {
	_, err := New(3, 3, []Coords{{X: 3, Y: 0}})
	if err == nil {
		t.Fatalf("expected error for out of bounds blocked cell")
	}
	if errs.LevelOf(err) != errs.Warn {
		t.Fatalf("out of bounds should be warn, got %v", err)
	}
	if _, err := New(0, 3, nil); err == nil {
		t.Fatalf("expected error for zero width")
	}
}

func TestDuplicateBlockedCountedOnce(t *testing.T) {
	g, err := New(3, 3, []Coords{{1, 1}, {1, 1}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if g.Blocked() != 1 || g.FreeCells() != 8 {
		t.Fatalf("blocked=%d free=%d", g.Blocked(), g.FreeCells())
	}
}

func TestPlaceRemove(t *testing.T) {
	g, _ := New(4, 3, []Coords{{3, 2}})
	if !g.CanPlace(0, 0, 2, 2) {
		t.Fatalf("empty area should accept placement")
	}
	p := Placement{Type: 1, X: 0, Y: 0, Width: 2, Height: 2}
	g.Place(p)
	if g.Occupant(1, 1) != 1 {
		t.Fatalf("occupant = %d", g.Occupant(1, 1))
	}
	if g.CanPlace(1, 1, 2, 1) {
		t.Fatalf("overlap should be refused")
	}
	if g.CanPlace(2, 1, 2, 2) {
		t.Fatalf("covering blocked cell should be refused")
	}
	if g.CanPlace(3, 0, 2, 1) {
		t.Fatalf("out of bounds should be refused")
	}
	g.Remove(p)
	if g.Occupant(1, 1) != -1 || !g.CanPlace(0, 0, 2, 2) {
		t.Fatalf("remove did not restore grid")
	}
	g.Place(p)
	g.Reset()
	if !g.IsBlocked(3, 2) || g.Occupant(0, 0) != -1 {
		t.Fatalf("reset must keep blocked cells only")
	}
}

func TestOrientations(t *testing.T) {
	if n := len(Item{Width: 2, Height: 2}.Orientations(true)); n != 1 {
		t.Fatalf("square item has %d orientations", n)
	}
	if n := len(Item{Width: 3, Height: 1}.Orientations(true)); n != 2 {
		t.Fatalf("3x1 item has %d orientations", n)
	}
	if n := len(Item{Width: 3, Height: 1}.Orientations(false)); n != 1 {
		t.Fatalf("rotation off should give 1 orientation, got %d", n)
	}
	if (Item{Width: 4, Height: 1}).FitsIn(3, 3, true) {
		t.Fatalf("4x1 cannot fit in 3x3")
	}
	if !(Item{Width: 1, Height: 4}).FitsIn(5, 2, true) {
		t.Fatalf("1x4 fits 5x2 when rotated")
	}
}

func TestValidate(t *testing.T) {
	g, _ := New(3, 2, []Coords{{2, 1}})
	items := []Item{{Width: 2, Height: 1, Count: 1}, {Width: 1, Height: 1, Count: 2}}
	ok := Solution{
		{Type: 0, X: 0, Y: 0, Width: 2, Height: 1},
		{Type: 1, X: 2, Y: 0, Width: 1, Height: 1},
		{Type: 1, X: 0, Y: 1, Width: 1, Height: 1},
	}
	if err := Validate(g, items, ok, true); err != nil {
		t.Fatalf("valid solution rejected: %v", err)
	}
	overlap := Solution{ok[0], {Type: 1, X: 1, Y: 0, Width: 1, Height: 1}, ok[2]}
	if err := Validate(g, items, overlap, true); err == nil {
		t.Fatalf("overlap accepted")
	}
	blocked := Solution{ok[0], ok[1], {Type: 1, X: 2, Y: 1, Width: 1, Height: 1}}
	if err := Validate(g, items, blocked, true); err == nil {
		t.Fatalf("blocked cell accepted")
	}
	short := Solution{ok[0], ok[1]}
	if err := Validate(g, items, short, true); err == nil {
		t.Fatalf("count mismatch accepted")
	}
	rotated := Solution{{Type: 0, X: 0, Y: 0, Width: 1, Height: 2, Rotated: true}, ok[1], {Type: 1, X: 1, Y: 1, Width: 1, Height: 1}}
	if err := Validate(g, items, rotated, false); err == nil {
		t.Fatalf("rotated footprint accepted with rotation off")
	}
	if err := Validate(g, items, rotated, true); err != nil {
		t.Fatalf("rotated footprint rejected: %v", err)
	}
}

func TestTouches(t *testing.T) {
	a := Placement{X: 0, Y: 0, Width: 1, Height: 1}
	if !a.Touches(Placement{X: 1, Y: 0, Width: 1, Height: 1}) {
		t.Fatalf("side neighbours should touch")
	}
	if a.Touches(Placement{X: 1, Y: 1, Width: 1, Height: 1}) {
		t.Fatalf("corner neighbours should not touch")
	}
	if a.Touches(Placement{X: 2, Y: 0, Width: 1, Height: 1}) {
		t.Fatalf("distant placements should not touch")
	}
}
