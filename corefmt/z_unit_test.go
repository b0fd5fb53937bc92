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

package corefmt

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestBlobFrameRoundTrip(t *testing.T) {
	frame := EncodeBlobFrame([]byte("grid"))
	got, err := DecodeBlobFrame(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(got) != "grid" {
		t.Fatalf("unexpected payload %q", got)
	}
	if _, err := DecodeBlobFrame(frame[:len(frame)-1]); err == nil {
		t.Fatalf("truncated frame should fail")
	}
}

func TestReadBlobFrameSequence(t *testing.T) {
	var buf bytes.Buffer
	for _, p := range []string{"a", "", "ccc"} {
		if err := WriteBlobFrame(&buf, []byte(p)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	fr := NewFrameReader(&buf)
	var got []string
	for {
		p, err := ReadBlobFrame(fr, 16)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		got = append(got, string(p))
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "" || got[2] != "ccc" {
		t.Fatalf("unexpected frames %q", got)
	}
}

func TestReadBlobFrameMaxBytes(t *testing.T) {
	fr := NewFrameReader(bytes.NewReader(EncodeBlobFrame(make([]byte, 32))))
	if _, err := ReadBlobFrame(fr, 8); err == nil {
		t.Fatalf("payload over maxBytes should fail")
	}
}
