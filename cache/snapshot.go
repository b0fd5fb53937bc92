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

package cache

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/invlab/corefmt"
	"github.com/zintix-labs/invlab/errs"
)

// maxRecordBytes 單筆快照紀錄的大小上限
const maxRecordBytes = 64 << 20

type record[V any] struct {
	Key uint64 `json:"key"`
	Val V      `json:"val"`
}

// Snapshot 由舊到新寫出所有項目：zstd( frame(json(record))... )。
// Restore 依序放回後，LRU 順序與寫出時相同。
func (c *Cache[V]) Snapshot(w io.Writer) error {
	c.mu.Lock()
	recs := make([]record[V], 0, c.ll.Len())
	for el := c.ll.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry[V])
		recs = append(recs, record[V]{Key: e.key, Val: e.val})
	}
	c.mu.Unlock()

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errs.Wrap(err, "create zstd writer failed")
	}
	for _, rec := range recs {
		raw, err := json.Marshal(rec)
		if err != nil {
			zw.Close()
			return errs.Wrap(err, "marshal cache record failed")
		}
		if err := corefmt.WriteBlobFrame(zw, raw); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return errs.Wrap(err, "flush zstd writer failed")
	}
	return nil
}

// Restore 讀入 Snapshot 的輸出並放入快取，回傳讀入筆數。超過容量的舊項目會被淘汰。
func (c *Cache[V]) Restore(r io.Reader) (int, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return 0, errs.Wrap(err, "create zstd reader failed")
	}
	defer zr.Close()

	fr := corefmt.NewFrameReader(zr)
	n := 0
	for {
		raw, err := corefmt.ReadBlobFrame(fr, maxRecordBytes)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		var rec record[V]
		if err := json.Unmarshal(raw, &rec); err != nil {
			return n, errs.Wrap(err, "unmarshal cache record failed")
		}
		c.Put(rec.Key, rec.Val)
		n++
	}
}
