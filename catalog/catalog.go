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

package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/invlab/errs"
	"github.com/zintix-labs/invlab/spec"
)

var (
	ErrDupID   = errs.NewFatal("duplicate preset id")
	ErrDupName = errs.NewFatal("duplicate preset name")
)

type Entry struct {
	ID         string
	Name       string
	ConfigName string
}

type Summary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Rounds int    `json:"rounds"`
}

type Catalog struct {
	byID    map[string]Entry
	byName  map[string]Entry
	ids     []string            // 用來穩定排序
	unique  map[string]struct{} // 一組活動，檔名需唯一
	presets map[string]*spec.PresetSetting
	config  *multiFS
	frozen  bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:    map[string]Entry{},
		byName:  map[string]Entry{},
		ids:     make([]string, 0, 16),
		unique:  map[string]struct{}{},
		presets: map[string]*spec.PresetSetting{},
		config:  multFS,
		frozen:  false,
	}, nil
}

// Register 登記活動並立即解析設定檔，檔內 id 必須與 Entry.ID 一致。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[string]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	parsed := make([]*spec.PresetSetting, len(metas))
	for i := range metas {
		meta := &metas[i]
		meta.ID = strings.TrimSpace(meta.ID)
		meta.Name = strings.ToLower(strings.TrimSpace(meta.Name))
		if meta.ID == "" {
			return errs.NewFatal("preset id required")
		}
		if meta.Name == "" {
			return errs.NewFatal("preset name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byID[meta.ID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		if _, ok := seenID[meta.ID]; ok {
			return ErrDupID
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenID[meta.ID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}

		ps, err := c.load(meta.ConfigName)
		if err != nil {
			return errs.WrapWithExtra(err, "load preset failed", meta.ConfigName)
		}
		if ps.ID != meta.ID {
			return errs.NewFatal(fmt.Sprintf("preset id mismatch: entry %q, file %q", meta.ID, ps.ID))
		}
		parsed[i] = ps
	}
	for i, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byID[meta.ID] = meta
		c.byName[meta.Name] = meta
		c.presets[meta.ID] = parsed[i]
		c.ids = append(c.ids, meta.ID)
	}
	sort.Strings(c.ids)
	return nil
}

// Discover 將所有來源中尚未登記的設定檔依檔內 id/name 登記。
func (c *Catalog) Discover() error {
	files := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		if _, ok := c.unique[name]; !ok {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	metas := make([]Entry, 0, len(files))
	for _, file := range files {
		ps, err := c.load(file)
		if err != nil {
			return errs.WrapWithExtra(err, "discover preset failed", file)
		}
		name := ps.Name
		if strings.TrimSpace(name) == "" {
			name = ps.ID
		}
		metas = append(metas, Entry{ID: ps.ID, Name: name, ConfigName: file})
	}
	return c.Register(metas...)
}

func (c *Catalog) GetByID(id string) (Entry, bool) {
	m, ok := c.byID[strings.TrimSpace(id)]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	m, ok := c.byName[name]
	return m, ok
}

func (c *Catalog) IDs() []string {
	if len(c.ids) == 0 {
		return nil
	}
	return append([]string(nil), c.ids...)
}

func (c *Catalog) All() []Entry {
	order := c.IDs()
	m := make([]Entry, 0, len(c.ids))
	for _, id := range order {
		if meta, ok := c.GetByID(id); ok {
			m = append(m, meta)
		}
	}
	return m
}

// Summaries 依 id 排序列出所有活動概要
func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, 0, len(c.ids))
	for _, id := range c.ids {
		ps := c.presets[id]
		out = append(out, Summary{
			ID:     ps.ID,
			Name:   ps.Name,
			Width:  ps.Width,
			Height: ps.Height,
			Rounds: len(ps.Rounds),
		})
	}
	return out
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// PresetByID 回傳已解析的活動設定；找不到為 Warn。
// 回傳值為共用唯讀資料，呼叫端不可修改。
func (c *Catalog) PresetByID(id string) (*spec.PresetSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.NewWithExtra(errs.Warn, "preset id does not exist in catalog", id)
	}
	return c.presets[e.ID], nil
}

// PresetByName 同 PresetByID，以名稱查詢（不分大小寫）。
func (c *Catalog) PresetByName(name string) (*spec.PresetSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.NewWithExtra(errs.Warn, "preset name does not exist in catalog", name)
	}
	return c.presets[e.ID], nil
}

func (c *Catalog) load(file string) (*spec.PresetSetting, error) {
	src, ok := c.config.GetFS(file)
	if !ok {
		return nil, errs.NewWarn("file name does not exist in catalog")
	}
	raw, err := fs.ReadFile(src, file)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return parsePresetByExt(file, raw)
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\\\ :) ", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !isConfigFile(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigFile(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func parsePresetByExt(filename string, raw []byte) (*spec.PresetSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetPresetSettingByYAML(raw)
	case ".json":
		return spec.GetPresetSettingByJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 32),
	}

	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 設定來源必須是扁平目錄，只允許根目錄
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			// 非 yaml/json 的檔案（例如 embed.go）略過
			if !isConfigFile(path) || strings.HasPrefix(path, ".") {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, errs.Wrap(err, "walk config fs failed")
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}
