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

package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

func (r *ProbReport) WriteWith(w io.Writer, rep ProbReportRender) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 輸出概況表與熱度圖
func (r *ProbReport) StdOut(w io.Writer, title string, ut time.Duration) {
	r.Done()
	io.WriteString(w, formatDuration(ut, r.Summary.Trials))
	sk, sm := r.fmtSummary()
	io.WriteString(w, fmtTable(title, sk, sm))
	io.WriteString(w, fmtHeatmap(r, -1))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, trials int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	tps := int(float64(trials) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\ntps : %d trials/sec\n", sec, tps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\ntps : %d trials/sec\n", m, s, tps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\ntps : %d trials/sec\n", h, m, s, tps)
}

func (r *ProbReport) fmtSummary() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	s := r.Summary
	basic := map[string]string{
		"Grid":      fmt.Sprintf("%dx%d", r.Width, r.Height),
		"Strategy":  s.Strategy,
		"Exact":     fmt.Sprintf("%t", s.Exact),
		"Solutions": p.Sprintf("%d", s.Solutions),
		"Trials":    p.Sprintf("%d", s.Trials),
		"Failed":    p.Sprintf("%d", s.Failed),
		"Nodes":     p.Sprintf("%d", s.Nodes),
		"Weight":    p.Sprintf("%.4f", s.Weight),
		"Seed":      fmt.Sprintf("%d", s.Seed),
	}
	keys := []string{"Grid", "Strategy", "Exact", "Solutions", "Trials", "Failed", "Nodes", "Weight", "Seed"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	if titleW > totalInner {
		title = runewidth.Truncate(title, totalInner, "…")
		titleW = runewidth.StringWidth(title)
	}

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

// fmtHeatmap 每格固定 7 欄寬；itemType < 0 顯示總機率。
func fmtHeatmap(r *ProbReport, itemType int) string {
	r.Done()
	if r.Cells == nil {
		return "(no data)\n"
	}
	const cellW = 7
	var b strings.Builder
	b.WriteString(blank(4))
	for x := 0; x < r.Width; x++ {
		b.WriteString(runewidth.FillLeft(fmt.Sprintf("x%d", x), cellW))
	}
	b.WriteByte('\n')
	for y, row := range r.Cells {
		b.WriteString(runewidth.FillRight(fmt.Sprintf("y%d", y), 4))
		for _, c := range row {
			v := c.Total
			if itemType >= 0 && itemType < len(c.ItemTypes) {
				v = c.ItemTypes[itemType]
			}
			s := fmt.Sprintf("%.1f%%", v*100)
			if c.Blocked {
				s = "##"
			}
			b.WriteString(runewidth.FillLeft(s, cellW))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
