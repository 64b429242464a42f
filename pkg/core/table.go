package core

import (
	"math"
	"strconv"
	"strings"
)

// Table 上游接口返回的表格数据，列名随数据源而不同（多为中文）
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable 创建表格
func NewTable(columns []string, rows [][]string) *Table {
	return &Table{Columns: columns, Rows: rows}
}

// Len 行数，nil 表格返回 0
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty 表格是否为空
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Append 追加一行
func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

func (t *Table) col(name string) (int, bool) {
	if t.index == nil || len(t.index) != len(t.Columns) {
		t.index = make(map[string]int, len(t.Columns))
		for i, c := range t.Columns {
			t.index[c] = i
		}
	}
	i, ok := t.index[name]
	return i, ok
}

// Has 是否包含全部指定列
func (t *Table) Has(cols ...string) bool {
	if t == nil {
		return false
	}
	for _, c := range cols {
		if _, ok := t.col(c); !ok {
			return false
		}
	}
	return true
}

// Missing 返回缺失的列
func (t *Table) Missing(cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if t == nil {
			missing = append(missing, c)
			continue
		}
		if _, ok := t.col(c); !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Get 取第 row 行 col 列的值，列不存在或越界时返回空串
func (t *Table) Get(row int, col string) string {
	if t == nil || row < 0 || row >= len(t.Rows) {
		return ""
	}
	i, ok := t.col(col)
	if !ok || i >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}

// Float 取数值，解析失败返回 false
func (t *Table) Float(row int, col string) (float64, bool) {
	return ParseFloat(t.Get(row, col))
}

// FloatOr 取数值，解析失败时返回 def
func (t *Table) FloatOr(row int, col string, def float64) float64 {
	if v, ok := t.Float(row, col); ok {
		return v
	}
	return def
}

// Head 返回前 n 行组成的新表格
func (t *Table) Head(n int) *Table {
	if t == nil {
		return nil
	}
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// ParseFloat 解析上游的数值字段，"-"、空串、NaN 和无穷大视为无效
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "--", "None", "null":
		return 0, false
	}
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
