package report

import (
	"strings"
	"unicode/utf8"
)

// Table — текстовая таблица с рамкой из символов +, -, |.
type Table struct {
	headers []string
	rows    [][]string
	right   map[int]bool
}

// NewTable создаёт таблицу с заголовками колонок.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, right: make(map[int]bool)}
}

// AlignRight выравнивает колонки cols по правому краю (числа).
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// AddRow добавляет строку. Недостающие ячейки остаются пустыми, лишние отбрасываются.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len возвращает число строк без заголовка.
func (t *Table) Len() int {
	return len(t.rows)
}

// String отрисовывает таблицу.
func (t *Table) String() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := utf8.RuneCountInString(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	border := t.border(widths)

	b.WriteString(border)
	t.writeRow(&b, t.headers, widths, false)
	b.WriteString(border)
	for _, row := range t.rows {
		t.writeRow(&b, row, widths, true)
	}
	b.WriteString(border)

	return b.String()
}

func (t *Table) border(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

func (t *Table) writeRow(b *strings.Builder, cells []string, widths []int, body bool) {
	b.WriteByte('|')
	for i, cell := range cells {
		pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		b.WriteByte(' ')
		if body && t.right[i] {
			b.WriteString(pad)
			b.WriteString(cell)
		} else {
			b.WriteString(cell)
			b.WriteString(pad)
		}
		b.WriteString(" |")
	}
	b.WriteByte('\n')
}
