package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table — табличное представление результата команды.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable создаёт таблицу с заголовками.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// Row добавляет строку. Значения форматируются через fmt.Sprint,
// пустые ячейки выводятся как "-".
func (t *Table) Row(cells ...any) *Table {
	row := make([]string, len(cells))
	for i, cell := range cells {
		s := fmt.Sprint(cell)
		if s == "" {
			s = "-"
		}
		row[i] = s
	}
	t.rows = append(t.rows, row)
	return t
}

// Len возвращает число строк.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.headers, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Output пишет результаты команд в stdout (таблица или --json),
// служебные сообщения — в stderr.
type Output struct {
	jsonMode bool
	w        io.Writer
	errW     io.Writer
}

// NewOutputTo создаёт Output поверх writer'ов команды.
func NewOutputTo(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{jsonMode: jsonMode, w: w, errW: errW}
}

// JSONMode сообщает, включён ли --json.
func (o *Output) JSONMode() bool {
	return o.jsonMode
}

// Render выводит data в JSON-режиме и таблицу иначе.
func (o *Output) Render(t *Table, data any) error {
	if o.jsonMode {
		return o.JSON(data)
	}
	return t.write(o.w)
}

// JSON выводит v с отступами.
func (o *Output) JSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Line выводит строку результата.
func (o *Output) Line(line string) {
	fmt.Fprintln(o.w, line)
}

// Notef выводит служебное сообщение в stderr.
// В JSON-режиме stdout остаётся пригодным для разбора.
func (o *Output) Notef(format string, args ...any) {
	fmt.Fprintf(o.errW, format+"\n", args...)
}
