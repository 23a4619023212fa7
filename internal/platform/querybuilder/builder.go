// Package querybuilder renders parameterized Postgres statements from
// fluent builders. It covers the handful of shapes the repositories
// need (SELECT/INSERT/UPDATE with AND-joined conditions) rather than
// general SQL.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// writer accumulates SQL text and positional arguments; placeholders
// are numbered in append order.
type writer struct {
	buf  strings.Builder
	args []any
	next int
}

func newWriter() *writer {
	return &writer{next: 1}
}

func (w *writer) sql(s string) {
	w.buf.WriteString(s)
}

// arg writes the next $n placeholder and records its value.
func (w *writer) arg(v any) {
	w.buf.WriteString("$")
	w.buf.WriteString(strconv.Itoa(w.next))
	w.args = append(w.args, v)
	w.next++
}

// expr writes raw SQL, rewriting each ? to the next $n placeholder
// consuming exprArgs in order. Extra ? marks are left as-is.
func (w *writer) expr(expr string, exprArgs []any) {
	if len(exprArgs) == 0 {
		w.buf.WriteString(expr)
		return
	}

	used := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && used < len(exprArgs) {
			w.arg(exprArgs[used])
			used++
			continue
		}
		w.buf.WriteByte(expr[i])
	}
}

type Condition interface {
	render(w *writer)
}

type compareCondition struct {
	column string
	op     string
	value  any
}

func (c compareCondition) render(w *writer) {
	w.sql(c.column)
	w.sql(" ")
	w.sql(c.op)
	w.sql(" ")
	w.arg(c.value)
}

func Eq(column string, value any) Condition {
	return compareCondition{column: column, op: "=", value: value}
}

func Ne(column string, value any) Condition {
	return compareCondition{column: column, op: "<>", value: value}
}

// Lt and Gte cover half-open interval scans: an existing row [s, e)
// overlaps [start, end) when s < end AND e > start.
func Lt(column string, value any) Condition {
	return compareCondition{column: column, op: "<", value: value}
}

func Gt(column string, value any) Condition {
	return compareCondition{column: column, op: ">", value: value}
}

func Gte(column string, value any) Condition {
	return compareCondition{column: column, op: ">=", value: value}
}

type inCondition struct {
	column string
	values []any
}

func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

func (c inCondition) render(w *writer) {
	// Empty IN lists match nothing rather than erroring.
	if len(c.values) == 0 {
		w.sql("1=0")
		return
	}

	w.sql(c.column)
	w.sql(" IN (")
	for i, v := range c.values {
		if i > 0 {
			w.sql(", ")
		}
		w.arg(v)
	}
	w.sql(")")
}

type isNullCondition struct {
	column string
}

func IsNull(column string) Condition {
	return isNullCondition{column: column}
}

func (c isNullCondition) render(w *writer) {
	w.sql(c.column)
	w.sql(" IS NULL")
}

type exprCondition struct {
	expr string
	args []any
}

func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) render(w *writer) {
	w.expr(c.expr, c.args)
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	groupBy []string
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) GroupBy(parts ...string) *SelectBuilder {
	b.groupBy = append(b.groupBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	w := newWriter()
	w.sql("SELECT ")
	w.sql(strings.Join(b.columns, ", "))
	w.sql(" FROM ")
	w.sql(b.table)

	renderWhere(w, b.where)
	if len(b.groupBy) > 0 {
		w.sql(" GROUP BY ")
		w.sql(strings.Join(b.groupBy, ", "))
	}
	if len(b.orderBy) > 0 {
		w.sql(" ORDER BY ")
		w.sql(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.sql(" LIMIT ")
		w.sql(strconv.Itoa(b.limit))
	}

	return w.buf.String(), w.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	w := newWriter()
	w.sql("INSERT INTO ")
	w.sql(b.table)
	w.sql(" (")
	w.sql(strings.Join(b.columns, ", "))
	w.sql(") VALUES ")

	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			w.sql(", ")
		}
		w.sql("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				w.sql(", ")
			}
			w.arg(value)
		}
		w.sql(")")
	}

	if b.suffix != "" {
		w.sql(" ")
		w.expr(b.suffix, nil)
	}

	return w.buf.String(), w.args, nil
}

type setClause struct {
	column string
	value  any
	raw    *exprCondition
}

type UpdateBuilder struct {
	table  string
	sets   []setClause
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, value: value})
	return b
}

func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{
		column: column,
		raw:    &exprCondition{expr: expr, args: args},
	})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	w := newWriter()
	w.sql("UPDATE ")
	w.sql(b.table)
	w.sql(" SET ")

	for i, s := range b.sets {
		if i > 0 {
			w.sql(", ")
		}
		w.sql(s.column)
		w.sql(" = ")
		if s.raw != nil {
			w.expr(s.raw.expr, s.raw.args)
			continue
		}
		w.arg(s.value)
	}

	renderWhere(w, b.where)
	if b.suffix != "" {
		w.sql(" ")
		w.expr(b.suffix, nil)
	}

	return w.buf.String(), w.args, nil
}

func renderWhere(w *writer, conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	w.sql(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			w.sql(" AND ")
		}
		c.render(w)
	}
}
