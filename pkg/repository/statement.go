package repository

import (
	"fmt"
	"strings"
)

// statement accumulates SQL text and bind arguments for one dialect.
type statement struct {
	dialect Dialect
	sql     strings.Builder
	args    []any
}

func newStatement(d Dialect) *statement {
	return &statement{dialect: d}
}

func (s *statement) write(parts ...string) *statement {
	for _, p := range parts {
		s.sql.WriteString(p)
	}
	return s
}

func (s *statement) bind(v any) string {
	s.args = append(s.args, v)
	return s.dialect.Placeholder(len(s.args))
}

func (s *statement) String() string {
	return s.sql.String()
}

func (s *statement) writeWhere(conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	s.write(" WHERE ")
	for i, c := range conditions {
		if i > 0 {
			s.write(" AND ")
		}
		s.writeCondition(c)
	}
}

func (s *statement) writeCondition(c Condition) {
	if c.raw != "" {
		s.write(c.raw)
		return
	}
	switch c.Operator {
	case OpIsNull, OpIsNotNull:
		s.write(c.Column, " ", string(c.Operator))
	case OpIn:
		if len(c.Values) == 0 {
			s.write("1 = 0")
			return
		}
		marks := make([]string, len(c.Values))
		for i, v := range c.Values {
			marks[i] = s.bind(v)
		}
		s.write(c.Column, " IN (", strings.Join(marks, ", "), ")")
	default:
		op := c.Operator
		if op == "" {
			op = OpEq
		}
		s.write(c.Column, " ", string(op), " ", s.bind(c.Value))
	}
}

func (s *statement) writeSelect(table string, q *QueryWrapper) {
	cols := "*"
	if len(q.columns) > 0 {
		cols = strings.Join(q.columns, ", ")
	}
	s.write("SELECT ", cols, " FROM ", table)
	s.writeWhere(q.conditions)
	if len(q.orderBy) > 0 {
		parts := make([]string, len(q.orderBy))
		for i, o := range q.orderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts[i] = fmt.Sprintf("%s %s", o.Column, dir)
		}
		s.write(" ORDER BY ", strings.Join(parts, ", "))
	}
	s.write(s.dialect.boundsClause(q.limitRows, q.limitOffset))
}

func (s *statement) writeCount(table string, q *QueryWrapper) {
	if q.wrapCount {
		s.write("SELECT COUNT(*) FROM (")
		s.writeSelect(table, q)
		s.write(") count_source")
		return
	}
	s.write("SELECT COUNT(*) FROM ", table)
	s.writeWhere(q.conditions)
	s.write(s.dialect.boundsClause(q.limitRows, q.limitOffset))
}

func (s *statement) writeAssignments(columns []string, values []any) {
	for i, col := range columns {
		if i > 0 {
			s.write(", ")
		}
		s.write(col, " = ", s.bind(values[i]))
	}
}
