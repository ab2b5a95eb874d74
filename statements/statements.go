package statements

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kzaag/cqlengine/columns"
)

// StatementError is returned when a clause does not fit a statement.
type StatementError struct {
	Message string
}

func (e *StatementError) Error() string {
	return e.Message
}

// Statement is a rendered CQL statement with its bound values.
type Statement interface {
	String() string
	// Context maps the decimal slot ids to the bound values.
	Context() map[string]interface{}
	ContextSize() int
	// UpdateContextID renumbers every clause starting from base, used to
	// place several statements in one batch without overlapping slots.
	UpdateContextID(base int)
}

type base struct {
	Table        string
	Timestamp    int64
	WhereClauses []*WhereClause

	contextID      int
	contextCounter int
}

// AddWhereClause appends c and gives it the next free slots.
func (b *base) AddWhereClause(c Clause) error {
	w, ok := c.(*WhereClause)
	if !ok || w == nil {
		return &StatementError{"only instances of WhereClause can be added to statements"}
	}
	b.place(w)
	b.WhereClauses = append(b.WhereClauses, w)
	return nil
}

func (b *base) place(c Clause) {
	c.SetContextID(b.contextCounter)
	b.contextCounter += c.ContextSize()
}

func (b *base) resetContextID(id int) {
	b.contextID = id
	b.contextCounter = id
}

func (b *base) whereContext(ctx map[string]interface{}) {
	for _, c := range b.WhereClauses {
		c.UpdateContext(ctx)
	}
}

func (b *base) where() string {
	parts := make([]string, len(b.WhereClauses))
	for i, c := range b.WhereClauses {
		parts[i] = c.String()
	}
	return "WHERE " + strings.Join(parts, " AND ")
}

// NormalizeTimestamp turns a write timestamp into microseconds since epoch.
// It accepts integer microseconds, a time.Time, or a time.Duration offset
// from now.
func NormalizeTimestamp(v interface{}) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case time.Duration:
		return time.Now().Add(t).UnixNano() / int64(time.Microsecond), nil
	case time.Time:
		return t.UnixNano() / int64(time.Microsecond), nil
	case *time.Time:
		if t == nil {
			return 0, nil
		}
		return t.UnixNano() / int64(time.Microsecond), nil
	}
	return 0, fmt.Errorf("unsupported timestamp %v (%T)", v, v)
}

// SelectStatement is `SELECT ... FROM ...`.
type SelectStatement struct {
	base
	Fields         []string
	Count          bool
	OrderBy        []string
	Limit          int
	AllowFiltering bool
}

func NewSelectStatement(table string, fields []string) *SelectStatement {
	return &SelectStatement{base: base{Table: table}, Fields: fields}
}

func (s *SelectStatement) UpdateContextID(id int) {
	s.resetContextID(id)
	for _, c := range s.WhereClauses {
		s.place(c)
	}
}

func (s *SelectStatement) Context() map[string]interface{} {
	ctx := make(map[string]interface{})
	s.whereContext(ctx)
	return ctx
}

func (s *SelectStatement) ContextSize() int {
	return len(s.Context())
}

func (s *SelectStatement) String() string {
	qs := []string{"SELECT"}
	switch {
	case s.Count:
		qs = append(qs, "COUNT(*)")
	case len(s.Fields) > 0:
		fs := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			fs[i] = columns.Quote(f)
		}
		qs = append(qs, strings.Join(fs, ", "))
	default:
		qs = append(qs, "*")
	}
	qs = append(qs, "FROM", s.Table)
	if len(s.WhereClauses) > 0 {
		qs = append(qs, s.where())
	}
	if !s.Count {
		if len(s.OrderBy) > 0 {
			qs = append(qs, "ORDER BY "+strings.Join(s.OrderBy, ", "))
		}
		if s.Limit > 0 {
			qs = append(qs, "LIMIT "+strconv.Itoa(s.Limit))
		}
	}
	if s.AllowFiltering {
		qs = append(qs, "ALLOW FILTERING")
	}
	return strings.Join(qs, " ")
}

type assignments struct {
	base
	TTL         int
	Assignments []Assignment
}

// AddAssignmentClause appends c and gives it the next free slots.
func (a *assignments) AddAssignmentClause(c Clause) error {
	as, ok := c.(Assignment)
	if !ok || as == nil {
		return &StatementError{"only instances of AssignmentClause can be added to statements"}
	}
	a.place(as)
	a.Assignments = append(a.Assignments, as)
	return nil
}

// IsEmpty reports whether there is nothing to write.
func (a *assignments) IsEmpty() bool {
	return len(a.Assignments) == 0
}

func (a *assignments) Context() map[string]interface{} {
	ctx := make(map[string]interface{})
	for _, c := range a.Assignments {
		c.UpdateContext(ctx)
	}
	a.whereContext(ctx)
	return ctx
}

func (a *assignments) ContextSize() int {
	return len(a.Context())
}

func (a *assignments) UpdateContextID(id int) {
	a.resetContextID(id)
	for _, c := range a.Assignments {
		a.place(c)
	}
	for _, c := range a.WhereClauses {
		a.place(c)
	}
}

func (a *assignments) using() string {
	var opts []string
	if a.TTL > 0 {
		opts = append(opts, "TTL "+strconv.Itoa(a.TTL))
	}
	if a.Timestamp != 0 {
		opts = append(opts, "TIMESTAMP "+strconv.FormatInt(a.Timestamp, 10))
	}
	if len(opts) == 0 {
		return ""
	}
	return "USING " + strings.Join(opts, " AND ")
}

// InsertStatement is `INSERT INTO t (...) VALUES (...)`. Only plain
// assignments render into it.
type InsertStatement struct {
	assignments
}

func NewInsertStatement(table string) *InsertStatement {
	return &InsertStatement{assignments{base: base{Table: table}}}
}

// AddAssignmentClause accepts plain assignments only. Container and counter
// updates bind several slots or a delta and have no INSERT form.
func (s *InsertStatement) AddAssignmentClause(c Clause) error {
	ac, ok := c.(*AssignmentClause)
	if !ok || ac == nil {
		return &StatementError{"only plain assignments can be added to insert statements"}
	}
	return s.assignments.AddAssignmentClause(ac)
}

func (s *InsertStatement) AddWhereClause(Clause) error {
	return &StatementError{"Cannot add where clauses to insert statements"}
}

func (s *InsertStatement) String() string {
	cols := make([]string, 0, len(s.Assignments))
	vals := make([]string, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		cols = append(cols, columns.Quote(a.Field()))
		vals = append(vals, placeholder(a.ContextID()))
	}
	qs := []string{
		"INSERT INTO " + s.Table,
		"(" + strings.Join(cols, ", ") + ")",
		"VALUES",
		"(" + strings.Join(vals, ", ") + ")",
	}
	if u := s.using(); u != "" {
		qs = append(qs, u)
	}
	return strings.Join(qs, " ")
}

// UpdateStatement is `UPDATE t [USING ...] SET ... WHERE ...`.
type UpdateStatement struct {
	assignments
}

func NewUpdateStatement(table string) *UpdateStatement {
	return &UpdateStatement{assignments{base: base{Table: table}}}
}

func (s *UpdateStatement) String() string {
	qs := []string{"UPDATE", s.Table}
	if u := s.using(); u != "" {
		qs = append(qs, u)
	}
	sets := make([]string, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		if r := a.String(); r != "" {
			sets = append(sets, r)
		}
	}
	qs = append(qs, "SET", strings.Join(sets, ", "))
	if len(s.WhereClauses) > 0 {
		qs = append(qs, s.where())
	}
	return strings.Join(qs, " ")
}

// DeleteStatement is `DELETE [fields] FROM t [USING TIMESTAMP n] WHERE ...`.
type DeleteStatement struct {
	base
	Fields []DeleteField
}

func NewDeleteStatement(table string) *DeleteStatement {
	return &DeleteStatement{base: base{Table: table}}
}

// AddField appends a column name or a delete clause to the field list.
func (s *DeleteStatement) AddField(f interface{}) error {
	var df DeleteField
	switch t := f.(type) {
	case string:
		df = NewFieldDeleteClause(t)
	case DeleteField:
		df = t
	default:
		return &StatementError{"only field names and delete clauses can be added to delete statements"}
	}
	s.place(df)
	s.Fields = append(s.Fields, df)
	return nil
}

func (s *DeleteStatement) UpdateContextID(id int) {
	s.resetContextID(id)
	for _, f := range s.Fields {
		s.place(f)
	}
	for _, c := range s.WhereClauses {
		s.place(c)
	}
}

func (s *DeleteStatement) Context() map[string]interface{} {
	ctx := make(map[string]interface{})
	for _, f := range s.Fields {
		f.UpdateContext(ctx)
	}
	s.whereContext(ctx)
	return ctx
}

func (s *DeleteStatement) ContextSize() int {
	return len(s.Context())
}

func (s *DeleteStatement) String() string {
	qs := []string{"DELETE"}
	fs := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if r := f.String(); r != "" {
			fs = append(fs, r)
		}
	}
	if len(fs) > 0 {
		qs = append(qs, strings.Join(fs, ", "))
	}
	qs = append(qs, "FROM", s.Table)
	if s.Timestamp != 0 {
		qs = append(qs, "USING TIMESTAMP "+strconv.FormatInt(s.Timestamp, 10))
	}
	if len(s.WhereClauses) > 0 {
		qs = append(qs, s.where())
	}
	return strings.Join(qs, " ")
}
