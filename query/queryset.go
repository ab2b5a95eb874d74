package query

import (
	"context"
	"reflect"
	"strings"

	"github.com/kzaag/cqlengine/columns"
	"github.com/kzaag/cqlengine/connection"
	"github.com/kzaag/cqlengine/functions"
	"github.com/kzaag/cqlengine/model"
	"github.com/kzaag/cqlengine/operators"
	"github.com/kzaag/cqlengine/statements"
)

const (
	defaultLimit = 10000
	// tokenField is the virtual column compared against Token values.
	tokenField = "pk__token"
)

type filter struct {
	field  string
	quote  bool
	op     operators.Operator
	value  interface{}
	column columns.Column
	token  bool
}

// clause builds a fresh where clause so that statements never share slots.
func (f filter) clause() *statements.WhereClause {
	if f.quote {
		return statements.NewWhereClause(f.field, f.op, f.value)
	}
	return statements.NewExprWhereClause(f.field, f.op, f.value)
}

// QuerySet is a lazily built query over one model. Every builder method
// returns a new QuerySet and leaves the receiver untouched, except for the
// batch which is shared by all the query sets derived from one another.
//
// Building errors are kept and returned by Err and by every method that
// talks to the database.
type QuerySet struct {
	schema   *model.Schema
	executor connection.Executor

	where          []filter
	order          []string
	allowFiltering bool
	limit          int
	deferFields    []string
	onlyFields     []string
	valuesList     bool
	flat           bool

	batch       *BatchQuery
	ttl         int
	timestamp   interface{}
	consistency connection.Consistency

	err error
}

func NewQuerySet(schema *model.Schema, executor connection.Executor) *QuerySet {
	return &QuerySet{schema: schema, executor: executor, limit: defaultLimit}
}

func (q *QuerySet) clone() *QuerySet {
	c := *q
	c.where = append([]filter(nil), q.where...)
	c.order = append([]string(nil), q.order...)
	c.deferFields = append([]string(nil), q.deferFields...)
	c.onlyFields = append([]string(nil), q.onlyFields...)
	return &c
}

func (q *QuerySet) fail(err error) *QuerySet {
	c := q.clone()
	if c.err == nil {
		c.err = err
	}
	return c
}

// Err returns the first error met while building the query.
func (q *QuerySet) Err() error { return q.err }

func (q *QuerySet) Schema() *model.Schema { return q.schema }

// All returns a copy of the query set.
func (q *QuerySet) All() *QuerySet { return q.clone() }

// Filter adds where clauses. Arguments are either *statements.WhereClause
// values or key/value pairs where the key is "column[__op]", e.g.
// Filter("age__gte", 21, "name", "x"). Partition tokens are compared through
// the virtual column "pk__token": Filter("pk__token__gt", functions.Token(k)).
func (q *QuerySet) Filter(args ...interface{}) *QuerySet {
	if q.err != nil {
		return q
	}
	c := q.clone()
	for i := 0; i < len(args); i++ {
		switch a := args[i].(type) {
		case *statements.WhereClause:
			f := filter{field: a.Field(), op: a.Operator, value: a.Value, quote: true}
			if name, ok := q.schema.FieldName(a.Field()); ok {
				f.column, _ = q.schema.Column(name)
			}
			c.where = append(c.where, f)
		case string:
			if i+1 >= len(args) {
				return q.fail(queryErrorf("filter %s has no value", a))
			}
			f, err := q.parseFilter(a, args[i+1])
			if err != nil {
				return q.fail(err)
			}
			c.where = append(c.where, f)
			i++
		default:
			return q.fail(queryErrorf("%v is not a valid query operator", a))
		}
	}
	return c
}

// splitArg splits "name__op" into name and op.
func splitArg(arg string) (string, string) {
	if arg == tokenField {
		return arg, ""
	}
	if i := strings.LastIndex(arg, "__"); i >= 0 {
		return arg[:i], arg[i+2:]
	}
	return arg, ""
}

func (q *QuerySet) parseFilter(arg string, val interface{}) (filter, error) {
	if val == nil {
		return filter{}, queryErrorf("None values on filter are not allowed")
	}
	name, sym := splitArg(arg)
	tok, isToken := val.(*functions.TokenValue)

	f := filter{quote: true}
	if col, ok := q.schema.Column(name); ok {
		if isToken {
			return filter{}, queryErrorf(
				"Token() values may only be compared to the '%s' virtual column", tokenField)
		}
		f.column = col
		f.field = col.Info().DBFieldName()
	} else if name == tokenField {
		if !isToken {
			return filter{}, queryErrorf(
				"Virtual column '%s' may only be compared to Token() values", tokenField)
		}
		pks := q.schema.PartitionKeys
		if len(pks) != len(tok.Values) {
			return filter{}, queryErrorf(
				"Token() received %d arguments but model has %d partition keys",
				len(tok.Values), len(pks))
		}
		t := &functions.TokenValue{Values: append([]interface{}(nil), tok.Values...)}
		if err := t.SetColumns(pks); err != nil {
			return filter{}, err
		}
		val = t
		f.token = true
		f.quote = false
		f.field = tokenExpr(pks)
	} else {
		return filter{}, queryErrorf("Can't resolve column name: '%s'", name)
	}

	if sym == "" {
		sym = operators.Equals.Symbol()
	}
	op, err := operators.Get(sym)
	if err != nil {
		return filter{}, err
	}
	f.op = op

	switch v := val.(type) {
	case functions.Value:
		if f.token && operators.IsIn(op) {
			return filter{}, queryErrorf("Token() values cannot be used with IN")
		}
		f.value = v
	default:
		if operators.IsIn(op) {
			items, ok := sliceItems(val)
			if !ok {
				return filter{}, queryErrorf("IN queries must use a list/tuple value")
			}
			dbv := make([]interface{}, len(items))
			for i, it := range items {
				if dbv[i], err = f.column.ToDatabase(it); err != nil {
					return filter{}, err
				}
			}
			f.value = dbv
		} else if f.value, err = f.column.ToDatabase(val); err != nil {
			return filter{}, err
		}
	}
	return f, nil
}

func tokenExpr(pks []columns.Column) string {
	names := make([]string, len(pks))
	for i, c := range pks {
		names[i] = c.Info().CQL()
	}
	return "token(" + strings.Join(names, ", ") + ")"
}

func sliceItems(v interface{}) ([]interface{}, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	ret := make([]interface{}, rv.Len())
	for i := range ret {
		ret[i] = rv.Index(i).Interface()
	}
	return ret, true
}

// OrderBy orders on clustering keys; a leading "-" sorts descending.
// Without arguments the ordering is cleared.
func (q *QuerySet) OrderBy(names ...string) *QuerySet {
	if q.err != nil {
		return q
	}
	c := q.clone()
	if len(names) == 0 {
		c.order = nil
		return c
	}
	for _, name := range names {
		dir := "ASC"
		if strings.HasPrefix(name, "-") {
			dir = "DESC"
			name = name[1:]
		}
		col, ok := q.schema.Column(name)
		if !ok {
			return q.fail(queryErrorf("Can't resolve the column name: '%s'", name))
		}
		info := col.Info()
		if !info.PrimaryKey {
			return q.fail(queryErrorf(
				"Can't order on '%s', can only order on (clustered) primary keys", name))
		}
		if info.PartitionKey {
			return q.fail(queryErrorf(
				"Can't order by the partition key '%s', clustering keys only", name))
		}
		c.order = append(c.order, info.CQL()+" "+dir)
	}
	return c
}

// Limit caps the number of rows; 0 removes the limit.
func (q *QuerySet) Limit(n int) *QuerySet {
	if q.err != nil || n == q.limit {
		return q
	}
	if n < 0 {
		return q.fail(queryErrorf("Negative limit is not allowed"))
	}
	c := q.clone()
	c.limit = n
	return c
}

func (q *QuerySet) AllowFiltering() *QuerySet {
	c := q.clone()
	c.allowFiltering = true
	return c
}

// Only selects just the given fields.
func (q *QuerySet) Only(fields ...string) *QuerySet {
	return q.onlyOrDefer(fields, false)
}

// Defer selects every field but the given ones.
func (q *QuerySet) Defer(fields ...string) *QuerySet {
	return q.onlyOrDefer(fields, true)
}

func (q *QuerySet) onlyOrDefer(fields []string, deferred bool) *QuerySet {
	if q.err != nil {
		return q
	}
	if len(q.deferFields) > 0 || len(q.onlyFields) > 0 {
		return q.fail(queryErrorf("QuerySet already has only or defer fields defined"))
	}
	var missing []string
	for _, f := range fields {
		if _, ok := q.schema.Column(f); !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return q.fail(queryErrorf("Can't resolve fields %s in %s",
			strings.Join(missing, ", "), q.schema.Name))
	}
	c := q.clone()
	if deferred {
		c.deferFields = append([]string(nil), fields...)
	} else {
		c.onlyFields = append([]string(nil), fields...)
	}
	return c
}

// ValuesList makes Values return one slice of values per row.
func (q *QuerySet) ValuesList(fields ...string) *QuerySet {
	c := q.Only(fields...)
	if c.err == nil {
		c.valuesList = true
	}
	return c
}

// FlatValuesList makes Values return the value of field for every row.
func (q *QuerySet) FlatValuesList(field string) *QuerySet {
	c := q.ValuesList(field)
	if c.err == nil {
		c.flat = true
	}
	return c
}

func (q *QuerySet) Consistency(cons connection.Consistency) *QuerySet {
	c := q.clone()
	c.consistency = cons
	return c
}

// TTL sets the time to live in seconds of the rows written by Update and
// Create.
func (q *QuerySet) TTL(ttl int) *QuerySet {
	c := q.clone()
	c.ttl = ttl
	return c
}

// Timestamp sets the write timestamp of Update, Delete and Create: integer
// microseconds, a time.Time or a time.Duration from now.
func (q *QuerySet) Timestamp(ts interface{}) *QuerySet {
	c := q.clone()
	c.timestamp = ts
	return c
}

// Batch queues the writes of this query set on b. Reads are refused while a
// batch is set.
func (q *QuerySet) Batch(b *BatchQuery) *QuerySet {
	c := q.clone()
	c.batch = b
	return c
}

// validateSelectWhere refuses selects Cassandra cannot serve from a
// partition or an index. AllowFiltering lifts every restriction.
func (q *QuerySet) validateSelectWhere() error {
	if q.allowFiltering {
		return nil
	}
	var pkOrIndex, index, partition, token bool
	for _, f := range q.where {
		if f.token {
			token = true
			continue
		}
		if f.column == nil || !operators.IsEquality(f.op) {
			continue
		}
		info := f.column.Info()
		pkOrIndex = pkOrIndex || info.PrimaryKey || info.Index
		index = index || info.Index
		partition = partition || info.PartitionKey
	}
	if !pkOrIndex && !token {
		return queryErrorf(`Where clauses require either a "=" or "IN" comparison with either a primary key or indexed field`)
	}
	if !index && !partition && !token {
		return queryErrorf("Filtering on a clustering key without a partition key is not allowed unless AllowFiltering() is called on the query set")
	}
	return nil
}

func (q *QuerySet) selectFields() []string {
	var names []string
	switch {
	case len(q.onlyFields) > 0:
		names = q.onlyFields
	case len(q.deferFields) > 0:
		skip := make(map[string]bool, len(q.deferFields))
		for _, f := range q.deferFields {
			skip[f] = true
		}
		for _, n := range q.schema.Names() {
			if !skip[n] {
				names = append(names, n)
			}
		}
	default:
		return nil
	}
	ret := make([]string, len(names))
	for i, n := range names {
		col, _ := q.schema.Column(n)
		ret[i] = col.Info().DBFieldName()
	}
	return ret
}

func (q *QuerySet) whereClauses(add func(statements.Clause) error) error {
	for _, f := range q.where {
		if err := add(f.clause()); err != nil {
			return err
		}
	}
	return nil
}

func (q *QuerySet) selectStatement() (*statements.SelectStatement, error) {
	if len(q.where) > 0 {
		if err := q.validateSelectWhere(); err != nil {
			return nil, err
		}
	}
	st := statements.NewSelectStatement(q.schema.ColumnFamilyName(), q.selectFields())
	if err := q.whereClauses(st.AddWhereClause); err != nil {
		return nil, err
	}
	st.OrderBy = q.order
	st.Limit = q.limit
	st.AllowFiltering = q.allowFiltering
	return st, nil
}

func (q *QuerySet) read(ctx context.Context, st *statements.SelectStatement) (*connection.Result, error) {
	if q.batch != nil {
		return nil, queryErrorf("Only inserts, updates, and deletes are available in batch mode")
	}
	return q.executor.Execute(ctx, st.String(), st.Context(), q.consistency)
}

// write runs stmt, or queues it when a batch is set.
func (q *QuerySet) write(ctx context.Context, stmt statements.Statement) error {
	if q.batch != nil {
		q.batch.AddQuery(stmt)
		return nil
	}
	_, err := q.executor.Execute(ctx, stmt.String(), stmt.Context(), q.consistency)
	return err
}

func (q *QuerySet) fetch(ctx context.Context) (*connection.Result, error) {
	if q.err != nil {
		return nil, q.err
	}
	st, err := q.selectStatement()
	if err != nil {
		return nil, err
	}
	return q.read(ctx, st)
}

// Results runs the query and returns the matching instances.
func (q *QuerySet) Results(ctx context.Context) ([]*model.Instance, error) {
	res, err := q.fetch(ctx)
	if err != nil {
		return nil, err
	}
	rows := res.Maps()
	ret := make([]*model.Instance, 0, len(rows))
	for _, row := range rows {
		inst, err := q.schema.FromRow(row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, inst)
	}
	return ret, nil
}

// Iter calls fn for every matching instance, stopping at the first error.
func (q *QuerySet) Iter(ctx context.Context, fn func(*model.Instance) error) error {
	insts, err := q.Results(ctx)
	if err != nil {
		return err
	}
	for _, inst := range insts {
		if err := fn(inst); err != nil {
			return err
		}
	}
	return nil
}

// Values runs the query and returns raw rows converted through their
// columns: a []interface{} per row, or the single value of each row after
// FlatValuesList.
func (q *QuerySet) Values(ctx context.Context) ([]interface{}, error) {
	res, err := q.fetch(ctx)
	if err != nil {
		return nil, err
	}
	cols := make([]columns.Column, len(res.Columns))
	for i, name := range res.Columns {
		if field, ok := q.schema.FieldName(name); ok {
			cols[i], _ = q.schema.Column(field)
		}
	}
	ret := make([]interface{}, 0, len(res.Rows))
	for _, row := range res.Rows {
		vals := make([]interface{}, len(row))
		for i, v := range row {
			if cols[i] == nil {
				vals[i] = v
				continue
			}
			if vals[i], err = cols[i].FromDatabase(v); err != nil {
				return nil, err
			}
		}
		if q.flat && len(vals) > 0 {
			ret = append(ret, vals[0])
		} else {
			ret = append(ret, vals)
		}
	}
	return ret, nil
}

// Get returns the single instance matching the query and the optional
// extra filters.
func (q *QuerySet) Get(ctx context.Context, args ...interface{}) (*model.Instance, error) {
	qs := q
	if len(args) > 0 {
		qs = q.Filter(args...)
	}
	insts, err := qs.Results(ctx)
	if err != nil {
		return nil, err
	}
	switch len(insts) {
	case 0:
		return nil, q.schema.DoesNotExist()
	case 1:
		return insts[0], nil
	}
	return nil, q.schema.MultipleObjectsReturned(len(insts))
}

// First returns the first matching instance.
func (q *QuerySet) First(ctx context.Context) (*model.Instance, error) {
	insts, err := q.Limit(1).Results(ctx)
	if err != nil {
		return nil, err
	}
	if len(insts) == 0 {
		return nil, q.schema.DoesNotExist()
	}
	return insts[0], nil
}

// Count returns the number of matching rows.
func (q *QuerySet) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	st, err := q.selectStatement()
	if err != nil {
		return 0, err
	}
	st.Count = true
	res, err := q.read(ctx, st)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return 0, nil
	}
	n, _ := toInt64(res.Rows[0][0])
	return n, nil
}

// Create saves a new instance with the query set batch, TTL, timestamp and
// consistency.
func (q *QuerySet) Create(ctx context.Context, values map[string]interface{}) (*model.Instance, error) {
	if q.err != nil {
		return nil, q.err
	}
	inst, err := q.schema.New(values)
	if err != nil {
		return nil, err
	}
	if q.batch != nil {
		inst.UseBatch(q.batch)
	}
	inst.WithTTL(q.ttl).WithTimestamp(q.timestamp).WithConsistency(q.consistency)
	if err := NewDMLQuery(q.executor, inst).Save(ctx); err != nil {
		return nil, err
	}
	return inst, nil
}

// Delete removes the matching rows. The partition key must be filtered on.
func (q *QuerySet) Delete(ctx context.Context) error {
	if q.err != nil {
		return q.err
	}
	pk := q.schema.PartitionKeys[0].Info().DBFieldName()
	found := false
	for _, f := range q.where {
		found = found || (!f.token && f.field == pk)
	}
	if !found {
		return queryErrorf("The partition key must be defined on delete queries")
	}
	ts, err := statements.NormalizeTimestamp(q.timestamp)
	if err != nil {
		return err
	}
	ds := statements.NewDeleteStatement(q.schema.ColumnFamilyName())
	ds.Timestamp = ts
	if err := q.whereClauses(ds.AddWhereClause); err != nil {
		return err
	}
	return q.write(ctx, ds)
}

// Update writes the given key/value pairs to every matching row. A key may
// carry a collection operation: "tags__add", "tags__remove", "items__append",
// "items__prepend" or "props__update". Setting a column to nil deletes it
// with a separate statement.
func (q *QuerySet) Update(ctx context.Context, args ...interface{}) error {
	if q.err != nil {
		return q.err
	}
	if len(args) == 0 {
		return nil
	}
	if len(args)%2 != 0 {
		return queryErrorf("Update expects column/value pairs")
	}
	ts, err := statements.NormalizeTimestamp(q.timestamp)
	if err != nil {
		return err
	}
	us := statements.NewUpdateStatement(q.schema.ColumnFamilyName())
	us.TTL = q.ttl
	us.Timestamp = ts

	var nulled []string
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return queryErrorf("%v is not a column name", args[i])
		}
		name, sym := splitArg(key)
		col, ok := q.schema.Column(name)
		if !ok {
			return queryErrorf("%s has no column named: %s", q.schema.Name, name)
		}
		if col.Info().PrimaryKey {
			return queryErrorf("Cannot apply update to primary key '%s' for %s", name, q.schema.Name)
		}
		v, err := col.Validate(args[i+1])
		if err != nil {
			return err
		}
		if v == nil {
			nulled = append(nulled, col.Info().DBFieldName())
			continue
		}
		clause, err := updateClause(col, v, nil, statements.Operation(sym))
		if err != nil {
			return err
		}
		if clause.ContextSize() > 0 {
			if err := us.AddAssignmentClause(clause); err != nil {
				return err
			}
		}
	}

	if !us.IsEmpty() {
		if err := q.whereClauses(us.AddWhereClause); err != nil {
			return err
		}
		if err := q.write(ctx, us); err != nil {
			return err
		}
	}
	if len(nulled) > 0 {
		ds := statements.NewDeleteStatement(q.schema.ColumnFamilyName())
		ds.Timestamp = ts
		for _, n := range nulled {
			if err := ds.AddField(n); err != nil {
				return err
			}
		}
		if err := q.whereClauses(ds.AddWhereClause); err != nil {
			return err
		}
		return q.write(ctx, ds)
	}
	return nil
}
