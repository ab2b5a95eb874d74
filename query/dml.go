package query

import (
	"context"

	"github.com/kzaag/cqlengine/columns"
	"github.com/kzaag/cqlengine/connection"
	"github.com/kzaag/cqlengine/cqltypes"
	"github.com/kzaag/cqlengine/model"
	"github.com/kzaag/cqlengine/operators"
	"github.com/kzaag/cqlengine/statements"
)

// DMLQuery writes a single instance. Batch, TTL, timestamp and consistency
// are taken from the instance.
type DMLQuery struct {
	schema   *model.Schema
	instance *model.Instance
	executor connection.Executor

	batch       model.Batch
	ttl         int
	timestamp   interface{}
	consistency connection.Consistency
}

func NewDMLQuery(executor connection.Executor, inst *model.Instance) *DMLQuery {
	return &DMLQuery{
		schema:      inst.Schema(),
		instance:    inst,
		executor:    executor,
		batch:       inst.Batch(),
		ttl:         inst.TTL(),
		timestamp:   inst.Timestamp(),
		consistency: inst.Consistency(),
	}
}

func (d *DMLQuery) run(ctx context.Context, stmt statements.Statement) error {
	if d.batch != nil {
		d.batch.AddQuery(stmt)
		return nil
	}
	_, err := d.executor.Execute(ctx, stmt.String(), stmt.Context(), d.consistency)
	return err
}

// Save validates the instance and writes it. Persisted instances whose
// primary key did not change, and every counter row, are written with an
// UPDATE of the changed columns. Anything else is an INSERT. Columns that
// were cleared are deleted afterwards.
func (d *DMLQuery) Save(ctx context.Context) error {
	if err := d.instance.Validate(); err != nil {
		return err
	}
	var err error
	if d.schema.IsCounterTable() || (d.instance.IsPersisted() && !d.instance.PKChanged()) {
		err = d.update(ctx)
	} else {
		err = d.insert(ctx)
	}
	if err != nil {
		return err
	}
	d.instance.MarkSaved()
	return nil
}

// Update sets the given fields and writes the changes. Primary keys cannot
// be updated.
func (d *DMLQuery) Update(ctx context.Context, values map[string]interface{}) error {
	for name, v := range values {
		col, ok := d.schema.Column(name)
		if !ok {
			return queryErrorf("%s has no column named: %s", d.schema.Name, name)
		}
		if col.Info().PrimaryKey {
			return queryErrorf("Cannot apply update to primary key '%s' for %s", name, d.schema.Name)
		}
		if err := d.instance.Set(name, v); err != nil {
			return err
		}
	}
	if err := d.instance.Validate(); err != nil {
		return err
	}
	if err := d.update(ctx); err != nil {
		return err
	}
	d.instance.MarkSaved()
	return nil
}

// Delete removes the row of the instance.
func (d *DMLQuery) Delete(ctx context.Context) error {
	ts, err := statements.NormalizeTimestamp(d.timestamp)
	if err != nil {
		return err
	}
	ds := statements.NewDeleteStatement(d.schema.ColumnFamilyName())
	ds.Timestamp = ts
	if err := d.pkWhere(ds.AddWhereClause); err != nil {
		return err
	}
	return d.run(ctx, ds)
}

func (d *DMLQuery) pkWhere(add func(statements.Clause) error) error {
	for _, col := range d.schema.PrimaryKeys {
		v, err := toDB(col, d.instance.Get(col.Info().Name))
		if err != nil {
			return err
		}
		if err := add(statements.NewWhereClause(col.Info().DBFieldName(), operators.Equals, v)); err != nil {
			return err
		}
	}
	return nil
}

func (d *DMLQuery) insert(ctx context.Context) error {
	ts, err := statements.NormalizeTimestamp(d.timestamp)
	if err != nil {
		return err
	}
	st := statements.NewInsertStatement(d.schema.ColumnFamilyName())
	st.TTL = d.ttl
	st.Timestamp = ts
	for _, col := range d.schema.Columns {
		v := d.instance.Get(col.Info().Name)
		if columns.IsNull(col, v) {
			continue
		}
		dv, err := toDB(col, v)
		if err != nil {
			return err
		}
		if err := st.AddAssignmentClause(statements.NewAssignmentClause(col.Info().DBFieldName(), dv)); err != nil {
			return err
		}
	}
	if !st.IsEmpty() {
		if err := d.run(ctx, st); err != nil {
			return err
		}
	}
	return d.deleteNullColumns(ctx)
}

func (d *DMLQuery) update(ctx context.Context) error {
	ts, err := statements.NormalizeTimestamp(d.timestamp)
	if err != nil {
		return err
	}
	st := statements.NewUpdateStatement(d.schema.ColumnFamilyName())
	st.TTL = d.ttl
	st.Timestamp = ts

	// a row without clustering values can only carry its partition key
	nullClustering := len(d.schema.ClusteringKeys) > 0
	for _, col := range d.schema.ClusteringKeys {
		if d.instance.Get(col.Info().Name) != nil {
			nullClustering = false
		}
	}

	for _, col := range d.schema.Columns {
		if col.Info().PrimaryKey || nullClustering {
			continue
		}
		f := d.instance.Field(col.Info().Name)
		if f.Get() == nil || !f.Changed() {
			continue
		}
		clause, err := updateClause(col, f.Get(), f.Previous(), statements.OpNone)
		if err != nil {
			return err
		}
		if clause.ContextSize() == 0 {
			continue
		}
		if c, ok := clause.(*statements.CounterUpdateClause); ok && c.Value == c.Previous {
			continue
		}
		if err := st.AddAssignmentClause(clause); err != nil {
			return err
		}
	}
	if !st.IsEmpty() {
		if err := d.pkWhere(st.AddWhereClause); err != nil {
			return err
		}
		if err := d.run(ctx, st); err != nil {
			return err
		}
	}
	return d.deleteNullColumns(ctx)
}

// deleteNullColumns deletes the cleared columns and the removed map keys.
func (d *DMLQuery) deleteNullColumns(ctx context.Context) error {
	ds := statements.NewDeleteStatement(d.schema.ColumnFamilyName())
	deleted := false
	for _, col := range d.schema.Columns {
		if col.Info().PrimaryKey {
			continue
		}
		f := d.instance.Field(col.Info().Name)
		if f.Deleted() {
			if err := ds.AddField(col.Info().DBFieldName()); err != nil {
				return err
			}
			deleted = true
			continue
		}
		if _, ok := col.(*columns.MapColumn); !ok {
			continue
		}
		cur, err := toDB(col, f.Get())
		if err != nil {
			return err
		}
		prev, err := toDB(col, f.Previous())
		if err != nil {
			return err
		}
		cm, _ := cur.(cqltypes.MapValue)
		pm, _ := prev.(cqltypes.MapValue)
		clause := statements.NewMapDeleteClause(col.Info().DBFieldName(), cm, pm)
		if clause.ContextSize() > 0 {
			if err := ds.AddField(clause); err != nil {
				return err
			}
			deleted = true
		}
	}
	if !deleted {
		return nil
	}
	if err := d.pkWhere(ds.AddWhereClause); err != nil {
		return err
	}
	return d.run(ctx, ds)
}

// toDB converts v for col, keeping nil as nil so that defaults are not
// applied to absent values.
func toDB(col columns.Column, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	return col.ToDatabase(v)
}

// updateClause builds the assignment that moves col from previous to value.
// Collections are diffed unless op forces an operation.
func updateClause(col columns.Column, value, previous interface{}, op statements.Operation) (statements.Assignment, error) {
	name := col.Info().DBFieldName()
	cur, err := toDB(col, value)
	if err != nil {
		return nil, err
	}
	prev, err := toDB(col, previous)
	if err != nil {
		return nil, err
	}
	switch col.(type) {
	case *columns.SetColumn:
		if op != statements.OpNone && op != statements.OpAdd && op != statements.OpRemove {
			return nil, queryErrorf("Set column %s does not support %s", name, op)
		}
		cs, _ := cur.(cqltypes.SetValue)
		ps, _ := prev.(cqltypes.SetValue)
		return statements.NewSetUpdateClause(name, cs, ps, op), nil
	case *columns.ListColumn:
		if op != statements.OpNone && op != statements.OpAppend && op != statements.OpPrepend {
			return nil, queryErrorf("List column %s does not support %s", name, op)
		}
		cl, _ := cur.(cqltypes.ListValue)
		pl, _ := prev.(cqltypes.ListValue)
		return statements.NewListUpdateClause(name, cl, pl, op), nil
	case *columns.MapColumn:
		if op != statements.OpNone && op != statements.OpUpdate {
			return nil, queryErrorf("Map column %s does not support %s", name, op)
		}
		cm, _ := cur.(cqltypes.MapValue)
		pm, _ := prev.(cqltypes.MapValue)
		return statements.NewMapUpdateClause(name, cm, pm, op), nil
	case *columns.CounterColumn:
		if op != statements.OpNone {
			return nil, queryErrorf("Counter column %s does not support %s", name, op)
		}
		c, _ := toInt64(cur)
		p, _ := toInt64(prev)
		return statements.NewCounterUpdateClause(name, c, p), nil
	}
	if op != statements.OpNone {
		return nil, queryErrorf("%s is not a collection, %s is not supported", name, op)
	}
	return statements.NewAssignmentClause(name, cur), nil
}

func toInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	}
	return 0, false
}
