package management

import (
	"context"
	"fmt"

	"github.com/kzaag/cqlengine/connection"
	"github.com/kzaag/cqlengine/model"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// SchemaError reports a difference between a model and its table that
// cannot be fixed with ALTER TABLE.
type SchemaError struct {
	Table   string
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// Syncer brings tables in line with model schemas. Tables are created when
// missing. Existing tables get the columns and indexes they lack, and
// primary key or type changes are reported as errors.
type Syncer struct {
	executor connection.Executor
	// Keyspace holds the options for keyspaces created on the way. Nil
	// leaves missing keyspaces alone.
	Keyspace *KeyspaceOptions
}

func NewSyncer(exec connection.Executor) *Syncer {
	return &Syncer{executor: exec, Keyspace: DefaultKeyspaceOptions()}
}

// Plan returns the statements that Sync would run, in order.
func (s *Syncer) Plan(ctx context.Context, schema *model.Schema) ([]string, error) {
	var stmts []string
	if s.Keyspace != nil {
		ks, err := RemoteKeyspaces(ctx, s.executor)
		if err != nil {
			return nil, err
		}
		if _, ok := ks[schema.Keyspace]; !ok {
			stmts = append(stmts, StmtCreateKeyspace(schema.Keyspace, s.Keyspace))
		}
	}

	remote, err := RemoteTable(ctx, s.executor, schema.Keyspace, schema.Table)
	if err != nil {
		return nil, err
	}
	if remote == nil {
		stmts = append(stmts, StmtCreateTable(schema))
		for _, col := range schema.Columns {
			if col.Info().Index {
				stmts = append(stmts, StmtCreateIndex(schema, col))
			}
		}
		return stmts, nil
	}

	local := LocalTable(schema)
	name := schema.ColumnFamilyName()
	var errs error
	if !samePrimaryKey(local.PrimaryKey, remote.PrimaryKey) {
		errs = multierr.Append(errs, &SchemaError{
			Table:   name,
			Message: "primary key differs from the database, the table must be recreated",
		})
	}
	for _, col := range schema.Columns {
		info := col.Info()
		rc, ok := remote.Columns[info.DBFieldName()]
		switch {
		case !ok && !info.PrimaryKey:
			stmts = append(stmts, StmtAddColumn(schema, col))
		case ok && rc.Type != col.DBType():
			errs = multierr.Append(errs, &SchemaError{
				Table: name,
				Message: fmt.Sprintf("column %s is %s in the database but %s in the model",
					rc.Name, rc.Type, col.DBType()),
			})
		}
		if _, ok := remote.Indexes[info.DBFieldName()]; info.Index && !ok {
			stmts = append(stmts, StmtCreateIndex(schema, col))
		}
	}
	for db := range remote.Columns {
		if _, ok := local.Columns[db]; !ok {
			log.WithFields(log.Fields{
				"table":  name,
				"column": db,
			}).Warn("column exists in the database but not in the model")
		}
	}
	if errs != nil {
		return nil, errs
	}
	return stmts, nil
}

// Sync runs the statements returned by Plan.
func (s *Syncer) Sync(ctx context.Context, schema *model.Schema) error {
	stmts, err := s.Plan(ctx, schema)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		log.WithField("table", schema.ColumnFamilyName()).Debug(stmt)
		if _, err := s.executor.Execute(ctx, stmt, nil, connection.Default); err != nil {
			return err
		}
	}
	return nil
}

// SyncTable creates or updates the table of schema, creating its keyspace
// with the default options when needed.
func SyncTable(ctx context.Context, exec connection.Executor, schema *model.Schema) error {
	return NewSyncer(exec).Sync(ctx, schema)
}

// CreateKeyspace creates the keyspace unless it exists.
func CreateKeyspace(
	ctx context.Context, exec connection.Executor, name string, opts *KeyspaceOptions,
) error {
	ks, err := RemoteKeyspaces(ctx, exec)
	if err != nil {
		return err
	}
	if _, ok := ks[name]; ok {
		return nil
	}
	_, err = exec.Execute(ctx, StmtCreateKeyspace(name, opts), nil, connection.Default)
	return err
}

// DropKeyspace drops the keyspace if it exists.
func DropKeyspace(ctx context.Context, exec connection.Executor, name string) error {
	ks, err := RemoteKeyspaces(ctx, exec)
	if err != nil {
		return err
	}
	if _, ok := ks[name]; !ok {
		return nil
	}
	_, err = exec.Execute(ctx, StmtDropKeyspace(name), nil, connection.Default)
	return err
}

// DropTable drops the table of schema if it exists.
func DropTable(ctx context.Context, exec connection.Executor, schema *model.Schema) error {
	remote, err := RemoteTable(ctx, exec, schema.Keyspace, schema.Table)
	if err != nil || remote == nil {
		return err
	}
	_, err = exec.Execute(ctx, StmtDropTable(schema), nil, connection.Default)
	return err
}
