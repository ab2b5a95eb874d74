package query

import (
	"context"

	"github.com/kzaag/cqlengine/connection"
	"github.com/kzaag/cqlengine/model"
)

// Manager is the entry point for the queries of one model.
type Manager struct {
	schema   *model.Schema
	executor connection.Executor
}

func NewManager(schema *model.Schema, executor connection.Executor) *Manager {
	return &Manager{schema: schema, executor: executor}
}

func (m *Manager) Schema() *model.Schema { return m.schema }

// Objects returns a query set over every row of the model.
func (m *Manager) Objects() *QuerySet {
	return NewQuerySet(m.schema, m.executor)
}

// Batch returns a query set whose writes are queued on b.
func (m *Manager) Batch(b *BatchQuery) *QuerySet {
	return m.Objects().Batch(b)
}

func (m *Manager) Filter(args ...interface{}) *QuerySet {
	return m.Objects().Filter(args...)
}

func (m *Manager) Get(ctx context.Context, args ...interface{}) (*model.Instance, error) {
	return m.Objects().Get(ctx, args...)
}

// New builds an unsaved instance.
func (m *Manager) New(values map[string]interface{}) (*model.Instance, error) {
	return m.schema.New(values)
}

func (m *Manager) Create(ctx context.Context, values map[string]interface{}) (*model.Instance, error) {
	return m.Objects().Create(ctx, values)
}

// Save writes inst, inserting or updating as needed.
func (m *Manager) Save(ctx context.Context, inst *model.Instance) error {
	return NewDMLQuery(m.executor, inst).Save(ctx)
}

// UpdateInstance sets values on inst and writes only the changes.
func (m *Manager) UpdateInstance(ctx context.Context, inst *model.Instance, values map[string]interface{}) error {
	return NewDMLQuery(m.executor, inst).Update(ctx, values)
}

func (m *Manager) DeleteInstance(ctx context.Context, inst *model.Instance) error {
	return NewDMLQuery(m.executor, inst).Delete(ctx)
}
