package query

import (
	"context"
	"strconv"
	"strings"

	"github.com/kzaag/cqlengine/connection"
	"github.com/kzaag/cqlengine/model"
	"github.com/kzaag/cqlengine/statements"
	log "github.com/sirupsen/logrus"
)

// BatchType selects the kind of CQL batch.
type BatchType string

const (
	Logged   BatchType = ""
	Unlogged BatchType = "UNLOGGED"
	Counter  BatchType = "COUNTER"
)

// DefaultBatchWarnSize is the statement count above which a batch is
// logged as suspiciously large.
const DefaultBatchWarnSize = 100

// BatchQuery accumulates write statements and sends them in one round
// trip. Batches only guarantee atomicity within a partition.
type BatchQuery struct {
	executor    connection.Executor
	batchType   BatchType
	timestamp   interface{}
	consistency connection.Consistency
	// WarnSize is the size above which Execute logs a warning.
	WarnSize int

	queries []statements.Statement
}

var _ model.Batch = (*BatchQuery)(nil)

func NewBatch(executor connection.Executor, batchType BatchType) *BatchQuery {
	return &BatchQuery{
		executor:  executor,
		batchType: batchType,
		WarnSize:  DefaultBatchWarnSize,
	}
}

// WithTimestamp applies one write timestamp to the whole batch.
func (b *BatchQuery) WithTimestamp(ts interface{}) *BatchQuery {
	b.timestamp = ts
	return b
}

func (b *BatchQuery) WithConsistency(c connection.Consistency) *BatchQuery {
	b.consistency = c
	return b
}

// AddQuery queues stmt.
func (b *BatchQuery) AddQuery(stmt statements.Statement) {
	b.queries = append(b.queries, stmt)
}

// Len is the number of queued statements.
func (b *BatchQuery) Len() int {
	return len(b.queries)
}

// Render returns the batch CQL and its parameters. Every statement is
// renumbered so that the slots of all statements follow each other.
func (b *BatchQuery) Render() (string, map[string]interface{}, error) {
	opener := "BEGIN "
	if b.batchType != Logged {
		opener += string(b.batchType) + " "
	}
	opener += "BATCH"
	ts, err := statements.NormalizeTimestamp(b.timestamp)
	if err != nil {
		return "", nil, err
	}
	if ts != 0 {
		opener += " USING TIMESTAMP " + strconv.FormatInt(ts, 10)
	}

	lines := []string{opener}
	params := make(map[string]interface{})
	counter := 0
	for _, q := range b.queries {
		q.UpdateContextID(counter)
		ctx := q.Context()
		counter += len(ctx)
		lines = append(lines, "  "+q.String())
		for k, v := range ctx {
			params[k] = v
		}
	}
	lines = append(lines, "APPLY BATCH;")
	return strings.Join(lines, "\n"), params, nil
}

// Execute sends the queued statements. An empty batch sends nothing. The
// queue is cleared once the batch has been applied.
func (b *BatchQuery) Execute(ctx context.Context) error {
	if len(b.queries) == 0 {
		return nil
	}
	if b.WarnSize > 0 && len(b.queries) > b.WarnSize {
		log.WithField("statements", len(b.queries)).
			Warn("large batch, batches are not a bulk loading tool")
	}
	cql, params, err := b.Render()
	if err != nil {
		return err
	}
	if _, err := b.executor.Execute(ctx, cql, params, b.consistency); err != nil {
		return err
	}
	b.queries = nil
	return nil
}

// RunBatch queues the writes made by fn on a new batch and executes it when
// fn succeeds. Nothing is sent when fn fails.
func RunBatch(
	ctx context.Context,
	executor connection.Executor,
	batchType BatchType,
	fn func(b *BatchQuery) error,
) error {
	b := NewBatch(executor, batchType)
	if err := fn(b); err != nil {
		return err
	}
	return b.Execute(ctx)
}
