package query

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/kzaag/cqlengine/connection"
	"github.com/kzaag/cqlengine/connection/mocks"
	"github.com/kzaag/cqlengine/operators"
	"github.com/kzaag/cqlengine/statements"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insert(t *testing.T, table string, kv ...interface{}) statements.Statement {
	st := statements.NewInsertStatement(table)
	for i := 0; i < len(kv); i += 2 {
		require.NoError(t, st.AddAssignmentClause(statements.NewAssignmentClause(kv[i].(string), kv[i+1])))
	}
	return st
}

func TestBatchRender(t *testing.T) {
	b := NewBatch(nil, Unlogged).WithTimestamp(int64(42))
	b.AddQuery(insert(t, "t", "a", 1, "b", 2))

	del := statements.NewDeleteStatement("t")
	require.NoError(t, del.AddWhereClause(statements.NewWhereClause("a", operators.In, []int{3, 4})))
	b.AddQuery(del)

	cql, params, err := b.Render()
	require.NoError(t, err)
	assert.Equal(t, "BEGIN UNLOGGED BATCH USING TIMESTAMP 42\n"+
		`  INSERT INTO t ("a", "b") VALUES (:0, :1)`+"\n"+
		`  DELETE FROM t WHERE "a" IN (3, 4)`+"\n"+
		"APPLY BATCH;", cql)
	assert.Equal(t, map[string]interface{}{"0": 1, "1": 2}, params)
}

func TestBatchExecute(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	exec := mocks.NewMockExecutor(ctrl)
	ctx := context.Background()

	b := NewBatch(exec, Logged).WithConsistency(connection.Quorum)
	// an empty batch sends nothing
	require.NoError(t, b.Execute(ctx))

	b.AddQuery(insert(t, "t", "a", 1))
	b.AddQuery(insert(t, "t", "a", 2))
	exec.EXPECT().Execute(
		ctx,
		"BEGIN BATCH\n"+
			`  INSERT INTO t ("a") VALUES (:0)`+"\n"+
			`  INSERT INTO t ("a") VALUES (:1)`+"\n"+
			"APPLY BATCH;",
		map[string]interface{}{"0": 1, "1": 2},
		connection.Quorum,
	).Return(nil, nil)
	require.NoError(t, b.Execute(ctx))
	assert.Equal(t, 0, b.Len())
}

func TestBatchExecuteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	exec := mocks.NewMockExecutor(ctrl)
	ctx := context.Background()

	boom := errors.New("boom")
	exec.EXPECT().Execute(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)
	b := NewBatch(exec, Counter)
	b.AddQuery(insert(t, "t", "a", 1))
	assert.Equal(t, boom, b.Execute(ctx))
	assert.Equal(t, 1, b.Len())
}

func TestRunBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	exec := mocks.NewMockExecutor(ctrl)
	ctx := context.Background()
	m := NewManager(userSchema(t), exec)

	exec.EXPECT().Execute(
		ctx,
		"BEGIN BATCH\n"+
			`  INSERT INTO ks.user ("id", "seq") VALUES (:0, :1)`+"\n"+
			`  UPDATE ks.user SET "name" = :2 WHERE "id" = :3`+"\n"+
			"APPLY BATCH;",
		map[string]interface{}{"0": "a", "1": 1, "2": "n", "3": "b"},
		connection.Default,
	).Return(nil, nil)

	err := RunBatch(ctx, exec, Logged, func(b *BatchQuery) error {
		if _, err := m.Batch(b).Create(ctx, map[string]interface{}{"id": "a", "seq": 1}); err != nil {
			return err
		}
		return m.Batch(b).Filter("id", "b").Update(ctx, "name", "n")
	})
	require.NoError(t, err)

	// nothing is sent when the callback fails
	err = RunBatch(ctx, exec, Logged, func(b *BatchQuery) error {
		b.AddQuery(insert(t, "t", "a", 1))
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")
}
