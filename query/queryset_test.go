package query

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/kzaag/cqlengine/columns"
	"github.com/kzaag/cqlengine/connection"
	"github.com/kzaag/cqlengine/connection/mocks"
	"github.com/kzaag/cqlengine/cqltypes"
	"github.com/kzaag/cqlengine/functions"
	"github.com/kzaag/cqlengine/model"
	"github.com/kzaag/cqlengine/operators"
	"github.com/kzaag/cqlengine/statements"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func userSchema(t *testing.T) *model.Schema {
	s, err := model.Describe("ks", "User",
		model.Col("id", columns.NewText(columns.PrimaryKey())),
		model.Col("seq", columns.NewInteger(columns.PrimaryKey())),
		model.Col("name", columns.NewText()),
		model.Col("email", columns.NewText(columns.Index())),
		model.Col("tags", columns.NewSet(columns.NewText())),
		model.Col("items", columns.NewList(columns.NewInteger())),
		model.Col("props", columns.NewMap(columns.NewText(), columns.NewInteger())),
	)
	require.NoError(t, err)
	return s
}

func tokenSchema(t *testing.T) *model.Schema {
	s, err := model.Describe("ks", "Composite",
		model.Col("p1", columns.NewText(columns.PartitionKey())),
		model.Col("p2", columns.NewInteger(columns.PartitionKey())),
		model.Col("c", columns.NewInteger(columns.PrimaryKey())),
		model.Col("v", columns.NewText()),
	)
	require.NoError(t, err)
	return s
}

type QuerySetTestSuite struct {
	suite.Suite

	ctrl     *gomock.Controller
	executor *mocks.MockExecutor
	schema   *model.Schema
	ctx      context.Context
}

func (s *QuerySetTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.executor = mocks.NewMockExecutor(s.ctrl)
	s.schema = userSchema(s.T())
	s.ctx = context.Background()
}

func (s *QuerySetTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestQuerySet(t *testing.T) {
	suite.Run(t, new(QuerySetTestSuite))
}

func (s *QuerySetTestSuite) objects() *QuerySet {
	return NewQuerySet(s.schema, s.executor)
}

func (s *QuerySetTestSuite) TestFilterResults() {
	s.executor.EXPECT().Execute(
		s.ctx,
		`SELECT * FROM ks.user WHERE "id" = :0 AND "seq" > :1 LIMIT 10000`,
		map[string]interface{}{"0": "a", "1": 2},
		connection.Default,
	).Return(&connection.Result{
		Columns: []string{"id", "seq", "name"},
		Rows:    [][]interface{}{{"a", 3, "x"}},
	}, nil)

	insts, err := s.objects().Filter("id", "a", "seq__gt", 2).Results(s.ctx)
	s.NoError(err)
	s.Len(insts, 1)
	s.Equal("x", insts[0].Get("name"))
	s.True(insts[0].IsPersisted())
	s.Equal(cqltypes.SetValue{}, insts[0].Get("tags"))
}

func (s *QuerySetTestSuite) TestFilterWhereClause() {
	s.executor.EXPECT().Execute(
		s.ctx,
		`SELECT * FROM ks.user WHERE "id" IN ('a', 'b') LIMIT 10000`,
		map[string]interface{}{},
		connection.Quorum,
	).Return(&connection.Result{}, nil)

	w := statements.NewWhereClause("id", operators.In, []interface{}{"a", "b"})
	insts, err := s.objects().Filter(w).Consistency(connection.Quorum).Results(s.ctx)
	s.NoError(err)
	s.Empty(insts)
}

func (s *QuerySetTestSuite) TestFilterIsImmutable() {
	base := s.objects().Filter("id", "a")
	more := base.Filter("seq", 1).OrderBy("-seq").Limit(5)
	s.Len(base.where, 1)
	s.Len(more.where, 2)
	s.Empty(base.order)
	s.Equal(defaultLimit, base.limit)
}

func (s *QuerySetTestSuite) TestFilterErrors() {
	cases := map[string][]interface{}{
		"nil value":       {"name", nil},
		"unknown column":  {"nope", 1},
		"in needs a list": {"id__in", "a"},
		"missing value":   {"id"},
		"not a key":       {1, 2},
	}
	for name, args := range cases {
		err := s.objects().Filter(args...).Err()
		s.Error(err, name)
		s.IsType(&QueryError{}, err, name)
	}

	err := s.objects().Filter("id__nope", 1).Err()
	s.IsType(&operators.QueryOperatorError{}, err)

	// the first error sticks and is returned by terminal operations
	qs := s.objects().Filter("nope", 1).Filter("id", "a")
	_, err = qs.Results(s.ctx)
	s.Error(err)
	_, err = qs.Count(s.ctx)
	s.Error(err)
	s.Error(qs.Delete(s.ctx))
}

func (s *QuerySetTestSuite) TestSelectWhereValidation() {
	_, err := s.objects().Filter("name", "x").Results(s.ctx)
	s.IsType(&QueryError{}, err)

	_, err = s.objects().Filter("seq", 1).Results(s.ctx)
	s.IsType(&QueryError{}, err)

	s.executor.EXPECT().Execute(
		s.ctx, `SELECT * FROM ks.user WHERE "seq" = :0 LIMIT 10000 ALLOW FILTERING`, gomock.Any(), gomock.Any(),
	).Return(&connection.Result{}, nil)
	_, err = s.objects().Filter("seq", 1).AllowFiltering().Results(s.ctx)
	s.NoError(err)

	// with filtering allowed any column may be compared
	s.executor.EXPECT().Execute(
		s.ctx, `SELECT * FROM ks.user WHERE "name" > :0 LIMIT 10000 ALLOW FILTERING`, gomock.Any(), gomock.Any(),
	).Return(&connection.Result{}, nil)
	_, err = s.objects().Filter("name__gt", "x").AllowFiltering().Results(s.ctx)
	s.NoError(err)

	s.executor.EXPECT().Execute(
		s.ctx, `SELECT * FROM ks.user WHERE "email" = :0 LIMIT 10000`, gomock.Any(), gomock.Any(),
	).Return(&connection.Result{}, nil)
	_, err = s.objects().Filter("email", "e").Results(s.ctx)
	s.NoError(err)
}

func (s *QuerySetTestSuite) TestOrderBy() {
	qs := s.objects().Filter("id", "a").OrderBy("-seq")
	s.NoError(qs.Err())
	s.Equal([]string{`"seq" DESC`}, qs.order)
	s.Empty(qs.OrderBy().order)

	s.IsType(&QueryError{}, s.objects().OrderBy("id").Err())
	s.IsType(&QueryError{}, s.objects().OrderBy("name").Err())
	s.IsType(&QueryError{}, s.objects().OrderBy("nope").Err())
}

func (s *QuerySetTestSuite) TestLimit() {
	s.Error(s.objects().Limit(-1).Err())

	s.executor.EXPECT().Execute(
		s.ctx, `SELECT * FROM ks.user WHERE "id" = :0`, gomock.Any(), gomock.Any(),
	).Return(&connection.Result{}, nil)
	_, err := s.objects().Filter("id", "a").Limit(0).Results(s.ctx)
	s.NoError(err)
}

func (s *QuerySetTestSuite) TestOnlyAndDefer() {
	st, err := s.objects().Only("name", "pk").selectStatement()
	s.Require().NoError(err)
	s.Equal(`SELECT "name", "id" FROM ks.user LIMIT 10000`, st.String())

	st, err = s.objects().Defer("tags", "items", "props").selectStatement()
	s.Require().NoError(err)
	s.Equal(`SELECT "id", "seq", "name", "email" FROM ks.user LIMIT 10000`, st.String())

	s.Error(s.objects().Only("name").Defer("seq").Err())
	s.Error(s.objects().Only("nope").Err())
}

func (s *QuerySetTestSuite) TestValues() {
	s.executor.EXPECT().Execute(
		s.ctx, `SELECT "name" FROM ks.user WHERE "id" = :0 LIMIT 10000`, gomock.Any(), gomock.Any(),
	).Return(&connection.Result{
		Columns: []string{"name"},
		Rows:    [][]interface{}{{"a"}, {"b"}},
	}, nil)
	vals, err := s.objects().Filter("id", "x").FlatValuesList("name").Values(s.ctx)
	s.NoError(err)
	s.Equal([]interface{}{"a", "b"}, vals)

	s.executor.EXPECT().Execute(
		s.ctx, `SELECT "seq", "tags" FROM ks.user WHERE "id" = :0 LIMIT 10000`, gomock.Any(), gomock.Any(),
	).Return(&connection.Result{
		Columns: []string{"seq", "tags"},
		Rows:    [][]interface{}{{1, []string{"t"}}},
	}, nil)
	vals, err = s.objects().Filter("id", "x").ValuesList("seq", "tags").Values(s.ctx)
	s.NoError(err)
	s.Equal([]interface{}{[]interface{}{1, cqltypes.NewSet("t")}}, vals)
}

func (s *QuerySetTestSuite) TestGet() {
	s.executor.EXPECT().Execute(s.ctx, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&connection.Result{}, nil)
	_, err := s.objects().Get(s.ctx, "id", "a")
	s.True(errors.Is(err, model.ErrDoesNotExist))

	s.executor.EXPECT().Execute(s.ctx, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&connection.Result{
			Columns: []string{"id", "seq"},
			Rows:    [][]interface{}{{"a", 1}, {"a", 2}},
		}, nil)
	_, err = s.objects().Get(s.ctx, "id", "a")
	s.True(errors.Is(err, model.ErrMultipleObjectsReturned))

	s.executor.EXPECT().Execute(s.ctx, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&connection.Result{
			Columns: []string{"id", "seq"},
			Rows:    [][]interface{}{{"a", 1}},
		}, nil)
	inst, err := s.objects().Filter("id", "a").Get(s.ctx)
	s.NoError(err)
	s.Equal(1, inst.Get("seq"))
}

func (s *QuerySetTestSuite) TestFirst() {
	s.executor.EXPECT().Execute(
		s.ctx, `SELECT * FROM ks.user WHERE "id" = :0 LIMIT 1`, gomock.Any(), gomock.Any(),
	).Return(&connection.Result{}, nil)
	_, err := s.objects().Filter("id", "a").First(s.ctx)
	s.True(errors.Is(err, model.ErrDoesNotExist))
}

func (s *QuerySetTestSuite) TestCount() {
	s.executor.EXPECT().Execute(
		s.ctx,
		`SELECT COUNT(*) FROM ks.user WHERE "id" = :0`,
		map[string]interface{}{"0": "a"},
		connection.Default,
	).Return(&connection.Result{Columns: []string{"count"}, Rows: [][]interface{}{{int64(3)}}}, nil)
	n, err := s.objects().Filter("id", "a").Count(s.ctx)
	s.NoError(err)
	s.Equal(int64(3), n)
}

func (s *QuerySetTestSuite) TestDelete() {
	s.IsType(&QueryError{}, s.objects().Filter("email", "e").Delete(s.ctx))

	s.executor.EXPECT().Execute(
		s.ctx,
		`DELETE FROM ks.user USING TIMESTAMP 7 WHERE "id" = :0 AND "seq" = :1`,
		map[string]interface{}{"0": "a", "1": 1},
		connection.Default,
	).Return(nil, nil)
	s.NoError(s.objects().Filter("id", "a", "seq", 1).Timestamp(int64(7)).Delete(s.ctx))
}

func (s *QuerySetTestSuite) TestUpdate() {
	gomock.InOrder(
		s.executor.EXPECT().Execute(
			s.ctx,
			`UPDATE ks.user USING TTL 30 SET "name" = :0, "tags" = "tags" + :1, "items" = :2 + "items" WHERE "id" = :3`,
			map[string]interface{}{
				"0": "n",
				"1": cqltypes.NewSet("x"),
				"2": cqltypes.ListValue{2, 1},
				"3": "a",
			},
			connection.Default,
		).Return(nil, nil),
		s.executor.EXPECT().Execute(
			s.ctx,
			`DELETE "email" FROM ks.user WHERE "id" = :0`,
			map[string]interface{}{"0": "a"},
			connection.Default,
		).Return(nil, nil),
	)
	err := s.objects().Filter("id", "a").TTL(30).Update(s.ctx,
		"name", "n",
		"tags__add", []string{"x"},
		"items__prepend", []int{1, 2},
		"email", nil,
	)
	s.NoError(err)
}

func (s *QuerySetTestSuite) TestUpdateErrors() {
	qs := s.objects().Filter("id", "a")
	s.IsType(&QueryError{}, qs.Update(s.ctx, "seq", 1))
	s.IsType(&QueryError{}, qs.Update(s.ctx, "nope", 1))
	s.IsType(&QueryError{}, qs.Update(s.ctx, "name__add", "x"))
	s.IsType(&QueryError{}, qs.Update(s.ctx, "tags__append", []string{"x"}))
	s.IsType(&QueryError{}, qs.Update(s.ctx, "name"))
	s.NoError(qs.Update(s.ctx))
}

func (s *QuerySetTestSuite) TestBatchMode() {
	b := NewBatch(s.executor, Logged)
	qs := s.objects().Batch(b)
	derived := qs.Filter("id", "a").TTL(5)
	s.Same(b, derived.batch)

	_, err := derived.Results(s.ctx)
	s.IsType(&QueryError{}, err)

	s.NoError(derived.Update(s.ctx, "name", "n"))
	s.NoError(derived.Delete(s.ctx))
	s.Equal(2, b.Len())
}

func (s *QuerySetTestSuite) TestCreate() {
	s.executor.EXPECT().Execute(
		s.ctx,
		`INSERT INTO ks.user ("id", "seq", "name") VALUES (:0, :1, :2) USING TTL 10`,
		map[string]interface{}{"0": "a", "1": 1, "2": "n"},
		connection.One,
	).Return(nil, nil)
	inst, err := s.objects().TTL(10).Consistency(connection.One).
		Create(s.ctx, map[string]interface{}{"id": "a", "seq": 1, "name": "n"})
	s.NoError(err)
	s.True(inst.IsPersisted())
	s.Equal(0, inst.TTL())
}

func TestTokenFilter(t *testing.T) {
	s := tokenSchema(t)
	qs := NewQuerySet(s, nil).Filter("pk__token__gt", functions.Token("a", 1))
	require.NoError(t, qs.Err())
	require.Len(t, qs.where, 1)

	w := qs.where[0].clause()
	w.SetContextID(1)
	assert.Equal(t, `token("p1", "p2") > token(:1, :2)`, w.String())
	ctx := map[string]interface{}{}
	w.UpdateContext(ctx)
	assert.Equal(t, map[string]interface{}{"1": "a", "2": 1}, ctx)

	// token comparisons satisfy the select checks without a partition key
	st, err := qs.selectStatement()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM ks.composite WHERE token("p1", "p2") > token(:0, :1) LIMIT 10000`, st.String())

	eq := NewQuerySet(s, nil).Filter("pk__token", functions.Token("a", 1))
	require.NoError(t, eq.Err())
	assert.Equal(t, "=", eq.where[0].op.CQL())
}

func TestTokenFilterErrors(t *testing.T) {
	s := tokenSchema(t)
	qs := NewQuerySet(s, nil)

	err := qs.Filter("pk__token__gt", functions.Token("a")).Err()
	assert.IsType(t, &QueryError{}, err)

	err = qs.Filter("p1__gt", functions.Token("a", 1)).Err()
	assert.IsType(t, &QueryError{}, err)

	err = qs.Filter("pk__token__gt", "a").Err()
	assert.IsType(t, &QueryError{}, err)

	err = qs.Filter("pk__token__in", functions.Token("a", 1)).Err()
	assert.IsType(t, &QueryError{}, err)
}

func TestTokenDoesNotMutateArgument(t *testing.T) {
	s := tokenSchema(t)
	tok := functions.Token("a", "7")
	qs := NewQuerySet(s, nil).Filter("pk__token__gte", tok)
	require.NoError(t, qs.Err())
	assert.Equal(t, []interface{}{"a", "7"}, tok.Values)
}
