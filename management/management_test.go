package management

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/kzaag/cqlengine/columns"
	"github.com/kzaag/cqlengine/connection"
	"github.com/kzaag/cqlengine/connection/mocks"
	"github.com/kzaag/cqlengine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func pageView(t *testing.T) *model.Schema {
	s, err := model.Describe("ks", "PageView",
		model.Col("page", columns.NewText(columns.PrimaryKey())),
		model.Col("at", columns.NewInteger(columns.PrimaryKey(), columns.ClusteringOrder("desc"))),
		model.Col("title", columns.NewText(columns.Index())),
		model.Col("tags", columns.NewSet(columns.NewText())),
	)
	require.NoError(t, err)
	return s
}

func TestStmtTable(t *testing.T) {
	s := pageView(t)
	assert.Equal(t,
		`CREATE TABLE ks.page_view ("page" text, "at" int, "title" text, "tags" set<text>, `+
			`PRIMARY KEY (("page"), "at")) WITH CLUSTERING ORDER BY ("at" DESC)`,
		StmtCreateTable(s))

	title, _ := s.Column("title")
	assert.Equal(t, `CREATE INDEX index_page_view_title ON ks.page_view ("title")`, StmtCreateIndex(s, title))

	tags, _ := s.Column("tags")
	assert.Equal(t, `ALTER TABLE ks.page_view ADD "tags" set<text>`, StmtAddColumn(s, tags))
	assert.Equal(t, "DROP TABLE ks.page_view", StmtDropTable(s))
}

func TestStmtCreateTableCompositePartition(t *testing.T) {
	s, err := model.Describe("ks", "Events",
		model.Col("a", columns.NewText(columns.PartitionKey())),
		model.Col("b", columns.NewText(columns.PartitionKey())),
		model.Col("v", columns.NewText()),
	)
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE ks.events ("a" text, "b" text, "v" text, PRIMARY KEY (("a", "b")))`,
		StmtCreateTable(s))
}

func TestStmtKeyspace(t *testing.T) {
	assert.Equal(t,
		"CREATE KEYSPACE ks WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 3}",
		StmtCreateKeyspace("ks", nil))

	off := false
	opts := &KeyspaceOptions{
		Strategy:      "NetworkTopologyStrategy",
		Replication:   map[string]int{"dc2": 2, "dc1": 3},
		DurableWrites: &off,
	}
	assert.Equal(t,
		"CREATE KEYSPACE ks WITH REPLICATION = {'class': 'NetworkTopologyStrategy', 'dc1': 3, 'dc2': 2} "+
			"AND DURABLE_WRITES = false",
		StmtCreateKeyspace("ks", opts))
	assert.Equal(t, "DROP KEYSPACE ks", StmtDropKeyspace("ks"))
}

func expectKeyspaces(exec *mocks.MockExecutor, names ...string) *gomock.Call {
	rows := make([][]interface{}, len(names))
	for i, n := range names {
		rows[i] = []interface{}{n}
	}
	return exec.EXPECT().Execute(gomock.Any(), keyspacesQuery, gomock.Nil(), connection.Default).
		Return(&connection.Result{Columns: []string{"keyspace_name"}, Rows: rows}, nil)
}

func expectColumns(exec *mocks.MockExecutor, rows ...[]interface{}) *gomock.Call {
	return exec.EXPECT().Execute(
		gomock.Any(),
		columnsQuery,
		map[string]interface{}{"0": "ks", "1": "page_view"},
		connection.Default,
	).Return(&connection.Result{
		Columns: []string{"column_name", "type", "kind", "position", "clustering_order"},
		Rows:    rows,
	}, nil)
}

func expectIndexes(exec *mocks.MockExecutor, rows ...[]interface{}) *gomock.Call {
	return exec.EXPECT().Execute(gomock.Any(), indexesQuery, gomock.Any(), connection.Default).
		Return(&connection.Result{Columns: []string{"index_name", "options"}, Rows: rows}, nil)
}

func TestPlanMissingTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	exec := mocks.NewMockExecutor(ctrl)
	s := pageView(t)

	expectKeyspaces(exec, "system")
	expectColumns(exec)

	stmts, err := NewSyncer(exec).Plan(context.Background(), s)
	require.NoError(t, err)
	title, _ := s.Column("title")
	assert.Equal(t, []string{
		StmtCreateKeyspace("ks", nil),
		StmtCreateTable(s),
		StmtCreateIndex(s, title),
	}, stmts)
}

func TestPlanExistingTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	exec := mocks.NewMockExecutor(ctrl)
	s := pageView(t)

	expectKeyspaces(exec, "system", "ks")
	expectColumns(exec,
		[]interface{}{"page", "text", "partition_key", 0, "none"},
		[]interface{}{"at", "int", "clustering", 0, "desc"},
		[]interface{}{"title", "text", "regular", -1, "none"},
		[]interface{}{"legacy", "text", "regular", -1, "none"},
	)
	expectIndexes(exec)

	stmts, err := NewSyncer(exec).Plan(context.Background(), s)
	require.NoError(t, err)
	title, _ := s.Column("title")
	tags, _ := s.Column("tags")
	assert.Equal(t, []string{StmtCreateIndex(s, title), StmtAddColumn(s, tags)}, stmts)
}

func TestPlanUpToDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	exec := mocks.NewMockExecutor(ctrl)

	expectColumns(exec,
		[]interface{}{"page", "text", "partition_key", 0, "none"},
		[]interface{}{"at", "int", "clustering", 0, "desc"},
		[]interface{}{"title", "text", "regular", -1, "none"},
		[]interface{}{"tags", "set<text>", "regular", -1, "none"},
	)
	expectIndexes(exec, []interface{}{"index_page_view_title", map[string]string{"target": "title"}})

	syncer := NewSyncer(exec)
	syncer.Keyspace = nil
	stmts, err := syncer.Plan(context.Background(), pageView(t))
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestPlanIncompatible(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	exec := mocks.NewMockExecutor(ctrl)

	expectKeyspaces(exec, "ks")
	expectColumns(exec,
		[]interface{}{"page", "text", "partition_key", 0, "none"},
		[]interface{}{"at", "int", "clustering", 0, "asc"},
		[]interface{}{"title", "int", "regular", -1, "none"},
	)
	expectIndexes(exec)

	_, err := NewSyncer(exec).Plan(context.Background(), pageView(t))
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.IsType(t, &SchemaError{}, e)
	}
}

func TestSyncTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	exec := mocks.NewMockExecutor(ctrl)
	s := pageView(t)
	title, _ := s.Column("title")

	gomock.InOrder(
		expectKeyspaces(exec, "ks"),
		expectColumns(exec),
		exec.EXPECT().Execute(gomock.Any(), StmtCreateTable(s), gomock.Nil(), connection.Default).Return(nil, nil),
		exec.EXPECT().Execute(gomock.Any(), StmtCreateIndex(s, title), gomock.Nil(), connection.Default).Return(nil, nil),
	)
	require.NoError(t, SyncTable(context.Background(), exec, s))
}

func TestKeyspaceAndTableLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	exec := mocks.NewMockExecutor(ctrl)
	ctx := context.Background()

	// existing keyspaces are left alone
	expectKeyspaces(exec, "ks")
	require.NoError(t, CreateKeyspace(ctx, exec, "ks", nil))

	gomock.InOrder(
		expectKeyspaces(exec, "ks"),
		exec.EXPECT().Execute(ctx, "DROP KEYSPACE ks", gomock.Nil(), connection.Default).Return(nil, nil),
	)
	require.NoError(t, DropKeyspace(ctx, exec, "ks"))

	// missing tables are not dropped
	expectColumns(exec)
	require.NoError(t, DropTable(ctx, exec, pageView(t)))
}

const definition = `
table:
  name: PageView
  keyspace: ks
  columns:
    - name: page
      type: text
      primary_key: true
    - name: at
      type: int
      primary_key: true
      clustering_order: desc
    - name: title
      type: text
      index: true
    - name: tags
      type: set<text>
`

func TestParseDefinitions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "page_view.yml"), []byte(definition), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	schemas, err := ParseDefinitions("", dir)
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Equal(t, StmtCreateTable(pageView(t)), StmtCreateTable(schemas[0]))
}

func TestParseDefinitionErrors(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.yml":  "table:\n  columns:\n    - name: x\n      type: text\n      primary_key: true\n",
		"b.yml":  "table:\n  name: B\n  columns:\n    - name: x\n      type: nope\n      primary_key: true\n",
		"c.yaml": "table:\n  name: C\n  bogus: 1\n",
		"d.yml":  "view:\n  name: D\n",
	}
	for name, content := range files {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	_, err := ParseDefinitions("ks", dir)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
}
