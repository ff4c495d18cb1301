package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightq/insightq/internal/dataset"
	"github.com/insightq/insightq/internal/engine"
	"github.com/insightq/insightq/internal/guard"
	"github.com/insightq/insightq/internal/nl2sql"
)

type fakeResolver struct {
	resolveSQL string
	resolveErr error
	refineSQL  string
	refineErr  error

	resolveCalls []nl2sql.Request
	refineCalls  []nl2sql.RefineRequest
}

func (f *fakeResolver) Resolve(_ context.Context, req nl2sql.Request) (nl2sql.Result, error) {
	f.resolveCalls = append(f.resolveCalls, req)
	if f.resolveErr != nil {
		return nl2sql.Result{}, f.resolveErr
	}
	return nl2sql.Result{SQL: f.resolveSQL}, nil
}

func (f *fakeResolver) Refine(_ context.Context, req nl2sql.RefineRequest) (nl2sql.Result, error) {
	f.refineCalls = append(f.refineCalls, req)
	if f.refineErr != nil {
		return nl2sql.Result{}, f.refineErr
	}
	return nl2sql.Result{SQL: f.refineSQL}, nil
}

type fakeGenerator struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type scriptedEngine struct {
	columns []engine.ColumnInfo
	results []engine.Result
	errs    []error
	calls   []engine.Request
	closed  bool
}

func (e *scriptedEngine) Execute(_ context.Context, req engine.Request) (engine.Result, error) {
	i := len(e.calls)
	e.calls = append(e.calls, req)
	if i < len(e.errs) && e.errs[i] != nil {
		return engine.Result{}, e.errs[i]
	}
	if i < len(e.results) {
		return e.results[i], nil
	}
	return engine.Result{}, &engine.ExecutionError{Message: "no scripted result"}
}

func (e *scriptedEngine) Schema(context.Context) ([]engine.ColumnInfo, error) {
	return e.columns, nil
}

func (e *scriptedEngine) Close() error {
	e.closed = true
	return nil
}

func newTestSession(eng engine.Engine) *Session {
	return &Session{
		ID:          "session-1",
		DatasetType: dataset.TypeSales,
		Engine:      eng,
		Memory:      &Memory{},
	}
}

func salesResult() engine.Result {
	return engine.Result{
		Columns: []string{"category", "total_revenue"},
		Rows:    [][]any{{"Kurta", 1200.0}, {"Top", 800.0}},
	}
}

func TestAskFirstAttemptSucceeds(t *testing.T) {
	eng := &scriptedEngine{
		columns: []engine.ColumnInfo{{Name: "category", SQLType: "VARCHAR"}, {Name: "revenue", SQLType: "DOUBLE"}},
		results: []engine.Result{salesResult()},
	}
	resolver := &fakeResolver{resolveSQL: "SELECT category, SUM(revenue) AS total_revenue FROM sales GROUP BY category"}
	generator := &fakeGenerator{text: "Kurta leads revenue."}
	p := &Pipeline{Resolver: resolver, Generator: generator}
	session := newTestSession(eng)

	answer, err := p.Ask(context.Background(), session, "Which category sells most?")
	require.NoError(t, err)
	assert.Equal(t, 1, answer.Attempts)
	assert.Equal(t, resolver.resolveSQL, answer.SQL)
	assert.Equal(t, OutcomeValid, answer.Outcome.Kind)
	assert.Equal(t, "Kurta leads revenue.", answer.Insight)

	require.Len(t, resolver.resolveCalls, 1)
	assert.Contains(t, resolver.resolveCalls[0].Schema, "category VARCHAR")
	assert.Empty(t, resolver.resolveCalls[0].Memory, "first question sees no prior context")

	require.Len(t, generator.prompts, 1)
	assert.Contains(t, generator.prompts[0], "Kurta | 1200")

	turns := session.Memory.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, RoleUser, turns[0].Role)
	assert.Equal(t, RoleAssistant, turns[1].Role)
	assert.Equal(t, "Kurta leads revenue.", turns[1].Content)

	last, ok := session.LastResult()
	require.True(t, ok)
	assert.Equal(t, salesResult().Columns, last.Columns)
}

func TestAskRefinesOnceOnExecutionError(t *testing.T) {
	eng := &scriptedEngine{
		columns: []engine.ColumnInfo{{Name: "revenue", SQLType: "DOUBLE"}},
		errs:    []error{&engine.ExecutionError{Message: `Binder Error: column "revenu" not found`}, nil},
		results: []engine.Result{{}, salesResult()},
	}
	resolver := &fakeResolver{
		resolveSQL: "SELECT revenu FROM sales",
		refineSQL:  "SELECT revenue FROM sales",
	}
	p := &Pipeline{Resolver: resolver, Generator: &fakeGenerator{text: "ok"}}
	session := newTestSession(eng)

	answer, err := p.Ask(context.Background(), session, "total revenue")
	require.NoError(t, err)
	assert.Equal(t, 2, answer.Attempts)
	assert.Equal(t, "SELECT revenue FROM sales", answer.SQL)

	require.Len(t, resolver.refineCalls, 1)
	assert.Equal(t, "SELECT revenu FROM sales", resolver.refineCalls[0].FailedSQL)
	assert.Equal(t, `Binder Error: column "revenu" not found`, resolver.refineCalls[0].ErrorText)
	require.Len(t, eng.calls, 2)
}

func TestAskSecondFailureIsTerminal(t *testing.T) {
	execErr := &engine.ExecutionError{Message: "still broken"}
	eng := &scriptedEngine{
		columns: []engine.ColumnInfo{{Name: "revenue", SQLType: "DOUBLE"}},
		errs:    []error{&engine.ExecutionError{Message: "broken"}, execErr},
	}
	resolver := &fakeResolver{resolveSQL: "SELECT x FROM sales", refineSQL: "SELECT y FROM sales"}
	p := &Pipeline{Resolver: resolver, Generator: &fakeGenerator{}}
	session := newTestSession(eng)

	_, err := p.Ask(context.Background(), session, "total revenue")
	var asExec *engine.ExecutionError
	require.ErrorAs(t, err, &asExec)
	assert.Equal(t, "still broken", asExec.Message)

	require.Len(t, resolver.refineCalls, 1, "no third attempt")
	require.Len(t, eng.calls, 2)

	turns := session.Memory.Turns()
	require.Len(t, turns, 2)
	assert.Contains(t, turns[1].Content, "Error occurred while answering:")
	assert.Contains(t, turns[1].Content, "still broken")
}

func TestAskBlocksUnsafeStatement(t *testing.T) {
	eng := &scriptedEngine{columns: []engine.ColumnInfo{{Name: "revenue", SQLType: "DOUBLE"}}}
	resolver := &fakeResolver{resolveSQL: "DROP TABLE sales"}
	p := &Pipeline{Resolver: resolver, Generator: &fakeGenerator{}}
	session := newTestSession(eng)

	_, err := p.Ask(context.Background(), session, "delete everything")
	require.ErrorIs(t, err, guard.ErrUnsafeQuery)
	assert.Empty(t, eng.calls, "blocked statement never reaches the engine")

	turns := session.Memory.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "Unsafe SQL detected. Query blocked.", turns[1].Content)
}

func TestAskBlocksUnsafeRefinedStatement(t *testing.T) {
	eng := &scriptedEngine{
		columns: []engine.ColumnInfo{{Name: "revenue", SQLType: "DOUBLE"}},
		errs:    []error{&engine.ExecutionError{Message: "broken"}},
	}
	resolver := &fakeResolver{resolveSQL: "SELECT x FROM sales", refineSQL: "DELETE FROM sales"}
	p := &Pipeline{Resolver: resolver, Generator: &fakeGenerator{}}
	session := newTestSession(eng)

	_, err := p.Ask(context.Background(), session, "total revenue")
	require.ErrorIs(t, err, guard.ErrUnsafeQuery)
	require.Len(t, eng.calls, 1, "refined statement never executed")
}

func TestAskResolverFailureRecordsTurn(t *testing.T) {
	eng := &scriptedEngine{columns: []engine.ColumnInfo{{Name: "revenue", SQLType: "DOUBLE"}}}
	resolver := &fakeResolver{resolveErr: nl2sql.ErrServiceUnavailable}
	p := &Pipeline{Resolver: resolver, Generator: &fakeGenerator{}}
	session := newTestSession(eng)

	_, err := p.Ask(context.Background(), session, "total revenue")
	require.ErrorIs(t, err, nl2sql.ErrServiceUnavailable)

	turns := session.Memory.Turns()
	require.Len(t, turns, 2)
	assert.Contains(t, turns[1].Content, "Error occurred while answering:")
}

func TestAskEmptyResultAppendsWarning(t *testing.T) {
	eng := &scriptedEngine{
		columns: []engine.ColumnInfo{{Name: "revenue", SQLType: "DOUBLE"}},
		results: []engine.Result{{Columns: []string{"revenue"}, Rows: nil}},
	}
	generator := &fakeGenerator{}
	p := &Pipeline{Resolver: &fakeResolver{resolveSQL: "SELECT revenue FROM sales WHERE 1=0"}, Generator: generator}
	session := newTestSession(eng)

	answer, err := p.Ask(context.Background(), session, "revenue on mars")
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, answer.Outcome.Kind)
	assert.Empty(t, answer.Insight)
	assert.Empty(t, generator.prompts, "no interpretation for an empty result")

	turns := session.Memory.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "No rows returned for this request.", turns[1].Content)

	_, ok := session.LastResult()
	assert.False(t, ok)
}

func TestAskMemoryWindowExcludesCurrentQuestion(t *testing.T) {
	eng := &scriptedEngine{
		columns: []engine.ColumnInfo{{Name: "revenue", SQLType: "DOUBLE"}},
		results: []engine.Result{salesResult(), salesResult()},
	}
	resolver := &fakeResolver{resolveSQL: "SELECT 1"}
	p := &Pipeline{Resolver: resolver, Generator: &fakeGenerator{text: "insight"}}
	session := newTestSession(eng)

	_, err := p.Ask(context.Background(), session, "first question")
	require.NoError(t, err)
	_, err = p.Ask(context.Background(), session, "second question")
	require.NoError(t, err)

	require.Len(t, resolver.resolveCalls, 2)
	assert.NotContains(t, resolver.resolveCalls[1].Memory, "second question")
	assert.Contains(t, resolver.resolveCalls[1].Memory, "first question")
	assert.Contains(t, resolver.resolveCalls[1].Memory, "insight")
}

func TestSummarizeSalesDataset(t *testing.T) {
	eng := &scriptedEngine{
		results: []engine.Result{
			{Columns: []string{"category", "total_revenue"}, Rows: [][]any{{"Kurta", 1000.0}}},
			{Columns: []string{"state", "total_revenue"}, Rows: [][]any{{"MAHARASHTRA", 700.0}}},
			{Columns: []string{"status", "orders", "total_revenue"}, Rows: [][]any{{"Shipped", int64(42), 900.0}}},
		},
	}
	generator := &fakeGenerator{text: "Business is healthy."}
	p := &Pipeline{Generator: generator}
	session := newTestSession(eng)

	summary, err := p.Summarize(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, summary.Blocks, 3)
	assert.Equal(t, "Top Categories", summary.Blocks[0].Title)
	assert.Equal(t, "Business is healthy.", summary.Text)

	require.Len(t, generator.prompts, 1)
	assert.Contains(t, generator.prompts[0], "Top States:")
	assert.Contains(t, generator.prompts[0], "MAHARASHTRA | 700")

	require.Len(t, eng.calls, 3)
	for _, call := range eng.calls {
		assert.Equal(t, summaryBlockRowLimit, call.RowLimit)
	}
}

func TestSummarizeSkipsFailingBlocks(t *testing.T) {
	eng := &scriptedEngine{
		errs: []error{nil, &engine.ExecutionError{Message: "no state column"}, nil},
		results: []engine.Result{
			{Columns: []string{"category", "total_revenue"}, Rows: [][]any{{"Kurta", 1000.0}}},
			{},
			{Columns: []string{"status", "orders", "total_revenue"}, Rows: [][]any{{"Shipped", int64(1), 10.0}}},
		},
	}
	p := &Pipeline{Generator: &fakeGenerator{text: "partial view"}}
	session := newTestSession(eng)

	summary, err := p.Summarize(context.Background(), session)
	require.NoError(t, err)
	require.Len(t, summary.Blocks, 2)
	assert.Equal(t, "Top Categories", summary.Blocks[0].Title)
	assert.Equal(t, "Order Status Split", summary.Blocks[1].Title)
}

func TestSummarizeRejectsGenericDataset(t *testing.T) {
	session := newTestSession(&scriptedEngine{})
	session.DatasetType = dataset.TypeGeneric

	p := &Pipeline{Generator: &fakeGenerator{}}
	_, err := p.Summarize(context.Background(), session)
	require.ErrorIs(t, err, ErrSummaryUnavailable)
}

func TestRegistryLifecycle(t *testing.T) {
	registry := NewRegistry()
	ds := &dataset.Dataset{
		Columns: []dataset.Column{{Name: "revenue", Kind: dataset.KindNumeric}},
		Rows:    [][]any{{1.0}, {2.0}},
		Type:    dataset.TypeSales,
	}
	eng := &scriptedEngine{}

	session := registry.Create(ds, eng)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, 2, session.RowCount)
	assert.Equal(t, dataset.TypeSales, session.DatasetType)

	got, err := registry.Get(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)

	require.NoError(t, registry.Delete(session.ID))
	assert.True(t, eng.closed)

	_, err = registry.Get(session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, registry.Delete(session.ID), ErrSessionNotFound)
}
