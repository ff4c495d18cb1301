package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/insightq/insightq/internal/dataset"
	"github.com/insightq/insightq/internal/engine"
	"github.com/insightq/insightq/internal/nl2sql"
)

// ErrSummaryUnavailable is returned for datasets the classifier did not
// label as sales; the fixed aggregate blocks assume canonical sales columns.
var ErrSummaryUnavailable = errors.New("executive summary requires a sales dataset")

type SummaryBlock struct {
	Title string        `json:"title"`
	Table engine.Result `json:"table"`
}

type Summary struct {
	Blocks []SummaryBlock `json:"blocks"`
	Text   string         `json:"text"`
}

// summaryBlockRowLimit caps each aggregate block at the engine. The queries
// carry their own LIMITs, but the status split does not and a high-cardinality
// status column would otherwise flood the summary prompt.
const summaryBlockRowLimit = 25

var summaryQueries = []struct {
	title string
	sql   string
}{
	{
		title: "Top Categories",
		sql: `SELECT category, SUM(revenue) AS total_revenue
FROM sales
WHERE revenue IS NOT NULL
GROUP BY category
ORDER BY total_revenue DESC
LIMIT 10`,
	},
	{
		title: "Top States",
		sql: `SELECT state, SUM(revenue) AS total_revenue
FROM sales
WHERE revenue IS NOT NULL AND state IS NOT NULL
GROUP BY state
ORDER BY total_revenue DESC
LIMIT 10`,
	},
	{
		title: "Order Status Split",
		sql: `SELECT status, COUNT(*) AS orders, SUM(revenue) AS total_revenue
FROM sales
GROUP BY status
ORDER BY orders DESC`,
	},
}

// Summarize runs the fixed aggregate blocks and asks the model for an
// executive-level reading of them. Blocks whose columns are missing from
// this particular dataset are skipped rather than failing the whole summary.
func (p *Pipeline) Summarize(ctx context.Context, session *Session) (Summary, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.DatasetType != dataset.TypeSales {
		return Summary{}, ErrSummaryUnavailable
	}

	summary := Summary{}
	var rendered []string
	for _, block := range summaryQueries {
		result, err := session.Engine.Execute(ctx, engine.Request{SQL: block.sql, RowLimit: summaryBlockRowLimit})
		if err != nil {
			continue
		}
		summary.Blocks = append(summary.Blocks, SummaryBlock{Title: block.title, Table: result})
		rendered = append(rendered, block.title+":\n"+RenderTable(result, 0))
	}
	if len(summary.Blocks) == 0 {
		return Summary{}, ErrSummaryUnavailable
	}

	text, err := p.Generator.Generate(ctx, nl2sql.SummaryPrompt+"\n\n"+strings.Join(rendered, "\n\n"))
	if err != nil {
		return Summary{}, err
	}
	summary.Text = text
	return summary, nil
}
