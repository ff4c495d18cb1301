package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/insightq/insightq/internal/engine"
	"github.com/insightq/insightq/internal/guard"
	"github.com/insightq/insightq/internal/nl2sql"
	"github.com/insightq/insightq/internal/observability"
)

// Pipeline runs one question through resolution, the safety guard,
// execution with a single self-correction retry, and validation. It owns no
// state of its own; everything session-scoped lives on the Session.
type Pipeline struct {
	Resolver  nl2sql.Resolver
	Generator nl2sql.Generator
	Auditor   *guard.Auditor
	Logger    *slog.Logger
}

type Answer struct {
	SQL      string  `json:"sql"`
	Attempts int     `json:"attempts"`
	Outcome  Outcome `json:"-"`
	Insight  string  `json:"insight,omitempty"`
}

// Ask resolves and answers one question. Any failure is converted to an
// assistant turn before the error is returned, so the failure stays visible
// in later prompt context.
func (p *Pipeline) Ask(ctx context.Context, session *Session, question string) (Answer, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	start := time.Now()
	observability.IncrementQuestion()

	schemaColumns, err := session.Engine.Schema(ctx)
	if err != nil {
		return Answer{}, p.fail(session, fmt.Errorf("introspect schema: %w", err))
	}
	schemaText := engine.FormatSchema(schemaColumns)

	memoryText := session.Memory.Window()
	session.Memory.Append(RoleUser, question)

	p.Auditor.Observe(ctx, "question", question)

	resolved, err := p.Resolver.Resolve(ctx, nl2sql.Request{
		Question: question,
		Schema:   schemaText,
		Memory:   memoryText,
	})
	if err != nil {
		return Answer{}, p.fail(session, err)
	}

	if err := guard.Check(resolved.SQL); err != nil {
		observability.IncrementBlockedQuery()
		session.Memory.Append(RoleAssistant, "Unsafe SQL detected. Query blocked.")
		return Answer{}, err
	}
	p.Auditor.Observe(ctx, "sql", resolved.SQL)

	sqlText := resolved.SQL
	attempts := 1
	result, err := session.Engine.Execute(ctx, engine.Request{SQL: sqlText})
	if err != nil {
		var execErr *engine.ExecutionError
		if !errors.As(err, &execErr) {
			return Answer{}, p.fail(session, err)
		}

		// One refinement attempt, fed the failing statement and the
		// engine's diagnostic verbatim. A second execution failure is
		// terminal.
		observability.IncrementRefinement()
		p.logger().InfoContext(ctx, "query_refinement",
			slog.String("session_id", session.ID),
			slog.String("failed_sql", sqlText),
			slog.String("error", execErr.Message),
		)
		refined, refineErr := p.Resolver.Refine(ctx, nl2sql.RefineRequest{
			Question:  question,
			Schema:    schemaText,
			FailedSQL: sqlText,
			ErrorText: execErr.Message,
		})
		if refineErr != nil {
			return Answer{}, p.fail(session, refineErr)
		}
		if err := guard.Check(refined.SQL); err != nil {
			observability.IncrementBlockedQuery()
			session.Memory.Append(RoleAssistant, "Unsafe SQL detected. Query blocked.")
			return Answer{}, err
		}

		sqlText = refined.SQL
		attempts = 2
		result, err = session.Engine.Execute(ctx, engine.Request{SQL: sqlText})
		if err != nil {
			return Answer{}, p.fail(session, err)
		}
	}

	outcome, err := Validate(&result)
	if err != nil {
		return Answer{}, p.fail(session, err)
	}
	observability.ObserveQuestion(string(outcome.Kind), attempts, time.Since(start))

	answer := Answer{SQL: sqlText, Attempts: attempts, Outcome: outcome}
	switch outcome.Kind {
	case OutcomeEmpty, OutcomeAllNull:
		session.Memory.Append(RoleAssistant, outcome.Warning)
		return answer, nil
	}

	session.setLastResult(outcome.Table)

	preview := RenderTable(outcome.Table, interpretationPreviewRows)
	insight, err := p.Generator.Generate(ctx, nl2sql.BuildInterpretationPrompt(question, preview))
	if err != nil {
		return Answer{}, p.fail(session, err)
	}
	answer.Insight = insight
	session.Memory.Append(RoleAssistant, insight)

	p.logger().InfoContext(ctx, "question_answered",
		slog.String("session_id", session.ID),
		slog.String("outcome", string(outcome.Kind)),
		slog.Int("attempts", attempts),
		slog.Int("rows", len(outcome.Table.Rows)),
		slog.String("duration", time.Since(start).String()),
	)
	return answer, nil
}

// fail records a user-facing failure turn and passes the error through.
func (p *Pipeline) fail(session *Session, err error) error {
	session.Memory.Append(RoleAssistant, fmt.Sprintf("Error occurred while answering: %v", err))
	return err
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
