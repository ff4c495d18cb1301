package nl2sql

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a senior retail data analyst who writes accurate SQL and business insights."

const sqlRules = `You are a senior data analyst.

Your task is to convert the user's question into a valid DuckDB SQL query.

Context:
- Table name: sales
- The table schema will be provided as SCHEMA.
- The dataset may represent sales, inventory, expenses, pricing, or other business data.

STRICT RULES (must follow):
- Return ONLY the SQL query text.
- DO NOT include Markdown, backticks, comments, or explanations.
- Do NOT use ORDER BY on text columns to answer questions about cost, price, or expense.
- Use ONLY column names explicitly listed in SCHEMA.
- NEVER invent column names (e.g., name, value, item, cost, amount if not present).
- NEVER use DROP, DELETE, UPDATE, INSERT, ALTER, or TRUNCATE.
- Use aggregate functions ONLY on columns that are clearly numeric in SCHEMA.
- DO NOT cast text columns to numeric types.
- DO NOT assume currency, units, or time dimensions unless explicitly present.
- If the question requires a numeric aggregation but no suitable numeric column exists,
  return:
  SELECT * FROM sales WHERE 1=0

GUIDELINES:
- For totals, use SUM on an existing numeric column.
- For counts, use COUNT(*) unless a specific identifier column exists.
- For top-N questions, use ORDER BY with LIMIT.
- For grouping, include only columns present in SCHEMA.
- Prefer simple, readable SQL.
- If the dataset does not support the question, return an empty result as described above.`

// SummaryPrompt frames the executive summary pass over pre-aggregated blocks.
const SummaryPrompt = `You are an executive business analyst.

You will be given aggregated outputs derived from business datasets.
Your task is to produce a concise, executive-level summary.

Rules:
- Base insights strictly on the provided data.
- Do NOT assume missing information.
- Do NOT hallucinate trends, growth, or causation.
- Clearly call out data limitations when present.
- Highlight key patterns, concentrations, and risks.
- Provide 2-4 actionable recommendations only when supported by data.

Tone:
- Professional
- Business-focused
- Non-technical`

func buildResolvePrompt(req Request) string {
	var builder strings.Builder
	builder.WriteString(sqlRules)
	builder.WriteString("\n\nSCHEMA:\n")
	builder.WriteString(req.Schema)
	builder.WriteString("\n\nConversation Context (optional):\n")
	builder.WriteString(req.Memory)
	builder.WriteString("\n\nUSER QUESTION:\n")
	builder.WriteString(req.Question)
	builder.WriteString("\n\nReturn ONLY SQL.")
	return builder.String()
}

func buildRefinePrompt(req RefineRequest) string {
	var builder strings.Builder
	builder.WriteString("The SQL query failed.\n\nFAILED SQL:\n")
	builder.WriteString(req.FailedSQL)
	builder.WriteString("\n\nERROR:\n")
	builder.WriteString(req.ErrorText)
	builder.WriteString("\n\nFix the SQL for the user question:\n")
	builder.WriteString(req.Question)
	builder.WriteString("\n\nUse ONLY this schema:\n")
	builder.WriteString(req.Schema)
	builder.WriteString("\n\nReturn ONLY corrected SQL.")
	return builder.String()
}

// BuildInterpretationPrompt asks for a business-friendly phrasing of a
// validated result table rendered as plain text.
func BuildInterpretationPrompt(question, table string) string {
	return fmt.Sprintf(
		"Convert the following table into a short business-friendly answer:\n\nQuestion: %s\nResult table:\n%s",
		question, table)
}
