package chat

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/llm"
)

// AllStatuses is shown when no status filter is selected.
const AllStatuses = "All"

var (
	//go:embed system.tmpl
	systemPrompt string

	//go:embed context.tmpl
	contextText string

	contextTemplate = template.Must(template.New("context").Parse(contextText))
)

// ErrEmptyQuery is returned for a blank question.
var ErrEmptyQuery = errors.New("query must not be empty")

type promptVars struct {
	Status string
	Start  string
	End    string
	Query  string
	Data   string
}

// BuildPrompt renders the analyst instructions and the question with its KPI summary.
func BuildPrompt(query, status string, summary *domain.KPISummary) ([]llm.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if summary == nil {
		return nil, errors.New("summary is required")
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}

	if status == "" {
		status = AllStatuses
	}

	var sb strings.Builder
	err = contextTemplate.Execute(&sb, promptVars{
		Status: status,
		Start:  summary.OverallStats.DateRange.Start,
		End:    summary.OverallStats.DateRange.End,
		Query:  query,
		Data:   string(data),
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: sb.String()},
	}, nil
}
