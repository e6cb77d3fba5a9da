package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/kpi-visualizer/internal/chat"
	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/llm"
)

// SummaryProvider returns the KPI summary the assistant answers from.
type SummaryProvider interface {
	Summary(ctx context.Context, status string) (*domain.KPISummary, error)
}

type ChatService struct {
	summaries SummaryProvider
	provider  llm.Provider
}

func NewChatService(summaries SummaryProvider, provider llm.Provider) *ChatService {
	return &ChatService{summaries: summaries, provider: provider}
}

// Ask answers req from the current summary, streaming the answer through fn.
func (s *ChatService) Ask(ctx context.Context, req domain.ChatRequest, fn func(delta string) error) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, chat.ErrEmptyQuery)
	}

	summary, err := s.summaries.Summary(ctx, req.Status)
	if err != nil {
		return fmt.Errorf("failed to build summary: %w", err)
	}

	messages, err := chat.BuildPrompt(req.Query, req.Status, summary)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	log.Info().
		Str("status", req.Status).
		Int("query_len", len(req.Query)).
		Msg("asking assistant")

	if err := s.provider.Stream(ctx, messages, fn); err != nil {
		return fmt.Errorf("assistant: %w", err)
	}
	return nil
}

// AskAll is Ask with the answer collected into one string.
func (s *ChatService) AskAll(ctx context.Context, req domain.ChatRequest) (string, error) {
	var sb strings.Builder
	err := s.Ask(ctx, req, func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
