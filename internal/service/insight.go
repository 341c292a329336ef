package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/pinn-product-builder/pinnbai-sub001/common/llm"
	"github.com/pinn-product-builder/pinnbai-sub001/common/logger"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/ddl"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/store"
)

const (
	summaryTopValues = 5
	insightsSchema   = "dataset_insights"
)

const insightsSystemPrompt = `You are a marketing and sales analyst. You receive a statistical summary of one dataset
(row count and per-column statistics) and answer with short, concrete observations a dashboard
user can act on. Only use numbers present in the summary. Prefer 3 to 6 insights.`

type InsightService interface {
	Summary(ctx context.Context, namespace, table string) (*model.DatasetSummary, error)
	Insights(ctx context.Context, namespace, table, question string) (*model.InsightReport, error)
}

type insightService struct {
	datasets store.DatasetStore
	llm      llm.Client
	timeout  time.Duration
}

func NewInsightService(datasets store.DatasetStore, llmClient llm.Client, timeout time.Duration) InsightService {
	return &insightService{
		datasets: datasets,
		llm:      llmClient,
		timeout:  timeout,
	}
}

func (s *insightService) Summary(ctx context.Context, namespace, table string) (*model.DatasetSummary, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}
	if err := ddl.ValidateIdentifier(table); err != nil {
		return nil, &InvalidArgumentError{Field: "datasetName", Reason: err.Error()}
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Namespace: logger.Ptr(namespace),
		Table:     logger.Ptr(table),
		Component: "pinn.service.insight",
	})
	sc := logger.StartSpan(ctx, "dataset.summary", attribute.String("table", table))
	defer sc.End()
	ctx = sc.Context()

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ds, err := s.datasets.Get(ctx, namespace, table)
	if err != nil {
		if store.IsMissing(err) {
			return nil, &NotFoundError{Resource: "dataset", Name: table}
		}
		return nil, err
	}

	columns, err := s.datasets.Summarize(ctx, ds, summaryTopValues)
	if err != nil {
		if store.IsMissing(err) {
			return nil, &NotFoundError{Resource: "dataset table", Name: table}
		}
		sc.RecordError(err)
		return nil, err
	}

	return &model.DatasetSummary{
		TableName:   ds.TableName,
		DisplayName: ds.DisplayName,
		RowCount:    ds.RowCount,
		Columns:     columns,
	}, nil
}

func (s *insightService) Insights(ctx context.Context, namespace, table, question string) (*model.InsightReport, error) {
	if s.llm == nil {
		return nil, ErrInsightsDisabled
	}

	summary, err := s.Summary(ctx, namespace, table)
	if err != nil {
		return nil, err
	}

	digest, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Dataset %q summary:\n%s\n", summary.DisplayName, digest)
	if q := strings.TrimSpace(question); q != "" {
		fmt.Fprintf(&prompt, "\nFocus on this question: %s\n", q)
	}

	req := llm.Request{
		SystemPrompt: insightsSystemPrompt,
		UserPrompt:   prompt.String(),
		SchemaName:   insightsSchema,
		Schema:       llm.GenerateSchema[model.InsightReport](),
		Temperature:  llm.Temp(0.2),
	}

	var report model.InsightReport
	resp, err := s.llm.Chat(ctx, req, &report)
	if err != nil && llm.IsRetryable(ctx, err) {
		resp, err = s.llm.Chat(ctx, req, &report)
	}
	if err != nil {
		return nil, fmt.Errorf("generating insights: %w", err)
	}

	slog.InfoContext(ctx, "insights generated",
		"model", s.llm.Model(),
		"insights", len(report.Insights),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)

	if report.Insights == nil {
		report.Insights = []model.Insight{}
	}
	return &report, nil
}
