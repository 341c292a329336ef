package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/openai/openai-go"

	"github.com/pinn-product-builder/pinnbai-sub001/common/llm"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/service"
)

var _ = Describe("InsightService", func() {
	var (
		datasets  *fakeDatasetStore
		llmClient *mockLLMClient
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		datasets = newFakeDatasetStore(testNamespace)
		datasets.catalog[key(testNamespace, "sales")] = &model.Dataset{
			ID:          "ds-1",
			Namespace:   testNamespace,
			TableName:   "sales",
			DisplayName: "Sales",
			RowCount:    42,
			Columns: []model.Column{
				{Name: "region", DataType: model.DataTypeCategory},
				{Name: "amount", DataType: model.DataTypeCurrency},
			},
		}
		llmClient = &mockLLMClient{}
	})

	Describe("Summary", func() {
		It("should summarize every column", func() {
			var topN int
			datasets.summarizeFn = func(_ context.Context, ds *model.Dataset, n int) ([]model.ColumnSummary, error) {
				topN = n
				return []model.ColumnSummary{{Name: "region"}, {Name: "amount"}}, nil
			}
			svc := service.NewInsightService(datasets, nil, 0)

			summary, err := svc.Summary(ctx, testNamespace, "sales")

			Expect(err).NotTo(HaveOccurred())
			Expect(summary.RowCount).To(Equal(int64(42)))
			Expect(summary.Columns).To(HaveLen(2))
			Expect(topN).To(Equal(5))
		})

		It("should return NotFoundError for a missing dataset", func() {
			svc := service.NewInsightService(datasets, nil, 0)

			_, err := svc.Summary(ctx, testNamespace, "ghost")

			var notFound *service.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("should return NotFoundError for a missing namespace", func() {
			svc := service.NewInsightService(datasets, nil, 0)

			_, err := svc.Summary(ctx, "ws_ghost", "sales")

			var notFound *service.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Describe("Insights", func() {
		It("should report ErrInsightsDisabled without an LLM", func() {
			svc := service.NewInsightService(datasets, nil, 0)

			_, err := svc.Insights(ctx, testNamespace, "sales", "")

			Expect(err).To(MatchError(service.ErrInsightsDisabled))
		})

		It("should send the summary and decode the structured answer", func() {
			llmClient.chatFn = func(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
				report := result.(*model.InsightReport)
				report.Headline = "West leads revenue"
				report.Insights = []model.Insight{{Title: "West", Detail: "Largest share", Metric: "amount"}}
				return &llm.Response{PromptTokens: 10, CompletionTokens: 5}, nil
			}
			svc := service.NewInsightService(datasets, llmClient, 0)

			report, err := svc.Insights(ctx, testNamespace, "sales", "Which region sells most?")

			Expect(err).NotTo(HaveOccurred())
			Expect(report.Headline).To(Equal("West leads revenue"))
			Expect(report.Insights).To(HaveLen(1))
			Expect(llmClient.lastReq.SchemaName).To(Equal("dataset_insights"))
			Expect(llmClient.lastReq.Schema).NotTo(BeNil())
			Expect(llmClient.lastReq.UserPrompt).To(ContainSubstring(`"rowCount": 42`))
			Expect(llmClient.lastReq.UserPrompt).To(ContainSubstring("Which region sells most?"))
		})

		It("should return an empty insight list rather than nil", func() {
			svc := service.NewInsightService(datasets, llmClient, 0)

			report, err := svc.Insights(ctx, testNamespace, "sales", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(report.Insights).NotTo(BeNil())
		})

		It("should retry once on a retryable error", func() {
			llmClient.chatFn = func(context.Context, llm.Request, any) (*llm.Response, error) {
				if llmClient.chatCalls == 1 {
					return nil, &openai.Error{StatusCode: 503}
				}
				return &llm.Response{}, nil
			}
			svc := service.NewInsightService(datasets, llmClient, 0)

			_, err := svc.Insights(ctx, testNamespace, "sales", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(llmClient.chatCalls).To(Equal(2))
		})

		It("should not retry other errors", func() {
			llmClient.chatFn = func(context.Context, llm.Request, any) (*llm.Response, error) {
				return nil, errors.New("bad schema")
			}
			svc := service.NewInsightService(datasets, llmClient, 0)

			_, err := svc.Insights(ctx, testNamespace, "sales", "")

			Expect(err).To(HaveOccurred())
			Expect(llmClient.chatCalls).To(Equal(1))
		})
	})
})
