package llm_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/openai/openai-go"

	"github.com/pinn-product-builder/pinnbai-sub001/common/llm"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/model"
)

var _ = Describe("New", func() {
	It("reports ErrDisabled without an API key", func() {
		c, err := llm.New(llm.Config{})
		Expect(err).To(MatchError(llm.ErrDisabled))
		Expect(c).To(BeNil())
	})

	It("defaults the model", func() {
		c, err := llm.New(llm.Config{APIKey: "sk-test"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Model()).To(Equal("gpt-4o-mini"))
	})
})

var _ = Describe("GenerateSchema", func() {
	It("inlines the insight report with every field required", func() {
		schema, ok := llm.GenerateSchema[model.InsightReport]().(*jsonschema.Schema)
		Expect(ok).To(BeTrue())
		Expect(schema.Ref).To(BeEmpty())
		Expect(schema.Required).To(ConsistOf("headline", "insights"))

		insights, ok := schema.Properties.Get("insights")
		Expect(ok).To(BeTrue())
		Expect(insights.Items).NotTo(BeNil())
		Expect(insights.Items.Required).To(ConsistOf("title", "detail", "metric"))
	})
})

var _ = Describe("IsRetryable", func() {
	ctx := context.Background()

	DescribeTable("classifies errors",
		func(err error, expected bool) {
			Expect(llm.IsRetryable(ctx, err)).To(Equal(expected))
		},
		Entry("nil", nil, false),
		Entry("cancelled", fmt.Errorf("chat: %w", context.Canceled), false),
		Entry("deadline", context.DeadlineExceeded, false),
		Entry("rate limited", &openai.Error{StatusCode: 429}, true),
		Entry("server error", &openai.Error{StatusCode: 503}, true),
		Entry("bad request", &openai.Error{StatusCode: 400}, false),
		Entry("network", errors.New("connection reset"), true),
	)
})
