package llm_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"dealerops.dev/storyline/common/llm"
)

var _ = Describe("ResolveModel", func() {
	DescribeTable("validates client-requested model identifiers",
		func(requested, expected string) {
			Expect(llm.ResolveModel(requested, "gpt-4.1")).To(Equal(expected))
		},
		Entry("simple name accepted", "gpt-4o-mini", "gpt-4o-mini"),
		Entry("dots and colons accepted", "ft:gpt-4.1:dealerops:ro-stories", "ft:gpt-4.1:dealerops:ro-stories"),
		Entry("underscores accepted", "story_model_2", "story_model_2"),
		Entry("surrounding whitespace trimmed", "  gpt-4.1  ", "gpt-4.1"),
		Entry("empty falls back", "", "gpt-4.1"),
		Entry("whitespace only falls back", "   ", "gpt-4.1"),
		Entry("leading hyphen rejected", "-gpt", "gpt-4.1"),
		Entry("leading dot rejected", ".hidden", "gpt-4.1"),
		Entry("slash rejected", "openai/gpt-4.1", "gpt-4.1"),
		Entry("embedded space rejected", "gpt 4", "gpt-4.1"),
		Entry("single character rejected", "g", "gpt-4.1"),
		Entry("64 characters accepted", "m"+strings.Repeat("x", 63), "m"+strings.Repeat("x", 63)),
		Entry("65 characters rejected", "m"+strings.Repeat("x", 64), "gpt-4.1"),
	)
})
