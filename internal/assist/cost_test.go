package assist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCost(t *testing.T) {
	tests := []struct {
		name    string
		feature Feature
		req     Request
		want    int
	}{
		{"grammar check", FeatureGrammarCheck, Request{Text: "hello"}, 1},
		{"text to speech", FeatureTextToSpeech, Request{Text: "hello"}, 1},
		{"interview questions by title", FeatureInterviewQuestions, Request{JobTitle: "SRE"}, 1},
		{"networking message", FeatureNetworkingMessage, Request{Text: "met at meetup"}, 1},
		{"task suggestion", FeatureTaskSuggestion, Request{Text: "land a job"}, 1},
		{"resume improve", FeatureResumeImprove, Request{Text: "my resume"}, 5},
		{"resume section", FeatureResumeSectionEnhance, Request{Section: SectionSkills, Text: "Go"}, 1},
		{"cover letter generate", FeatureCoverLetterGenerate, Request{Text: "resume"}, 1},
		{"cover letter improve", FeatureCoverLetterImprove, Request{Text: "letter"}, 1},
		{"feedback per answer", FeatureInterviewFeedback, Request{Answers: []Answer{{Answer: "a"}, {Answer: "b"}, {Answer: "c"}}}, 3},
		{"resume bulk per section", FeatureResumeBulkEnhance, Request{Sections: []SectionInput{
			{Name: SectionSummary, Content: "x"}, {Name: SectionExperience, Content: "y"},
		}}, 2},
		{"cover letter bulk per section", FeatureCoverLetterBulkEnhance, Request{Sections: []SectionInput{
			{Name: SectionOpening, Content: "x"}, {Name: SectionBody, Content: "y"}, {Name: SectionClosing, Content: "z"},
		}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cost(tt.feature, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCost_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		feature Feature
		req     Request
	}{
		{"missing text", FeatureGrammarCheck, Request{}},
		{"no answers", FeatureInterviewFeedback, Request{}},
		{"empty answer", FeatureInterviewFeedback, Request{Answers: []Answer{{Question: "q"}}}},
		{"no sections", FeatureResumeBulkEnhance, Request{}},
		{"letter section on resume", FeatureResumeBulkEnhance, Request{Sections: []SectionInput{{Name: SectionOpening, Content: "x"}}}},
		{"resume section on letter", FeatureCoverLetterBulkEnhance, Request{Sections: []SectionInput{{Name: SectionSkills, Content: "x"}}}},
		{"duplicate section", FeatureResumeBulkEnhance, Request{Sections: []SectionInput{
			{Name: SectionSkills, Content: "x"}, {Name: SectionSkills, Content: "y"},
		}}},
		{"unknown single section", FeatureResumeSectionEnhance, Request{Section: "hobbies", Text: "x"}},
		{"no title or text", FeatureInterviewQuestions, Request{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Cost(tt.feature, tt.req)
			var invalid *InvalidRequestError
			assert.ErrorAs(t, err, &invalid)
		})
	}

	_, err := Cost("poem", Request{Text: "x"})
	assert.ErrorIs(t, err, ErrUnknownFeature)
}

func TestCosts_CoversEveryFeature(t *testing.T) {
	assert.Len(t, Costs(), 12)
	assert.Equal(t, 5, Costs()[FeatureResumeImprove])
}
