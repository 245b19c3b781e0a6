package assist

import (
	"errors"
	"fmt"
	"net/http"

	"cvcraft/internal/api"
	"cvcraft/internal/credits"
)

// Feature is a paid AI action. The set is closed; every call site has a fixed cost rule.
type Feature string

const (
	FeatureGrammarCheck           Feature = "grammar_check"
	FeatureTextToSpeech           Feature = "text_to_speech"
	FeatureInterviewQuestions     Feature = "interview_questions"
	FeatureInterviewFeedback      Feature = "interview_feedback"
	FeatureNetworkingMessage      Feature = "networking_message"
	FeatureTaskSuggestion         Feature = "task_suggestion"
	FeatureResumeSectionEnhance   Feature = "resume_section_enhance"
	FeatureResumeImprove          Feature = "resume_improve"
	FeatureResumeBulkEnhance      Feature = "resume_bulk_enhance"
	FeatureCoverLetterGenerate    Feature = "cover_letter_generate"
	FeatureCoverLetterImprove     Feature = "cover_letter_improve"
	FeatureCoverLetterBulkEnhance Feature = "cover_letter_bulk_enhance"
)

// Flat per-call costs. Batch features cost one credit per item.
var flatCosts = map[Feature]int{
	FeatureGrammarCheck:         1,
	FeatureTextToSpeech:         1,
	FeatureInterviewQuestions:   1,
	FeatureNetworkingMessage:    1,
	FeatureTaskSuggestion:       1,
	FeatureResumeSectionEnhance: 1,
	FeatureResumeImprove:        5,
	FeatureCoverLetterGenerate:  1,
	FeatureCoverLetterImprove:   1,
}

type Section string

const (
	SectionSummary        Section = "summary"
	SectionExperience     Section = "experience"
	SectionEducation      Section = "education"
	SectionSkills         Section = "skills"
	SectionProjects       Section = "projects"
	SectionCertifications Section = "certifications"
	SectionLanguages      Section = "languages"

	SectionOpening Section = "opening"
	SectionBody    Section = "body"
	SectionClosing Section = "closing"
)

var resumeSections = map[Section]bool{
	SectionSummary: true, SectionExperience: true, SectionEducation: true, SectionSkills: true,
	SectionProjects: true, SectionCertifications: true, SectionLanguages: true,
}

var coverLetterSections = map[Section]bool{
	SectionOpening: true, SectionBody: true, SectionClosing: true,
}

var (
	ErrUnknownFeature      = errors.New("unknown AI feature")
	ErrProviderUnavailable = errors.New("AI provider is not configured")
)

type SectionInput struct {
	Name    Section `json:"name"`
	Content string  `json:"content"`
}

type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Request carries the inputs of every feature; each feature reads the fields it needs.
type Request struct {
	Text     string         `json:"text" binding:"max=20000"`
	Section  Section        `json:"section"`
	Sections []SectionInput `json:"sections" binding:"max=10"`
	Answers  []Answer       `json:"answers" binding:"max=20"`
	JobTitle string         `json:"job_title" binding:"max=200"`
	Company  string         `json:"company" binding:"max=200"`
	Language string         `json:"language" binding:"max=10"`
}

// Result is one charged AI call. Batch features fill Sections instead of Output.
type Result struct {
	Feature  Feature            `json:"feature"`
	Output   string             `json:"output,omitempty"`
	Sections map[string]string  `json:"sections,omitempty"`
	Credits  *credits.Deduction `json:"credits"`
}

// InvalidRequestError rejects a request before anything is charged.
type InvalidRequestError struct {
	Feature Feature
	Reason  string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid %s request: %s", e.Feature, e.Reason)
}

func (e *InvalidRequestError) StatusCode() int { return http.StatusBadRequest }

func (e *InvalidRequestError) Payload() interface{} {
	return api.ErrorResponse{Error: e.Error()}
}

// ProviderError is returned when the provider fails after credits were taken.
type ProviderError struct {
	Feature Feature
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("AI provider failed for %s: %v", e.Feature, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) StatusCode() int { return http.StatusBadGateway }

func (e *ProviderError) Payload() interface{} {
	return api.ErrorResponse{Error: "AI service is temporarily unavailable, please try again later"}
}
