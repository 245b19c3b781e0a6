package assist

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a career assistant helping job seekers write resumes, cover letters " +
	"and professional messages. Answer with the requested text only, without preamble."

// task is one provider call; key names its slot in Result.Sections.
type task struct {
	key    string
	prompt string
}

var sectionGuidance = map[Section]string{
	SectionSummary:        "Write a concise professional summary of 3 to 4 sentences that highlights key strengths and career goals.",
	SectionExperience:     "Rewrite each role as achievement-focused bullet points with strong action verbs and measurable results.",
	SectionEducation:      "Present degrees, institutions and dates clearly; mention relevant coursework or honors only if present.",
	SectionSkills:         "Group the skills into clear categories and remove duplicates.",
	SectionProjects:       "Describe each project with its goal, the technologies used and the outcome.",
	SectionCertifications: "List each certification with issuer and year in a consistent format.",
	SectionLanguages:      "List each language with a standard proficiency level.",
	SectionOpening:        "Write an engaging opening paragraph that names the role and shows genuine interest in the company.",
	SectionBody:           "Connect the candidate's experience to the role's requirements with concrete examples.",
	SectionClosing:        "Write a confident closing paragraph with a clear call to action.",
}

func enhanceSection(kind string, s Section, content string) string {
	return fmt.Sprintf("Improve the %s section of a %s. %s\n\nCurrent content:\n%s",
		s, kind, sectionGuidance[s], content)
}

func language(req Request) string {
	if req.Language == "" {
		return "en"
	}
	return req.Language
}

// buildTasks expands a validated request into provider calls.
func buildTasks(f Feature, req Request) []task {
	switch f {
	case FeatureGrammarCheck:
		return []task{{key: "output", prompt: fmt.Sprintf(
			"Correct grammar, spelling and punctuation in the following text (language: %s). "+
				"Keep the meaning and tone.\n\n%s", language(req), req.Text)}}

	case FeatureTextToSpeech:
		return []task{{key: "output", prompt: "Rewrite the following text so it reads naturally when spoken aloud. " +
			"Expand abbreviations and remove formatting.\n\n" + req.Text}}

	case FeatureInterviewQuestions:
		return []task{{key: "output", prompt: fmt.Sprintf(
			"Suggest 10 interview questions for a %s position%s. Mix behavioural and technical questions.\n\n%s",
			orDefault(req.JobTitle, "professional"), atCompany(req.Company), req.Text)}}

	case FeatureInterviewFeedback:
		tasks := make([]task, 0, len(req.Answers))
		for i, a := range req.Answers {
			tasks = append(tasks, task{key: fmt.Sprintf("answer_%d", i+1), prompt: fmt.Sprintf(
				"Give constructive feedback on this interview answer for a %s role. Point out strengths, "+
					"weaknesses and one concrete improvement.\n\nQuestion: %s\nAnswer: %s",
				orDefault(req.JobTitle, "professional"), a.Question, a.Answer)})
		}
		return tasks

	case FeatureNetworkingMessage:
		return []task{{key: "output", prompt: fmt.Sprintf(
			"Write a short, friendly professional networking message%s based on these notes:\n\n%s",
			atCompany(req.Company), req.Text)}}

	case FeatureTaskSuggestion:
		return []task{{key: "output", prompt: "Break the following job-search goal into 5 concrete, " +
			"actionable tasks with a suggested order.\n\n" + req.Text}}

	case FeatureResumeSectionEnhance:
		return []task{{key: string(req.Section), prompt: enhanceSection("resume", req.Section, req.Text)}}

	case FeatureResumeImprove:
		return []task{{key: "output", prompt: "Review and improve this entire resume for clarity, impact " +
			"and ATS compatibility. Return the improved resume.\n\n" + req.Text}}

	case FeatureResumeBulkEnhance:
		return sectionTasks("resume", req.Sections)

	case FeatureCoverLetterGenerate:
		return []task{{key: "output", prompt: fmt.Sprintf(
			"Write a tailored cover letter for the %s position%s using this resume:\n\n%s",
			orDefault(req.JobTitle, "advertised"), atCompany(req.Company), req.Text)}}

	case FeatureCoverLetterImprove:
		return []task{{key: "output", prompt: "Improve the following cover letter. Keep it under one page " +
			"and keep the candidate's voice.\n\n" + req.Text}}

	case FeatureCoverLetterBulkEnhance:
		return sectionTasks("cover letter", req.Sections)
	}
	return nil
}

func sectionTasks(kind string, sections []SectionInput) []task {
	tasks := make([]task, 0, len(sections))
	for _, s := range sections {
		tasks = append(tasks, task{key: string(s.Name), prompt: enhanceSection(kind, s.Name, s.Content)})
	}
	return tasks
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func atCompany(company string) string {
	if company == "" {
		return ""
	}
	return " at " + company
}

func singleOutput(f Feature) bool {
	switch f {
	case FeatureInterviewFeedback, FeatureResumeBulkEnhance, FeatureCoverLetterBulkEnhance, FeatureResumeSectionEnhance:
		return false
	}
	return true
}
