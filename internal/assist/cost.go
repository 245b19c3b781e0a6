package assist

// Cost validates req for f and returns the credits the call will take.
func Cost(f Feature, req Request) (int, error) {
	invalid := func(reason string) error { return &InvalidRequestError{Feature: f, Reason: reason} }

	switch f {
	case FeatureInterviewFeedback:
		if len(req.Answers) == 0 {
			return 0, invalid("at least one answer is required")
		}
		for _, a := range req.Answers {
			if a.Answer == "" {
				return 0, invalid("answers must not be empty")
			}
		}
		return len(req.Answers), nil

	case FeatureResumeBulkEnhance:
		return sectionBatch(req.Sections, resumeSections, invalid)

	case FeatureCoverLetterBulkEnhance:
		return sectionBatch(req.Sections, coverLetterSections, invalid)

	case FeatureResumeSectionEnhance:
		if !resumeSections[req.Section] {
			return 0, invalid("unknown resume section " + string(req.Section))
		}
	case FeatureInterviewQuestions:
		if req.Text == "" && req.JobTitle == "" {
			return 0, invalid("job_title or text is required")
		}
		return flatCosts[f], nil
	}

	cost, ok := flatCosts[f]
	if !ok {
		return 0, ErrUnknownFeature
	}
	if req.Text == "" {
		return 0, invalid("text is required")
	}
	return cost, nil
}

func sectionBatch(sections []SectionInput, allowed map[Section]bool, invalid func(string) error) (int, error) {
	if len(sections) == 0 {
		return 0, invalid("at least one section is required")
	}
	seen := make(map[Section]bool, len(sections))
	for _, s := range sections {
		if !allowed[s.Name] {
			return 0, invalid("unknown section " + string(s.Name))
		}
		if seen[s.Name] {
			return 0, invalid("duplicate section " + string(s.Name))
		}
		if s.Content == "" {
			return 0, invalid("section " + string(s.Name) + " is empty")
		}
		seen[s.Name] = true
	}
	return len(sections), nil
}
