package aiservice

import "context"

// GraduateProfile is the profile summary sent for feedback generation.
type GraduateProfile struct {
	Skills     []string `json:"skills"`
	Education  string   `json:"education,omitempty"`
	Experience string   `json:"experience,omitempty"`
}

// JobRequirements is the posting summary sent for feedback generation.
type JobRequirements struct {
	Skills     []string `json:"skills"`
	Education  string   `json:"education,omitempty"`
	Experience string   `json:"experience,omitempty"`
}

// FeedbackOptions tunes feedback generation. All fields are optional.
type FeedbackOptions struct {
	Language          string            `json:"language,omitempty"`
	AdditionalContext string            `json:"additional_context,omitempty"`
	TemplateOverrides map[string]string `json:"template_overrides,omitempty"`
}

// Feedback is the structured gap analysis returned by the service.
type Feedback struct {
	Feedback        string   `json:"feedback"`
	SkillGaps       []string `json:"skillGaps"`
	Recommendations []string `json:"recommendations"`
}

type feedbackRequest struct {
	GraduateProfile   GraduateProfile   `json:"graduate_profile"`
	JobRequirements   JobRequirements   `json:"job_requirements"`
	Language          string            `json:"language,omitempty"`
	AdditionalContext string            `json:"additional_context,omitempty"`
	TemplateOverrides map[string]string `json:"template_overrides,omitempty"`
}

// GenerateFeedback asks the service for a skill gap analysis of the graduate
// against the job requirements.
func (c *Client) GenerateFeedback(ctx context.Context, profile GraduateProfile, requirements JobRequirements, opts *FeedbackOptions) (*Feedback, error) {
	req := feedbackRequest{
		GraduateProfile: profile,
		JobRequirements: requirements,
	}
	if opts != nil {
		req.Language = opts.Language
		req.AdditionalContext = opts.AdditionalContext
		req.TemplateOverrides = opts.TemplateOverrides
	}

	var resp Feedback
	if err := c.postJSON(ctx, "/feedback", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
