package aiservice

import "context"

// QuestionOptions tunes assessment question generation.
type QuestionOptions struct {
	// Attempt lets the service vary question content across retakes.
	Attempt      int
	NumQuestions int
	Language     string
}

// AssessmentQuestion is one generated multiple-choice question.
type AssessmentQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Skill    string   `json:"skill,omitempty"`
}

type questionRequest struct {
	Skills       []string `json:"skills"`
	Attempt      int      `json:"attempt,omitempty"`
	NumQuestions int      `json:"num_questions,omitempty"`
	Language     string   `json:"language,omitempty"`
}

type questionResponse struct {
	Questions []AssessmentQuestion `json:"questions"`
}

// GenerateQuestions asks the service for assessment questions covering the
// given skills. Responses are intentionally not cached upstream so repeated
// attempts see fresh questions.
func (c *Client) GenerateQuestions(ctx context.Context, skills []string, opts *QuestionOptions) ([]AssessmentQuestion, error) {
	req := questionRequest{Skills: skills}
	if opts != nil {
		req.Attempt = opts.Attempt
		req.NumQuestions = opts.NumQuestions
		req.Language = opts.Language
	}

	var resp questionResponse
	if err := c.postJSON(ctx, "/assessment/questions", req, &resp); err != nil {
		return nil, err
	}

	return resp.Questions, nil
}
