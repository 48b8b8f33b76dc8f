package domain

// Frozen JSON schemas for LLM responses. Parsing is strict: any shape
// deviation is treated as ErrSchemaInvalid rather than accessed optimistically.

// GeneratedQuestion is one element of the generation response array.
type GeneratedQuestion struct {
	QuestionText string `json:"question_text" yaml:"question_text"`
	QuestionType string `json:"question_type" yaml:"question_type"`
}

// Evaluation is the per-answer verdict inside a feedback item.
type Evaluation struct {
	Rating      string   `json:"rating"`
	GoodPoints  []string `json:"good_points"`
	Suggestions []string `json:"suggestions"`
}

// QuestionFeedback is one item of the analysis question_feedback array.
// QuestionID must echo the stable identifier presented in the transcript;
// it is the only way feedback can be reassociated with an answer row.
type QuestionFeedback struct {
	QuestionID     string     `json:"question_id"`
	QuestionText   string     `json:"question_text"`
	UserAnswerText *string    `json:"user_answer_text"`
	Evaluation     Evaluation `json:"evaluation"`
}

// OverallFeedback is the session-level feedback block.
type OverallFeedback struct {
	Summary             string   `json:"summary"`
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
}

// AnalysisFeedback is the complete analysis response envelope.
type AnalysisFeedback struct {
	OverallFeedback  *OverallFeedback   `json:"overall_feedback"`
	QuestionFeedback []QuestionFeedback `json:"question_feedback"`
}

// DemoFeedback is the response shape of the unauthenticated demo endpoint.
type DemoFeedback struct {
	Strength       string `json:"strength"`
	Improvement    string `json:"improvement"`
	OverallComment string `json:"overall_comment"`
}

// TranscriptEntry joins a question with the candidate's (possibly absent)
// answer. AnswerID is empty when the question was skipped.
type TranscriptEntry struct {
	QuestionID   string
	QuestionText string
	QuestionType string
	AnswerID     string
	AnswerText   *string
}
