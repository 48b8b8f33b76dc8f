package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// Generation parameters per call site. The model is shared; temperature and
// output budget differ by task.
const (
	questionsTemperature = 0.7
	questionsMaxTokens   = 2048
	analysisTemperature  = 0.5
	analysisMaxTokens    = 4096
	demoTemperature      = 0.6
	demoMaxTokens        = 512
)

// transcriptIDLabel marks the stable question identifier inside the analysis
// transcript. The model is instructed to echo this exact value back; it is the
// only key feedback items can be matched on.
const transcriptIDLabel = "INTERNAL_QUESTION_UUID"

func topicMentionsCoding(topic string) bool {
	t := strings.ToLower(topic)
	return strings.Contains(t, "data structures") || strings.Contains(t, "coding") || strings.Contains(t, "dsa")
}

// buildQuestionPrompt composes the generation prompt. The explicit topic
// outranks profile hints; the profile only tailors, never overrides.
func buildQuestionPrompt(topic string, profile *domain.CandidateProfile, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert interviewer. Generate %d interview questions suitable for a practice session.\n", n)
	b.WriteString("If generating a coding question, specify its \"question_type\" as \"coding_exercise\" or \"technical_coding_concept\".\n")
	b.WriteString("The coding question should be solvable within a typical interview timeframe (15-30 minutes of thought and coding).\n")
	b.WriteString("For coding questions, provide only the problem statement. Do not provide the solution or hints in the question_text.\n\n")

	topic = strings.TrimSpace(topic)
	if topic != "" {
		fmt.Fprintf(&b, "The interview topic is %q. ", topic)
		lower := strings.ToLower(topic)
		switch {
		case strings.Contains(lower, "data structures") || strings.Contains(lower, "dsa"):
			b.WriteString("Focus heavily on data structures and algorithms questions, including coding exercises related to them. ")
		case strings.Contains(lower, "system design"):
			b.WriteString("Focus on system design principles, trade-offs, and designing scalable systems. ")
		}
	} else {
		b.WriteString("The interview is for general tech practice. ")
	}
	b.WriteString("\n")

	if profile != nil && profile.ProfileComplete {
		b.WriteString("Consider the following candidate profile for tailoring the questions:\n")
		if profile.YearsOfExperience > 0 {
			fmt.Fprintf(&b, "- Years of Experience: %d\n", profile.YearsOfExperience)
		}
		if profile.PrimaryTechStack != "" {
			fmt.Fprintf(&b, "- Primary Tech Stack: %s\n", profile.PrimaryTechStack)
		}
		if len(profile.ProgrammingLanguages) > 0 {
			fmt.Fprintf(&b, "- Programming Languages: %s (Consider these for coding questions if applicable)\n", strings.Join(profile.ProgrammingLanguages, ", "))
		}
		if len(profile.Technologies) > 0 {
			fmt.Fprintf(&b, "- Technologies/Frameworks: %s\n", strings.Join(profile.Technologies, ", "))
		}
		if len(profile.TargetRoles) > 0 {
			fmt.Fprintf(&b, "- Target Roles: %s\n", strings.Join(profile.TargetRoles, ", "))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("The candidate has not provided detailed profile information, so lean towards more general questions related to the topic if provided, or general tech questions otherwise. Still try to include one general coding question.\n")
	}

	if topicMentionsCoding(topic) {
		fmt.Fprintf(&b, "Ensure at least two questions are practical coding exercises related to %s. ", topic)
	} else {
		b.WriteString("Ensure at least one question is a practical coding question or a conceptual question requiring code examples, if the topic or profile allows. ")
	}

	b.WriteString("The questions should cover a mix of types.\n")
	b.WriteString("Question types can include: behavioral, technical_problem_solving, system_design, coding_exercise, technical_coding_concept, domain_specific_knowledge, situational.\n\n")
	b.WriteString("Format the output as a JSON array of objects, where each object has \"question_text\" and \"question_type\" keys.\n")
	b.WriteString("Example for a coding question:\n")
	b.WriteString(`{"question_text": "Given an array of integers, write a function to find the pair of numbers that sum up to a specific target. What is its time complexity?", "question_type": "coding_exercise"}` + "\n\n")
	fmt.Fprintf(&b, "Generate exactly %d questions. Ensure the output is valid JSON.", n)
	return b.String()
}

// buildAnalysisPrompt composes the analysis prompt over the transcript. Each
// question carries its stable identifier and the model is told, repeatedly,
// to echo it back verbatim.
func buildAnalysisPrompt(topic string, profile *domain.CandidateProfile, transcript []domain.TranscriptEntry) string {
	var b strings.Builder
	b.WriteString("You are an expert interview coach providing feedback on a practice interview session.\n")
	fmt.Fprintf(&b, "The candidate has just completed a session. Below are the questions asked (each with a unique %q) and the candidate's answers.\n", transcriptIDLabel)
	b.WriteString("Provide an overall summary of the performance, then for each question where an answer was provided, give:\n")
	b.WriteString("1. A brief evaluation of the answer.\n")
	b.WriteString("2. Specific, actionable suggestions for improvement.\n")
	b.WriteString("3. Highlight good points or strengths in the answer.\n\n")

	if strings.TrimSpace(topic) == "" {
		topic = "General Tech Practice"
	}
	fmt.Fprintf(&b, "Session Topic: %s\n", topic)

	if profile != nil && profile.ProfileComplete {
		b.WriteString("\nCandidate Profile (for context):\n")
		if profile.PrimaryTechStack != "" {
			fmt.Fprintf(&b, "- Tech Stack: %s\n", profile.PrimaryTechStack)
		}
		if profile.YearsOfExperience > 0 {
			fmt.Fprintf(&b, "- Experience: %d years\n", profile.YearsOfExperience)
		}
		if len(profile.TargetRoles) > 0 {
			fmt.Fprintf(&b, "- Target Roles: %s\n", strings.Join(profile.TargetRoles, ", "))
		}
	}

	b.WriteString("\n--- Interview Transcript ---\n")
	for i, e := range transcript {
		fmt.Fprintf(&b, "\n%s: %s\n", transcriptIDLabel, e.QuestionID)
		fmt.Fprintf(&b, "Question %d (Type: %s): %s\n", i+1, e.QuestionType, e.QuestionText)
		if e.AnswerText != nil && *e.AnswerText != "" {
			fmt.Fprintf(&b, "Candidate's Answer: %s\n", *e.AnswerText)
		} else {
			b.WriteString("Candidate's Answer: (No answer provided)\n")
		}
	}

	b.WriteString("\n--- End of Transcript ---\n\n")
	b.WriteString("Please structure your feedback clearly.\n")
	b.WriteString("For the overall feedback, provide a summary, strengths, and areas for improvement.\n")
	b.WriteString("For each question-answer pair, provide the feedback within an \"evaluation\" object.\n\n")
	b.WriteString("Format the entire output as a single valid JSON object.\n")
	b.WriteString("The main JSON object should have a key \"overall_feedback\" (with \"summary\", \"strengths\", \"areas_for_improvement\" sub-keys)\n")
	b.WriteString("and a key \"question_feedback\" which is an array of objects.\n\n")
	b.WriteString("Each object in the \"question_feedback\" array MUST correspond to a question from the transcript and MUST include:\n")
	fmt.Fprintf(&b, "1. \"question_id\": This MUST be the exact %q value provided for that question in the transcript above. Do not create a new ID or use the question type. Use the provided UUID.\n", transcriptIDLabel)
	b.WriteString("2. \"question_text\": (The original question text from the transcript)\n")
	b.WriteString("3. \"user_answer_text\": (The user's answer text from the transcript, or null if no answer was provided)\n")
	b.WriteString("4. \"evaluation\": {\n")
	b.WriteString("    \"rating\": \"A brief qualitative rating (e.g., Excellent, Good, Needs Improvement, Fair, Poor)\",\n")
	b.WriteString("    \"good_points\": [\"A bullet point of what was done well.\", \"Another good point.\"],\n")
	b.WriteString("    \"suggestions\": [\"A specific suggestion for improvement.\", \"Another suggestion.\"]\n")
	b.WriteString("   }\n\n")
	b.WriteString("Provide feedback even if some answers are missing or brief.\n")
	return b.String()
}

// buildDemoPrompt composes the one-shot feedback prompt for the public demo.
func buildDemoPrompt(question, answer string) string {
	var b strings.Builder
	b.WriteString("You are an interview coach. The user was asked the following interview question:\n")
	fmt.Fprintf(&b, "Question: %q\n\n", question)
	b.WriteString("The user provided this answer:\n")
	fmt.Fprintf(&b, "Answer: %q\n\n", answer)
	b.WriteString("Please provide brief, constructive feedback on the user's answer. Focus on:\n")
	b.WriteString("1. Clarity and conciseness of the answer.\n")
	b.WriteString("2. Relevance to the question.\n")
	b.WriteString("3. One key strength.\n")
	b.WriteString("4. One specific area for improvement.\n\n")
	b.WriteString("Keep the feedback concise, suitable for a quick demo.\n")
	b.WriteString("Format your feedback as a JSON object with keys \"strength\", \"improvement\", and \"overall_comment\".\n")
	b.WriteString("Ensure the output is valid JSON.")
	return b.String()
}
