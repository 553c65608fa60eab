package services

import (
	"sort"

	"github.com/anjiri1684/learnhub/models"
	"github.com/google/uuid"
)

type AnswerInput struct {
	QuestionID        uuid.UUID `json:"question_id" validate:"required"`
	SelectedOptionIDs []string  `json:"selected_option_ids" validate:"required"`
}

// GradeQuiz scores answers against the quiz's answer key. Every question of
// the quiz appears in the breakdown, in position order; a question without an
// answer is graded incorrect with an empty selection. One mark per question.
func GradeQuiz(quiz models.Quiz, answers []AnswerInput) (int, []models.AnswerDetail) {
	selected := make(map[uuid.UUID][]string, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedOptionIDs
	}

	questions := make([]models.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })

	score := 0
	details := make([]models.AnswerDetail, 0, len(questions))
	for _, q := range questions {
		raw, answered := selected[q.ID]
		sel := normalizeOptionIDs(raw)
		correct := answered && isCorrect(q, sel)
		if correct {
			score++
		}
		details = append(details, models.AnswerDetail{
			QuestionID:        q.ID,
			SelectedOptionIDs: sel,
			IsCorrect:         correct,
		})
	}
	return score, details
}

// normalizeOptionIDs puts UUIDs in canonical lowercase form. Anything that is
// not a UUID is kept as sent and can never match an option.
func normalizeOptionIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if parsed, err := uuid.Parse(id); err == nil {
			out[i] = parsed.String()
		} else {
			out[i] = id
		}
	}
	return out
}

func isCorrect(q models.Question, selected []string) bool {
	var correctIDs []string
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correctIDs = append(correctIDs, opt.ID.String())
		}
	}

	switch q.Type {
	case models.QuestionTypeSingle:
		return len(correctIDs) == 1 && len(selected) == 1 && selected[0] == correctIDs[0]
	case models.QuestionTypeMultiple:
		if len(correctIDs) == 0 {
			return false
		}
		want := make(map[string]struct{}, len(correctIDs))
		for _, id := range correctIDs {
			want[id] = struct{}{}
		}
		got := make(map[string]struct{}, len(selected))
		for _, id := range selected {
			if _, ok := want[id]; !ok {
				return false
			}
			got[id] = struct{}{}
		}
		return len(got) == len(want)
	}
	return false
}
