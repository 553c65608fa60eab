package services

import (
	"context"
	"sync"
	"testing"

	"github.com/anjiri1684/learnhub/database/dbtest"
	"github.com/anjiri1684/learnhub/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizService_SubmitScoresScenario(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewQuizService(db, notifier)
	ctx := context.Background()

	instructor := seedUser(t, db, models.RoleInstructor)
	quiz := seedTwoQuestionQuiz(t, db, seedCourse(t, db, instructor, 0, 1))
	q1, q2 := quiz.Questions[0], quiz.Questions[1]

	full := enrolledStudent(t, db, quiz)
	res, err := svc.Submit(ctx, quiz.ID, full.ID, []AnswerInput{
		{QuestionID: q1.ID, SelectedOptionIDs: []string{optionID(t, quiz, 0, "A")}},
		{QuestionID: q2.ID, SelectedOptionIDs: []string{optionID(t, quiz, 1, "B"), optionID(t, quiz, 1, "C")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 2, res.TotalMarks)

	partial := enrolledStudent(t, db, quiz)
	res, err = svc.Submit(ctx, quiz.ID, partial.ID, []AnswerInput{
		{QuestionID: q1.ID, SelectedOptionIDs: []string{optionID(t, quiz, 0, "A")}},
		{QuestionID: q2.ID, SelectedOptionIDs: []string{optionID(t, quiz, 1, "B")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	require.Len(t, res.Submission.Answers, 2)
	assert.True(t, res.Submission.Answers[0].IsCorrect)
	assert.False(t, res.Submission.Answers[1].IsCorrect)

	assert.Equal(t, 2, notifier.count(EventQuizGraded))
}

func TestQuizService_SubmitPartialAnswersListsEveryQuestion(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	svc := NewQuizService(db, nil)

	quiz := seedTwoQuestionQuiz(t, db, seedCourse(t, db, seedUser(t, db, models.RoleInstructor), 0, 1))
	student := enrolledStudent(t, db, quiz)

	res, err := svc.Submit(context.Background(), quiz.ID, student.ID, []AnswerInput{
		{QuestionID: quiz.Questions[1].ID, SelectedOptionIDs: []string{}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	require.Len(t, res.Submission.Answers, 2)
	assert.Equal(t, quiz.Questions[0].ID, res.Submission.Answers[0].QuestionID)
	assert.Empty(t, res.Submission.Answers[0].SelectedOptionIDs)
}

func TestQuizService_SubmitValidation(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	svc := NewQuizService(db, nil)
	ctx := context.Background()

	quiz := seedTwoQuestionQuiz(t, db, seedCourse(t, db, seedUser(t, db, models.RoleInstructor), 0, 1))
	student := enrolledStudent(t, db, quiz)
	q1 := quiz.Questions[0].ID

	tests := []struct {
		name    string
		quizID  uuid.UUID
		answers []AnswerInput
		kind    ErrorKind
	}{
		{"empty answers", quiz.ID, []AnswerInput{}, KindValidation},
		{"missing question id", quiz.ID, []AnswerInput{{SelectedOptionIDs: []string{}}}, KindValidation},
		{"missing selection", quiz.ID, []AnswerInput{{QuestionID: q1}}, KindValidation},
		{"duplicate question", quiz.ID, []AnswerInput{
			{QuestionID: q1, SelectedOptionIDs: []string{}},
			{QuestionID: q1, SelectedOptionIDs: []string{}},
		}, KindValidation},
		{"unknown quiz", uuid.New(), []AnswerInput{{QuestionID: q1, SelectedOptionIDs: []string{}}}, KindNotFound},
		{"foreign question", quiz.ID, []AnswerInput{{QuestionID: uuid.New(), SelectedOptionIDs: []string{}}}, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.quizID, student.ID, tt.answers)
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestQuizService_SecondSubmitConflictsAndKeepsFirstScore(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	svc := NewQuizService(db, nil)
	ctx := context.Background()

	quiz := seedTwoQuestionQuiz(t, db, seedCourse(t, db, seedUser(t, db, models.RoleInstructor), 0, 1))
	student := enrolledStudent(t, db, quiz)

	first, err := svc.Submit(ctx, quiz.ID, student.ID, []AnswerInput{
		{QuestionID: quiz.Questions[0].ID, SelectedOptionIDs: []string{optionID(t, quiz, 0, "A")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Score)

	_, err = svc.Submit(ctx, quiz.ID, student.ID, []AnswerInput{
		{QuestionID: quiz.Questions[0].ID, SelectedOptionIDs: []string{optionID(t, quiz, 0, "A")}},
		{QuestionID: quiz.Questions[1].ID, SelectedOptionIDs: []string{optionID(t, quiz, 1, "B"), optionID(t, quiz, 1, "C")}},
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "Quiz already submitted", err.Error())

	result, err := svc.GetResult(ctx, quiz.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Submission.Score)
	assert.Equal(t, first.Submission.ID, result.Submission.ID)
}

func TestQuizService_ConcurrentSubmitsStoreOne(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	svc := NewQuizService(db, nil)

	quiz := seedTwoQuestionQuiz(t, db, seedCourse(t, db, seedUser(t, db, models.RoleInstructor), 0, 1))
	student := enrolledStudent(t, db, quiz)
	answers := []AnswerInput{{QuestionID: quiz.Questions[0].ID, SelectedOptionIDs: []string{optionID(t, quiz, 0, "A")}}}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), quiz.ID, student.ID, answers)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, KindConflict, KindOf(err))
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Where("quiz_id = ?", quiz.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestQuizService_GetResultWithoutSubmission(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	svc := NewQuizService(db, nil)

	quiz := seedTwoQuestionQuiz(t, db, seedCourse(t, db, seedUser(t, db, models.RoleInstructor), 0, 1))
	_, err := svc.GetResult(context.Background(), quiz.ID, uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.GetResult(context.Background(), uuid.New(), uuid.New())
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestQuizService_ListSubmissionsAccess(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	svc := NewQuizService(db, nil)
	ctx := context.Background()

	instructor := seedUser(t, db, models.RoleInstructor)
	quiz := seedTwoQuestionQuiz(t, db, seedCourse(t, db, instructor, 0, 1))
	alice := enrolledStudent(t, db, quiz)
	bob := enrolledStudent(t, db, quiz)

	answers := []AnswerInput{{QuestionID: quiz.Questions[0].ID, SelectedOptionIDs: []string{}}}
	_, err := svc.Submit(ctx, quiz.ID, alice.ID, answers)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, quiz.ID, bob.ID, answers)
	require.NoError(t, err)

	subs, err := svc.ListSubmissions(ctx, quiz.ID, instructor)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.False(t, subs[0].SubmittedAt.Before(subs[1].SubmittedAt))
	require.NotNil(t, subs[0].Student)
	assert.NotEmpty(t, subs[0].Student.Email)

	_, err = svc.ListSubmissions(ctx, quiz.ID, seedUser(t, db, models.RoleAdmin))
	assert.NoError(t, err)

	_, err = svc.ListSubmissions(ctx, quiz.ID, seedUser(t, db, models.RoleInstructor))
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = svc.ListSubmissions(ctx, quiz.ID, alice)
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = svc.ListSubmissions(ctx, uuid.New(), instructor)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestQuizService_RequiresEnrollment(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	svc := NewQuizService(db, nil)
	ctx := context.Background()

	instructor := seedUser(t, db, models.RoleInstructor)
	course := seedCourse(t, db, instructor, 0, 1)
	quiz := seedTwoQuestionQuiz(t, db, course)
	outsider := seedUser(t, db, models.RoleStudent)
	answers := []AnswerInput{{QuestionID: quiz.Questions[0].ID, SelectedOptionIDs: []string{optionID(t, quiz, 0, "A")}}}

	_, err := svc.Submit(ctx, quiz.ID, outsider.ID, answers)
	assert.Equal(t, KindForbidden, KindOf(err))
	_, err = svc.GetQuiz(ctx, quiz.ID, outsider)
	assert.Equal(t, KindForbidden, KindOf(err))

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	assert.Zero(t, count)

	student := enrolledStudent(t, db, quiz)
	_, err = svc.GetQuiz(ctx, quiz.ID, student)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, quiz.ID, student.ID, answers)
	require.NoError(t, err)

	_, err = svc.GetQuiz(ctx, quiz.ID, seedUser(t, db, models.RoleAdmin))
	assert.NoError(t, err, "admins manage every course")

	require.NoError(t, db.Model(&models.Course{}).Where("id = ?", course.ID).Update("is_published", false).Error)
	_, err = svc.GetQuiz(ctx, quiz.ID, student)
	assert.Equal(t, KindNotFound, KindOf(err), "hidden course")
	_, err = svc.GetQuiz(ctx, quiz.ID, instructor)
	assert.NoError(t, err)
}

func sampleQuizInput() QuizInput {
	return QuizInput{
		Title: "Chapter 1",
		Questions: []QuestionInput{
			{Prompt: "Pick one", Type: models.QuestionTypeSingle, Options: []OptionInput{
				{Text: "yes", IsCorrect: true}, {Text: "no"},
			}},
			{Prompt: "Pick many", Type: models.QuestionTypeMultiple, Options: []OptionInput{
				{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}, {Text: "c"},
			}},
		},
	}
}

func TestQuizService_Authoring(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	svc := NewQuizService(db, nil)
	ctx := context.Background()

	instructor := seedUser(t, db, models.RoleInstructor)
	course := seedCourse(t, db, instructor, 0, 1)

	quiz, err := svc.CreateQuiz(ctx, course.ID, instructor, sampleQuizInput())
	require.NoError(t, err)
	assert.Equal(t, 2, quiz.TotalMarks)

	loaded, err := svc.GetQuiz(ctx, quiz.ID, instructor)
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 2)
	assert.Equal(t, "Pick one", loaded.Questions[0].Prompt)
	assert.Equal(t, "yes", loaded.Questions[0].Options[0].Text)

	_, err = svc.CreateQuiz(ctx, course.ID, seedUser(t, db, models.RoleInstructor), sampleQuizInput())
	assert.Equal(t, KindForbidden, KindOf(err))

	input := sampleQuizInput()
	input.Title = "Chapter 1 (revised)"
	input.Questions = input.Questions[:1]
	updated, err := svc.UpdateQuiz(ctx, quiz.ID, instructor, input)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1 (revised)", updated.Title)
	assert.Equal(t, 1, updated.TotalMarks)
	assert.Len(t, updated.Questions, 1)

	var optionCount int64
	require.NoError(t, db.Model(&models.Option{}).Count(&optionCount).Error)
	assert.EqualValues(t, 2, optionCount)

	quizzes, err := svc.ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, quizzes, 1)

	require.NoError(t, svc.DeleteQuiz(ctx, quiz.ID, instructor))
	_, err = svc.GetQuiz(ctx, quiz.ID, instructor)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestQuizService_LockedAfterSubmission(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	svc := NewQuizService(db, nil)
	ctx := context.Background()

	instructor := seedUser(t, db, models.RoleInstructor)
	quiz := seedTwoQuestionQuiz(t, db, seedCourse(t, db, instructor, 0, 1))
	_, err := svc.Submit(ctx, quiz.ID, enrolledStudent(t, db, quiz).ID, []AnswerInput{
		{QuestionID: quiz.Questions[0].ID, SelectedOptionIDs: []string{}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateQuiz(ctx, quiz.ID, instructor, sampleQuizInput())
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, KindConflict, KindOf(svc.DeleteQuiz(ctx, quiz.ID, instructor)))
}

func TestValidateQuizInput(t *testing.T) {
	bad := func(mutate func(*QuizInput)) error {
		in := sampleQuizInput()
		mutate(&in)
		return validateQuizInput(in)
	}

	assert.NoError(t, validateQuizInput(sampleQuizInput()))
	assert.Error(t, bad(func(in *QuizInput) { in.Title = "" }))
	assert.Error(t, bad(func(in *QuizInput) { in.Questions = nil }))
	assert.Error(t, bad(func(in *QuizInput) { in.Questions[0].Options[1].IsCorrect = true }))
	assert.Error(t, bad(func(in *QuizInput) { in.Questions[1].Options = in.Questions[1].Options[2:] }))
	assert.Error(t, bad(func(in *QuizInput) {
		for i := range in.Questions[1].Options {
			in.Questions[1].Options[i].IsCorrect = false
		}
	}))
	assert.Error(t, bad(func(in *QuizInput) { in.Questions[0].Type = "essay" }))
}
