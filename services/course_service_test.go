package services

import (
	"context"
	"testing"

	"github.com/anjiri1684/learnhub/database/dbtest"
	"github.com/anjiri1684/learnhub/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseService_Lifecycle(t *testing.T) {
	db := dbtest.OpenTestDB(t)
	svc := NewCourseService(db)
	ctx := context.Background()
	instructor := seedUser(t, db, models.RoleInstructor)
	student := seedUser(t, db, models.RoleStudent)

	_, err := svc.CreateCourse(ctx, student, CourseInput{Title: "Nope"})
	assert.Equal(t, KindForbidden, KindOf(err))

	course, err := svc.CreateCourse(ctx, instructor, CourseInput{Title: "Distributed Systems", Price: 999})
	require.NoError(t, err)
	assert.False(t, course.IsPublished)

	_, err = svc.GetCourse(ctx, course.ID, &student)
	assert.Equal(t, KindNotFound, KindOf(err), "drafts are hidden")
	_, err = svc.GetCourse(ctx, course.ID, nil)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = svc.GetCourse(ctx, course.ID, &instructor)
	assert.NoError(t, err)

	first, err := svc.AddLesson(ctx, course.ID, instructor, LessonInput{Title: "Intro"})
	require.NoError(t, err)
	second, err := svc.AddLesson(ctx, course.ID, instructor, LessonInput{Title: "Clocks"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)

	_, err = svc.AddLesson(ctx, course.ID, seedUser(t, db, models.RoleInstructor), LessonInput{Title: "Hijack"})
	assert.Equal(t, KindForbidden, KindOf(err))

	updated, err := svc.UpdateCourse(ctx, course.ID, instructor, CourseInput{Title: "Distributed Systems II", Price: 0})
	require.NoError(t, err)
	assert.True(t, updated.IsFree())

	listed, err := svc.ListPublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = svc.SetPublished(ctx, course.ID, true)
	require.NoError(t, err)

	listed, err = svc.ListPublished(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	loaded, err := svc.GetCourse(ctx, course.ID, &student)
	require.NoError(t, err)
	assert.Equal(t, "Distributed Systems II", loaded.Title)
	require.Len(t, loaded.Lessons, 2)
	assert.Equal(t, "Intro", loaded.Lessons[0].Title)

	mine, err := svc.ListByInstructor(ctx, instructor.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
