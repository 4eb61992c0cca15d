package pronote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartable-app/cartable/internal/entities"
)

func TestParseScore(t *testing.T) {
	t.Run("comma decimal", func(t *testing.T) {
		score := parseScore("12,5")
		require.NotNil(t, score.Value)
		assert.Equal(t, 12.5, *score.Value)
		assert.False(t, score.Disabled)
	})

	t.Run("plain integer", func(t *testing.T) {
		score := parseScore("20")
		require.NotNil(t, score.Value)
		assert.Equal(t, 20.0, *score.Value)
	})

	t.Run("status marker", func(t *testing.T) {
		score := parseScore("Absent")
		assert.Nil(t, score.Value)
		assert.Equal(t, "absent", score.Status)
		assert.True(t, score.Disabled)
		assert.False(t, score.Usable())
	})

	t.Run("empty", func(t *testing.T) {
		score := parseScore("")
		assert.Nil(t, score.Value)
		assert.True(t, score.Disabled)
	})

	t.Run("unknown text keeps raw status", func(t *testing.T) {
		score := parseScore("???")
		assert.Equal(t, "???", score.Status)
		assert.True(t, score.Disabled)
	})
}

func TestParseCoefficient(t *testing.T) {
	assert.Equal(t, 2.0, parseCoefficient("2"))
	assert.Equal(t, 0.5, parseCoefficient("0,5"))
	assert.Equal(t, 1.0, parseCoefficient(""))
	assert.Equal(t, 1.0, parseCoefficient("0"))
}

func TestParseHours(t *testing.T) {
	assert.Equal(t, 4.5, parseHours("4h30"))
	assert.Equal(t, 2.0, parseHours("2h"))
	assert.Equal(t, 0.0, parseHours(""))
	assert.InDelta(t, 1.25, parseHours("1h15"), 0.001)
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, time.Date(2026, 9, 20, 8, 30, 0, 0, time.UTC), parseDate("2026-09-20T08:30:00"))
	assert.Equal(t, time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC), parseDate("2026-09-20"))
	assert.Equal(t, time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC), parseDate("20/09/2026"))
	assert.True(t, parseDate("not a date").IsZero())
}

func TestMapHomework(t *testing.T) {
	hw := mapHomework(RawHomework{
		ID:          "hw-9",
		Subject:     "MATHEMATIQUES",
		Description: "<p>Exercices</p>",
		DueDate:     "2026-09-22",
		ReturnMode:  2,
		IsExam:      true,
		Attachments: []RawAttachment{{Kind: 0, Name: "lien", URL: "https://example.org"}},
	})

	assert.Equal(t, "hw-9", hw.HomeworkID)
	assert.Equal(t, entities.ReturnFormatFileUpload, hw.ReturnFormat)
	assert.True(t, hw.Exam)
	require.Len(t, hw.Attachments, 1)
	assert.Equal(t, entities.AttachmentTypeLink, hw.Attachments[0].Type)
}

func TestMapPeriodGrades(t *testing.T) {
	pg := mapPeriodGrades(RawPeriodGrades{
		Period: RawPeriod{Name: "Trimestre 1", Start: "2026-09-01", End: "2026-11-30"},
		Subjects: []RawSubject{
			{Name: "MATHEMATIQUES", Average: "13,5", ClassAverage: "11", OutOf: "20"},
		},
		Grades: []RawGrade{
			{Subject: "MATHEMATIQUES", Value: "14,5", OutOf: "20", Coefficient: "2"},
			{Subject: "MATHEMATIQUES", Value: "Absent", OutOf: "20", Coefficient: "1"},
		},
	})

	assert.Equal(t, "Trimestre 1", pg.Period.Name)
	require.Len(t, pg.Subjects, 1)
	require.NotNil(t, pg.Subjects[0].Average.Value)
	assert.Equal(t, 13.5, *pg.Subjects[0].Average.Value)

	require.Len(t, pg.Grades, 2)
	assert.True(t, pg.Grades[0].Student.Usable())
	assert.Equal(t, 2.0, pg.Grades[0].Coefficient)
	assert.False(t, pg.Grades[1].Student.Usable())
	assert.Equal(t, "absent", pg.Grades[1].Student.Status)
}

func TestMapTimetableGroupsByDay(t *testing.T) {
	days := mapTimetable([]RawLesson{
		{Subject: "MATHEMATIQUES", Start: "2026-09-21T08:00:00", End: "2026-09-21T09:00:00"},
		{Subject: "ANGLAIS LV1", Start: "2026-09-21T09:00:00", End: "2026-09-21T10:00:00", Status: "Cours annulé"},
		{Subject: "SVT", Start: "2026-09-22T08:00:00", End: "2026-09-22T10:00:00", Status: "Devoir surveillé"},
	})

	require.Len(t, days, 2)
	require.Len(t, days[0].Courses, 2)
	require.Len(t, days[1].Courses, 1)

	assert.Equal(t, entities.CourseStatusRegular, days[0].Courses[0].Status)
	assert.Equal(t, entities.CourseStatusCanceled, days[0].Courses[1].Status)
	assert.Equal(t, "Cours annulé", days[0].Courses[1].StatusText)
	assert.Equal(t, entities.CourseStatusTest, days[1].Courses[0].Status)
}

func TestMapLessonStatusFallback(t *testing.T) {
	status, text := mapLessonStatus("Changement de salle")
	assert.Equal(t, entities.CourseStatusModified, status)
	assert.Equal(t, "Changement de salle", text)
}
