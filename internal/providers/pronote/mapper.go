package pronote

import (
	"strconv"
	"strings"
	"time"

	"github.com/cartable-app/cartable/internal/entities"
)

// Mapping is total over well-formed input and degrades per field otherwise:
// an unparseable score becomes a disabled GradeScore, an unparseable date a
// zero time. Only a wholly unusable response is reported as a fetch error,
// and that happens at the client boundary, not here.

// scoreStatuses are the markers Pronote substitutes for a numeric mark.
var scoreStatuses = map[string]string{
	"Absent":   "absent",
	"Disp":     "exempted",
	"NonNote":  "ungraded",
	"Inapte":   "unfit",
	"NonRendu": "not_returned",
}

func parseScore(raw string) entities.GradeScore {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return entities.GradeScore{Disabled: true}
	}
	if status, ok := scoreStatuses[raw]; ok {
		return entities.GradeScore{Status: status, Disabled: true}
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return entities.GradeScore{Status: raw, Disabled: true}
	}
	return entities.GradeScore{Value: &value}
}

func parseCoefficient(raw string) float64 {
	value, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil || value == 0 {
		return 1
	}
	return value
}

func parseDate(raw string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02", "02/01/2006 15:04:05", "02/01/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseHours converts "4h30" into fractional hours.
func parseHours(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	parts := strings.SplitN(raw, "h", 2)
	hours, _ := strconv.ParseFloat(parts[0], 64)
	if len(parts) == 2 && parts[1] != "" {
		minutes, _ := strconv.ParseFloat(parts[1], 64)
		hours += minutes / 60
	}
	return hours
}

func mapAttachments(raws []RawAttachment) entities.AttachmentList {
	if len(raws) == 0 {
		return nil
	}
	out := make(entities.AttachmentList, 0, len(raws))
	for _, a := range raws {
		kind := entities.AttachmentTypeFile
		if a.Kind == 0 {
			kind = entities.AttachmentTypeLink
		}
		out = append(out, entities.Attachment{Type: kind, Name: a.Name, URL: a.URL})
	}
	return out
}

func mapHomework(raw RawHomework) entities.Homework {
	format := entities.ReturnFormatNone
	switch raw.ReturnMode {
	case 1:
		format = entities.ReturnFormatPaper
	case 2:
		format = entities.ReturnFormatFileUpload
	}
	return entities.Homework{
		HomeworkID:   raw.ID,
		Subject:      raw.Subject,
		Content:      raw.Description,
		DueDate:      parseDate(raw.DueDate),
		Done:         raw.Done,
		ReturnFormat: format,
		Exam:         raw.IsExam,
		Attachments:  mapAttachments(raw.Attachments),
	}
}

func mapNews(raw RawNews) entities.News {
	return entities.News{
		Title:       raw.Title,
		Content:     raw.Content,
		Author:      raw.Author,
		Category:    raw.Category,
		PublishedAt: parseDate(raw.Date),
		Important:   raw.Important,
		Attachments: mapAttachments(raw.Attachments),
	}
}

func mapPeriod(raw RawPeriod) entities.Period {
	return entities.Period{
		Name:      raw.Name,
		StartDate: parseDate(raw.Start),
		EndDate:   parseDate(raw.End),
	}
}

func mapPeriodGrades(raw RawPeriodGrades) entities.PeriodGrades {
	pg := entities.PeriodGrades{Period: mapPeriod(raw.Period)}
	for _, s := range raw.Subjects {
		pg.Subjects = append(pg.Subjects, entities.Subject{
			Name:         s.Name,
			Average:      parseScore(s.Average),
			ClassAverage: parseScore(s.ClassAverage),
			Maximum:      parseScore(s.Max),
			Minimum:      parseScore(s.Min),
			OutOf:        parseScore(s.OutOf),
		})
	}
	for _, g := range raw.Grades {
		pg.Grades = append(pg.Grades, entities.Grade{
			SubjectName: g.Subject,
			Description: g.Comment,
			GivenAt:     parseDate(g.Date),
			Coefficient: parseCoefficient(g.Coefficient),
			Student:     parseScore(g.Value),
			OutOf:       parseScore(g.OutOf),
			Average:     parseScore(g.Average),
			Maximum:     parseScore(g.Max),
			Minimum:     parseScore(g.Min),
			Bonus:       g.Bonus,
			Optional:    g.Optional,
		})
	}
	return pg
}

func mapAttendance(raw RawAttendance, periodName string) entities.Attendance {
	att := entities.Attendance{PeriodName: periodName}
	for _, d := range raw.Delays {
		att.Delays = append(att.Delays, entities.Delay{
			Timestamp:     parseDate(d.Date),
			Minutes:       d.Minutes,
			Justified:     d.Justified,
			Justification: d.Justification,
		})
	}
	for _, a := range raw.Absences {
		att.Absences = append(att.Absences, entities.Absence{
			From:          parseDate(a.From),
			To:            parseDate(a.To),
			Hours:         parseHours(a.Hours),
			Justified:     a.Justified,
			Justification: a.Justification,
		})
	}
	for _, o := range raw.Observations {
		att.Observations = append(att.Observations, entities.Observation{
			Date:         parseDate(o.Date),
			SectionName:  o.SectionName,
			SubjectName:  o.SubjectName,
			Reason:       o.Reason,
			ShouldNotify: o.ShouldNotify,
		})
	}
	for _, p := range raw.Punishments {
		att.Punishments = append(att.Punishments, entities.Punishment{
			GivenAt: parseDate(p.Date),
			GivenBy: p.GivenBy,
			Nature:  p.Nature,
			Reason:  p.Reason,
			Minutes: p.Minutes,
		})
	}
	return att
}

func mapLessonStatus(raw string) (entities.CourseStatus, string) {
	switch raw {
	case "":
		return entities.CourseStatusRegular, ""
	case "Cours annulé", "Prof. absent", "Classe absente", "Sortie pédagogique":
		return entities.CourseStatusCanceled, raw
	case "Devoir surveillé":
		return entities.CourseStatusTest, raw
	default:
		return entities.CourseStatusModified, raw
	}
}

// mapTimetable groups lessons into per-day course sets, the shape the
// timetable reconciler expects.
func mapTimetable(raws []RawLesson) []entities.CourseDay {
	byDay := make(map[string]*entities.CourseDay)
	var order []string
	for _, raw := range raws {
		start := parseDate(raw.Start)
		day := start.Format("2006-01-02")
		cd, ok := byDay[day]
		if !ok {
			cd = &entities.CourseDay{Date: start.Truncate(24 * time.Hour)}
			byDay[day] = cd
			order = append(order, day)
		}
		status, text := mapLessonStatus(raw.Status)
		cd.Courses = append(cd.Courses, entities.Course{
			Subject:    raw.Subject,
			Teacher:    raw.Teacher,
			Room:       raw.Room,
			StartsAt:   start,
			EndsAt:     parseDate(raw.End),
			Status:     status,
			StatusText: text,
			Color:      raw.Color,
		})
	}
	days := make([]entities.CourseDay, 0, len(order))
	for _, day := range order {
		days = append(days, *byDay[day])
	}
	return days
}
