// Package grades reconciles the period/subject/grade composite.
package grades

import (
	"context"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/ident"
)

// PeriodKey computes the identity key for a grading period.
func PeriodKey(p entities.Period) string {
	return ident.Hash(p.Name, p.CreatedByAccount)
}

// SubjectKey computes the identity key for a per-period subject line. Name +
// period is also the dedup natural key.
func SubjectKey(s entities.Subject) string {
	return ident.Hash(s.Name, s.PeriodID, s.CreatedByAccount)
}

// GradeKey computes the identity key for a single mark.
func GradeKey(g entities.Grade) string {
	value := ""
	if g.Student.Value != nil {
		value = ident.Float(*g.Student.Value)
	}
	return ident.Hash(g.SubjectName, g.Description, ident.Instant(g.GivenAt), value, g.CreatedByAccount)
}

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// AddPeriodToDatabase upserts one period's subjects and grades in a single
// serialized transaction.
func (r *Repository) AddPeriodToDatabase(ctx context.Context, pg entities.PeriodGrades, accountID string) error {
	return r.db.Write(ctx, database.WriteOp{
		Name:   "grades.upsert",
		Tables: []string{"periods", "subjects", "grades"},
		Fn: func(tx *gorm.DB) error {
			period := pg.Period
			period.CreatedByAccount = accountID
			period.ID = PeriodKey(period)
			if err := upsertPeriod(tx, period); err != nil {
				return err
			}

			subjectIDs := make(map[string]string, len(pg.Subjects))
			for i := range pg.Subjects {
				subject := pg.Subjects[i]
				subject.CreatedByAccount = accountID
				subject.PeriodID = period.ID
				subject.ID = SubjectKey(subject)
				subjectIDs[subject.Name] = subject.ID
				if err := upsertSubject(tx, subject); err != nil {
					return err
				}
			}

			for i := range pg.Grades {
				grade := pg.Grades[i]
				grade.CreatedByAccount = accountID
				grade.PeriodID = period.ID
				grade.SubjectID = subjectIDs[grade.SubjectName]
				grade.ID = GradeKey(grade)
				if err := upsertGrade(tx, grade); err != nil {
					return err
				}
			}
			return nil
		},
	})
}

func upsertPeriod(tx *gorm.DB, period entities.Period) error {
	var existing entities.Period
	result := tx.Where("id = ?", period.ID).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		return tx.Create(&period).Error
	}
	if result.Error != nil {
		return result.Error
	}
	return tx.Model(&entities.Period{}).Where("id = ?", period.ID).Updates(map[string]any{
		"start_date": period.StartDate,
		"end_date":   period.EndDate,
	}).Error
}

func upsertSubject(tx *gorm.DB, subject entities.Subject) error {
	var existing entities.Subject
	result := tx.Where("id = ?", subject.ID).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		return tx.Create(&subject).Error
	}
	if result.Error != nil {
		return result.Error
	}
	// Identity fields (name, period) never change; everything else follows
	// the provider.
	subject.CreatedAt = existing.CreatedAt
	return tx.Save(&subject).Error
}

func upsertGrade(tx *gorm.DB, grade entities.Grade) error {
	var existing entities.Grade
	result := tx.Where("id = ?", grade.ID).First(&existing)
	if result.Error == gorm.ErrRecordNotFound {
		return tx.Create(&grade).Error
	}
	if result.Error != nil {
		return result.Error
	}
	grade.CreatedAt = existing.CreatedAt
	return tx.Save(&grade).Error
}

// Periods returns the account's periods, oldest first.
func (r *Repository) Periods(accountID string) ([]entities.Period, error) {
	var periods []entities.Period
	err := r.db.DB.Where("created_by_account = ?", accountID).
		Order("start_date ASC").Find(&periods).Error
	return periods, err
}

// ForPeriod returns the cached composite for one period.
func (r *Repository) ForPeriod(accountID, periodID string) (entities.PeriodGrades, error) {
	var pg entities.PeriodGrades
	if err := r.db.DB.Where("id = ? AND created_by_account = ?", periodID, accountID).
		First(&pg.Period).Error; err != nil {
		return pg, err
	}
	if err := r.db.DB.Where("period_id = ? AND created_by_account = ?", periodID, accountID).
		Order("name ASC").Find(&pg.Subjects).Error; err != nil {
		return pg, err
	}
	if err := r.db.DB.Where("period_id = ? AND created_by_account = ?", periodID, accountID).
		Order("given_at DESC").Find(&pg.Grades).Error; err != nil {
		return pg, err
	}
	pg.OverallAverage = OverallAverage(pg.Grades)
	return pg, nil
}

// OverallAverage is the coefficient-weighted mean of usable marks, normalized
// to 20. Disabled scores never enter the computation.
func OverallAverage(marks []entities.Grade) entities.GradeScore {
	var sum, weight float64
	for _, g := range marks {
		if !g.Student.Usable() || !g.OutOf.Usable() || *g.OutOf.Value == 0 {
			continue
		}
		sum += (*g.Student.Value / *g.OutOf.Value) * 20 * g.Coefficient
		weight += g.Coefficient
	}
	if weight == 0 {
		return entities.GradeScore{Disabled: true}
	}
	avg := sum / weight
	return entities.GradeScore{Value: &avg}
}

// Observe emits the account's grades on every commit touching the composite.
func (r *Repository) Observe(accountID string) *database.Subscription[entities.Grade] {
	return database.Observe(r.db, []string{"periods", "subjects", "grades"}, func(db *gorm.DB) ([]entities.Grade, error) {
		var marks []entities.Grade
		err := db.Where("created_by_account = ?", accountID).
			Order("given_at DESC").Find(&marks).Error
		return marks, err
	})
}
