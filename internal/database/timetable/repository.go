// Package timetable reconciles weekly course days. Courses are replaced
// wholesale on every sync, like attendance children.
package timetable

import (
	"context"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/ident"
)

// DayKey computes the identity key for one timetable day.
func DayKey(day entities.CourseDay) string {
	return ident.Hash(ident.Day(day.Date), day.CreatedByAccount)
}

var tables = []string{"course_days", "courses"}

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// AddWeekToDatabase upserts the fetched days and replaces each day's course
// set in one serialized transaction per sync batch.
func (r *Repository) AddWeekToDatabase(ctx context.Context, days []entities.CourseDay, accountID string) error {
	if len(days) == 0 {
		return nil
	}
	return r.db.Write(ctx, database.WriteOp{
		Name:   "timetable.upsert",
		Tables: tables,
		Fn: func(tx *gorm.DB) error {
			for i := range days {
				day := days[i]
				day.CreatedByAccount = accountID
				day.ID = DayKey(day)

				var existing entities.CourseDay
				result := tx.Where("id = ?", day.ID).First(&existing)
				if result.Error == gorm.ErrRecordNotFound {
					parent := day
					parent.Courses = nil
					if err := tx.Create(&parent).Error; err != nil {
						return err
					}
				} else if result.Error != nil {
					return result.Error
				}

				if err := tx.Where("course_day_id = ?", day.ID).Delete(&entities.Course{}).Error; err != nil {
					return err
				}
				for j := range day.Courses {
					course := day.Courses[j]
					course.CourseDayID = day.ID
					course.CreatedByAccount = accountID
					course.ID = ident.Hash(day.ID, course.Subject, ident.Instant(course.StartsAt), strconv.Itoa(j))
					if err := tx.Create(&course).Error; err != nil {
						return err
					}
				}
			}
			return nil
		},
	})
}

// Week returns cached days with their courses for [from, to).
func (r *Repository) Week(accountID string, from, to time.Time) ([]entities.CourseDay, error) {
	var days []entities.CourseDay
	err := r.db.DB.
		Preload("Courses", func(db *gorm.DB) *gorm.DB {
			return db.Order("starts_at ASC")
		}).
		Where("created_by_account = ? AND date >= ? AND date < ?", accountID, from, to).
		Order("date ASC").Find(&days).Error
	return days, err
}

// Observe emits the account's timetable days on every commit touching the
// composite.
func (r *Repository) Observe(accountID string) *database.Subscription[entities.CourseDay] {
	return database.Observe(r.db, tables, func(db *gorm.DB) ([]entities.CourseDay, error) {
		var days []entities.CourseDay
		err := db.
			Preload("Courses", func(db *gorm.DB) *gorm.DB {
				return db.Order("starts_at ASC")
			}).
			Where("created_by_account = ?", accountID).
			Order("date ASC").Find(&days).Error
		return days, err
	})
}
