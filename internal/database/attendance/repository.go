// Package attendance reconciles the attendance composite. Children (delays,
// absences, observations, punishments) carry no stable provider identity, so
// every sync replaces them wholesale inside the parent's transaction.
package attendance

import (
	"context"
	"strconv"

	"gorm.io/gorm"

	"github.com/cartable-app/cartable/internal/database"
	"github.com/cartable-app/cartable/internal/entities"
	"github.com/cartable-app/cartable/internal/ident"
)

// Key computes the identity key for a per-period attendance record.
func Key(a entities.Attendance) string {
	return ident.Hash(a.PeriodName, a.CreatedByAccount)
}

var tables = []string{"attendances", "delays", "absences", "observations", "punishments"}

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// AddToDatabase upserts the period's attendance record and replaces all of
// its children. Delete-children and insert-children run inside one
// transaction so no live read ever observes an empty-children window.
func (r *Repository) AddToDatabase(ctx context.Context, att entities.Attendance, accountID string) error {
	att.CreatedByAccount = accountID
	att.ID = Key(att)

	return r.db.Write(ctx, database.WriteOp{
		Name:   "attendance.upsert",
		Tables: tables,
		Fn: func(tx *gorm.DB) error {
			var existing entities.Attendance
			result := tx.Where("id = ?", att.ID).First(&existing)
			if result.Error == gorm.ErrRecordNotFound {
				parent := att
				parent.Delays, parent.Absences, parent.Observations, parent.Punishments = nil, nil, nil, nil
				if err := tx.Create(&parent).Error; err != nil {
					return err
				}
			} else if result.Error != nil {
				return result.Error
			}

			for _, child := range []any{&entities.Delay{}, &entities.Absence{}, &entities.Observation{}, &entities.Punishment{}} {
				if err := tx.Where("attendance_id = ?", att.ID).Delete(child).Error; err != nil {
					return err
				}
			}

			for i := range att.Delays {
				d := att.Delays[i]
				d.AttendanceID = att.ID
				d.CreatedByAccount = accountID
				d.ID = ident.Hash(att.ID, "delay", ident.Instant(d.Timestamp), strconv.Itoa(i))
				if err := tx.Create(&d).Error; err != nil {
					return err
				}
			}
			for i := range att.Absences {
				a := att.Absences[i]
				a.AttendanceID = att.ID
				a.CreatedByAccount = accountID
				a.ID = ident.Hash(att.ID, "absence", ident.Instant(a.From), strconv.Itoa(i))
				if err := tx.Create(&a).Error; err != nil {
					return err
				}
			}
			for i := range att.Observations {
				o := att.Observations[i]
				o.AttendanceID = att.ID
				o.CreatedByAccount = accountID
				o.ID = ident.Hash(att.ID, "observation", ident.Instant(o.Date), o.Reason, strconv.Itoa(i))
				if err := tx.Create(&o).Error; err != nil {
					return err
				}
			}
			for i := range att.Punishments {
				p := att.Punishments[i]
				p.AttendanceID = att.ID
				p.CreatedByAccount = accountID
				p.ID = ident.Hash(att.ID, "punishment", ident.Instant(p.GivenAt), p.Nature, strconv.Itoa(i))
				if err := tx.Create(&p).Error; err != nil {
					return err
				}
			}
			return nil
		},
	})
}

// ForPeriod returns the cached record with its children.
func (r *Repository) ForPeriod(accountID, periodName string) (*entities.Attendance, error) {
	var att entities.Attendance
	err := r.db.DB.
		Preload("Delays").Preload("Absences").Preload("Observations").Preload("Punishments").
		Where("period_name = ? AND created_by_account = ?", periodName, accountID).
		First(&att).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// Observe emits the account's attendance records on every commit touching the
// composite.
func (r *Repository) Observe(accountID string) *database.Subscription[entities.Attendance] {
	return database.Observe(r.db, tables, func(db *gorm.DB) ([]entities.Attendance, error) {
		var records []entities.Attendance
		err := db.
			Preload("Delays").Preload("Absences").Preload("Observations").Preload("Punishments").
			Where("created_by_account = ?", accountID).
			Order("period_name ASC").Find(&records).Error
		return records, err
	})
}
