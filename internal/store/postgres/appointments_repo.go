package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"appointly/backend/internal/domain"
	"appointly/backend/internal/store"
)

// activeSlotConstraint is the partial unique index on (provider_id, date) WHERE canceled_at IS NULL.
const activeSlotConstraint = "appointments_active_slot_key"

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) FindActive(ctx context.Context, providerID int64, date time.Time) (domain.Appointment, error) {
	return findActive(ctx, r.db, providerID, date)
}

func (r *AppointmentRepo) Insert(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.InSlotTransaction(ctx, appt.ProviderID, appt.Date, func(ctx context.Context, tx bun.Tx) error {
		_, err := findActive(ctx, tx, appt.ProviderID, appt.Date)
		if err == nil {
			return store.ErrConflict
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		m := domain.Appointment{
			ID:         appt.ID,
			UserID:     appt.UserID,
			ProviderID: appt.ProviderID,
			Date:       appt.Date.UTC(),
			CreatedAt:  appt.CreatedAt,
			UpdatedAt:  appt.UpdatedAt,
		}
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			if isUniqueViolation(err, activeSlotConstraint) {
				return store.ErrConflict
			}
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) FindByID(ctx context.Context, id uuid.UUID, withRelations bool) (domain.Appointment, error) {
	var appt domain.Appointment
	q := r.db.NewSelect().
		Model(&appt).
		Where("appointment.id = ?", id)
	if withRelations {
		q = q.Relation("User").Relation("Provider")
	}
	if err := q.Limit(1).Scan(ctx); err != nil {
		if notFound(err) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

// Update persists the cancellation state of a single appointment. Only
// canceled_at and updated_at are written.
func (r *AppointmentRepo) Update(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ID:         appt.ID,
		CanceledAt: appt.CanceledAt,
	}
	res, err := r.db.NewUpdate().
		Model(&m).
		Column("canceled_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}

	appt.UpdatedAt = m.UpdatedAt
	return appt, nil
}

func (r *AppointmentRepo) ListActiveForUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Provider").
		Relation("Provider.Avatar").
		Where("appointment.user_id = ?", userID).
		Where("appointment.canceled_at IS NULL").
		OrderExpr("appointment.date ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// InSlotTransaction serialises writers of one (provider, date) slot for the
// lifetime of the transaction.
func (r *AppointmentRepo) InSlotTransaction(ctx context.Context, providerID int64, date time.Time, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockSlot(ctx, tx, providerID, date); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

func lockSlot(ctx context.Context, tx bun.Tx, providerID int64, date time.Time) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", slotLockKey(providerID, date)).Exec(ctx)
	return err
}

func slotLockKey(providerID int64, date time.Time) string {
	return "slot:" + strconv.FormatInt(providerID, 10) + ":" + date.UTC().Format(time.RFC3339)
}

func findActive(ctx context.Context, db bun.IDB, providerID int64, date time.Time) (domain.Appointment, error) {
	var appt domain.Appointment
	err := db.NewSelect().
		Model(&appt).
		Where("appointment.provider_id = ?", providerID).
		Where("appointment.date = ?", date.UTC()).
		Where("appointment.canceled_at IS NULL").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if notFound(err) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}
