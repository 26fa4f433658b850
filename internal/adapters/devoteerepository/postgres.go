package devoteerepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Amund211/japa/internal/domain"
	"github.com/Amund211/japa/internal/reporting"
	"github.com/Amund211/japa/internal/strutils"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const uniqueViolation = pq.ErrorCode("23505")

const phoneConstraint = "devotees_pkey"

const selectColumns = `phone, name, location, lifetime_count, today_count,
	to_char(last_active_date, 'YYYY-MM-DD') AS last_active_date, registered_at`

type Postgres struct {
	db     *sqlx.DB
	schema string
	tracer trace.Tracer
}

func NewPostgres(db *sqlx.DB, schema string) *Postgres {
	tracer := otel.Tracer("japa/devoteerepository/postgres")
	return &Postgres{
		db:     db,
		schema: schema,
		tracer: tracer,
	}
}

type dbDevotee struct {
	Phone          string    `db:"phone"`
	Name           string    `db:"name"`
	Location       string    `db:"location"`
	LifetimeCount  int64     `db:"lifetime_count"`
	TodayCount     int64     `db:"today_count"`
	LastActiveDate string    `db:"last_active_date"`
	RegisteredAt   time.Time `db:"registered_at"`
}

func (d dbDevotee) toDomain() domain.Devotee {
	return domain.Devotee{
		Phone:          d.Phone,
		Name:           d.Name,
		Location:       d.Location,
		LifetimeCount:  d.LifetimeCount,
		TodayCount:     d.TodayCount,
		LastActiveDate: domain.Date(d.LastActiveDate),
		RegisteredAt:   d.RegisteredAt,
	}
}

func (p *Postgres) table() string {
	return fmt.Sprintf("%s.devotees", pq.QuoteIdentifier(p.schema))
}

func (p *Postgres) FindByPhone(ctx context.Context, phone string) (domain.Devotee, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.FindByPhone")
	defer span.End()

	return p.findOne(ctx, "phone = $1", phone, map[string]string{"phone": strutils.MaskPhone(phone)})
}

func (p *Postgres) FindByName(ctx context.Context, name string) (domain.Devotee, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.FindByName")
	defer span.End()

	return p.findOne(ctx, "name_key = $1", strutils.NameKey(name), map[string]string{"name": name})
}

func (p *Postgres) findOne(ctx context.Context, condition string, arg string, extras map[string]string) (domain.Devotee, error) {
	var row dbDevotee
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s", selectColumns, p.table(), condition),
		arg,
	).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Devotee{}, domain.ErrDevoteeNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to query devotee: %w", err)
		reporting.Report(ctx, err, extras)
		return domain.Devotee{}, err
	}

	return row.toDomain(), nil
}

func (p *Postgres) Create(ctx context.Context, devotee domain.Devotee) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.Create")
	defer span.End()

	_, err := p.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s
		(phone, name, name_key, location, lifetime_count, today_count, last_active_date, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, p.table()),
		devotee.Phone,
		devotee.Name,
		strutils.NameKey(devotee.Name),
		devotee.Location,
		devotee.LifetimeCount,
		devotee.TodayCount,
		devotee.LastActiveDate.String(),
		devotee.RegisteredAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if pqErr.Constraint == phoneConstraint {
				return domain.NewIdentityConflict(domain.ErrPhoneBoundToOtherName)
			}
			return domain.NewIdentityConflict(domain.ErrNameBoundToOtherPhone)
		}

		err := fmt.Errorf("failed to insert devotee: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"phone": strutils.MaskPhone(devotee.Phone),
			"name":  devotee.Name,
		})
		return err
	}

	return nil
}

func (p *Postgres) Update(ctx context.Context, phone string, update UpdateFunc) (domain.Devotee, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.Update")
	defer span.End()

	extras := map[string]string{"phone": strutils.MaskPhone(phone)}

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err, extras)
		return domain.Devotee{}, err
	}
	defer txx.Rollback()

	var row dbDevotee
	err = txx.QueryRowxContext(
		ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE phone = $1 FOR UPDATE", selectColumns, p.table()),
		phone,
	).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Devotee{}, domain.ErrDevoteeNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to lock devotee: %w", err)
		reporting.Report(ctx, err, extras)
		return domain.Devotee{}, err
	}

	updated, err := update(row.toDomain())
	if err != nil {
		return domain.Devotee{}, err
	}

	_, err = txx.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE %s SET
			location = $2,
			lifetime_count = $3,
			today_count = $4,
			last_active_date = $5
		WHERE phone = $1`, p.table()),
		phone,
		updated.Location,
		updated.LifetimeCount,
		updated.TodayCount,
		updated.LastActiveDate.String(),
	)
	if err != nil {
		err := fmt.Errorf("failed to update devotee: %w", err)
		reporting.Report(ctx, err, extras)
		return domain.Devotee{}, err
	}

	if err := txx.Commit(); err != nil {
		err := fmt.Errorf("failed to commit devotee update: %w", err)
		reporting.Report(ctx, err, extras)
		return domain.Devotee{}, err
	}

	updated.Phone = row.Phone
	updated.Name = row.Name
	updated.RegisteredAt = row.RegisteredAt
	return updated, nil
}

func (p *Postgres) List(ctx context.Context) ([]domain.Devotee, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.List")
	defer span.End()

	var rows []dbDevotee
	err := p.db.SelectContext(
		ctx,
		&rows,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY registered_at ASC, phone ASC", selectColumns, p.table()),
	)
	if err != nil {
		err := fmt.Errorf("failed to list devotees: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	devotees := make([]domain.Devotee, 0, len(rows))
	for _, row := range rows {
		devotees = append(devotees, row.toDomain())
	}
	return devotees, nil
}

func (p *Postgres) Delete(ctx context.Context, phone string) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.Delete")
	defer span.End()

	extras := map[string]string{"phone": strutils.MaskPhone(phone)}

	result, err := p.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE phone = $1", p.table()), phone)
	if err != nil {
		err := fmt.Errorf("failed to delete devotee: %w", err)
		reporting.Report(ctx, err, extras)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("failed to get affected rows: %w", err)
		reporting.Report(ctx, err, extras)
		return err
	}
	if affected == 0 {
		return domain.ErrDevoteeNotFound
	}

	return nil
}
