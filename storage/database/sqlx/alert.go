package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/collab46515/accademy-assist-sub006/core"
	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type alertRepository struct {
	db core.DB
}

var (
	_ transport.AlertRepository = (*alertRepository)(nil) // interface compliance check

	alertOrdering = core.DBOrdering{Field: "created_at"}
)

func NewAlertRepository(db core.DB) *alertRepository {
	return &alertRepository{db: db}
}

type dbAlert struct {
	ID             string      `db:"id"`
	SchoolID       string      `db:"school_id"`
	Type           string      `db:"type"`
	Priority       string      `db:"priority"`
	Title          string      `db:"title"`
	Message        string      `db:"message"`
	TripInstanceID null.String `db:"trip_instance_id"`
	CreatedAt      time.Time   `db:"created_at"`
	AcknowledgedAt null.Time   `db:"acknowledged_at"`
	ResolvedAt     null.Time   `db:"resolved_at"`
}

func (repo alertRepository) toRow(alert transport.Alert) dbAlert {
	return dbAlert{
		ID:             alert.ID,
		SchoolID:       alert.SchoolID,
		Type:           string(alert.Type),
		Priority:       string(alert.Priority),
		Title:          alert.Title,
		Message:        alert.Message,
		TripInstanceID: alert.TripInstanceID,
		CreatedAt:      alert.CreatedAt.UTC(),
		AcknowledgedAt: alert.AcknowledgedAt,
		ResolvedAt:     alert.ResolvedAt,
	}
}

func (repo alertRepository) fromRow(row dbAlert) transport.Alert {
	return transport.Alert{
		ID:             row.ID,
		SchoolID:       row.SchoolID,
		Type:           transport.AlertType(row.Type),
		Priority:       transport.AlertPriority(row.Priority),
		Title:          row.Title,
		Message:        row.Message,
		TripInstanceID: row.TripInstanceID,
		CreatedAt:      row.CreatedAt,
		AcknowledgedAt: row.AcknowledgedAt,
		ResolvedAt:     row.ResolvedAt,
	}
}

func (repo alertRepository) CreateAlert(ctx context.Context, alert transport.Alert) (transport.Alert, error) {
	alert.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO alert (
			id, school_id, type, priority, title, message,
			trip_instance_id, created_at, acknowledged_at, resolved_at
		) VALUES (
			:id, :school_id, :type, :priority, :title, :message,
			:trip_instance_id, :created_at, :acknowledged_at, :resolved_at
		)`, repo.toRow(alert))
	if err != nil {
		return transport.Alert{}, errors.Wrap(err, "inserting alert")
	}
	return alert, nil
}

func (repo alertRepository) GetAlert(ctx context.Context, schoolID, id string) (transport.Alert, error) {
	var row dbAlert
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM alert WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return transport.Alert{}, trapNoRowsErr(err, transport.ErrAlertNotFound, "getting alert")
	}
	return repo.fromRow(row), nil
}

func (repo alertRepository) FilterAlerts(ctx context.Context, schoolID string, filter transport.AlertFilter) ([]transport.Alert, error) {
	q := psql.Select("*").From("alert").
		Where("school_id = ?", schoolID).
		OrderBy(alertOrdering.String())
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", string(filter.Priority))
	}
	if filter.TripID != "" {
		q = q.Where("trip_instance_id = ?", filter.TripID)
	}
	if filter.Unresolved {
		q = q.Where("resolved_at IS NULL")
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building alert query")
	}
	rows := make([]dbAlert, 0)
	if err = repo.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying alerts")
	}

	alerts := make([]transport.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, repo.fromRow(row))
	}
	return alerts, nil
}

func (repo alertRepository) AcknowledgeAlert(ctx context.Context, schoolID, id string, at time.Time) (transport.Alert, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE alert SET acknowledged_at = $1
		WHERE id = $2 AND school_id = $3 AND acknowledged_at IS NULL AND resolved_at IS NULL`,
		at.UTC(), id, schoolID)
	if err != nil {
		return transport.Alert{}, errors.Wrap(err, "acknowledging alert")
	}
	return repo.afterCAS(ctx, res, schoolID, id)
}

func (repo alertRepository) ResolveAlert(ctx context.Context, schoolID, id string, at time.Time, requireAck bool) (transport.Alert, error) {
	stmt := `
		UPDATE alert SET resolved_at = $1
		WHERE id = $2 AND school_id = $3 AND resolved_at IS NULL`
	if requireAck {
		stmt += ` AND acknowledged_at IS NOT NULL`
	}
	res, err := repo.db.ExecContext(ctx, stmt, at.UTC(), id, schoolID)
	if err != nil {
		return transport.Alert{}, errors.Wrap(err, "resolving alert")
	}
	return repo.afterCAS(ctx, res, schoolID, id)
}

func (repo alertRepository) HasOpenAlert(ctx context.Context, schoolID, tripID string, typ transport.AlertType) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM alert
			WHERE school_id = $1 AND trip_instance_id = $2 AND type = $3 AND resolved_at IS NULL
		)`, schoolID, tripID, string(typ))
	if err != nil {
		return false, errors.Wrap(err, "checking open alerts")
	}
	return exists, nil
}

// afterCAS resolves the outcome of a guarded update: the fresh row on
// success, not-found, or a lost race.
func (repo alertRepository) afterCAS(ctx context.Context, res interface{ RowsAffected() (int64, error) }, schoolID, id string) (transport.Alert, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return transport.Alert{}, errors.Wrap(err, "updating alert")
	}
	if n == 0 {
		if _, gerr := repo.GetAlert(ctx, schoolID, id); gerr != nil {
			return transport.Alert{}, gerr
		}
		return transport.Alert{}, transport.ErrConcurrentModification
	}
	if n > 1 {
		return transport.Alert{}, core.NewShutdownError("alert update affected multiple rows")
	}
	return repo.GetAlert(ctx, schoolID, id)
}
