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

type tripRepository struct {
	db core.DB
}

var (
	_ transport.TripRepository = (*tripRepository)(nil) // interface compliance check

	tripOrdering = core.DBOrdering{Field: "scheduled_start"}
)

func NewTripRepository(db core.DB) *tripRepository {
	return &tripRepository{db: db}
}

type dbTrip struct {
	ID                   string      `db:"id"`
	SchoolID             string      `db:"school_id"`
	RouteID              string      `db:"route_id"`
	Status               string      `db:"status"`
	ScheduledStart       time.Time   `db:"scheduled_start"`
	ActualStart          null.Time   `db:"actual_start"`
	ActualEnd            null.Time   `db:"actual_end"`
	ExpectedStudentCount int         `db:"expected_student_count"`
	DriverID             null.String `db:"driver_id"`
	VehicleID            null.String `db:"vehicle_id"`
	Reason               null.String `db:"reason"`
	CreatedAt            time.Time   `db:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at"`
}

func (repo tripRepository) toRow(trip transport.TripInstance) dbTrip {
	return dbTrip{
		ID:                   trip.ID,
		SchoolID:             trip.SchoolID,
		RouteID:              trip.RouteID,
		Status:               string(trip.Status),
		ScheduledStart:       trip.ScheduledStart.UTC(),
		ActualStart:          trip.ActualStart,
		ActualEnd:            trip.ActualEnd,
		ExpectedStudentCount: trip.ExpectedStudentCount,
		DriverID:             trip.DriverID,
		VehicleID:            trip.VehicleID,
		Reason:               trip.Reason,
		CreatedAt:            trip.CreatedAt.UTC(),
		UpdatedAt:            trip.UpdatedAt.UTC(),
	}
}

func (repo tripRepository) fromRow(row dbTrip) transport.TripInstance {
	return transport.TripInstance{
		ID:                   row.ID,
		SchoolID:             row.SchoolID,
		RouteID:              row.RouteID,
		Status:               transport.TripStatus(row.Status),
		ScheduledStart:       row.ScheduledStart,
		ActualStart:          row.ActualStart,
		ActualEnd:            row.ActualEnd,
		ExpectedStudentCount: row.ExpectedStudentCount,
		DriverID:             row.DriverID,
		VehicleID:            row.VehicleID,
		Reason:               row.Reason,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func (repo tripRepository) CreateTripInstance(ctx context.Context, trip transport.TripInstance) (transport.TripInstance, error) {
	trip.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO trip_instance (
			id, school_id, route_id, status, scheduled_start, actual_start, actual_end,
			expected_student_count, driver_id, vehicle_id, reason, created_at, updated_at
		) VALUES (
			:id, :school_id, :route_id, :status, :scheduled_start, :actual_start, :actual_end,
			:expected_student_count, :driver_id, :vehicle_id, :reason, :created_at, :updated_at
		)`, repo.toRow(trip))
	if err != nil {
		return transport.TripInstance{}, errors.Wrap(err, "inserting trip instance")
	}
	return trip, nil
}

func (repo tripRepository) GetTripInstance(ctx context.Context, schoolID, id string) (transport.TripInstance, error) {
	var row dbTrip
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM trip_instance WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return transport.TripInstance{}, trapNoRowsErr(err, transport.ErrTripNotFound, "getting trip instance")
	}
	return repo.fromRow(row), nil
}

func (repo tripRepository) FilterTripInstances(ctx context.Context, schoolID string, filter transport.TripFilter) ([]transport.TripInstance, error) {
	q := psql.Select("*").From("trip_instance").
		Where("school_id = ?", schoolID).
		OrderBy(tripOrdering.String())
	if filter.RouteID != "" {
		q = q.Where("route_id = ?", filter.RouteID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if !filter.ScheduledFrom.IsZero() {
		q = q.Where("scheduled_start >= ?", filter.ScheduledFrom.UTC())
	}
	if !filter.ScheduledTo.IsZero() {
		q = q.Where("scheduled_start <= ?", filter.ScheduledTo.UTC())
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building trip query")
	}
	rows := make([]dbTrip, 0)
	if err = repo.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying trip instances")
	}

	trips := make([]transport.TripInstance, 0, len(rows))
	for _, row := range rows {
		trips = append(trips, repo.fromRow(row))
	}
	return trips, nil
}

func (repo tripRepository) UpdateTripStatus(ctx context.Context, trip transport.TripInstance, expected transport.TripStatus) (transport.TripInstance, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE trip_instance SET
			status = $1, actual_start = $2, actual_end = $3,
			driver_id = $4, vehicle_id = $5, reason = $6, updated_at = $7
		WHERE id = $8 AND school_id = $9 AND status = $10`,
		string(trip.Status), trip.ActualStart, trip.ActualEnd,
		trip.DriverID, trip.VehicleID, trip.Reason, trip.UpdatedAt.UTC(),
		trip.ID, trip.SchoolID, string(expected))
	if err != nil {
		return transport.TripInstance{}, errors.Wrap(err, "updating trip instance")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return transport.TripInstance{}, errors.Wrap(err, "updating trip instance")
	}
	if n == 0 {
		// row missing or the pre-state no longer matches
		if _, gerr := repo.GetTripInstance(ctx, trip.SchoolID, trip.ID); gerr != nil {
			return transport.TripInstance{}, gerr
		}
		return transport.TripInstance{}, transport.ErrConcurrentModification
	}
	if n > 1 {
		// a guarded update by primary key touched several rows: the table
		// integrity is gone and the service cannot be trusted to keep writing
		return transport.TripInstance{}, core.NewShutdownError("trip instance update affected multiple rows")
	}
	return trip, nil
}
