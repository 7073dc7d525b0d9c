package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/collab46515/accademy-assist-sub006/core"
	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type stopRepository struct {
	db core.DB
}

var (
	_ transport.StopRepository = (*stopRepository)(nil) // interface compliance check

	stopOrdering = core.DBOrdering{Field: "name", Ascending: true}
)

func NewStopRepository(db core.DB) *stopRepository {
	return &stopRepository{db: db}
}

type dbStop struct {
	ID              string       `db:"id"`
	SchoolID        string       `db:"school_id"`
	RouteID         string       `db:"route_id"`
	Name            string       `db:"name"`
	Type            string       `db:"type"`
	Latitude        null.Float64 `db:"latitude"`
	Longitude       null.Float64 `db:"longitude"`
	GeofenceRadiusM float64      `db:"geofence_radius_m"`
	PickupTime      string       `db:"pickup_time"`
	DropTime        null.String  `db:"drop_time"`
	Active          bool         `db:"active"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

func (repo stopRepository) toRow(stop transport.Stop) dbStop {
	return dbStop{
		ID:              stop.ID,
		SchoolID:        stop.SchoolID,
		RouteID:         stop.RouteID,
		Name:            stop.Name,
		Type:            string(stop.Type),
		Latitude:        stop.Latitude,
		Longitude:       stop.Longitude,
		GeofenceRadiusM: stop.GeofenceRadiusM,
		PickupTime:      stop.PickupTime,
		DropTime:        stop.DropTime,
		Active:          stop.Active,
		CreatedAt:       stop.CreatedAt.UTC(),
		UpdatedAt:       stop.UpdatedAt.UTC(),
	}
}

func (repo stopRepository) fromRow(row dbStop) transport.Stop {
	return transport.Stop{
		ID:              row.ID,
		SchoolID:        row.SchoolID,
		RouteID:         row.RouteID,
		Name:            row.Name,
		Type:            transport.StopType(row.Type),
		Latitude:        row.Latitude,
		Longitude:       row.Longitude,
		GeofenceRadiusM: row.GeofenceRadiusM,
		PickupTime:      row.PickupTime,
		DropTime:        row.DropTime,
		Active:          row.Active,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

// checkGeofence runs the overlap check against the school's active geofenced
// stops inside tx. Combined with serializable isolation this makes
// check-then-insert safe against concurrent stop writes.
func (repo stopRepository) checkGeofence(ctx context.Context, tx core.DBExecutor, stop transport.Stop) error {
	if !stop.Active || !stop.Geofenced() {
		return nil
	}
	rows := make([]dbStop, 0)
	err := tx.SelectContext(ctx, &rows, `
		SELECT * FROM stop
		WHERE school_id = $1 AND active AND latitude IS NOT NULL AND longitude IS NOT NULL`,
		stop.SchoolID)
	if err != nil {
		return errors.Wrap(err, "querying active geofenced stops")
	}

	others := make([]transport.Stop, 0, len(rows))
	for _, row := range rows {
		others = append(others, repo.fromRow(row))
	}
	candidate := transport.Circle{
		Lat:     stop.Latitude.Float64,
		Lon:     stop.Longitude.Float64,
		RadiusM: stop.GeofenceRadiusM,
	}
	return transport.CheckGeofence(candidate, stop.ID, others)
}

func (repo stopRepository) CreateStop(ctx context.Context, stop transport.Stop) (transport.Stop, error) {
	tx, err := repo.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return transport.Stop{}, errors.Wrap(err, "beginning stop transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = repo.checkGeofence(ctx, tx, stop); err != nil {
		return transport.Stop{}, err
	}

	stop.ID = uuid.New().String()
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO stop (
			id, school_id, route_id, name, type, latitude, longitude,
			geofence_radius_m, pickup_time, drop_time, active, created_at, updated_at
		) VALUES (
			:id, :school_id, :route_id, :name, :type, :latitude, :longitude,
			:geofence_radius_m, :pickup_time, :drop_time, :active, :created_at, :updated_at
		)`, repo.toRow(stop))
	if err != nil {
		return transport.Stop{}, trapSerializationErr(err, "inserting stop")
	}
	if err = tx.Commit(); err != nil {
		return transport.Stop{}, trapSerializationErr(err, "committing stop")
	}
	return stop, nil
}

func (repo stopRepository) GetStop(ctx context.Context, schoolID, id string) (transport.Stop, error) {
	var row dbStop
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM stop WHERE id = $1 AND school_id = $2`, id, schoolID)
	if err != nil {
		return transport.Stop{}, trapNoRowsErr(err, transport.ErrStopNotFound, "getting stop")
	}
	return repo.fromRow(row), nil
}

func (repo stopRepository) FilterStops(ctx context.Context, schoolID string, filter transport.StopFilter) ([]transport.Stop, error) {
	q := psql.Select("*").From("stop").
		Where("school_id = ?", schoolID).
		OrderBy(stopOrdering.String())
	if filter.RouteID != "" {
		q = q.Where("route_id = ?", filter.RouteID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}

	stmt, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building stop query")
	}
	rows := make([]dbStop, 0)
	if err = repo.db.SelectContext(ctx, &rows, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "querying stops")
	}

	stops := make([]transport.Stop, 0, len(rows))
	for _, row := range rows {
		stops = append(stops, repo.fromRow(row))
	}
	return stops, nil
}

func (repo stopRepository) UpdateStop(ctx context.Context, stop transport.Stop) (transport.Stop, error) {
	tx, err := repo.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return transport.Stop{}, errors.Wrap(err, "beginning stop transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = repo.checkGeofence(ctx, tx, stop); err != nil {
		return transport.Stop{}, err
	}

	res, err := tx.NamedExecContext(ctx, `
		UPDATE stop SET
			name = :name, type = :type, latitude = :latitude, longitude = :longitude,
			geofence_radius_m = :geofence_radius_m, pickup_time = :pickup_time,
			drop_time = :drop_time, active = :active, updated_at = :updated_at
		WHERE id = :id AND school_id = :school_id`, repo.toRow(stop))
	if err != nil {
		return transport.Stop{}, trapSerializationErr(err, "updating stop")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return transport.Stop{}, errors.Wrap(err, "updating stop")
	}
	if n == 0 {
		return transport.Stop{}, transport.ErrStopNotFound
	}
	if err = tx.Commit(); err != nil {
		return transport.Stop{}, trapSerializationErr(err, "committing stop")
	}
	return stop, nil
}
