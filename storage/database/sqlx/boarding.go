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

type boardingRepository struct {
	db core.DB
}

var _ transport.BoardingRepository = (*boardingRepository)(nil) // interface compliance check

func NewBoardingRepository(db core.DB) *boardingRepository {
	return &boardingRepository{db: db}
}

type dbBoardingEvent struct {
	ID             string      `db:"id"`
	SchoolID       string      `db:"school_id"`
	TripInstanceID string      `db:"trip_instance_id"`
	StudentID      string      `db:"student_id"`
	StopID         null.String `db:"stop_id"`
	Action         string      `db:"action_type"`
	Method         string      `db:"method"`
	RecordedBy     string      `db:"recorded_by"`
	ParentNotified bool        `db:"parent_notified"`
	OccurredAt     time.Time   `db:"occurred_at"`
}

func (repo boardingRepository) toRow(ev transport.BoardingEvent) dbBoardingEvent {
	return dbBoardingEvent{
		ID:             ev.ID,
		SchoolID:       ev.SchoolID,
		TripInstanceID: ev.TripInstanceID,
		StudentID:      ev.StudentID,
		StopID:         ev.StopID,
		Action:         string(ev.Action),
		Method:         string(ev.Method),
		RecordedBy:     ev.RecordedBy,
		ParentNotified: ev.ParentNotified,
		OccurredAt:     ev.Timestamp.UTC(),
	}
}

func (repo boardingRepository) fromRow(row dbBoardingEvent) transport.BoardingEvent {
	return transport.BoardingEvent{
		ID:             row.ID,
		SchoolID:       row.SchoolID,
		TripInstanceID: row.TripInstanceID,
		StudentID:      row.StudentID,
		StopID:         row.StopID,
		Action:         transport.BoardingAction(row.Action),
		Method:         transport.BoardingMethod(row.Method),
		RecordedBy:     row.RecordedBy,
		ParentNotified: row.ParentNotified,
		Timestamp:      row.OccurredAt,
	}
}

// CreateBoardingEvent appends to the ledger. Board actions ride the partial
// unique index on (trip_instance_id, student_id) WHERE action_type = 'board':
// concurrent duplicate boards collapse to the one stored row.
func (repo boardingRepository) CreateBoardingEvent(ctx context.Context, ev transport.BoardingEvent) (transport.BoardingEvent, bool, error) {
	ev.ID = uuid.New().String()
	res, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO boarding_event (
			id, school_id, trip_instance_id, student_id, stop_id,
			action_type, method, recorded_by, parent_notified, occurred_at
		) VALUES (
			:id, :school_id, :trip_instance_id, :student_id, :stop_id,
			:action_type, :method, :recorded_by, :parent_notified, :occurred_at
		)
		ON CONFLICT (trip_instance_id, student_id) WHERE action_type = 'board' DO NOTHING`,
		repo.toRow(ev))
	if err != nil {
		return transport.BoardingEvent{}, false, errors.Wrap(err, "inserting boarding event")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return transport.BoardingEvent{}, false, errors.Wrap(err, "inserting boarding event")
	}
	if n > 0 {
		return ev, true, nil
	}

	// duplicate board: hand back the effective event
	var row dbBoardingEvent
	err = repo.db.GetContext(ctx, &row, `
		SELECT * FROM boarding_event
		WHERE trip_instance_id = $1 AND student_id = $2 AND action_type = $3`,
		ev.TripInstanceID, ev.StudentID, string(transport.ActionBoard))
	if err != nil {
		return transport.BoardingEvent{}, false, errors.Wrap(err, "getting effective boarding event")
	}
	return repo.fromRow(row), false, nil
}

func (repo boardingRepository) EventsForTrip(ctx context.Context, schoolID, tripID string) ([]transport.BoardingEvent, error) {
	rows := make([]dbBoardingEvent, 0)
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM boarding_event
		WHERE school_id = $1 AND trip_instance_id = $2
		ORDER BY occurred_at ASC, id ASC`, schoolID, tripID)
	if err != nil {
		return nil, errors.Wrap(err, "querying boarding events")
	}

	evs := make([]transport.BoardingEvent, 0, len(rows))
	for _, row := range rows {
		evs = append(evs, repo.fromRow(row))
	}
	return evs, nil
}

func (repo boardingRepository) CountDistinctStudents(ctx context.Context, schoolID, tripID string, action transport.BoardingAction) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count, `
		SELECT COUNT(DISTINCT student_id) FROM boarding_event
		WHERE school_id = $1 AND trip_instance_id = $2 AND action_type = $3`,
		schoolID, tripID, string(action))
	if err != nil {
		return 0, errors.Wrap(err, "counting boarding events")
	}
	return count, nil
}
