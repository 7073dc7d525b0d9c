package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type boardingRepository struct {
	db *boardingTable
}

var _ transport.BoardingRepository = (*boardingRepository)(nil) // interface compliance check

func NewBoardingRepository(db *DB) *boardingRepository {
	return &boardingRepository{db: db.boarding}
}

func (repo *boardingRepository) CreateBoardingEvent(_ context.Context, ev transport.BoardingEvent) (transport.BoardingEvent, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// at most one effective board per (trip, student)
	if ev.Action == transport.ActionBoard {
		for _, stored := range repo.db.rows {
			if stored.SchoolID == ev.SchoolID &&
				stored.TripInstanceID == ev.TripInstanceID &&
				stored.StudentID == ev.StudentID &&
				stored.Action == transport.ActionBoard {
				return stored, false, nil
			}
		}
	}

	ev.ID = uuid.New().String()
	repo.db.rows = append(repo.db.rows, ev)
	return ev, true, nil
}

func (repo *boardingRepository) EventsForTrip(_ context.Context, schoolID, tripID string) ([]transport.BoardingEvent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	evs := make([]transport.BoardingEvent, 0)
	for _, ev := range repo.db.rows {
		if ev.SchoolID == schoolID && ev.TripInstanceID == tripID {
			evs = append(evs, ev)
		}
	}
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].Timestamp.Before(evs[j].Timestamp) })
	return evs, nil
}

func (repo *boardingRepository) CountDistinctStudents(_ context.Context, schoolID, tripID string, action transport.BoardingAction) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make(map[string]struct{})
	for _, ev := range repo.db.rows {
		if ev.SchoolID == schoolID && ev.TripInstanceID == tripID && ev.Action == action {
			students[ev.StudentID] = struct{}{}
		}
	}
	return len(students), nil
}
