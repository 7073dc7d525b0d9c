package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type tripRepository struct {
	db *tripTable
}

var _ transport.TripRepository = (*tripRepository)(nil) // interface compliance check

func NewTripRepository(db *DB) *tripRepository {
	return &tripRepository{db: db.trip}
}

func (repo *tripRepository) CreateTripInstance(_ context.Context, trip transport.TripInstance) (transport.TripInstance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	trip.ID = uuid.New().String()
	repo.db.table[trip.ID] = &trip
	return trip, nil
}

func (repo *tripRepository) GetTripInstance(_ context.Context, schoolID, id string) (transport.TripInstance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if trip, ok := repo.db.table[id]; ok && trip.SchoolID == schoolID {
		return *trip, nil
	}
	return transport.TripInstance{}, transport.ErrTripNotFound
}

func (repo *tripRepository) FilterTripInstances(_ context.Context, schoolID string, filter transport.TripFilter) ([]transport.TripInstance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	trips := make([]transport.TripInstance, 0)
	for _, trip := range repo.db.table {
		if trip.SchoolID != schoolID {
			continue
		}
		if filter.RouteID != "" && trip.RouteID != filter.RouteID {
			continue
		}
		if filter.Status != "" && trip.Status != filter.Status {
			continue
		}
		if !filter.ScheduledFrom.IsZero() && trip.ScheduledStart.Before(filter.ScheduledFrom) {
			continue
		}
		if !filter.ScheduledTo.IsZero() && trip.ScheduledStart.After(filter.ScheduledTo) {
			continue
		}
		trips = append(trips, *trip)
	}
	sort.Slice(trips, func(i, j int) bool { return trips[i].ScheduledStart.After(trips[j].ScheduledStart) })
	return trips, nil
}

func (repo *tripRepository) UpdateTripStatus(_ context.Context, trip transport.TripInstance, expected transport.TripStatus) (transport.TripInstance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[trip.ID]
	if !ok || stored.SchoolID != trip.SchoolID {
		return transport.TripInstance{}, transport.ErrTripNotFound
	}
	if stored.Status != expected {
		return transport.TripInstance{}, transport.ErrConcurrentModification
	}
	repo.db.table[trip.ID] = &trip
	return trip, nil
}
