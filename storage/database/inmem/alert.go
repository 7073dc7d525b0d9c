package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type alertRepository struct {
	db *alertTable
}

var _ transport.AlertRepository = (*alertRepository)(nil) // interface compliance check

func NewAlertRepository(db *DB) *alertRepository {
	return &alertRepository{db: db.alert}
}

func (repo *alertRepository) CreateAlert(_ context.Context, alert transport.Alert) (transport.Alert, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	alert.ID = uuid.New().String()
	repo.db.table[alert.ID] = &alert
	return alert, nil
}

func (repo *alertRepository) GetAlert(_ context.Context, schoolID, id string) (transport.Alert, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if alert, ok := repo.db.table[id]; ok && alert.SchoolID == schoolID {
		return *alert, nil
	}
	return transport.Alert{}, transport.ErrAlertNotFound
}

func (repo *alertRepository) FilterAlerts(_ context.Context, schoolID string, filter transport.AlertFilter) ([]transport.Alert, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	alerts := make([]transport.Alert, 0)
	for _, alert := range repo.db.table {
		if alert.SchoolID != schoolID {
			continue
		}
		if filter.Type != "" && alert.Type != filter.Type {
			continue
		}
		if filter.Priority != "" && alert.Priority != filter.Priority {
			continue
		}
		if filter.TripID != "" && alert.TripInstanceID.String != filter.TripID {
			continue
		}
		if filter.Unresolved && alert.Resolved() {
			continue
		}
		alerts = append(alerts, *alert)
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.After(alerts[j].CreatedAt) })
	return alerts, nil
}

func (repo *alertRepository) AcknowledgeAlert(_ context.Context, schoolID, id string, at time.Time) (transport.Alert, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[id]
	if !ok || stored.SchoolID != schoolID {
		return transport.Alert{}, transport.ErrAlertNotFound
	}
	if stored.Acknowledged() || stored.Resolved() {
		return transport.Alert{}, transport.ErrConcurrentModification
	}
	alert := *stored
	alert.AcknowledgedAt.SetValid(at)
	repo.db.table[id] = &alert
	return alert, nil
}

func (repo *alertRepository) ResolveAlert(_ context.Context, schoolID, id string, at time.Time, requireAck bool) (transport.Alert, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[id]
	if !ok || stored.SchoolID != schoolID {
		return transport.Alert{}, transport.ErrAlertNotFound
	}
	if stored.Resolved() {
		return transport.Alert{}, transport.ErrConcurrentModification
	}
	if requireAck && !stored.Acknowledged() {
		return transport.Alert{}, transport.ErrConcurrentModification
	}
	alert := *stored
	alert.ResolvedAt.SetValid(at)
	repo.db.table[id] = &alert
	return alert, nil
}

func (repo *alertRepository) HasOpenAlert(_ context.Context, schoolID, tripID string, typ transport.AlertType) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, alert := range repo.db.table {
		if alert.SchoolID == schoolID && alert.Type == typ && alert.TripInstanceID.String == tripID && !alert.Resolved() {
			return true, nil
		}
	}
	return false, nil
}
