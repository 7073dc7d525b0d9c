package inmemdb

import (
	"sync"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

// DB is a mutex-guarded in-memory store used in dev and tests.
type DB struct {
	trip     *tripTable
	boarding *boardingTable
	stop     *stopTable
	alert    *alertTable
}

func NewDB() *DB {
	return &DB{
		trip:     &tripTable{table: make(map[string]*transport.TripInstance)},
		boarding: &boardingTable{},
		stop:     &stopTable{table: make(map[string]*transport.Stop)},
		alert:    &alertTable{table: make(map[string]*transport.Alert)},
	}
}

type tripTable struct {
	mutex sync.RWMutex
	table map[string]*transport.TripInstance
}

type boardingTable struct {
	mutex sync.RWMutex
	rows  []transport.BoardingEvent // append-only
}

type stopTable struct {
	mutex sync.RWMutex
	table map[string]*transport.Stop
}

type alertTable struct {
	mutex sync.RWMutex
	table map[string]*transport.Alert
}
