package sqlxrepos

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/collab46515/accademy-assist-sub006/core"
	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// both the pool and an open transaction carry the executor contract
var (
	_ core.DB         = (*sqlx.DB)(nil)
	_ core.DBExecutor = (*sqlx.Tx)(nil)
)

// trapNoRowsErr maps psql "no rows" err to the domain not-found error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapSerializationErr maps a postgres serialization failure (SQLSTATE 40001)
// to ErrConcurrentModification so callers retry instead of surfacing a 500.
func trapSerializationErr(err error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == "40001" {
		return transport.ErrConcurrentModification
	}
	return errors.Wrap(err, msg)
}
