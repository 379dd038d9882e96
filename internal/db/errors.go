package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
)

// sqlstate 57014: query_canceled, raised when statement_timeout fires.
const pgQueryCanceled = "57014"

// Classify turns deadline and connectivity failures into their error kinds.
// It returns nil for anything else so callers pick the kind themselves.
func Classify(op string, err error) *common.Error {
	if err == nil {
		return nil
	}
	if e, ok := common.AsError(err); ok {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.Timeout(op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgQueryCanceled {
		return common.Timeout(op, err)
	}
	if isConnErr(err) {
		return common.ConnectionFailed(err)
	}
	return nil
}

func isConnErr(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, syscall.ECONNREFUSED)
}
