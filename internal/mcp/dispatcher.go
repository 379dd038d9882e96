package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
	"github.com/suPer8Hu/mcp-gateway/internal/store"
)

// Database is the slice of the store the dispatcher drives.
type Database interface {
	ListTables(ctx context.Context) ([]string, error)
	TableStructure(ctx context.Context, table string) (*store.TableDescriptor, error)
	ExecuteQuery(ctx context.Context, query string) (*store.QueryResult, error)
	TableContent(ctx context.Context, q store.ContentQuery) (*store.TableContent, error)
}

type Dispatcher struct {
	db Database
}

func NewDispatcher(db Database) *Dispatcher {
	return &Dispatcher{db: db}
}

// Run parses and executes one action.
func (d *Dispatcher) Run(ctx context.Context, action string, params map[string]any) (any, error) {
	cmd, err := ParseCommand(action, params)
	if err != nil {
		return nil, err
	}
	return d.Execute(ctx, cmd)
}

// Execute returns the store result unchanged. Store errors pass through;
// anything else becomes a generic database error.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatcher panic", "command", fmt.Sprintf("%T", cmd), "panic", r)
			out, err = nil, common.DatabaseError(fmt.Sprintf("Error inesperado: %v", r), nil)
		}
	}()

	switch c := cmd.(type) {
	case ListTables:
		out, err = d.db.ListTables(ctx)
	case DescribeTable:
		out, err = d.db.TableStructure(ctx, c.Table)
	case ExecuteQuery:
		out, err = d.db.ExecuteQuery(ctx, c.Query)
	case GetTableContent:
		out, err = d.db.TableContent(ctx, store.ContentQuery{
			Table:          c.Table,
			Limit:          c.Limit,
			Offset:         c.Offset,
			OrderBy:        c.OrderBy,
			OrderDirection: c.OrderDirection,
		})
	default:
		return nil, common.Validationf("Acción no válida: %s", cmd.Action())
	}
	if err != nil {
		if _, ok := common.AsError(err); ok {
			return nil, err
		}
		return nil, common.DatabaseError("Error inesperado", err)
	}
	return out, nil
}
