package store

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
	"github.com/suPer8Hu/mcp-gateway/internal/db"
)

type TableDescriptor struct {
	Status  string   `json:"status"`
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
}

type ContentQuery struct {
	Table          string
	Limit          *int
	Offset         *int
	OrderBy        string
	OrderDirection string
}

type TableContent struct {
	Status  string           `json:"status"`
	Table   string           `json:"table"`
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
	Total   int64            `json:"total"`
	Limit   *int             `json:"limit"`
	Offset  *int             `json:"offset"`
}

type TableInfo struct {
	Name            string       `json:"table_name"`
	Type            string       `json:"table_type"`
	ColumnCount     int          `json:"column_count"`
	ConstraintCount int          `json:"constraint_count"`
	Columns         []Column     `json:"columns"`
	Constraints     []Constraint `json:"constraints"`
}

type Discovery struct {
	Status      string      `json:"status"`
	Tables      []TableInfo `json:"tables"`
	TotalTables int         `json:"total_tables"`
}

// Service is the only place SQL is issued on behalf of callers.
type Service struct {
	db      *gorm.DB
	catalog Catalog
	timeout time.Duration
}

func NewService(gdb *gorm.DB, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Service{
		db:      gdb,
		catalog: CatalogFor(gdb.Dialector.Name()),
		timeout: timeout,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// conn pins one pooled connection for fn and returns it on every path.
func (s *Service) conn(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Connection(fn)
}

func (s *Service) ListTables(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var tables []Table
	err := s.conn(ctx, func(tx *gorm.DB) error {
		var err error
		tables, err = s.catalog.Tables(tx)
		return err
	})
	if err != nil {
		if e := db.Classify("list_tables", err); e != nil {
			return nil, e
		}
		return nil, common.ConnectionFailed(err)
	}

	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	return names, nil
}

func (s *Service) TableExists(ctx context.Context, table string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var ok bool
	err := s.conn(ctx, func(tx *gorm.DB) error {
		var err error
		ok, err = s.catalog.HasTable(tx, table)
		return err
	})
	if err != nil {
		if e := db.Classify("table_exists", err); e != nil {
			return false, e
		}
		return false, common.DatabaseError("Error al verificar la tabla", err)
	}
	return ok, nil
}

func (s *Service) TableStructure(ctx context.Context, table string) (*TableDescriptor, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var cols []Column
	err := s.conn(ctx, func(tx *gorm.DB) error {
		ok, err := s.catalog.HasTable(tx, table)
		if err != nil {
			return err
		}
		if !ok {
			return common.TableNotFound(table)
		}
		cols, err = s.catalog.Columns(tx, table)
		return err
	})
	if err != nil {
		if e := db.Classify("describe_table", err); e != nil {
			return nil, e
		}
		return nil, common.QueryFailed("describe "+table, err)
	}
	return &TableDescriptor{Status: "success", Table: table, Columns: cols}, nil
}

func (s *Service) TableContent(ctx context.Context, q ContentQuery) (*TableContent, error) {
	if q.Limit != nil && *q.Limit < 1 {
		return nil, common.Validation("limit debe ser mayor o igual a 1")
	}
	if q.Offset != nil && *q.Offset < 0 {
		return nil, common.Validation("offset debe ser mayor o igual a 0")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out := &TableContent{Status: "success", Table: q.Table, Limit: q.Limit, Offset: q.Offset}
	var sqlText string
	err := s.conn(ctx, func(tx *gorm.DB) error {
		ok, err := s.catalog.HasTable(tx, q.Table)
		if err != nil {
			return err
		}
		if !ok {
			return common.TableNotFound(q.Table)
		}

		var b strings.Builder
		b.WriteString("SELECT * FROM ")
		b.WriteString(quoteIdent(q.Table))

		if q.OrderBy != "" {
			cols, err := s.catalog.Columns(tx, q.Table)
			if err != nil {
				return err
			}
			col, found := matchColumn(cols, q.OrderBy)
			if !found {
				return common.Validationf("La columna '%s' no existe en la tabla '%s'", q.OrderBy, q.Table)
			}
			b.WriteString(" ORDER BY ")
			b.WriteString(quoteIdent(col))
			if strings.EqualFold(q.OrderDirection, "desc") {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}

		var args []any
		if q.Limit != nil {
			b.WriteString(" LIMIT ?")
			args = append(args, *q.Limit)
		}
		if q.Offset != nil {
			b.WriteString(" OFFSET ?")
			args = append(args, *q.Offset)
		}
		sqlText = b.String()

		rows, err := tx.Raw(sqlText, args...).Rows()
		if err != nil {
			return err
		}
		cols, data, err := scanRows(rows)
		if err != nil {
			return err
		}
		out.Columns = cols
		out.Data = data

		return tx.Raw("SELECT COUNT(*) FROM " + quoteIdent(q.Table)).Scan(&out.Total).Error
	})
	if err != nil {
		if e := db.Classify("get_table_content", err); e != nil {
			return nil, e
		}
		return nil, common.QueryFailed(sqlText, err)
	}
	return out, nil
}

// DiscoverTables snapshots every table with its columns and constraints.
func (s *Service) DiscoverTables(ctx context.Context) (*Discovery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out := &Discovery{Status: "success", Tables: []TableInfo{}}
	err := s.conn(ctx, func(tx *gorm.DB) error {
		tables, err := s.catalog.Tables(tx)
		if err != nil {
			return err
		}
		for _, t := range tables {
			cols, err := s.catalog.Columns(tx, t.Name)
			if err != nil {
				return err
			}
			cons, err := s.catalog.Constraints(tx, t.Name)
			if err != nil {
				return err
			}
			out.Tables = append(out.Tables, TableInfo{
				Name:            t.Name,
				Type:            t.Type,
				ColumnCount:     len(cols),
				ConstraintCount: len(cons),
				Columns:         cols,
				Constraints:     cons,
			})
		}
		return nil
	})
	if err != nil {
		if e := db.Classify("discover_tables", err); e != nil {
			return nil, e
		}
		return nil, common.DatabaseError("Error al descubrir tablas", err)
	}
	out.TotalTables = len(out.Tables)
	return out, nil
}

// matchColumn resolves name against the catalog, exact match first.
func matchColumn(cols []Column, name string) (string, bool) {
	for _, c := range cols {
		if c.Name == name {
			return c.Name, true
		}
	}
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return c.Name, true
		}
	}
	return "", false
}

// quoteIdent is standard SQL identifier quoting, valid for both PostgreSQL
// and SQLite. Callers only pass names already confirmed by the catalog.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
