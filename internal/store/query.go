package store

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
	"github.com/suPer8Hu/mcp-gateway/internal/db"
)

const (
	msgExecuted         = "Operación ejecutada correctamente"
	msgStructureChanged = "Operación completada. Se detectaron cambios en la estructura de las tablas."
	msgNotAllowed       = "La consulta no está permitida por razones de seguridad. " +
		"Solo se permiten operaciones CRUD básicas (SELECT, INSERT, UPDATE, DELETE, CREATE TABLE, ALTER TABLE)."
)

// deniedPhrases block database-, schema- and role-level administration.
// Table-level DDL and DML stay allowed.
var deniedPhrases = []string{
	"drop database",
	"drop schema",
	"alter database",
	"alter schema",
	"create database",
	"create schema",
	"drop role",
	"create role",
	"grant all",
	"revoke all",
}

var readKeywords = map[string]bool{
	"select":  true,
	"with":    true,
	"show":    true,
	"explain": true,
	"values":  true,
	"table":   true,
}

// dmlKeywords return rows only when they carry a RETURNING clause.
var dmlKeywords = map[string]bool{
	"insert": true,
	"update": true,
	"delete": true,
	"merge":  true,
}

var returningClause = regexp.MustCompile(`\breturning\b`)

var structuralPrefixes = []string{"alter table", "drop table", "rename table"}

type QueryResult struct {
	Status       string           `json:"status"`
	Message      string           `json:"message,omitempty"`
	Results      []map[string]any `json:"results,omitzero"`
	RowCount     *int             `json:"row_count,omitempty"`
	AffectedRows *int64           `json:"affected_rows,omitempty"`
	TablesBefore *Discovery       `json:"tables_before,omitempty"`
	TablesAfter  *Discovery       `json:"tables_after,omitempty"`
}

// normalize lowercases and collapses whitespace runs so "DROP \n DATABASE"
// matches the same phrase as "drop database".
func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// IsSafeQuery applies the deny-list.
func IsSafeQuery(query string) bool {
	q := normalize(query)
	for _, p := range deniedPhrases {
		if strings.Contains(q, p) {
			return false
		}
	}
	return true
}

// IsReadQuery reports whether the statement returns rows, judged by its
// leading keyword. Writes with a RETURNING clause count as reads.
func IsReadQuery(query string) bool {
	q := strings.TrimLeft(normalize(query), "( ")
	kw := q
	if i := strings.IndexAny(q, " (;"); i >= 0 {
		kw = q[:i]
	}
	if readKeywords[kw] {
		return true
	}
	return dmlKeywords[kw] && returningClause.MatchString(q)
}

func isStructural(query string) bool {
	q := normalize(query)
	for _, p := range structuralPrefixes {
		if strings.HasPrefix(q, p) {
			return true
		}
	}
	return false
}

// ExecuteQuery runs caller-supplied SQL in a single transaction.
func (s *Service) ExecuteQuery(ctx context.Context, query string) (*QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, common.Validation("La consulta no puede estar vacía")
	}
	if !IsSafeQuery(query) {
		return nil, common.Validation(msgNotAllowed)
	}

	structural := isStructural(query)
	var before *Discovery
	if structural {
		var err error
		if before, err = s.DiscoverTables(ctx); err != nil {
			slog.Warn("schema snapshot before query failed", "err", err)
		}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := &QueryResult{Status: "success"}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if IsReadQuery(query) {
			rows, err := tx.Raw(query).Rows()
			if err != nil {
				return err
			}
			_, data, err := scanRows(rows)
			if err != nil {
				return err
			}
			n := len(data)
			res.Results = data
			res.RowCount = &n
			return nil
		}

		r := tx.Exec(query)
		if r.Error != nil {
			return r.Error
		}
		n := r.RowsAffected
		res.Message = msgExecuted
		res.AffectedRows = &n
		return nil
	})
	if err != nil {
		if e := db.Classify("execute_query", err); e != nil && e.Kind == common.KindTimeout {
			return nil, e
		}
		return nil, common.QueryFailed(query, err)
	}

	if structural && before != nil {
		after, err := s.DiscoverTables(ctx)
		if err != nil {
			slog.Warn("schema snapshot after query failed", "err", err)
		} else if after.TotalTables != before.TotalTables {
			res.Message = msgStructureChanged
			res.TablesBefore = before
			res.TablesAfter = after
		}
	}
	return res, nil
}
