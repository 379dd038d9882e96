package store

import (
	"sort"
	"strings"

	"gorm.io/gorm"
)

type Column struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	MaxLength *int64  `json:"max_length"`
	Nullable  bool    `json:"nullable"`
	Default   *string `json:"default"`
}

type Constraint struct {
	Name string `json:"constraint_name"`
	Type string `json:"constraint_type"`
}

type Table struct {
	Name string
	Type string
}

// Catalog reads database metadata. Every method runs on the handle it is
// given so callers can pin one connection for a whole operation.
type Catalog interface {
	Tables(tx *gorm.DB) ([]Table, error)
	HasTable(tx *gorm.DB, table string) (bool, error)
	Columns(tx *gorm.DB, table string) ([]Column, error)
	Constraints(tx *gorm.DB, table string) ([]Constraint, error)
}

// CatalogFor picks the catalog reader for a gorm dialector name.
func CatalogFor(dialect string) Catalog {
	if dialect == "postgres" {
		return pgCatalog{schema: "public"}
	}
	return migratorCatalog{}
}

// pgCatalog reads information_schema, restricted to one schema.
type pgCatalog struct {
	schema string
}

func (c pgCatalog) Tables(tx *gorm.DB) ([]Table, error) {
	var rows []struct {
		TableName string
		TableType string
	}
	err := tx.Raw(`
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = ?
		ORDER BY table_name`, c.schema).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Table, 0, len(rows))
	for _, r := range rows {
		out = append(out, Table{Name: r.TableName, Type: r.TableType})
	}
	return out, nil
}

func (c pgCatalog) HasTable(tx *gorm.DB, table string) (bool, error) {
	var exists bool
	err := tx.Raw(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = ? AND table_name = ?
		)`, c.schema, table).Scan(&exists).Error
	return exists, err
}

func (c pgCatalog) Columns(tx *gorm.DB, table string) ([]Column, error) {
	var rows []struct {
		ColumnName             string
		DataType               string
		CharacterMaximumLength *int64
		IsNullable             string
		ColumnDefault          *string
	}
	err := tx.Raw(`
		SELECT column_name, data_type, character_maximum_length, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, c.schema, table).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Column, 0, len(rows))
	for _, r := range rows {
		out = append(out, Column{
			Name:      r.ColumnName,
			Type:      r.DataType,
			MaxLength: r.CharacterMaximumLength,
			Nullable:  strings.EqualFold(r.IsNullable, "YES"),
			Default:   r.ColumnDefault,
		})
	}
	return out, nil
}

func (c pgCatalog) Constraints(tx *gorm.DB, table string) ([]Constraint, error) {
	var rows []struct {
		ConstraintName string
		ConstraintType string
	}
	err := tx.Raw(`
		SELECT constraint_name, constraint_type
		FROM information_schema.table_constraints
		WHERE table_schema = ? AND table_name = ?
		ORDER BY constraint_name`, c.schema, table).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Constraint, 0, len(rows))
	for _, r := range rows {
		out = append(out, Constraint{Name: r.ConstraintName, Type: r.ConstraintType})
	}
	return out, nil
}

// migratorCatalog goes through gorm's Migrator so non-postgres dialects
// (sqlite in tests) expose the same shape. It has no notion of constraints.
type migratorCatalog struct{}

func (migratorCatalog) Tables(tx *gorm.DB) ([]Table, error) {
	names, err := tx.Migrator().GetTables()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	out := make([]Table, 0, len(names))
	for _, n := range names {
		if strings.HasPrefix(n, "sqlite_") {
			continue
		}
		out = append(out, Table{Name: n, Type: "BASE TABLE"})
	}
	return out, nil
}

func (migratorCatalog) HasTable(tx *gorm.DB, table string) (bool, error) {
	if strings.HasPrefix(table, "sqlite_") {
		return false, nil
	}
	return tx.Migrator().HasTable(table), tx.Error
}

func (migratorCatalog) Columns(tx *gorm.DB, table string) ([]Column, error) {
	types, err := tx.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, err
	}
	out := make([]Column, 0, len(types))
	for _, ct := range types {
		col := Column{Name: ct.Name(), Type: strings.ToLower(ct.DatabaseTypeName()), Nullable: true}
		if n, ok := ct.Length(); ok && n > 0 {
			col.MaxLength = &n
		}
		if nullable, ok := ct.Nullable(); ok {
			col.Nullable = nullable
		}
		if def, ok := ct.DefaultValue(); ok {
			col.Default = &def
		}
		out = append(out, col)
	}
	return out, nil
}

func (migratorCatalog) Constraints(*gorm.DB, string) ([]Constraint, error) {
	return []Constraint{}, nil
}
