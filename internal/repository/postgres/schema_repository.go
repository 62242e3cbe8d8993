package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain/repository"
	"github.com/streetmap-tiles/internal/mvt"
)

type schemaRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSchemaRepository создает новый экземпляр SchemaRepository
func NewSchemaRepository(db *DB) repository.SchemaRepository {
	return &schemaRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type columnRow struct {
	Namespace  string `db:"namespace"`
	Table      string `db:"table_name"`
	Name       string `db:"name"`
	IsGeometry bool   `db:"is_geometry"`
	IsPK       bool   `db:"is_pk"`
	SRID       int    `db:"srid"`
}

// DescribeTable читает колонки из системного каталога. Имя таблицы
// разрешается через search_path, допускается schema.table.
func (r *schemaRepository) DescribeTable(ctx context.Context, table string) (mvt.Schema, error) {
	query := `
		SELECT
			n.nspname AS namespace,
			c.relname AS table_name,
			a.attname AS name,
			(t.typname = 'geometry') AS is_geometry,
			EXISTS (
				SELECT 1 FROM pg_index i
				WHERE i.indrelid = c.oid AND i.indisprimary AND a.attnum = ANY(i.indkey)
			) AS is_pk,
			COALESCE(gc.srid, 0) AS srid
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_type t ON t.oid = a.atttypid
		LEFT JOIN geometry_columns gc
			ON gc.f_table_schema = n.nspname
			AND gc.f_table_name = c.relname
			AND gc.f_geometry_column = a.attname
		WHERE c.oid = to_regclass($1::text)
			AND a.attnum > 0
			AND NOT a.attisdropped
		ORDER BY a.attnum
	`

	var rows []columnRow
	if err := r.db.SelectContext(ctx, &rows, query, table); err != nil {
		r.logger.Error("Failed to describe table", zap.String("table", table), zap.Error(err))
		return mvt.Schema{}, fmt.Errorf("describe %s: %w", table, err)
	}
	if len(rows) == 0 {
		return mvt.Schema{}, fmt.Errorf("describe %s: relation not found", table)
	}

	schema := mvt.Schema{
		Namespace: rows[0].Namespace,
		Table:     rows[0].Table,
		Columns:   make([]mvt.Column, 0, len(rows)),
	}
	for _, row := range rows {
		col := mvt.Column{Name: row.Name, Kind: mvt.ColumnPlain}
		switch {
		case row.IsGeometry:
			col.Kind = mvt.ColumnGeometry
			col.SRID = row.SRID
		case row.IsPK:
			col.Kind = mvt.ColumnPrimaryKey
		}
		schema.Columns = append(schema.Columns, col)
	}

	r.logger.Debug("Table described",
		zap.String("table", table),
		zap.Int("columns", len(schema.Columns)),
	)
	return schema, nil
}
