package repository

import (
	"context"

	"github.com/streetmap-tiles/internal/mvt"
)

// SchemaRepository описывает колонки таблиц PostGIS
type SchemaRepository interface {
	// DescribeTable возвращает колонки таблицы в порядке объявления
	// с типом (geometry / primary key / обычная) и SRID геометрии
	DescribeTable(ctx context.Context, table string) (mvt.Schema, error)
}
