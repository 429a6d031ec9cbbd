package clickhouse

import "fmt"

// DailyBarsSchema returns the DDL for the daily OHLCV table.
func DailyBarsSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    symbol LowCardinality(String),
    day    Date,
    open   Float64,
    high   Float64,
    low    Float64,
    close  Float64,
    volume Float64
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, day)`, database, table),
	}
}
