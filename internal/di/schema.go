package di

import "fmt"

// schemaStatements is the idempotent DDL for the engine's storage contract.
// The source tables (price_history, chips) are owned by the ingestion
// crawlers but created here too so a fresh environment boots. Each feature
// table has a staging twin that the rebuild writes into before the atomic
// EXCHANGE TABLES publish.
func schemaStatements(db string) []string {
	priceCols := `(
        symbol String,
        date Date,
        open Float64,
        high Float64,
        low Float64,
        close Float64,
        volume Float64,
        turnover Float64
    ) ENGINE = MergeTree ORDER BY (symbol, date)`

	chipCols := `(
        symbol String,
        date Date,
        foreign_net Float64,
        trust_net Float64,
        dealer_net Float64
    ) ENGINE = MergeTree ORDER BY (symbol, date)`

	indicatorCols := `(
        symbol String,
        date Date,
        ma5 Nullable(Float64),
        ma10 Nullable(Float64),
        ma20 Nullable(Float64),
        ma60 Nullable(Float64),
        ma120 Nullable(Float64),
        atr14 Nullable(Float64),
        rsi14 Nullable(Float64),
        macd_diff Nullable(Float64),
        macd_dea Nullable(Float64),
        kd_k Nullable(Float64),
        kd_d Nullable(Float64)
    ) ENGINE = MergeTree ORDER BY (symbol, date)`

	chipFeatureCols := `(
        symbol String,
        date Date,
        foreign_buy Float64,
        trust_buy Float64,
        dealer_buy Float64,
        total_inst_buy Float64,
        concentration_5d Float64
    ) ENGINE = MergeTree ORDER BY symbol`

	breadthCols := `(
        date Date,
        up_count UInt32,
        down_count UInt32,
        flat_count UInt32,
        up_turnover Float64,
        down_turnover Float64,
        up_volume Float64,
        down_volume Float64,
        trin Float64,
        ma5_breadth Float64,
        ma20_breadth Float64,
        ma60_breadth Float64,
        ma120_breadth Float64,
        adl Int64,
        total_stocks UInt32
    ) ENGINE = MergeTree ORDER BY date`

	create := func(table, cols string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s %s", db, table, cols)
	}

	return []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		create("price_history", priceCols),
		create("chips", chipCols),
		create("daily_indicators", indicatorCols),
		create("daily_indicators_staging", indicatorCols),
		create("chip_features", chipFeatureCols),
		create("chip_features_staging", chipFeatureCols),
		create("market_breadth_history", breadthCols),
		create("market_breadth_history_staging", breadthCols),
	}
}
