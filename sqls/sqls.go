package sqls

//GetSQLSelectHourlyLoad returns the SQL statement used to retrieve the hourly
//gross load readings for every monitored unit in one state, restricted to the
//analysis year range. The ORDER BY is load-bearing: the processor's edge
//detection requires each unit's samples to arrive as one contiguous,
//chronologically sorted block.
func GetSQLSelectHourlyLoad() string {

	sql :=
		`SELECT
    plant_id_eia,
    unitid,
    operating_datetime_utc,
    gross_load_mw
FROM
    cems_own.hourly_emissions    h
WHERE
        h.state = :state
    AND h.operating_year >= :fromYear
    AND h.operating_year <= :toYear`

	sqlOrder := ` ORDER BY plant_id_eia, unitid, operating_datetime_utc asc`

	return sql + sqlOrder
}

//GetSQLSelectUnitCount returns the SQL statement used to count the distinct
//monitored units in one state for the analysis year range
func GetSQLSelectUnitCount() string {
	return `SELECT count(distinct plant_id_eia || '_' || unitid)
FROM cems_own.hourly_emissions h
WHERE h.state = :state
  AND h.operating_year >= :fromYear
  AND h.operating_year <= :toYear`
}
