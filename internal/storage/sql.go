package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (
                      start_time,
                      mode,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    start_time,
    mode,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    start_time,
    mode,
    config
FROM sessions
ORDER BY start_time, id`

	selectReadingsSQL = `
SELECT
    id,
    session_id,
    timestamp,
    channel,
    feed,
    pol,
    power
FROM readings
WHERE
    session_id = ?
ORDER BY id`

	selectMinicalSQL = `
SELECT
    id,
    session_id,
    taken,
    channel,
    sky,
    sky_nd,
    load,
    load_nd,
    t_load,
    gain,
    t_linear,
    t_quadratic,
    t_nd,
    nonlinearity
FROM minical_runs
WHERE
    session_id = ?
ORDER BY taken DESC, channel`
)

const initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_readings_session ON readings (session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_minical_session ON minical_runs (session_id, taken);
`

//go:embed schema.sql
var initSchemaSQL string
