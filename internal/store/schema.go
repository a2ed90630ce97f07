package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS api_calls (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    provider        TEXT NOT NULL,
    operation       TEXT NOT NULL,
    start_time      TEXT NOT NULL,
    end_time        TEXT NOT NULL,
    duration_ms     INTEGER NOT NULL,
    success         INTEGER NOT NULL,
    error_message   TEXT,
    prompt_length   INTEGER,
    response_length INTEGER,
    cached          INTEGER NOT NULL DEFAULT 0,
    rate_limited    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_api_calls_provider_op ON api_calls(provider, operation);
CREATE INDEX IF NOT EXISTS idx_api_calls_start ON api_calls(start_time);
`
