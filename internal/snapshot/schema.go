package snapshot

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    client INTEGER PRIMARY KEY,        -- 0..65535
    available TEXT NOT NULL,           -- exact decimal text, rounded for output
    held TEXT NOT NULL,
    total TEXT NOT NULL,
    locked INTEGER NOT NULL            -- 0 or 1
);

CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,              -- input path
    processed INTEGER NOT NULL,
    applied INTEGER NOT NULL,
    ignored INTEGER NOT NULL,
    skipped INTEGER NOT NULL,          -- malformed rows dropped at ingestion
    accounts INTEGER NOT NULL,
    finished_at TIMESTAMP NOT NULL
);
`
