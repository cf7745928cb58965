package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS transactions (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    account_id           TEXT NOT NULL,
    type                 TEXT NOT NULL CHECK (type IN ('INCOME', 'EXPENSE')),
    amount               TEXT NOT NULL,
    category             TEXT NOT NULL,
    description          TEXT,
    date                 TEXT NOT NULL,
    is_recurring         INTEGER NOT NULL DEFAULT 0,
    created_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS predictions (
    user_id              TEXT NOT NULL,
    month                TEXT NOT NULL,
    account_id           TEXT NOT NULL,
    total                REAL NOT NULL,
    categories           TEXT NOT NULL,
    updated_at           TEXT NOT NULL,
    PRIMARY KEY (user_id, month, account_id)
);

CREATE TABLE IF NOT EXISTS scenarios (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    name                 TEXT NOT NULL,
    description          TEXT,
    type                 TEXT NOT NULL,
    parameters           TEXT NOT NULL,
    results              TEXT NOT NULL,
    created_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_scenarios_user ON scenarios(user_id, created_at);
`
