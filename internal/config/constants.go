package config

// DefaultDatabasePath is where the cache database lives unless overridden by
// DATABASE_PATH.
const DefaultDatabasePath = "./cartable.db"
