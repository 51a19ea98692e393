// Package storage persists the client's local state: user settings, the
// bounded recommendation history, the last recommendation (for offline
// display), the last broker and a bounded sensor reading cache.
//
// Persistence is split in two layers. Store is a byte-oriented key-value
// backend (MemoryStore, SQLiteStore, or the Redis store in
// internal/infrastructure/redis). Service layers typed, msgpack-encoded
// records on top of any Store and serialises its own read-modify-write
// cycles so concurrent appends never lose entries.
//
// Service satisfies session.HistoryStore, session.BrokerRecorder and
// session.SettingsReader.
package storage
