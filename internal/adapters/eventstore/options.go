package eventstore

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithRowLimit bounds how many rows each list query returns.
func WithRowLimit(limit int) SQLiteOption {
	return func(s *SQLiteStore) {
		if limit > 0 {
			s.rowLimit = limit
		}
	}
}
