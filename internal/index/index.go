package index

// ClipIndex defines the interface for clip indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type ClipIndex interface {
	UpsertClip(row ClipRow, body string) error
	DeleteClip(path string) error
	GetChecksum(path string) (string, error)
	GetClip(path string) (*ClipRow, error)
	ListClips(category string, limit, offset int) ([]ClipRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ClipIndex at compile time.
var _ ClipIndex = (*DB)(nil)
