package fsutil

// FileStore provides read access to documents on disk for the ingestion commands.
type FileStore interface {
	// ReadFile reads a file and returns its contents
	ReadFile(path string) ([]byte, error)

	// CollectFiles expands directories into the regular files below them. Only files whose
	// extension is in exts are kept; an empty exts keeps everything. Order is stable.
	CollectFiles(paths []string, exts ...string) ([]string, error)

	// GetFileStats returns the total count and size of the given files
	GetFileStats(paths []string) (Stat, error)
}

// Stat represents statistics about a set of files
type Stat struct {
	Count int   // Number of files
	Size  int64 // Total size in bytes
}
