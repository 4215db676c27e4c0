package repository

import "os"

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithFileMode sets the permission bits of written artifacts.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.mode = mode
		}
	}
}

// WithIndent pretty-prints written artifacts.
func WithIndent(indent bool) Option {
	return func(s *FileStore) {
		s.indent = indent
	}
}
