// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/mason/internal/core/domain"

// Parser turns the raw bytes of one description file into declarations.
// Implementations must be pure and safe for concurrent use; the input file
// cache guarantees each distinct file is parsed at most once per run.
//
//go:generate mockgen -source=parser.go -destination=mocks/mock_parser.go -package=mocks
type Parser interface {
	// ParseFile parses the description in data. file identifies the origin
	// for diagnostics and for resolving relative references.
	ParseFile(file domain.SourceFile, data []byte) (*domain.DescriptionFile, error)
}
