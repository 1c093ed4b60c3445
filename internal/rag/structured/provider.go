package structured

import (
	"context"

	"github.com/akolanti/localrag/internal/domain/commonModels"
)

// Provider analyses a whole document in one call, returning markdown content
// plus the tables it detected with their offsets into that content.
type Provider interface {
	Analyze(ctx context.Context, documentBytes []byte) (*commonModels.StructuredResult, error)
}
