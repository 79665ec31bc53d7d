package identity

import (
	"strings"

	"github.com/arloliu/rollout/types"
)

// Static returns a fixed subject identifier.
type Static struct {
	id string
}

var _ types.SubjectProvider = (*Static)(nil)

// NewStatic creates a provider returning id. Surrounding whitespace is trimmed.
func NewStatic(id string) *Static {
	return &Static{id: strings.TrimSpace(id)}
}

// CurrentSubjectID returns the configured identifier, or types.ErrEmptySubject
// when it is blank.
func (s *Static) CurrentSubjectID() (string, error) {
	if s.id == "" {
		return "", types.ErrEmptySubject
	}

	return s.id, nil
}
