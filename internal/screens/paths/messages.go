package paths

import (
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/engine"
)

// listedMsg carries a fresh path listing.
type listedMsg struct {
	epoch uint64
	paths []content.Path
	err   error
}

// pollMsg asks for another listing while drafts are outstanding.
type pollMsg struct{}

// deletedMsg carries a finished path deletion.
type deletedMsg struct {
	result engine.DeleteResult
}
