package pathview

import (
	"time"

	"github.com/abhisek/cognigen/internal/content"
)

// cachedMsg carries the locally cached copy of the path, if any.
type cachedMsg struct {
	path      *content.Path
	fetchedAt time.Time
}

// fetchedMsg carries a fresh server copy.
type fetchedMsg struct {
	path *content.Path
	err  error
}

// pollMsg asks for another fetch while the path is a draft.
type pollMsg struct {
	pathID string
}
