package engine

import "errors"

var (
	// ErrNoPath is returned when an operation needs a loaded path.
	ErrNoPath = errors.New("no learning path loaded")

	// ErrNotFound is returned when the addressed entity is not in the tree.
	ErrNotFound = errors.New("not found")

	// ErrNotPermitted is returned for edits the client may not make, such as
	// changing a resource cell.
	ErrNotPermitted = errors.New("not permitted")

	// ErrGenerationInFlight rejects a generation while another one holds the lock.
	ErrGenerationInFlight = errors.New("a generation is already in progress")

	// ErrAlreadyGenerated rejects regenerating content for a generated topic.
	ErrAlreadyGenerated = errors.New("content already generated")

	// ErrBusy rejects a second in-flight operation on the same entity.
	ErrBusy = errors.New("operation already in progress")

	// ErrStaleRef rejects a cell reference taken before a structural edit.
	ErrStaleRef = errors.New("cell position is stale; re-resolve by current position")

	// ErrQuizExists rejects quiz generation for a submodule that has a quiz.
	ErrQuizExists = errors.New("quiz already exists")

	// ErrNoQuiz rejects deleting a quiz that does not exist.
	ErrNoQuiz = errors.New("no quiz to delete")

	// ErrConfirmation rejects a destructive action without the typed confirmation.
	ErrConfirmation = errors.New(`type "delete" to confirm`)

	// ErrSessionEnded marks a result that arrived after its session was reset.
	ErrSessionEnded = errors.New("session ended before the result arrived")

	// ErrNotFailed rejects rolling back a mutation that has not failed.
	ErrNotFailed = errors.New("only failed mutations can be rolled back")
)
