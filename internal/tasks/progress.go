package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchNotes Phase = iota
	ExportCards
	DeleteEntities
)

func (p Phase) String() string {
	switch p {
	case FetchNotes:
		return "fetch_notes"
	case ExportCards:
		return "export_cards"
	case DeleteEntities:
		return "delete_entities"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func fetchingNotesUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchNotes,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching notes: %s...", step, total, name),
	}
}

func cardWrittenUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCards,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func cardFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCards,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func deletedUpdate(step, total, id int, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   DeleteEntities,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %d: %v", step, total, id, err),
			Data:    err,
		}
	}
	return ProgressUpdate{
		Phase:   DeleteEntities,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ deleted %d", step, total, id),
	}
}
