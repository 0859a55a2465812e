package orchestrator

import "fmt"

// NoDataError means enrichment found nothing to bind a tool's data
// argument to. The tool handler never runs in that case.
type NoDataError struct {
	Tool string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no suitable data available for %s", e.Tool)
}

// NotFoundError means an export asked for an artifact kind that is not live.
type NotFoundError struct {
	Kind string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s artifact in this session", e.Kind)
}
