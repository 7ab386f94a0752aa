package builder

import "go.trai.ch/mason/internal/core/domain"

// RecordState is the lifecycle state of a record. Transitions are monotone;
// a record never regresses.
type RecordState int

const (
	// StateReferenced means the label was seen in a dependency list but the
	// defining description has not been processed yet.
	StateReferenced RecordState = iota
	// StateDefined means the item is populated; its dependencies may still
	// be referenced-only.
	StateDefined
	// StateResolved means the item and all transitive dependencies are
	// defined; outputs are computed and the item is semantically complete.
	StateResolved
	// StateResolvedAndGenerated means the resolved callback has fired.
	StateResolvedAndGenerated
)

// String returns the state name for diagnostics.
func (s RecordState) String() string {
	switch s {
	case StateReferenced:
		return "referenced"
	case StateDefined:
		return "defined"
	case StateResolved:
		return "resolved"
	case StateResolvedAndGenerated:
		return "resolved-and-generated"
	}
	return "unknown"
}

// Record is a node in the resolution graph wrapping one item. Records are
// owned by the Builder; consumers hold borrowed references to the item.
type Record struct {
	label domain.Label
	state RecordState
	item  domain.Item

	// referencedFrom is the file whose dependency list first mentioned the
	// label; used for missing-target diagnostics.
	referencedFrom domain.SourceFile
	// definedIn is the file carrying the declaration.
	definedIn domain.SourceFile

	// deps are the records this one waits on: every dependency edge plus
	// the toolchain and config records.
	deps []*Record
	// waitingOn counts deps not yet resolved.
	waitingOn int
	// dependents are records waiting on this one.
	dependents []*Record

	// genOutputs is, for resolved targets, the set of outputs visible for
	// the generated-input check: the target's own computed outputs plus
	// those of every target reachable through linked (non-data) deps.
	genOutputs map[domain.OutputFile]struct{}
}

// Label returns the record's label.
func (r *Record) Label() domain.Label { return r.label }

// State returns the record's current lifecycle state.
func (r *Record) State() RecordState { return r.state }

// Item returns the wrapped item, nil while the record is only referenced.
func (r *Record) Item() domain.Item { return r.item }
