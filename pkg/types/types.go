// Package types holds the shared data types of the snapshot engine:
// work items, their results, and the progress reporting interface.
package types

// ItemKind distinguishes the two kinds of reconciliation work.
type ItemKind int

const (
	// ItemDir creates a directory at the mirrored relative path.
	ItemDir ItemKind = iota
	// ItemFile materializes a regular file, either by hardlinking an
	// identical file from the base snapshot or by copying from source.
	ItemFile
)

func (k ItemKind) String() string {
	if k == ItemDir {
		return "dir"
	}
	return "file"
}

// Action identifies what executing a work item actually did.
type Action string

const (
	ActionLinked     Action = "linked"
	ActionCopied     Action = "copied"
	ActionDirCreated Action = "dir-created"
)

// WorkItem is one independent unit of reconciliation work. Items are
// immutable once emitted and no two items ever target the same Dest.
type WorkItem struct {
	Kind ItemKind

	// Rel is the path relative to the source root, for display and logs.
	Rel string

	// Source and Dest are absolute paths. Dest always points into the
	// temporary snapshot directory.
	Source string
	Dest   string

	// Base is the absolute path of the reuse candidate in the base
	// snapshot, or empty when there is no base for this run.
	Base string
}

// WorkResult is the outcome of executing one WorkItem. Exactly one result
// is produced per item; the collection order carries no meaning.
type WorkResult struct {
	Item   WorkItem
	Action Action
	Err    error
}

// Failed reports whether the item's execution failed.
func (r WorkResult) Failed() bool { return r.Err != nil }

// Reporter receives observational progress signals from the scheduler.
// Completed is called once per item, from worker goroutines, in no
// particular order; implementations must be safe for concurrent use.
// Counts must never be used to infer which items completed.
type Reporter interface {
	Start(total int)
	Completed(res WorkResult)
	Finish()
}

// NullReporter discards all progress signals.
type NullReporter struct{}

func (NullReporter) Start(int) {}

func (NullReporter) Completed(WorkResult) {}

func (NullReporter) Finish() {}
