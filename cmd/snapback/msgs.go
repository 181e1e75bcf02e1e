package main

// Message constants
const (
	MsgRootShort = "Incremental, hardlink-based directory snapshots"
	MsgRootLong  = `snapback backs up a directory tree into timestamped snapshots, reusing
unchanged file content from the previous snapshot via hardlinks and copying
only what changed. Every snapshot is a complete, browsable mirror of the
source; a run either commits a full snapshot atomically or leaves nothing
visible.`

	MsgRunShort = "Create a new snapshot of SOURCE under ROOT"
	MsgRunLong  = `The 'run' command creates one new snapshot:
  - Finds the latest committed snapshot under ROOT to reuse files from
  - Hardlinks files whose content is identical to the base (verified by
    reading full content, never by size or timestamps)
  - Copies changed and new files, preserving mode and mtime
  - Commits the snapshot atomically by renaming it into place

If any file fails, nothing is committed and the temporary directory is
left under ROOT for inspection. Cleanup of leftover temporaries and (with
--older) expired snapshots happens only after a successful commit.`
	MsgRunExample = `  # Preview what a backup would do
  snapback run --dry-run ~/data /mnt/backup

  # Run a backup
  snapback run --sure ~/data /mnt/backup

  # Run a backup and drop snapshots older than 28 days
  snapback run --sure --older 28 ~/data /mnt/backup

  # Compare by xxh3 digest instead of raw bytes, with 16 workers
  snapback run --sure --hash xxh3 --workers 16 ~/data /mnt/backup`

	MsgListShort = "List snapshots under ROOT"
	MsgListLong  = `The 'list' command shows every snapshot under ROOT: committed ones and
temporary leftovers from interrupted runs. Foreign entries under ROOT are
ignored.`
	MsgListExample = `  snapback list /mnt/backup`

	MsgPruneShort = "Delete old and leftover snapshots under ROOT"
	MsgPruneLong  = `The 'prune' command removes leftover temporary snapshots and, with
--older, committed snapshots beyond the given age. Deletion is refused for
anything that is not strictly inside ROOT.`
	MsgPruneExample = `  # Remove leftover temporary directories only
  snapback prune --sure /mnt/backup

  # Also remove snapshots older than 28 days
  snapback prune --sure --older 28 /mnt/backup`
)
