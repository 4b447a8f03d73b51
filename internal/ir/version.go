package ir

// Version constants for the archive format and CLI.
const (
	// ArchiveVersion is the run-archive schema version.
	ArchiveVersion = "1"

	// CLIVersion is the slate CLI version.
	CLIVersion = "0.1.0"
)
