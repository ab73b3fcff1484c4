// Package errors provides typed errors with exit codes for vless-ctl.
//
// # Error Types
//
// Error is the base error type that wraps an error with an exit code:
//
//	type Error struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
//	ExitSuccess          = 0  // Success
//	ExitGeneralError     = 1  // General/unknown errors
//	ExitFormat           = 2  // Malformed share link or profile name
//	ExitProfileNotFound  = 3  // Profile or its config file does not exist
//	ExitDuplicateProfile = 4  // Profile name already taken
//	ExitPersistence      = 5  // Profile storage read/write/delete failed
//	ExitProcess          = 6  // Engine could not be spawned or died on startup
//	ExitState            = 7  // Start while running, stop while stopped
//	ExitConfig           = 8  // Settings file problem
//
// # Error Constructors
//
//	errors.FormatError("missing port", nil)
//	errors.DuplicateProfile("MyProfile")
//	errors.ProcessError("failed to start engine", err)
//	errors.StateError("engine is already running")
//
// # Extracting Exit Codes
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
