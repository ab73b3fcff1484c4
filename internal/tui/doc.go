// Package tui provides terminal user interface components for vless-ctl.
//
// # Profile Picker
//
// The picker lists stored profiles and returns the chosen action:
//
//	result, err := tui.RunPicker(store.List(), activeProfile)
//	switch result.Action {
//	case tui.ActionRun:
//	    // Start the engine with result.Profile
//	case tui.ActionAdd:
//	    // Read a share link and add a profile
//	case tui.ActionExport:
//	    // Print result.Profile as a share link
//	case tui.ActionDelete:
//	    // Delete result.Profile
//	case tui.ActionQuit:
//	    // Exit
//	}
//
// Keys: enter (run), a (add), e (export), d (delete), / (filter), q (quit).
// The running profile is marked with ●.
//
// SimplePicker renders the same list as plain text for non-interactive
// output.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - UI components
//   - github.com/charmbracelet/lipgloss - Styling
package tui
