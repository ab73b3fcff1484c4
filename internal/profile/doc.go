// Package profile stores engine configurations as named profiles.
//
// Each profile is one JSON file, <dir>/<name>.json, holding an engine
// configuration document. The file name (without extension) is the
// profile key; keys are produced by Sanitize so they are safe as file
// names on every platform.
//
// A Store keeps an in-memory registry that mirrors the directory. The
// registry is rebuilt by LoadAll and kept in step by Add and Delete:
//
//	store := profile.NewStore(dir)
//	if _, err := store.LoadAll(); err != nil {
//	    return err
//	}
//	p, err := store.Add(ep.Name, engineconf.Synthesize(ep))
package profile
