package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/audit"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/config"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/engineconf"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/link"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/profile"
)

// appOptions are appended to the options used to build the app.
// Tests use them to inject a mock spawner.
var appOptions []app.Option

// loadApp builds app.Default unless one is already set.
func loadApp() error {
	if app.Default != nil {
		return nil
	}

	var opts []app.Option
	if configDir != "" {
		opts = append(opts, app.WithPaths(config.PathsFor(configDir)))
	}
	opts = append(opts, appOptions...)

	a, err := app.New(opts...)
	if err != nil {
		return err
	}
	app.SetDefault(a)
	return nil
}

// store returns the application's profile store.
func store() *profile.Store {
	return app.Default.Store
}

// currentAudit returns the application's event log.
func currentAudit() *audit.Logger {
	return app.Default.Audit
}

// recordEvent appends to the audit log. Failures are logged, not returned.
func recordEvent(eventType audit.EventType, name, details string) {
	if err := currentAudit().LogEvent(eventType, name, details); err != nil {
		logging.Warn("failed to record event", "profile", name, "type", eventType, "error", err)
	}
}

// addLink parses a share link and stores it as a profile. An empty name
// uses the link's own name.
func addLink(text, name string) (*profile.Profile, error) {
	ep, err := link.Parse(text)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = ep.Name
	}

	doc := engineconf.Synthesize(ep, app.Default.SynthesizeOptions()...)
	p, err := store().Add(name, doc)
	if err != nil {
		return nil, err
	}

	recordEvent(audit.EventAdd, p.Name, "server="+hostPort(p.Summary))
	logging.Debug("profile added", "name", p.Name, "path", p.Path)
	return p, nil
}

// deleteProfile removes a profile, warning when its file stays behind.
func deleteProfile(name string) (*profile.Profile, error) {
	res, err := store().Delete(name)
	if err != nil {
		return nil, err
	}

	recordEvent(audit.EventDelete, res.Profile.Name, "")
	if res.StorageWarning != nil {
		logWarning("Profile %s removed, but its file could not be deleted: %v", res.Profile.Name, res.StorageWarning)
	}
	return res.Profile, nil
}

// exportLink rebuilds the share link for a stored profile.
func exportLink(p *profile.Profile) (string, error) {
	ep, err := engineconf.EndpointOf(p.Config, p.Name)
	if err != nil {
		return "", err
	}
	return ep.String(), nil
}

// readLink returns the first non-blank line of r.
func readLink(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read link: %w", err)
	}
	return "", errors.FormatError("no share link given", nil)
}

func hostPort(s engineconf.Summary) string {
	return net.JoinHostPort(s.Server, strconv.Itoa(s.Port))
}

// validateOutput checks an --output flag value.
func validateOutput(format string) error {
	switch format {
	case "table", "json":
		return nil
	}
	return fmt.Errorf("invalid output format %q (must be table or json)", format)
}
