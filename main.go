package main

import (
	"os"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/cmd"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/logging"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logging.Debug("command failed", "error", err)
		os.Exit(errors.GetExitCode(err))
	}
}
