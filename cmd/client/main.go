// Command rbctl консоль администратора Rockbridge: вход, сброс пароля и просмотр заявок.
package main

import (
	"fmt"
	"os"

	"github.com/iudanet/rockbridge/internal/client/iocli"
)

// Version information set via ldflags during build
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := NewRootCmd(iocli.NewStdio())
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
