// Command takagi runs the OIDC adapter: depending on UPSTREAM_PROVIDER
// and --env-prefix, the same binary presents either as Takagi (GitHub)
// or Snowflake (Discord).
package main

import (
	"os"

	"github.com/stacklok/takagi/cmd/takagi/app"
	"github.com/stacklok/takagi/pkg/logger"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
