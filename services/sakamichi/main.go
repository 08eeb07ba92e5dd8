// Command sakamichi serves the Sakamichi REST API, either as HTTP server or as
// AWS Lambda function.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/sakamichi/core/logger"
)

var rootCmd = &cobra.Command{
	Use:   "sakamichi",
	Short: "REST API for Sakamichi singles and members",
	Long: `sakamichi serves singles, members and their galleries from the document
database and storage of a backend-as-a-service.

The configuration is read from the environment, see the README for all variables.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Default().WithError(err).Errorln("sakamichi failed")
		os.Exit(1)
	}
}
