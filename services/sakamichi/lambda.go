package main

import (
	"github.com/spf13/cobra"

	"github.com/relabs-tech/sakamichi/core/config"
	"github.com/relabs-tech/sakamichi/core/gateway"
	"github.com/relabs-tech/sakamichi/core/logger"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as AWS Lambda function behind an API Gateway HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.InitLogger(logger.ParseLevel(cfg.LogLevel))

		router, err := newRouter(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		gateway.New(router).Start()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}
