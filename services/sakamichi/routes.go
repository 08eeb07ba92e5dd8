package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/sakamichi/core/config"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print all routes of the REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		router, err := newRouter(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return printRoutes(cmd.OutOrStdout(), router)
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

// printRoutes writes one line per route and method, sorted by path
func printRoutes(out io.Writer, router *mux.Router) error {
	var lines []string
	err := router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}
		for _, m := range methods {
			if m == "OPTIONS" {
				continue
			}
			lines = append(lines, fmt.Sprintf("%-7s %s", m, path))
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i][8:] < lines[j][8:] })
	_, err = io.WriteString(out, strings.Join(lines, "\n")+"\n")
	return err
}
