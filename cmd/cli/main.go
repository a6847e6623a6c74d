// Command urlmon drives a running URL monitor through its HTTP API.
//
// Usage:
//
//	urlmon add https://example.com --interval 5
//	urlmon start <id>
//	urlmon list
//
// The API base comes from --api or API_BASE (default http://localhost:8080).
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// set via -ldflags "-X main.version=..."
var version = "dev"

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	c := &client{http: &http.Client{Timeout: 60 * time.Second}}

	root := &cobra.Command{
		Use:           "urlmon",
		Short:         "Control a URL monitor over its HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)

	def := os.Getenv("API_BASE")
	if def == "" {
		def = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&c.base, "api", def, "API base URL")

	root.AddCommand(
		addCmd(c),
		listCmd(c),
		statusCmd(c),
		startCmd(c),
		stopCmd(c),
		deleteCmd(c),
		intervalCmd(c),
		checkCmd(c),
		checkAllCmd(c),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "urlmon %s\n", version)
			},
		},
	)
	return root
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
