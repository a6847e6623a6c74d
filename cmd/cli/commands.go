package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hamed0406/urlmonitor/internal/domain"
)

func addCmd(c *client) *cobra.Command {
	var interval int
	var start bool
	cmd := &cobra.Command{
		Use:   "add [url]",
		Short: "Register a URL (prompts when no url is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			} else {
				fmt.Fprint(cmd.OutOrStdout(), "Enter a site URL to monitor (e.g., https://example.com): ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				raw = line
			}
			raw = strings.TrimSpace(raw)
			if raw == "" {
				return fmt.Errorf("no url given")
			}
			if !strings.Contains(raw, "://") {
				raw = "https://" + raw
			}

			var out struct {
				ID     domain.TargetID `json:"id"`
				Target domain.Target   `json:"target"`
			}
			if err := c.do(http.MethodPost, "/api/urls", map[string]any{"url": raw, "interval": interval}, &out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s every %dm\n", out.ID, out.Target.URL, out.Target.Interval)
			if start {
				var st domain.TargetStatus
				if err := c.do(http.MethodPost, "/api/urls/"+string(out.ID)+"/start", nil, &st); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "monitoring %s\n", out.ID)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&interval, "interval", "i", 0, "probe interval in minutes (default 5)")
	cmd.Flags().BoolVar(&start, "start", false, "start monitoring right away")
	return cmd
}

func listCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List targets with their latest result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []domain.TargetStatus
			if err := c.do(http.MethodGet, "/api/urls", nil, &list); err != nil {
				return err
			}
			printStatuses(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func checkAllCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "check-all",
		Short: "Probe every target now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []domain.TargetStatus
			if err := c.do(http.MethodPost, "/api/urls/check-all", nil, &list); err != nil {
				return err
			}
			printStatuses(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func statusCmd(c *client) *cobra.Command {
	return idCmd(c, "status", "Show one target", http.MethodGet, "")
}

func startCmd(c *client) *cobra.Command {
	return idCmd(c, "start", "Start monitoring a target", http.MethodPost, "/start")
}

func stopCmd(c *client) *cobra.Command {
	return idCmd(c, "stop", "Stop monitoring a target", http.MethodPost, "/stop")
}

// idCmd builds a command that hits /api/urls/{id}<suffix> and prints the
// returned status.
func idCmd(c *client, name, short, method, suffix string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var st domain.TargetStatus
			if err := c.do(method, "/api/urls/"+args[0]+suffix, nil, &st); err != nil {
				return err
			}
			printStatuses(cmd.OutOrStdout(), []domain.TargetStatus{st})
			return nil
		},
	}
}

func deleteCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Stop and remove a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.do(http.MethodDelete, "/api/urls/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func intervalCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "interval <id> <minutes>",
		Short: "Change a target's probe interval",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minutes, err := strconv.Atoi(args[1])
			if err != nil || minutes < 1 {
				return fmt.Errorf("minutes must be a positive integer, got %q", args[1])
			}
			var st domain.TargetStatus
			if err := c.do(http.MethodPut, "/api/urls/"+args[0]+"/interval", map[string]int{"interval": minutes}, &st); err != nil {
				return err
			}
			printStatuses(cmd.OutOrStdout(), []domain.TargetStatus{st})
			return nil
		},
	}
}

func checkCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "check <id>",
		Short: "Probe a target once, now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				Result domain.ProbeResult `json:"result"`
			}
			if err := c.do(http.MethodPost, "/api/urls/"+args[0]+"/check", nil, &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describe(&out.Result))
			return nil
		},
	}
}

func printStatuses(w io.Writer, list []domain.TargetStatus) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tURL\tINTERVAL\tACTIVE\tLAST")
	for _, st := range list {
		fmt.Fprintf(tw, "%s\t%s\t%dm\t%v\t%s\n", st.Target.ID, st.Target.URL, st.Target.Interval, st.Active, describe(st.Last))
	}
	_ = tw.Flush()
}

func describe(r *domain.ProbeResult) string {
	if r == nil {
		return "-"
	}
	s := string(r.Outcome)
	if r.StatusCode != nil {
		s += " " + strconv.Itoa(*r.StatusCode)
	}
	s += fmt.Sprintf(" %.0fms", r.LatencyMS)
	if r.Detail != "" && r.Outcome != domain.OutcomeReachable {
		s += " (" + r.Detail + ")"
	}
	return s
}
