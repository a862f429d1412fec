package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/casegen"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := casegen.SessionFilter{Limit: c.Limit}
	if c.Status != "" {
		status := casegen.SessionStatus(c.Status)
		filter.Status = &status
	}

	sessions, err := deps.Sessions.FindSessions(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", casegen.ErrorMessage(err))
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(deps.Stdout, "No sessions found. Use 'casegen explore' to start one.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(deps.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Status", "Start URL", "Pages", "Failed", "Cases", "Started"})
	for _, s := range sessions {
		t.AppendRow(table.Row{
			s.ID, s.Status, s.StartURL, s.PagesExplored, s.PagesFailed, s.CasesGenerated,
			s.StartedAt.Local().Format(time.DateTime),
		})
	}
	t.Render()
	return nil
}
