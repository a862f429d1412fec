package main

import (
	"fmt"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/export"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	session, err := deps.Sessions.FindSessionByID(deps.Ctx, c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", casegen.ErrorMessage(err))
		return err
	}

	set, err := deps.CaseSets.FindCaseSet(deps.Ctx, c.ID)
	if err != nil {
		if casegen.ErrorCode(err) == casegen.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "Session %s has no generated cases (status %s).\n", c.ID, session.Status)
		}
		return err
	}

	data, err := export.Render(deps.Config.Format, export.NewReport(session, set))
	if err != nil {
		return err
	}
	return writeReport(deps.Ctx, deps, c.ID, data)
}
