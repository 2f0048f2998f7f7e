package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/protokoll/internal/core/review"
	"github.com/colonyops/protokoll/internal/core/styles"
	"github.com/colonyops/protokoll/pkg/iojson"
)

type ExportCmd struct {
	flags      *Flags
	meetingID  string
	jsonOutput bool
}

// NewExportCmd creates a new export command.
func NewExportCmd(flags *Flags) *ExportCmd {
	return &ExportCmd{flags: flags}
}

// Register adds the export command to the application.
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "export",
		Usage: "Export approved meeting results",
		Description: `Export pushes the approved review results outward: tasks for
approved action items, the final protocol, and the knowledge base
entry. It refuses to run while any item is still pending, and
rejected items are never exported.

Examples:
  protokoll export                       # export the latest meeting
  protokoll export --meeting 20250825-100000`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "meeting",
				Aliases:     []string{"m"},
				Usage:       "meeting id (default: most recent meeting)",
				Destination: &cmd.meetingID,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output result as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	meetingID, err := cmd.flags.resolveMeetingID(ctx, cmd.meetingID)
	if err != nil {
		return err
	}

	res, err := cmd.flags.Pipeline.Export(ctx, meetingID)
	if err != nil {
		var incomplete *review.IncompleteError
		if errors.As(err, &incomplete) {
			return fmt.Errorf("%w; run %s first", err, "protokoll review run")
		}
		return err
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, exportJSON{
			MeetingID:     meetingID,
			TasksCreated:  res.TasksCreated,
			TaskIDs:       res.TaskIDs,
			TaskErrors:    len(res.TaskErrors),
			ProtocolPath:  res.ProtocolPath,
			KnowledgePath: res.KnowledgePath,
			Failed:        res.Failed(),
		})
	}

	out := c.Root().Writer
	fmt.Fprintln(out, styles.HeaderStyle.Render("Export: "+meetingID))

	if res.TasksCreated > 0 || len(res.TaskErrors) > 0 {
		fmt.Fprintf(out, "  %s %d created", styles.MutedStyle.Render("Tasks:"), res.TasksCreated)
		if len(res.TaskErrors) > 0 {
			fmt.Fprintf(out, ", %s", styles.ErrorStyle.Render(fmt.Sprintf("%d failed", len(res.TaskErrors))))
		}
		fmt.Fprintln(out)
		for _, te := range res.TaskErrors {
			fmt.Fprintf(out, "    %s %s: %v\n", styles.ErrorStyle.Render("✗"), te.ItemDescription, te.Err)
		}
	}

	printStep(out, "Protocol:", res.ProtocolPath, res.ProtocolErr)
	printStep(out, "Knowledge:", res.KnowledgePath, res.KnowledgeErr)
	if res.IndexErr != nil {
		fmt.Fprintf(out, "  %s %v\n", styles.ErrorStyle.Render("Index:"), res.IndexErr)
	}

	if res.Failed() {
		fmt.Fprintln(out, styles.WarningStyle.Render("\nExport finished with errors."))
	} else {
		fmt.Fprintln(out, styles.SuccessStyle.Render("\nExport complete."))
	}
	return nil
}

func printStep(out io.Writer, label, path string, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(out, "  %s %v\n", styles.ErrorStyle.Render(label), err)
	case path != "":
		fmt.Fprintf(out, "  %s %s\n", styles.MutedStyle.Render(label), path)
	}
}

type exportJSON struct {
	MeetingID     string `json:"meeting_id"`
	TasksCreated  int    `json:"tasks_created"`
	TaskIDs       []int  `json:"task_ids,omitempty"`
	TaskErrors    int    `json:"task_errors"`
	ProtocolPath  string `json:"protocol_path,omitempty"`
	KnowledgePath string `json:"knowledge_path,omitempty"`
	Failed        bool   `json:"failed"`
}
