package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/protokoll/internal/core/styles"
	"github.com/colonyops/protokoll/pkg/iojson"
)

type MeetingsCmd struct {
	flags      *Flags
	limit      int
	jsonOutput bool
}

// NewMeetingsCmd creates a new meetings command.
func NewMeetingsCmd(flags *Flags) *MeetingsCmd {
	return &MeetingsCmd{flags: flags}
}

// Register adds the meetings command and its subcommands to the application.
func (cmd *MeetingsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "meetings",
		Usage: "Browse and search exported meetings",
		Commands: []*cli.Command{
			{
				Name:  "ls",
				Usage: "List recently exported meetings",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "limit",
						Aliases:     []string{"n"},
						Usage:       "max meetings to list",
						Value:       20,
						Destination: &cmd.limit,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output one JSON object per line",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runLs,
			},
			{
				Name:      "search",
				Usage:     "Search meetings by title, topic, or participant",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output one JSON object per line",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runSearch,
			},
		},
	})

	return app
}

func (cmd *MeetingsCmd) runLs(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.flags.Pipeline.Index.List(ctx, cmd.limit)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if len(entries) == 0 {
		fmt.Fprintln(out, styles.MutedStyle.Render("No exported meetings yet."))
		return nil
	}

	for _, e := range entries {
		if cmd.jsonOutput {
			if err := iojson.WriteLine(out, e); err != nil {
				return fmt.Errorf("encode meeting: %w", err)
			}
			continue
		}
		fmt.Fprintf(out, "%s  %s  %s\n",
			styles.MutedStyle.Render(e.Date),
			styles.IDStyle.Render(e.ID),
			styles.TitleStyle.Render(e.Title),
		)
		if len(e.Topics) > 0 {
			fmt.Fprintf(out, "            %s\n", styles.MutedStyle.Render(strings.Join(e.Topics, ", ")))
		}
	}
	return nil
}

func (cmd *MeetingsCmd) runSearch(ctx context.Context, c *cli.Command) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("search query argument is required")
	}

	entries, err := cmd.flags.Pipeline.Index.Search(ctx, query)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if len(entries) == 0 {
		fmt.Fprintln(out, styles.MutedStyle.Render("No matches."))
		return nil
	}

	for _, e := range entries {
		if cmd.jsonOutput {
			if err := iojson.WriteLine(out, e); err != nil {
				return fmt.Errorf("encode meeting: %w", err)
			}
			continue
		}
		fmt.Fprintf(out, "%s  %s  %s\n",
			styles.MutedStyle.Render(e.Date),
			styles.IDStyle.Render(e.ID),
			styles.TitleStyle.Render(e.Title),
		)
		fmt.Fprintf(out, "            %s\n", styles.MutedStyle.Render(e.KnowledgePath))
	}
	return nil
}
