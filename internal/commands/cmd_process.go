package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/protokoll/internal/core/pipeline"
	"github.com/colonyops/protokoll/internal/core/styles"
	"github.com/colonyops/protokoll/pkg/iojson"
)

type ProcessCmd struct {
	flags      *Flags
	title      string
	timeStr    string
	jsonOutput bool
}

// NewProcessCmd creates a new process command.
func NewProcessCmd(flags *Flags) *ProcessCmd {
	return &ProcessCmd{flags: flags}
}

// Register adds the process command to the application.
func (cmd *ProcessCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "process",
		Usage:     "Transcribe and analyze a meeting recording",
		ArgsUsage: "<audio-file>",
		Description: `Process runs the ingest pipeline for a recording: transcription,
analysis, a draft protocol, and a review session holding every
extracted item for approval.

Examples:
  protokoll process meeting.m4a
  protokoll process meeting.m4a --title "Weekly Sync"
  protokoll process meeting.m4a --time "2025-08-25 10:00"`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "title",
				Aliases:     []string{"t"},
				Usage:       "meeting title (default: calendar event or filename)",
				Destination: &cmd.title,
			},
			&cli.StringFlag{
				Name:        "time",
				Usage:       "meeting time as '2006-01-02 15:04' (default: now)",
				Destination: &cmd.timeStr,
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

func (cmd *ProcessCmd) run(ctx context.Context, c *cli.Command) error {
	audioPath := c.Args().First()
	if audioPath == "" {
		return fmt.Errorf("audio file argument is required")
	}

	opts := pipeline.ProcessOptions{Title: cmd.title}
	if cmd.timeStr != "" {
		t, err := time.ParseInLocation("2006-01-02 15:04", cmd.timeStr, time.Local)
		if err != nil {
			return fmt.Errorf("parse --time: %w", err)
		}
		opts.Time = t
	}

	res, err := cmd.flags.Pipeline.Process(ctx, audioPath, opts)
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, processJSON{
			MeetingID:  res.Meeting.ID,
			Title:      res.Meeting.Title,
			Date:       res.Meeting.Date,
			Duration:   res.Transcript.Duration,
			Items:      res.Session.Progress().Total,
			DraftPath:  res.DraftPath,
			TokensUsed: res.Analysis.TokensUsed,
		})
	}

	out := c.Root().Writer
	progress := res.Session.Progress()

	fmt.Fprintln(out, styles.HeaderStyle.Render("Meeting processed"))
	fmt.Fprintf(out, "  %s %s\n", styles.MutedStyle.Render("ID:"), styles.IDStyle.Render(res.Meeting.ID))
	fmt.Fprintf(out, "  %s %s\n", styles.MutedStyle.Render("Title:"), res.Meeting.Title)
	fmt.Fprintf(out, "  %s %.0f min\n", styles.MutedStyle.Render("Duration:"), res.Transcript.Duration/60)
	fmt.Fprintf(out, "  %s %s\n", styles.MutedStyle.Render("Draft:"), res.DraftPath)
	fmt.Fprintf(out, "\n%d items need review. Run %s to review them.\n",
		progress.Pending, styles.TitleStyle.Render("protokoll review run"))

	return nil
}

type processJSON struct {
	MeetingID  string  `json:"meeting_id"`
	Title      string  `json:"title"`
	Date       string  `json:"date"`
	Duration   float64 `json:"duration_seconds"`
	Items      int     `json:"review_items"`
	DraftPath  string  `json:"draft_path"`
	TokensUsed int     `json:"tokens_used,omitempty"`
}
