package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/protokoll/internal/core/review"
	"github.com/colonyops/protokoll/internal/core/styles"
	"github.com/colonyops/protokoll/pkg/iojson"
)

type ReviewCmd struct {
	flags      *Flags
	meetingID  string
	reviewer   string
	kind       string
	status     string
	reason     string
	edits      []string
	jsonOutput bool
}

// NewReviewCmd creates a new review command.
func NewReviewCmd(flags *Flags) *ReviewCmd {
	return &ReviewCmd{flags: flags}
}

// Register adds the review command and its subcommands to the application.
func (cmd *ReviewCmd) Register(app *cli.Command) *cli.Command {
	meetingFlag := &cli.StringFlag{
		Name:        "meeting",
		Aliases:     []string{"m"},
		Usage:       "meeting id (default: most recent meeting)",
		Destination: &cmd.meetingID,
	}
	reviewerFlag := &cli.StringFlag{
		Name:        "reviewer",
		Aliases:     []string{"r"},
		Usage:       "reviewer name (default: $USER)",
		Destination: &cmd.reviewer,
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "review",
		Usage: "Review extracted meeting items before export",
		Description: `Review manages the approval workflow for extracted meeting items.
Every item starts as a draft; export is blocked until each one is
approved or rejected.

Examples:
  protokoll review ls                  # list items of the latest meeting
  protokoll review run                 # interactive review of pending items
  protokoll review approve a3f8k2xq    # approve one item as-is
  protokoll review reject a3f8k2xq --reason "duplicate"
  protokoll review status              # show review progress`,
		Commands: []*cli.Command{
			{
				Name:  "ls",
				Usage: "List review items",
				Flags: []cli.Flag{
					meetingFlag,
					&cli.StringFlag{
						Name:        "kind",
						Usage:       "filter by kind (summary, action_item, decision, open_question)",
						Destination: &cmd.kind,
					},
					&cli.StringFlag{
						Name:        "status",
						Usage:       "filter by status (draft, approved, rejected)",
						Destination: &cmd.status,
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
				Name:      "show",
				Usage:     "Show one review item in full",
				ArgsUsage: "<item-id>",
				Flags:     []cli.Flag{meetingFlag},
				Action:    cmd.runShow,
			},
			{
				Name:      "approve",
				Usage:     "Approve an item, optionally with field edits",
				ArgsUsage: "<item-id>",
				Flags: []cli.Flag{
					meetingFlag,
					reviewerFlag,
					&cli.StringSliceFlag{
						Name:        "set",
						Usage:       "edit a field before approval, e.g. --set deadline=2025-09-12",
						Destination: &cmd.edits,
					},
				},
				Action: cmd.runApprove,
			},
			{
				Name:      "reject",
				Usage:     "Reject an item so it is excluded from export",
				ArgsUsage: "<item-id>",
				Flags: []cli.Flag{
					meetingFlag,
					reviewerFlag,
					&cli.StringFlag{
						Name:        "reason",
						Usage:       "why the item is rejected",
						Destination: &cmd.reason,
					},
				},
				Action: cmd.runReject,
			},
			{
				Name:   "approve-all",
				Usage:  "Approve every pending item unchanged",
				Flags:  []cli.Flag{meetingFlag, reviewerFlag},
				Action: cmd.runApproveAll,
			},
			{
				Name:   "status",
				Usage:  "Show review progress",
				Flags:  []cli.Flag{meetingFlag, &cli.BoolFlag{Name: "json", Destination: &cmd.jsonOutput}},
				Action: cmd.runStatus,
			},
			{
				Name:   "run",
				Usage:  "Review pending items interactively",
				Flags:  []cli.Flag{meetingFlag, reviewerFlag},
				Action: cmd.runInteractive,
			},
		},
	})

	return app
}

func (cmd *ReviewCmd) loadSession(ctx context.Context) (*review.Session, error) {
	id, err := cmd.flags.resolveMeetingID(ctx, cmd.meetingID)
	if err != nil {
		return nil, err
	}
	return cmd.flags.Pipeline.Sessions.Load(ctx, id)
}

func (cmd *ReviewCmd) reviewerName() string {
	if cmd.reviewer != "" {
		return cmd.reviewer
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}

type itemJSON struct {
	ID           string         `json:"id"`
	Kind         string         `json:"kind"`
	Status       string         `json:"status"`
	Data         map[string]any `json:"data"`
	ReviewedBy   string         `json:"reviewed_by,omitempty"`
	RejectReason string         `json:"reject_reason,omitempty"`
}

func (cmd *ReviewCmd) runLs(ctx context.Context, c *cli.Command) error {
	session, err := cmd.loadSession(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	count := 0
	for i := range session.Items {
		item := &session.Items[i]
		if cmd.kind != "" && string(item.Kind) != cmd.kind {
			continue
		}
		if cmd.status != "" && string(item.Status) != cmd.status {
			continue
		}
		count++

		if cmd.jsonOutput {
			if err := iojson.WriteLine(out, itemJSON{
				ID:           item.ID,
				Kind:         string(item.Kind),
				Status:       string(item.Status),
				Data:         item.CurrentData(),
				ReviewedBy:   item.ReviewedBy,
				RejectReason: item.RejectReason,
			}); err != nil {
				return fmt.Errorf("encode item: %w", err)
			}
			continue
		}

		fmt.Fprintf(out, "%s  %-14s %-9s %s\n",
			styles.IDStyle.Render(item.ID),
			item.Kind.Label(),
			styles.StatusStyle(string(item.Status)).Render(string(item.Status)),
			item.Describe(),
		)
	}

	if count == 0 && !cmd.jsonOutput {
		fmt.Fprintln(out, styles.MutedStyle.Render("No matching items."))
	}
	return nil
}

func (cmd *ReviewCmd) runShow(ctx context.Context, c *cli.Command) error {
	itemID := c.Args().First()
	if itemID == "" {
		return fmt.Errorf("item id argument is required")
	}

	session, err := cmd.loadSession(ctx)
	if err != nil {
		return err
	}

	item, err := session.FindByID(itemID)
	if err != nil {
		return err
	}

	rendered, err := renderItemMarkdown(item)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Root().Writer, rendered)
	return nil
}

func (cmd *ReviewCmd) runApprove(ctx context.Context, c *cli.Command) error {
	itemID := c.Args().First()
	if itemID == "" {
		return fmt.Errorf("item id argument is required")
	}

	session, err := cmd.loadSession(ctx)
	if err != nil {
		return err
	}

	edits, err := parseEdits(cmd.edits)
	if err != nil {
		return err
	}

	if err := session.ApproveItem(itemID, cmd.reviewerName(), edits); err != nil {
		return err
	}
	if err := cmd.flags.Pipeline.Sessions.Save(ctx, session); err != nil {
		return err
	}

	fmt.Fprintf(c.Root().Writer, "%s %s\n", styles.SuccessStyle.Render("approved"), itemID)
	return nil
}

func (cmd *ReviewCmd) runReject(ctx context.Context, c *cli.Command) error {
	itemID := c.Args().First()
	if itemID == "" {
		return fmt.Errorf("item id argument is required")
	}

	session, err := cmd.loadSession(ctx)
	if err != nil {
		return err
	}

	if err := session.RejectItem(itemID, cmd.reviewerName(), cmd.reason); err != nil {
		return err
	}
	if err := cmd.flags.Pipeline.Sessions.Save(ctx, session); err != nil {
		return err
	}

	fmt.Fprintf(c.Root().Writer, "%s %s\n", styles.ErrorStyle.Render("rejected"), itemID)
	return nil
}

func (cmd *ReviewCmd) runApproveAll(ctx context.Context, c *cli.Command) error {
	session, err := cmd.loadSession(ctx)
	if err != nil {
		return err
	}

	pending := len(session.Pending())
	if err := session.ApproveAll(cmd.reviewerName()); err != nil {
		return err
	}
	if err := cmd.flags.Pipeline.Sessions.Save(ctx, session); err != nil {
		return err
	}

	fmt.Fprintf(c.Root().Writer, "%s %d items\n", styles.SuccessStyle.Render("approved"), pending)
	return nil
}

func (cmd *ReviewCmd) runStatus(ctx context.Context, c *cli.Command) error {
	session, err := cmd.loadSession(ctx)
	if err != nil {
		return err
	}

	progress := session.Progress()

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, progress)
	}

	out := c.Root().Writer
	fmt.Fprintln(out, styles.HeaderStyle.Render(fmt.Sprintf("Review status: %s", session.MeetingID)))
	fmt.Fprintf(out, "  %s %d%%\n", styles.ProgressBar(float64(progress.Percent), 24), progress.Percent)
	fmt.Fprintf(out, "  %s %d  %s %d  %s %d\n",
		styles.WarningStyle.Render("pending"), progress.Pending,
		styles.SuccessStyle.Render("approved"), progress.Approved,
		styles.ErrorStyle.Render("rejected"), progress.Rejected,
	)

	if session.IsComplete() {
		fmt.Fprintf(out, "\nReview complete. Run %s to export.\n", styles.TitleStyle.Render("protokoll export"))
	}
	return nil
}

func (cmd *ReviewCmd) runInteractive(ctx context.Context, c *cli.Command) error {
	session, err := cmd.loadSession(ctx)
	if err != nil {
		return err
	}

	pending := session.Pending()
	if len(pending) == 0 {
		fmt.Fprintln(c.Root().Writer, styles.MutedStyle.Render("Nothing to review."))
		return nil
	}

	reviewer := cmd.reviewer
	if reviewer == "" {
		if err := huh.NewInput().
			Title("Reviewer name").
			Value(&reviewer).
			Validate(requireValue).
			Run(); err != nil {
			return err
		}
	}

	out := c.Root().Writer
	for n, item := range pending {
		rendered, err := renderItemMarkdown(item)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n%s\n",
			styles.MutedStyle.Render(fmt.Sprintf("[%d/%d] %s", n+1, len(pending), item.ID)),
			rendered,
		)

		var action string
		if err := huh.NewSelect[string]().
			Title(item.Kind.Label()).
			Options(
				huh.NewOption("Approve", "approve"),
				huh.NewOption("Edit and approve", "edit"),
				huh.NewOption("Reject", "reject"),
				huh.NewOption("Skip", "skip"),
				huh.NewOption("Quit", "quit"),
			).
			Value(&action).
			Run(); err != nil {
			return err
		}

		switch action {
		case "approve":
			if err := item.Approve(reviewer, nil); err != nil {
				return err
			}
		case "edit":
			edits, err := promptEdits(item)
			if err != nil {
				return err
			}
			if err := item.Approve(reviewer, edits); err != nil {
				return err
			}
		case "reject":
			var reason string
			if err := huh.NewInput().Title("Reason").Value(&reason).Run(); err != nil {
				return err
			}
			if err := item.Reject(reviewer, reason); err != nil {
				return err
			}
		case "skip":
			continue
		case "quit":
			if err := cmd.flags.Pipeline.Sessions.Save(ctx, session); err != nil {
				return err
			}
			return nil
		}

		if err := cmd.flags.Pipeline.Sessions.Save(ctx, session); err != nil {
			return err
		}
	}

	progress := session.Progress()
	fmt.Fprintf(out, "\n%s %d%% reviewed\n", styles.ProgressBar(float64(progress.Percent), 24), progress.Percent)
	if session.IsComplete() {
		fmt.Fprintf(out, "Review complete. Run %s to export.\n", styles.TitleStyle.Render("protokoll export"))
	}
	return nil
}

// promptEdits opens a form with one input per editable field, prefilled with
// the item's current values.
func promptEdits(item *review.Item) (map[string]any, error) {
	fields := review.EditableFields(item.Kind)
	values := make([]string, len(fields))
	inputs := make([]huh.Field, len(fields))

	data := item.CurrentData()
	for i, field := range fields {
		values[i] = editValue(data[field])
		inputs[i] = huh.NewInput().
			Title(field).
			Value(&values[i])
	}

	if err := huh.NewForm(huh.NewGroup(inputs...)).Run(); err != nil {
		return nil, err
	}

	edits := make(map[string]any)
	for i, field := range fields {
		if values[i] != editValue(data[field]) {
			edits[field] = values[i]
		}
	}
	return edits, nil
}

// editValue flattens a field value into an editable string.
func editValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// renderItemMarkdown renders one item as terminal markdown.
func renderItemMarkdown(item *review.Item) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s (%s)\n\n", item.Kind.Label(), item.Status)

	data := item.CurrentData()
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "- **%s**: %s\n", k, editValue(data[k]))
	}

	if item.RejectReason != "" {
		fmt.Fprintf(&sb, "\n> Rejected: %s\n", item.RejectReason)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	rendered, err := r.Render(sb.String())
	if err != nil {
		return "", fmt.Errorf("render item: %w", err)
	}
	return strings.TrimRight(rendered, "\n"), nil
}

// parseEdits turns repeated key=value flags into an edit map.
func parseEdits(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	edits := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected field=value", pair)
		}
		edits[key] = value
	}
	return edits, nil
}

func requireValue(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("value is required")
	}
	return nil
}
