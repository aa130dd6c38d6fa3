// Package app implements the terminal lead-management commands.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"polimata/internal/labels"
	"polimata/pkg/crmclient"
	"polimata/pkg/domain"
	"polimata/pkg/leads"
	"polimata/pkg/session"
	"polimata/services/mobile/internal/offline"
)

// ErrUsage marks bad command lines.
var ErrUsage = errors.New("usage")

const usageText = `usage: polimata <command> [flags]

commands:
  login -email <email> -password <password>
  logout
  whoami
  list [-q <text>] [-status all|new|contacted|closed]
  show <id>
  status <id> <new|contacted|closed>
`

type Config struct {
	CRM    *crmclient.Client
	Store  session.Store
	Labels *labels.Translator
	Out    io.Writer
	Logger *slog.Logger
}

type App struct {
	auth   *session.Auth
	board  *leads.Board
	labels *labels.Translator
	out    io.Writer
	logger *slog.Logger
}

func New(cfg Config) (*App, error) {
	if cfg.CRM == nil || cfg.Store == nil {
		return nil, errors.New("crm client and session store are required")
	}
	tr := cfg.Labels
	if tr == nil {
		tr = labels.New(labels.DefaultLanguage)
	}
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auth := session.NewAuth(cfg.CRM, cfg.Store)
	return &App{
		auth:   auth,
		board:  leads.NewBoard(auth.Client(), nil),
		labels: tr,
		out:    out,
		logger: logger,
	}, nil
}

// Run dispatches one command line.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usageText)
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		fs := newFlagSet("login")
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		return a.Login(ctx, *email, *password)
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	case "list":
		fs := newFlagSet("list")
		text := fs.String("q", "", "search name, email or company")
		status := fs.String("status", "all", "all, new, contacted or closed")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		filter, err := domain.ParseStatusFilter(*status)
		if err != nil {
			return err
		}
		return a.List(ctx, leads.Query{Text: *text, Status: filter})
	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("%w: show <id>", ErrUsage)
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		return a.Show(ctx, id)
	case "status":
		if len(rest) != 2 {
			return fmt.Errorf("%w: status <id> <new|contacted|closed>", ErrUsage)
		}
		id, err := parseID(rest[0])
		if err != nil {
			return err
		}
		return a.SetStatus(ctx, id, rest[1])
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usageText)
		return nil
	default:
		fmt.Fprint(a.out, usageText)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid contact id %q", ErrUsage, raw)
	}
	return id, nil
}

func (a *App) Login(ctx context.Context, email, password string) error {
	state, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", displayName(state.User))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoAmI restores the stored session and confirms it with the backend.
func (a *App) WhoAmI(ctx context.Context) error {
	state, err := a.auth.Bootstrap(ctx)
	if err != nil {
		return err
	}
	if !state.Authenticated {
		return session.ErrNotAuthenticated
	}
	fmt.Fprintf(a.out, "%s <%s>\n", displayName(state.User), state.User.Email)
	return nil
}

func displayName(u *domain.User) string {
	if u == nil {
		return "?"
	}
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Email
}

func (a *App) fetcher() *offline.Fetcher {
	return offline.NewFetcher(a.auth.Client(), a.logger)
}

// refresh reloads the board from the backend or the mock fallback.
func (a *App) refresh(ctx context.Context) domain.DataSource {
	res := a.fetcher().FetchContacts(ctx)
	a.board.Replace(res.Contacts)
	return res.Source
}

// List prints the derived contact list with its data source.
func (a *App) List(ctx context.Context, q leads.Query) error {
	source := a.refresh(ctx)
	visible := a.board.View(q)
	counts := leads.CountByStatus(a.board.Contacts())

	fmt.Fprintf(a.out, "[%s]\n", a.labels.Source(source))
	fmt.Fprintf(a.out, "%d | %s %d | %s %d | %s %d\n",
		counts.All,
		a.labels.Status(domain.StatusNew), counts.New,
		a.labels.Status(domain.StatusContacted), counts.Contacted,
		a.labels.Status(domain.StatusClosed), counts.Closed)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOMPANY\tSTATUS\tSCORE\tCREATED")
	for _, c := range visible {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, dash(c.Company), a.labels.Status(c.Status), scoreText(c.AIScore), c.CreatedAt.Local().Format("2006-01-02"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(visible) == 0 {
		fmt.Fprintln(a.out, "No contacts")
	}
	return nil
}

// Show prints one contact with its AI enrichment and contact links.
func (a *App) Show(ctx context.Context, id int64) error {
	c, source, err := a.fetcher().GetContact(ctx, id)
	if err != nil {
		return err
	}
	band := leads.ScoreBand(c.AIScore)
	fmt.Fprintf(a.out, "[%s]\n", a.labels.Source(source))
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", c.Name)
	fmt.Fprintf(tw, "Email\t%s\n", c.Email)
	fmt.Fprintf(tw, "Phone\t%s\n", dash(c.Phone))
	fmt.Fprintf(tw, "Company\t%s\n", dash(c.Company))
	fmt.Fprintf(tw, "Status\t%s\n", a.labels.Status(c.Status))
	fmt.Fprintf(tw, "Created\t%s\n", c.CreatedAt.Local().Format(time.DateTime))
	if c.HasScore() {
		fmt.Fprintf(tw, "AI score\t%d (%s)\n", *c.AIScore, a.labels.ScoreBand(band))
	}
	if p := a.labels.Priority(c.AIPriority); p != "" {
		fmt.Fprintf(tw, "Priority\t%s\n", p)
	}
	if in := c.AIInsights; in != nil {
		if in.Urgency != "" {
			fmt.Fprintf(tw, "Urgency\t%s\n", in.Urgency)
		}
		if in.Budget != "" {
			fmt.Fprintf(tw, "Budget\t%s\n", in.Budget)
		}
		if in.Industry != "" {
			fmt.Fprintf(tw, "Industry\t%s\n", in.Industry)
		}
		if len(in.PainPoints) > 0 {
			fmt.Fprintf(tw, "Pain points\t%s\n", strings.Join(in.PainPoints, "; "))
		}
	}
	fmt.Fprintf(tw, "Email link\t%s\n", mailtoLink(c.Email))
	if c.Phone != "" {
		fmt.Fprintf(tw, "Call link\t%s\n", telLink(c.Phone))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%s\n", c.Message)
	if c.AISuggestedResponse != "" {
		fmt.Fprintf(a.out, "\nSuggested response:\n%s\n", c.AISuggestedResponse)
	}
	return nil
}

// SetStatus changes a contact's status through the backend. The local
// list is not touched when the backend refuses, mock data included.
func (a *App) SetStatus(ctx context.Context, id int64, raw string) error {
	status, err := domain.ParseContactStatus(raw)
	if err != nil {
		return err
	}
	source := a.refresh(ctx)
	updated, err := a.board.SetStatus(ctx, id, status)
	if err != nil {
		if source == domain.SourceMock && !errors.Is(err, leads.ErrContactNotFound) {
			return fmt.Errorf("status not changed, backend unavailable: %w", err)
		}
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", updated.Name, a.labels.Status(updated.Status))
	return nil
}

func mailtoLink(email string) string {
	return "mailto:" + url.PathEscape(strings.TrimSpace(email))
}

func telLink(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	return "tel:" + b.String()
}

func scoreText(score *int) string {
	if score == nil {
		return "-"
	}
	return strconv.Itoa(*score)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
