package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"polimata/internal/labels"
	"polimata/internal/textutil"
	"polimata/pkg/crmclient"
	"polimata/pkg/domain"
	"polimata/pkg/leads"
	"polimata/pkg/session"
)

const (
	maxMessageRunes  = 5000
	maxChatRunes     = 2000
	defaultListLimit = 100
	defaultDays      = 30
	maxDays          = 365
	topCompanyLimit  = 10
)

// ErrInvalidInput marks caller mistakes that map to 400 responses.
var ErrInvalidInput = errors.New("invalid input")

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// Config holds runtime dependencies for the dashboard core.
type Config struct {
	CRM       *crmclient.Client
	Labels    *labels.Translator
	ListLimit int
}

// App implements the site and dashboard use cases on top of the CRM backend.
type App struct {
	crm       *crmclient.Client
	labels    *labels.Translator
	listLimit int
}

func New(cfg Config) (*App, error) {
	if cfg.CRM == nil {
		return nil, errors.New("crm client is required")
	}
	tr := cfg.Labels
	if tr == nil {
		tr = labels.New(labels.DefaultLanguage)
	}
	limit := cfg.ListLimit
	if limit <= 0 {
		limit = defaultListLimit
	}
	return &App{crm: cfg.CRM, labels: tr, listLimit: limit}, nil
}

// Auth returns the login flow bound to one browser session.
func (a *App) Auth(sess session.Store) *session.Auth {
	return session.NewAuth(a.crm, sess)
}

func (a *App) client(sess session.Store) *crmclient.Client {
	return a.crm.WithTokens(sess)
}

// SubmitContact checks required fields and forwards the public contact form.
// Email format is left to the backend.
func (a *App) SubmitContact(ctx context.Context, in domain.ContactInput) (domain.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Company = strings.TrimSpace(in.Company)
	in.Message = textutil.PlainText(in.Message, maxMessageRunes)
	switch {
	case in.Name == "":
		return domain.Contact{}, invalid("name is required")
	case in.Email == "":
		return domain.Contact{}, invalid("email is required")
	case in.Message == "":
		return domain.Contact{}, invalid("message is required")
	}
	return a.crm.CreateContact(ctx, in)
}

// Chat relays one chat widget message.
func (a *App) Chat(ctx context.Context, content string) (domain.ChatReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ChatReply{}, invalid("content is required")
	}
	if textutil.RuneLen(content) > maxChatRunes {
		return domain.ChatReply{}, invalid(fmt.Sprintf("content must be at most %d characters", maxChatRunes))
	}
	return a.crm.SendChatMessage(ctx, content)
}

func (a *App) Overview(ctx context.Context, sess session.Store) (domain.Summary, error) {
	return a.client(sess).Summary(ctx)
}

// ContactView is a contact with its display labels.
type ContactView struct {
	domain.Contact
	StatusLabel    string     `json:"status_label"`
	PriorityLabel  string     `json:"priority_label,omitempty"`
	ScoreBand      leads.Band `json:"score_band"`
	ScoreBandLabel string     `json:"score_band_label"`
}

func (a *App) view(c domain.Contact) ContactView {
	band := leads.ScoreBand(c.AIScore)
	return ContactView{
		Contact:        c,
		StatusLabel:    a.labels.Status(c.Status),
		PriorityLabel:  a.labels.Priority(c.AIPriority),
		ScoreBand:      band,
		ScoreBandLabel: a.labels.ScoreBand(band),
	}
}

type ContactList struct {
	Items  []ContactView      `json:"items"`
	Count  int                `json:"count"`
	Counts leads.StatusCounts `json:"counts"`
}

// Contacts fetches the list and derives the visible page. Tab counts cover
// the whole fetched list, not only the filtered rows.
func (a *App) Contacts(ctx context.Context, sess session.Store, q leads.Query) (ContactList, error) {
	contacts, err := a.client(sess).ListContacts(ctx, crmclient.ListOptions{Limit: a.listLimit})
	if err != nil {
		return ContactList{}, err
	}
	visible := leads.Derive(contacts, q)
	items := make([]ContactView, 0, len(visible))
	for _, c := range visible {
		items = append(items, a.view(c))
	}
	return ContactList{Items: items, Count: len(items), Counts: leads.CountByStatus(contacts)}, nil
}

func (a *App) Contact(ctx context.Context, sess session.Store, id int64) (ContactView, error) {
	c, err := a.client(sess).GetContact(ctx, id)
	if err != nil {
		return ContactView{}, err
	}
	return a.view(c), nil
}

// UpdateStatus moves a contact through its lifecycle via a Board seeded
// with the current backend record.
func (a *App) UpdateStatus(ctx context.Context, sess session.Store, id int64, raw string) (ContactView, error) {
	status, err := domain.ParseContactStatus(raw)
	if err != nil {
		return ContactView{}, err
	}
	client := a.client(sess)
	current, err := client.GetContact(ctx, id)
	if err != nil {
		return ContactView{}, err
	}
	board := leads.NewBoard(client, []domain.Contact{current})
	updated, err := board.SetStatus(ctx, id, status)
	if err != nil {
		return ContactView{}, err
	}
	return a.view(updated), nil
}

type StatusSliceView struct {
	leads.StatusSlice
	Label string `json:"label"`
}

type Analytics struct {
	Summary      domain.Summary         `json:"summary"`
	Timeline     domain.Timeline        `json:"timeline"`
	TopCompanies []domain.TopCompany    `json:"top_companies"`
	Metrics      leads.AnalyticsMetrics `json:"metrics"`
	Distribution []StatusSliceView      `json:"distribution"`
}

// ParseDays validates the analytics window; 0 means the default 30 days.
func ParseDays(days int) (int, error) {
	if days == 0 {
		return defaultDays, nil
	}
	if days < 1 || days > maxDays {
		return 0, invalid(fmt.Sprintf("days must be between 1 and %d", maxDays))
	}
	return days, nil
}

// Analytics loads summary, timeline and top companies concurrently.
// Any failure fails the whole page.
func (a *App) Analytics(ctx context.Context, sess session.Store, days int) (Analytics, error) {
	days, err := ParseDays(days)
	if err != nil {
		return Analytics{}, err
	}
	client := a.client(sess)
	var out Analytics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := client.Summary(gctx)
		if err != nil {
			return err
		}
		out.Summary = summary
		return nil
	})
	g.Go(func() error {
		timeline, err := client.Timeline(gctx, days)
		if err != nil {
			return err
		}
		out.Timeline = timeline
		return nil
	})
	g.Go(func() error {
		top, err := client.TopCompanies(gctx, topCompanyLimit)
		if err != nil {
			return err
		}
		out.TopCompanies = top
		return nil
	})
	if err := g.Wait(); err != nil {
		return Analytics{}, err
	}
	out.Metrics = leads.Metrics(out.Summary, out.Timeline)
	for _, slice := range leads.StatusSlices(out.Summary) {
		out.Distribution = append(out.Distribution, StatusSliceView{StatusSlice: slice, Label: a.labels.Status(slice.Status)})
	}
	return out, nil
}
