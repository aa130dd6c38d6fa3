package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidStatus is returned for any status outside new/contacted/closed.
var ErrInvalidStatus = errors.New("invalid contact status")

type ContactStatus string

const (
	StatusNew       ContactStatus = "new"
	StatusContacted ContactStatus = "contacted"
	StatusClosed    ContactStatus = "closed"
)

// ContactStatuses lists every status in lifecycle order.
var ContactStatuses = []ContactStatus{StatusNew, StatusContacted, StatusClosed}

// Valid reports whether s is one of the known statuses.
func (s ContactStatus) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusClosed:
		return true
	default:
		return false
	}
}

// ParseContactStatus normalizes raw and rejects unknown values.
func ParseContactStatus(raw string) (ContactStatus, error) {
	status := ContactStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// StatusFilter selects contacts by status; FilterAll disables the filter.
type StatusFilter string

const FilterAll StatusFilter = "all"

// ParseStatusFilter accepts "all", "" (treated as all) or a contact status.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == string(FilterAll) {
		return FilterAll, nil
	}
	status, err := ParseContactStatus(raw)
	if err != nil {
		return "", err
	}
	return StatusFilter(status), nil
}

// Matches reports whether a contact with the given status passes the filter.
func (f StatusFilter) Matches(status ContactStatus) bool {
	if f == "" || f == FilterAll {
		return true
	}
	return ContactStatus(f) == status
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// AIInsights is the structured enrichment the backend attaches to a contact.
type AIInsights struct {
	Urgency    string   `json:"urgency,omitempty"`
	Budget     string   `json:"budget,omitempty"`
	Industry   string   `json:"industry,omitempty"`
	PainPoints []string `json:"pain_points,omitempty"`
}

type Contact struct {
	ID                  int64         `json:"id"`
	Name                string        `json:"name"`
	Email               string        `json:"email"`
	Phone               string        `json:"phone,omitempty"`
	Company             string        `json:"company,omitempty"`
	Message             string        `json:"message"`
	Status              ContactStatus `json:"status"`
	AIScore             *int          `json:"ai_score,omitempty"`
	AIPriority          Priority      `json:"ai_priority,omitempty"`
	AIInsights          *AIInsights   `json:"ai_insights,omitempty"`
	AISuggestedResponse string        `json:"ai_suggested_response,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           *time.Time    `json:"updated_at,omitempty"`
}

// HasScore reports whether the backend supplied an AI score (zero included).
func (c Contact) HasScore() bool {
	return c.AIScore != nil
}

// ContactInput is the public contact form payload.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Message string `json:"message"`
}

type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type StatusCounts struct {
	New       int `json:"new"`
	Contacted int `json:"contacted"`
	Closed    int `json:"closed"`
}

// Summary is the backend's aggregate view of all contacts.
type Summary struct {
	TotalContacts  int          `json:"total_contacts"`
	ByStatus       StatusCounts `json:"by_status"`
	Today          int          `json:"today"`
	ThisWeek       int          `json:"this_week"`
	ConversionRate float64      `json:"conversion_rate"`
}

type TimelinePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Timeline struct {
	Days int             `json:"days"`
	Data []TimelinePoint `json:"data"`
}

type TopCompany struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

type ChatMessage struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

type ChatReply struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// DataSource tags where a contact list came from.
type DataSource string

const (
	SourceBackend DataSource = "backend"
	SourceMock    DataSource = "mock"
)
