package crmclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"polimata/pkg/domain"
)

const defaultListLimit = 100

type ListOptions struct {
	Skip  int
	Limit int
}

func (o ListOptions) query() url.Values {
	limit := o.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	skip := o.Skip
	if skip < 0 {
		skip = 0
	}
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// CreateContact submits the public contact form. No credential is required.
func (c *Client) CreateContact(ctx context.Context, in domain.ContactInput) (domain.Contact, error) {
	var contact domain.Contact
	if err := c.doJSON(ctx, http.MethodPost, "/contacts/", nil, in, &contact); err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

func (c *Client) ListContacts(ctx context.Context, opts ListOptions) ([]domain.Contact, error) {
	var contacts []domain.Contact
	if err := c.doJSON(ctx, http.MethodGet, "/contacts/", opts.query(), nil, &contacts); err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return contacts, nil
}

func (c *Client) GetContact(ctx context.Context, id int64) (domain.Contact, error) {
	var contact domain.Contact
	if err := c.doJSON(ctx, http.MethodGet, contactPath(id), nil, nil, &contact); err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

// UpdateContactStatus changes a contact's lifecycle status.
// The status travels in both the JSON body and the query string: current
// backends read the query parameter, older ones the body.
func (c *Client) UpdateContactStatus(ctx context.Context, id int64, status domain.ContactStatus) (domain.Contact, error) {
	if !status.Valid() {
		return domain.Contact{}, domain.ErrInvalidStatus
	}
	q := url.Values{}
	q.Set("status", string(status))
	payload := map[string]string{"status": string(status)}
	var contact domain.Contact
	if err := c.doJSON(ctx, http.MethodPut, contactPath(id), q, payload, &contact); err != nil {
		return domain.Contact{}, err
	}
	return contact, nil
}

func contactPath(id int64) string {
	return "/contacts/" + strconv.FormatInt(id, 10)
}
