package api

import (
	"context"
	"encoding/json"
	"net/url"
)

// --- pipelines ---

func (c *Client) ListPipelines(ctx context.Context) ([]Pipeline, error) {
	var out []Pipeline
	if err := c.do(ctx, HTTPGet, "/crm/getPipelines", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePipeline(ctx context.Context, name string, stages []StageInput) (Pipeline, error) {
	in := struct {
		Name   string       `json:"name"`
		Stages []StageInput `json:"stages"`
	}{name, stages}

	var out Pipeline
	err := c.do(ctx, HTTPPost, "/crm/createPipeline", in, &out)
	return out, err
}

// UpdatePipeline renames a pipeline and, unlike the web panel which only sent
// the name, also sends the edited stage list; stages without an id are new.
func (c *Client) UpdatePipeline(ctx context.Context, id, name string, stages []StageInput) (Pipeline, error) {
	in := struct {
		Name   string       `json:"name"`
		Stages []StageInput `json:"stages,omitempty"`
	}{name, stages}

	var out Pipeline
	err := c.do(ctx, HTTPPut, "/crm/updatePipeline/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) DeletePipeline(ctx context.Context, id string) error {
	return c.do(ctx, HTTPDelete, "/crm/deletePipeline/"+url.PathEscape(id), nil, nil)
}

// --- opportunities ---

func (c *Client) ListOpportunities(ctx context.Context, pipelineID string) ([]Opportunity, error) {
	var out []Opportunity
	if err := c.do(ctx, HTTPGet, "/opportunities/pipeline/"+url.PathEscape(pipelineID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateOpportunity(ctx context.Context, in OpportunityInput) (Opportunity, error) {
	var out Opportunity
	err := c.do(ctx, HTTPPost, "/opportunities/createOpportunity", in, &out)
	return out, err
}

func (c *Client) UpdateOpportunity(ctx context.Context, id string, in OpportunityInput) (Opportunity, error) {
	var out Opportunity
	err := c.do(ctx, HTTPPut, "/opportunities/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) DeleteOpportunity(ctx context.Context, id string) error {
	return c.do(ctx, HTTPDelete, "/opportunities/"+url.PathEscape(id), nil, nil)
}

// --- contacts ---

func (c *Client) ListContacts(ctx context.Context) ([]Contact, error) {
	var out []Contact
	if err := c.do(ctx, HTTPGet, "/contacts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateContact(ctx context.Context, in ContactInput) (Contact, error) {
	var out Contact
	err := c.do(ctx, HTTPPost, "/contacts/createContact", in, &out)
	return out, err
}

func (c *Client) UpdateContact(ctx context.Context, id string, in ContactInput) (Contact, error) {
	var out Contact
	err := c.do(ctx, HTTPPut, "/contacts/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.do(ctx, HTTPDelete, "/contacts/"+url.PathEscape(id), nil, nil)
}

// --- users ---

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.do(ctx, HTTPGet, "/user/getUsers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- auth ---

func (c *Client) Login(ctx context.Context, creds Credentials) error {
	return c.do(ctx, HTTPPost, "/auth/login", creds, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, HTTPPost, "/auth/logout", nil, nil)
}

// Me returns the profile behind the current session. A missing or expired
// session surfaces as an error matching ErrUnauthorized.
func (c *Client) Me(ctx context.Context) (User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, HTTPGet, "/auth/me", nil, &raw); err != nil {
		return User{}, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return User{}, &Error{Method: HTTPGet, Path: "/auth/me", Status: 401}
	}

	// accept both {"user": {...}} and a bare profile
	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return *wrapped.User, nil
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return User{}, err
	}
	if u.ID == "" {
		return User{}, &Error{Method: HTTPGet, Path: "/auth/me", Status: 401}
	}
	return u, nil
}
