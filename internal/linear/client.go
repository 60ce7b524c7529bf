package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnsuccessful is returned when Linear answers a mutation without
// transport or GraphQL errors but reports success=false.
var ErrUnsuccessful = errors.New("Linear reported the mutation as unsuccessful")

const teamStatesQuery = `
	query TeamStates($teamId: String!) {
		team(id: $teamId) {
			states {
				nodes {
					id
					name
					type
				}
			}
		}
	}
`

const issueCreateMutation = `
	mutation IssueCreate($input: IssueCreateInput!) {
		issueCreate(input: $input) {
			success
			issue {
				id
				identifier
				title
				url
			}
		}
	}
`

const issueDeleteMutation = `
	mutation IssueDelete($id: String!) {
		issueDelete(id: $id) {
			success
		}
	}
`

// NewClient creates a new Linear client.
func NewClient(apiKey, teamID string) *Client {
	return &Client{
		APIKey:   apiKey,
		TeamID:   teamID,
		Endpoint: DefaultAPIEndpoint,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithEndpoint returns a new client with a custom endpoint (for testing).
func (c *Client) WithEndpoint(endpoint string) *Client {
	clone := *c
	clone.Endpoint = endpoint
	return &clone
}

// WithHTTPClient returns a new client with a custom HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	clone := *c
	clone.HTTPClient = httpClient
	return &clone
}

// WithProjectID returns a new client that files created issues under a project.
func (c *Client) WithProjectID(projectID string) *Client {
	clone := *c
	clone.ProjectID = projectID
	return &clone
}

// Execute sends a GraphQL request and decodes the data payload into out.
// GraphQL-level errors are returned as GraphQLErrors.
func (c *Client) Execute(ctx context.Context, req *GraphQLRequest, out interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error: %s (status %d)", string(respBody), resp.StatusCode)
	}

	var gqlResp GraphQLResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return gqlResp.Errors
	}
	if out == nil {
		return nil
	}
	if len(gqlResp.Data) == 0 || string(gqlResp.Data) == "null" {
		return fmt.Errorf("invalid response from Linear API: missing data")
	}
	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// GetTeamStates fetches the workflow states configured for the client's team.
func (c *Client) GetTeamStates(ctx context.Context) ([]State, error) {
	req := &GraphQLRequest{
		Query:     teamStatesQuery,
		Variables: map[string]interface{}{"teamId": c.TeamID},
	}

	var data TeamStatesResponse
	if err := c.Execute(ctx, req, &data); err != nil {
		return nil, fmt.Errorf("failed to fetch team states: %w", err)
	}
	if data.Team == nil {
		return nil, fmt.Errorf("team %s not found", c.TeamID)
	}
	return data.Team.States.Nodes, nil
}

// CreateIssue creates a new issue in the client's team. An empty stateID
// leaves the state unset so Linear applies the team default.
func (c *Client) CreateIssue(ctx context.Context, title, description string, priority int, stateID string) (*Issue, error) {
	input := IssueCreateInput{
		TeamID:      c.TeamID,
		Title:       title,
		Description: description,
		Priority:    priority,
		StateID:     stateID,
		ProjectID:   c.ProjectID,
	}
	req := &GraphQLRequest{
		Query:     issueCreateMutation,
		Variables: map[string]interface{}{"input": input},
	}

	var data IssueCreateResponse
	if err := c.Execute(ctx, req, &data); err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	if data.IssueCreate == nil {
		return nil, fmt.Errorf("failed to create issue: invalid response from Linear API")
	}
	if !data.IssueCreate.Success || data.IssueCreate.Issue == nil {
		return nil, fmt.Errorf("failed to create issue %q: %w", title, ErrUnsuccessful)
	}
	return data.IssueCreate.Issue, nil
}

// DeleteIssue deletes (trashes) an issue by its internal ID.
func (c *Client) DeleteIssue(ctx context.Context, id string) error {
	req := &GraphQLRequest{
		Query:     issueDeleteMutation,
		Variables: map[string]interface{}{"id": id},
	}

	var data IssueDeleteResponse
	if err := c.Execute(ctx, req, &data); err != nil {
		return fmt.Errorf("failed to delete issue %s: %w", id, err)
	}
	if data.IssueDelete == nil || !data.IssueDelete.Success {
		return fmt.Errorf("failed to delete issue %s: %w", id, ErrUnsuccessful)
	}
	return nil
}
