// Package linear provides client and data types for the Linear GraphQL API.
package linear

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the Linear GraphQL API endpoint.
	DefaultAPIEndpoint = "https://api.linear.app/graphql"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 10 * 1024 * 1024
)

// Client provides methods to interact with the Linear GraphQL API.
type Client struct {
	APIKey     string
	TeamID     string
	ProjectID  string // Optional: new issues are added to this project
	Endpoint   string
	HTTPClient *http.Client
}

// GraphQLRequest represents a GraphQL request payload.
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// GraphQLResponse represents a generic GraphQL response envelope.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors GraphQLErrors   `json:"errors,omitempty"`
}

// GraphQLError represents a single error reported by the API.
type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// GraphQLErrors is the error list of a GraphQL response. It implements error
// so callers can detect application-level failures with errors.As.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ge := range e {
		msgs = append(msgs, ge.Message)
	}
	return "Linear API errors: " + strings.Join(msgs, ", ")
}

// State represents a workflow state of a Linear team.
type State struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // "backlog", "unstarted", "started", "completed", "canceled", "triage"
}

// Issue represents the fields of a Linear issue returned by mutations.
type Issue struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"` // e.g. "ENG-123"
	Title      string `json:"title"`
	URL        string `json:"url"`
}

// IssueCreateInput is the subset of Linear's IssueCreateInput used here.
// StateID and ProjectID are omitted from the payload when empty.
type IssueCreateInput struct {
	TeamID      string `json:"teamId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	StateID     string `json:"stateId,omitempty"`
	ProjectID   string `json:"projectId,omitempty"`
}

// TeamStatesResponse is the data payload of the team states query.
type TeamStatesResponse struct {
	Team *struct {
		States struct {
			Nodes []State `json:"nodes"`
		} `json:"states"`
	} `json:"team"`
}

// IssueCreateResponse is the data payload of the issueCreate mutation.
type IssueCreateResponse struct {
	IssueCreate *struct {
		Success bool   `json:"success"`
		Issue   *Issue `json:"issue"`
	} `json:"issueCreate"`
}

// IssueDeleteResponse is the data payload of the issueDelete mutation.
type IssueDeleteResponse struct {
	IssueDelete *struct {
		Success bool `json:"success"`
	} `json:"issueDelete"`
}
