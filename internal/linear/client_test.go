package linear

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "test-team-id")

	if client.APIKey != "test-api-key" {
		t.Errorf("APIKey = %q, want %q", client.APIKey, "test-api-key")
	}
	if client.TeamID != "test-team-id" {
		t.Errorf("TeamID = %q, want %q", client.TeamID, "test-team-id")
	}
	if client.Endpoint != DefaultAPIEndpoint {
		t.Errorf("Endpoint = %q, want %q", client.Endpoint, DefaultAPIEndpoint)
	}
	if client.HTTPClient == nil {
		t.Error("HTTPClient should not be nil")
	}
}

func TestWithEndpoint(t *testing.T) {
	client := NewClient("key", "team")
	customEndpoint := "https://custom.linear.app/graphql"

	newClient := client.WithEndpoint(customEndpoint)

	if newClient.Endpoint != customEndpoint {
		t.Errorf("Endpoint = %q, want %q", newClient.Endpoint, customEndpoint)
	}
	// Original should be unchanged
	if client.Endpoint != DefaultAPIEndpoint {
		t.Errorf("Original endpoint changed: %q", client.Endpoint)
	}
	if newClient.APIKey != "key" {
		t.Errorf("APIKey not preserved: %q", newClient.APIKey)
	}
}

func TestWithHTTPClient(t *testing.T) {
	client := NewClient("key", "team")
	customHTTPClient := &http.Client{Timeout: 60 * time.Second}

	newClient := client.WithHTTPClient(customHTTPClient)

	if newClient.HTTPClient != customHTTPClient {
		t.Error("HTTPClient not set correctly")
	}
	if newClient.Endpoint != DefaultAPIEndpoint {
		t.Errorf("Endpoint not preserved: %q", newClient.Endpoint)
	}
}

// graphqlServer answers every request with handler's result and records the
// decoded requests.
func graphqlServer(t *testing.T, handler func(req GraphQLRequest) (int, string)) (*httptest.Server, func() []GraphQLRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []GraphQLRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "test-key" {
			t.Errorf("Authorization = %q, want raw API key", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		status, resp := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(server.Close)
	return server, func() []GraphQLRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]GraphQLRequest(nil), seen...)
	}
}

func TestGetTeamStates(t *testing.T) {
	server, seen := graphqlServer(t, func(req GraphQLRequest) (int, string) {
		return http.StatusOK, `{"data":{"team":{"states":{"nodes":[
			{"id":"s1","name":"Todo","type":"unstarted"},
			{"id":"s2","name":"In Progress","type":"started"}
		]}}}}`
	})

	client := NewClient("test-key", "team-1").WithEndpoint(server.URL)
	states, err := client.GetTeamStates(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, State{ID: "s2", Name: "In Progress", Type: "started"}, states[1])
	assert.Equal(t, "team-1", seen()[0].Variables["teamId"])
}

func TestGetTeamStates_GraphQLErrors(t *testing.T) {
	server, _ := graphqlServer(t, func(GraphQLRequest) (int, string) {
		return http.StatusOK, `{"errors":[{"message":"Entity not found"},{"message":"bad team"}]}`
	})

	client := NewClient("test-key", "team-1").WithEndpoint(server.URL)
	_, err := client.GetTeamStates(context.Background())
	require.Error(t, err)

	var gqlErrs GraphQLErrors
	require.True(t, errors.As(err, &gqlErrs))
	assert.Len(t, gqlErrs, 2)
	assert.Contains(t, err.Error(), "Entity not found, bad team")
}

func TestGetTeamStates_HTTPError(t *testing.T) {
	server, _ := graphqlServer(t, func(GraphQLRequest) (int, string) {
		return http.StatusUnauthorized, `{"error":"unauthorized"}`
	})

	client := NewClient("test-key", "team-1").WithEndpoint(server.URL)
	_, err := client.GetTeamStates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestCreateIssue(t *testing.T) {
	server, seen := graphqlServer(t, func(GraphQLRequest) (int, string) {
		return http.StatusOK, `{"data":{"issueCreate":{"success":true,"issue":{
			"id":"uuid-1","identifier":"ENG-1","title":"Ship it","url":"https://linear.app/acme/issue/ENG-1/ship-it"}}}}`
	})

	client := NewClient("test-key", "team-1").WithEndpoint(server.URL)
	issue, err := client.CreateIssue(context.Background(), "Ship it", "**Goal:** ship", PriorityHigh, "state-9")
	require.NoError(t, err)
	assert.Equal(t, "uuid-1", issue.ID)
	assert.Equal(t, "ENG-1", issue.Identifier)

	input, ok := seen()[0].Variables["input"].(map[string]interface{})
	require.True(t, ok, "input variable should be an object")
	assert.Equal(t, "team-1", input["teamId"])
	assert.Equal(t, float64(PriorityHigh), input["priority"])
	assert.Equal(t, "state-9", input["stateId"])
	assert.NotContains(t, input, "projectId")
}

func TestCreateIssue_OmitsEmptyStateID(t *testing.T) {
	server, seen := graphqlServer(t, func(GraphQLRequest) (int, string) {
		return http.StatusOK, `{"data":{"issueCreate":{"success":true,"issue":{"id":"uuid-1","title":"t","url":"u"}}}}`
	})

	client := NewClient("test-key", "team-1").WithEndpoint(server.URL).WithProjectID("proj-1")
	_, err := client.CreateIssue(context.Background(), "t", "", PriorityMedium, "")
	require.NoError(t, err)

	input := seen()[0].Variables["input"].(map[string]interface{})
	_, hasState := input["stateId"]
	assert.False(t, hasState, "stateId must be omitted, not null")
	assert.Equal(t, "proj-1", input["projectId"])
}

func TestCreateIssue_SuccessFlagFalse(t *testing.T) {
	server, _ := graphqlServer(t, func(GraphQLRequest) (int, string) {
		return http.StatusOK, `{"data":{"issueCreate":{"success":false,"issue":null}}}`
	})

	client := NewClient("test-key", "team-1").WithEndpoint(server.URL)
	_, err := client.CreateIssue(context.Background(), "t", "", PriorityMedium, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsuccessful))
}

func TestCreateIssue_MissingPayload(t *testing.T) {
	server, _ := graphqlServer(t, func(GraphQLRequest) (int, string) {
		return http.StatusOK, `{"data":{}}`
	})

	client := NewClient("test-key", "team-1").WithEndpoint(server.URL)
	_, err := client.CreateIssue(context.Background(), "t", "", PriorityMedium, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid response")
}

func TestDeleteIssue(t *testing.T) {
	server, seen := graphqlServer(t, func(req GraphQLRequest) (int, string) {
		if req.Variables["id"] == "gone" {
			return http.StatusOK, `{"data":{"issueDelete":{"success":false}}}`
		}
		return http.StatusOK, `{"data":{"issueDelete":{"success":true}}}`
	})

	client := NewClient("test-key", "team-1").WithEndpoint(server.URL)
	require.NoError(t, client.DeleteIssue(context.Background(), "uuid-1"))
	assert.True(t, strings.Contains(seen()[0].Query, "issueDelete"))

	err := client.DeleteIssue(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsuccessful))
}
