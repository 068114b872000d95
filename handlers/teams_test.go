package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/taskflowapp/taskflow/database"
)

func TestTeamRosterRules(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.signup(t, "Owner", "owner@example.com", "secret123")
	member := srv.signup(t, "Member", "member@example.com", "secret123")
	outsider := srv.signup(t, "Outsider", "outsider@example.com", "secret123")

	memberID := srv.me(t, member).ID
	ownerID := srv.me(t, owner).ID

	status, body := srv.request(t, "POST", "/api/v1/teams", owner, map[string]any{
		"name": "Platform", "description": "infra crew",
	})
	if status != http.StatusCreated {
		t.Fatalf("create team: status %d", status)
	}
	var team database.Team
	if err := json.Unmarshal(body, &team); err != nil {
		t.Fatalf("decode team: %v", err)
	}
	if len(team.Members) != 1 || team.Members[0].Role != database.RoleOwner {
		t.Fatalf("owner membership missing: %+v", team.Members)
	}

	// Outsiders cannot even read the team.
	status, _ = srv.request(t, "GET", "/api/v1/teams/"+team.ID, outsider, nil)
	if status != http.StatusForbidden {
		t.Errorf("outsider get: got %d, want 403", status)
	}

	status, body = srv.request(t, "POST", "/api/v1/teams/"+team.ID+"/members", owner, map[string]any{
		"userId": memberID,
	})
	if status != http.StatusOK {
		t.Fatalf("add member: status %d, body %s", status, body)
	}
	if err := json.Unmarshal(body, &team); err != nil {
		t.Fatalf("decode team: %v", err)
	}
	if len(team.Members) != 2 {
		t.Errorf("roster size = %d, want 2", len(team.Members))
	}

	// Plain members cannot manage the roster.
	status, _ = srv.request(t, "POST", "/api/v1/teams/"+team.ID+"/members", member, map[string]any{
		"userId": srv.me(t, outsider).ID,
	})
	if status != http.StatusForbidden {
		t.Errorf("member adds member: got %d, want 403", status)
	}

	// The owner can never be removed.
	status, _ = srv.request(t, "DELETE", "/api/v1/teams/"+team.ID+"/members/"+ownerID, owner, nil)
	if status != http.StatusForbidden {
		t.Errorf("remove owner: got %d, want 403", status)
	}

	status, _ = srv.request(t, "DELETE", "/api/v1/teams/"+team.ID+"/members/"+memberID, owner, nil)
	if status != http.StatusOK {
		t.Errorf("remove member: got %d, want 200", status)
	}

	// Update and delete are owner-only.
	status, _ = srv.request(t, "PATCH", "/api/v1/teams/"+team.ID, member, map[string]any{"name": "Renamed"})
	if status != http.StatusForbidden {
		t.Errorf("member update: got %d, want 403", status)
	}
	status, _ = srv.request(t, "DELETE", "/api/v1/teams/"+team.ID, owner, nil)
	if status != http.StatusOK {
		t.Errorf("owner delete: got %d, want 200", status)
	}
}

// me fetches the profile behind a token.
func (s *testServer) me(t *testing.T, token string) database.User {
	t.Helper()

	status, body := s.request(t, "GET", "/api/v1/users/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("users/me: status %d", status)
	}
	var user database.User
	if err := json.Unmarshal(body, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return user
}
