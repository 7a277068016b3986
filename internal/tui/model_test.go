package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"

	"github.com/peopledesk/directory-system/internal/client"
	"github.com/peopledesk/directory-system/internal/core/domain"
)

// stubAPI satisfies the API interface without any network.
type stubAPI struct {
	store     *client.Store
	users     []*domain.User
	listCalls int
	listErr   error
	logouts   int
}

func (s *stubAPI) Login(context.Context, string, string) (client.Session, error) {
	return client.Session{}, nil
}

func (s *stubAPI) Logout() {
	s.logouts++
	s.store.Clear()
}

func (s *stubAPI) ListUsers(context.Context, string) ([]*domain.User, error) {
	s.listCalls++
	return s.users, s.listErr
}

func (s *stubAPI) CreateUser(context.Context, client.CreateUserPayload) (*domain.User, error) {
	return nil, nil
}

func (s *stubAPI) UpdateProfile(context.Context, *domain.User, client.ProfilePayload) (*domain.User, error) {
	return nil, nil
}

func (s *stubAPI) DeleteUser(context.Context, *domain.User) error { return nil }

func (s *stubAPI) PromoteUser(context.Context, *domain.User) (*domain.User, error) {
	return nil, nil
}

func (s *stubAPI) DemoteUser(context.Context, *domain.User) (*domain.User, error) {
	return nil, nil
}

func (s *stubAPI) ChangePassword(context.Context, *domain.User, string, string, string) error {
	return nil
}

func (s *stubAPI) Creds() *client.Store { return s.store }

func testCredential(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"username": "tester",
		"role":     role,
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func authedModel(t *testing.T, role string, users []*domain.User) (Model, *stubAPI) {
	t.Helper()
	store := client.NewStore()
	store.Set(testCredential(t, "self-1", role))
	session, ok := store.Session()
	if !ok {
		t.Fatalf("credential did not derive a session")
	}

	api := &stubAPI{store: store, users: users}
	m := New(api, nil)
	m.authenticated = true
	m.session = session
	m.focus = FocusList
	m.phase = phaseReady
	m.roster = users
	return m, api
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_DebounceStaleGenerationIgnored(t *testing.T) {
	m, _ := authedModel(t, domain.RoleMember, nil)
	m.debounceGen = 3
	seq := m.querySeq

	// A timer from an earlier edit fires after the term changed again.
	m, cmd := update(t, m, debounceElapsedMsg{gen: 2})
	if cmd != nil || m.querySeq != seq {
		t.Fatalf("stale debounce must not trigger a query")
	}

	// The current generation's timer settles the term.
	m.search.SetValue("ali")
	m, cmd = update(t, m, debounceElapsedMsg{gen: 3})
	if cmd == nil {
		t.Fatalf("settled debounce must trigger a query")
	}
	if m.querySeq != seq+1 {
		t.Fatalf("expected query sequence %d, got %d", seq+1, m.querySeq)
	}
	if m.searchTerm != "ali" {
		t.Fatalf("settled term not captured: %q", m.searchTerm)
	}
	if m.phase != phaseLoading {
		t.Fatalf("expected loading phase, got %d", m.phase)
	}
}

func TestModel_StaleRosterResponseDiscarded(t *testing.T) {
	current := []*domain.User{{ID: "u1", Username: "alice"}}
	m, _ := authedModel(t, domain.RoleMember, current)
	m.querySeq = 2

	stale := []*domain.User{{ID: "u9", Username: "ghost"}}
	m, _ = update(t, m, rosterMsg{seq: 1, users: stale})
	if len(m.roster) != 1 || m.roster[0].ID != "u1" {
		t.Fatalf("stale response must not overwrite the roster: %+v", m.roster)
	}

	fresh := []*domain.User{{ID: "u2", Username: "bob"}}
	m, _ = update(t, m, rosterMsg{seq: 2, users: fresh})
	if len(m.roster) != 1 || m.roster[0].ID != "u2" {
		t.Fatalf("current response must be applied: %+v", m.roster)
	}
	if m.phase != phaseReady {
		t.Fatalf("expected ready phase, got %d", m.phase)
	}
}

func TestModel_RosterErrorKeepsLastGoodState(t *testing.T) {
	m, _ := authedModel(t, domain.RoleMember, []*domain.User{{ID: "u1"}})
	m.querySeq = 1

	failure := &client.Error{Kind: client.KindNetworkUnavailable, Message: "directory server unreachable"}
	m, _ = update(t, m, rosterMsg{seq: 1, err: failure})
	if m.phase != phaseFailed {
		t.Fatalf("expected failed phase, got %d", m.phase)
	}
	if m.errMsg != "directory server unreachable" {
		t.Fatalf("error message not surfaced: %q", m.errMsg)
	}
	if !m.authenticated {
		t.Fatalf("a query failure must not end the session")
	}
}

func TestModel_MutationSuccessTriggersFullReload(t *testing.T) {
	m, _ := authedModel(t, domain.RoleAdmin, []*domain.User{{ID: "u1"}})
	seq := m.querySeq
	m.pendingTarget = "u1"

	m, cmd := update(t, m, mutationMsg{action: "promote"})
	if cmd == nil {
		t.Fatalf("mutation success must issue a reload")
	}
	if m.querySeq != seq+1 {
		t.Fatalf("expected a fresh query sequence")
	}
	if m.phase != phaseLoading {
		t.Fatalf("expected loading phase, got %d", m.phase)
	}
	if m.pendingTarget != "" {
		t.Fatalf("pending guard must be released")
	}
	if m.notice == "" {
		t.Fatalf("expected a success notice")
	}
}

func TestModel_MutationFailureLeavesRosterIntact(t *testing.T) {
	roster := []*domain.User{{ID: "u1", Username: "alice"}}
	m, api := authedModel(t, domain.RoleAdmin, roster)

	failure := &client.Error{Kind: client.KindConflictOrServer, Message: "username already exists"}
	m, cmd := update(t, m, mutationMsg{action: "create", err: failure})
	if cmd != nil {
		t.Fatalf("a failed mutation must not trigger a reload")
	}
	if m.phase != phaseReady || len(m.roster) != 1 {
		t.Fatalf("roster must be untouched after a failed mutation")
	}
	if m.notice != "username already exists" {
		t.Fatalf("failure message not surfaced: %q", m.notice)
	}
	if api.listCalls != 0 {
		t.Fatalf("no query may be issued on failure")
	}
}

func TestModel_SessionExpiryReturnsToLogin(t *testing.T) {
	m, api := authedModel(t, domain.RoleMember, []*domain.User{{ID: "u1"}})
	m.querySeq = 1

	expired := &client.Error{Kind: client.KindSessionExpired, Message: "session expired"}
	m, _ = update(t, m, rosterMsg{seq: 1, err: expired})

	if m.authenticated {
		t.Fatalf("expiry must end the session")
	}
	if m.focus != FocusLogin {
		t.Fatalf("expiry must return to the login screen")
	}
	if m.roster != nil {
		t.Fatalf("roster state must be discarded on expiry")
	}
	if api.logouts != 1 {
		t.Fatalf("credential must be discarded exactly once, got %d", api.logouts)
	}
}

func TestModel_ExpiredMutationAlsoLogsOut(t *testing.T) {
	m, api := authedModel(t, domain.RoleAdmin, []*domain.User{{ID: "u1"}})

	expired := &client.Error{Kind: client.KindSessionExpired, Message: "session expired"}
	m, _ = update(t, m, mutationMsg{action: "delete", err: expired})

	if m.authenticated || api.logouts != 1 {
		t.Fatalf("mutation expiry must force logout")
	}
}

func TestModel_MemberCannotOpenCreateForm(t *testing.T) {
	m, _ := authedModel(t, domain.RoleMember, []*domain.User{{ID: "u1", Role: domain.RoleMember}})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if m.form != nil || m.focus != FocusList {
		t.Fatalf("a member must not reach the create form")
	}
}

func TestModel_AdminOpensCreateForm(t *testing.T) {
	m, _ := authedModel(t, domain.RoleAdmin, []*domain.User{{ID: "u1", Role: domain.RoleMember}})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if m.form == nil || m.form.mode != formCreate {
		t.Fatalf("an admin must reach the create form")
	}
	if m.focus != FocusForm {
		t.Fatalf("form must take focus")
	}
}

func TestModel_DeleteRequiresConfirmation(t *testing.T) {
	target := &domain.User{ID: "u1", Username: "alice", Role: domain.RoleMember}
	m, _ := authedModel(t, domain.RoleAdmin, []*domain.User{target})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if m.confirmTarget == nil || m.focus != FocusConfirm {
		t.Fatalf("delete must go through the confirmation prompt")
	}

	// Declining aborts with no call.
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if cmd != nil || m.confirmTarget != nil || m.focus != FocusList {
		t.Fatalf("declining must abort the delete")
	}
}

func TestModel_PendingMutationBlocksResubmission(t *testing.T) {
	target := &domain.User{ID: "u1", Username: "alice", Role: domain.RoleMember}
	m, _ := authedModel(t, domain.RoleAdmin, []*domain.User{target})
	m.pendingTarget = "u1"

	_, cmd := m.runMutation("promote", "u1", func(context.Context) error { return nil })
	if cmd != nil {
		t.Fatalf("a second mutation for the same target must be ignored while one is in flight")
	}
}

func TestModel_EmptyReadyRosterRendersHint(t *testing.T) {
	m, _ := authedModel(t, domain.RoleMember, nil)
	m.searchTerm = "zzz"
	m.search.SetValue("zzz")

	view := m.rosterView()
	if view == "" {
		t.Fatalf("empty ready roster must render a message")
	}
}
