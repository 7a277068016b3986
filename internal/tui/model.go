package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/peopledesk/directory-system/internal/client"
	"github.com/peopledesk/directory-system/internal/core/domain"
)

// searchDebounce is the quiescence window: only a search term that
// stays unchanged this long triggers a query.
const searchDebounce = 300 * time.Millisecond

// API is the slice of the directory client the roster controller
// consumes. *client.Client satisfies it; tests substitute a stub.
type API interface {
	Login(ctx context.Context, username, password string) (client.Session, error)
	Logout()
	ListUsers(ctx context.Context, search string) ([]*domain.User, error)
	CreateUser(ctx context.Context, payload client.CreateUserPayload) (*domain.User, error)
	UpdateProfile(ctx context.Context, target *domain.User, payload client.ProfilePayload) (*domain.User, error)
	DeleteUser(ctx context.Context, target *domain.User) error
	PromoteUser(ctx context.Context, target *domain.User) (*domain.User, error)
	DemoteUser(ctx context.Context, target *domain.User) (*domain.User, error)
	ChangePassword(ctx context.Context, target *domain.User, oldPassword, newPassword, confirmNew string) error
	Creds() *client.Store
}

// Recorder is the optional telemetry hook. Fire-and-forget by
// contract: implementations must never block or fail the caller.
type Recorder interface {
	Record(eventType, page string, details map[string]any)
}

type rosterPhase int

const (
	phaseIdle rosterPhase = iota
	phaseLoading
	phaseReady
	phaseFailed
)

// FocusRegion identifies where keyboard input is routed.
type FocusRegion int

const (
	// FocusLogin means the authentication screen is active.
	FocusLogin FocusRegion = iota
	// FocusList means navigation keys move the roster cursor.
	FocusList
	// FocusSearch means keystrokes edit the search input.
	FocusSearch
	// FocusForm means a create/edit/password modal owns all input.
	FocusForm
	// FocusConfirm means the delete confirmation prompt is active.
	FocusConfirm
)

// --- Messages ---

// debounceElapsedMsg fires when a search term may have settled. Stale
// generations (the term changed again before the window elapsed) are
// discarded.
type debounceElapsedMsg struct {
	gen int
}

// rosterMsg delivers a roster query result. seq carries the query
// sequence token: responses for superseded queries are discarded so an
// earlier query arriving late can never overwrite a later one.
type rosterMsg struct {
	seq   int
	users []*domain.User
	err   error
}

// mutationMsg delivers the outcome of an asynchronous mutation call.
type mutationMsg struct {
	action string
	err    error
}

// loginMsg delivers the outcome of an authentication attempt.
type loginMsg struct {
	session client.Session
	err     error
}

// Model is the roster controller: it owns roster state, the search
// term, modal state, and orchestrates queries and mutations. The
// displayed roster is always rebuilt from a full re-query, never
// patched in place from a mutation response.
type Model struct {
	api       API
	telemetry Recorder
	theme     Theme
	keys      keyMap

	authenticated bool
	session       client.Session
	login         loginForm

	phase  rosterPhase
	roster []*domain.User
	cursor int
	errMsg string
	notice string

	search      textinput.Model
	searchTerm  string // last settled term
	debounceGen int    // invalidates earlier debounce timers
	querySeq    int    // token issued with the latest query

	focus         FocusRegion
	form          *accountForm
	confirmTarget *domain.User

	// pendingTarget disables re-submission while a mutation is in
	// flight for that target. Advisory only; the server tolerates
	// duplicates on its own terms.
	pendingTarget string

	spinner spinner.Model
	width   int
	height  int
}

func New(api API, telemetry Recorder) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search users..."

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		api:       api,
		telemetry: telemetry,
		theme:     DefaultTheme(),
		keys:      defaultKeyMap(),
		login:     newLoginForm(),
		focus:     FocusLogin,
		search:    search,
		spinner:   spin,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// --- Commands ---

func scheduleDebounce(gen int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return debounceElapsedMsg{gen: gen}
	})
}

func (m Model) queryRoster(seq int, term string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		users, err := api.ListUsers(context.Background(), term)
		return rosterMsg{seq: seq, users: users, err: err}
	}
}

func (m Model) doLogin(username, password string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		session, err := api.Login(context.Background(), username, password)
		return loginMsg{session: session, err: err}
	}
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.phase == phaseLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case debounceElapsedMsg:
		return m.handleDebounce(msg)

	case rosterMsg:
		return m.handleRoster(msg)

	case mutationMsg:
		return m.handleMutation(msg)

	case loginMsg:
		return m.handleLogin(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && m.focus != FocusForm && m.focus != FocusSearch && m.focus != FocusLogin {
		return m, tea.Quit
	}
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.focus {
	case FocusLogin:
		return m.handleLoginKeys(msg)
	case FocusSearch:
		return m.handleSearchKeys(msg)
	case FocusForm:
		return m.handleFormKeys(msg)
	case FocusConfirm:
		return m.handleConfirmKeys(msg)
	default:
		return m.handleListKeys(msg)
	}
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd, submit := m.login.update(msg)
	if !submit {
		return m, cmd
	}

	username := strings.TrimSpace(m.login.username.Value())
	password := m.login.password.Value()
	if username == "" || password == "" {
		m.login.errMsg = "username and password are required"
		return m, nil
	}

	m.login.errMsg = ""
	return m, m.doLogin(username, password)
}

func (m Model) handleLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.login.errMsg = msg.err.Error()
		m.record("AUTH", "login", map[string]any{"status": "failure"})
		return m, nil
	}

	m.authenticated = true
	m.session = msg.session
	m.focus = FocusList
	m.login.password.SetValue("")
	m.record("AUTH", "login", map[string]any{"status": "success"})

	// Initial roster load.
	return m.startQuery()
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = FocusList
		m.search.Blur()
		return m, nil
	case "enter":
		m.focus = FocusList
		m.search.Blur()
		// Fall through to the debounce below so the final value
		// settles immediately on its own timer.
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)

	if m.search.Value() != before {
		// Each edit supersedes the previous timer; only the timer for
		// the generation that is still current fires a query.
		m.debounceGen++
		return m, tea.Batch(cmd, scheduleDebounce(m.debounceGen))
	}
	return m, cmd
}

func (m Model) handleDebounce(msg debounceElapsedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.debounceGen {
		return m, nil // superseded before the window elapsed
	}
	if !m.authenticated {
		return m, nil
	}

	m.searchTerm = m.search.Value()
	return m.startQuery()
}

// startQuery transitions to Loading and issues a roster query carrying
// a fresh sequence token. The session is re-derived from the credential
// on every (re)initialization of the roster, never cached past it.
func (m Model) startQuery() (tea.Model, tea.Cmd) {
	session, ok := m.api.Creds().Session()
	if !ok {
		return m.forceLogout()
	}
	m.session = session

	m.querySeq++
	m.phase = phaseLoading
	return m, tea.Batch(m.queryRoster(m.querySeq, m.searchTerm), m.spinner.Tick)
}

func (m Model) handleRoster(msg rosterMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.querySeq {
		return m, nil // stale response for a superseded query
	}
	if !m.authenticated {
		return m, nil // late arrival after teardown of the session
	}

	if msg.err != nil {
		if client.IsSessionExpired(msg.err) {
			return m.forceLogout()
		}
		m.phase = phaseFailed
		m.errMsg = msg.err.Error()
		return m, nil
	}

	m.phase = phaseReady
	m.errMsg = ""
	m.roster = msg.users
	if m.cursor >= len(m.roster) {
		m.cursor = len(m.roster) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.selected()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.roster)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Search):
		m.focus = FocusSearch
		m.search.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Back):
		if m.searchTerm != "" || m.search.Value() != "" {
			// Clear-search affordance for the empty/filtered state.
			m.search.SetValue("")
			m.searchTerm = ""
			return m.startQuery()
		}
	case key.Matches(msg, m.keys.Refresh):
		return m.startQuery()
	case key.Matches(msg, m.keys.Add):
		if client.CanPerform(m.session, nil, client.ActionCreate) {
			m.form = newCreateForm()
			m.focus = FocusForm
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.Edit):
		if target != nil && client.CanPerform(m.session, target, client.ActionEditProfile) {
			m.form = newEditForm(target)
			m.focus = FocusForm
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.Password):
		if target != nil && client.CanPerform(m.session, target, client.ActionChangePassword) {
			m.form = newPasswordForm(target, m.session)
			m.focus = FocusForm
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.Delete):
		// Irreversible: always routed through the confirmation prompt.
		if target != nil && client.CanPerform(m.session, target, client.ActionDelete) {
			m.confirmTarget = target
			m.focus = FocusConfirm
		}
	case key.Matches(msg, m.keys.Promote):
		if target != nil && client.CanPerform(m.session, target, client.ActionPromote) {
			return m.runMutation("promote", target.ID, func(ctx context.Context) error {
				_, err := m.api.PromoteUser(ctx, target)
				return err
			})
		}
	case key.Matches(msg, m.keys.Demote):
		if target != nil && client.CanPerform(m.session, target, client.ActionDemote) {
			return m.runMutation("demote", target.ID, func(ctx context.Context) error {
				_, err := m.api.DemoteUser(ctx, target)
				return err
			})
		}
	}

	return m, nil
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		target := m.confirmTarget
		m.confirmTarget = nil
		m.focus = FocusList
		return m.runMutation("delete", target.ID, func(ctx context.Context) error {
			return m.api.DeleteUser(ctx, target)
		})
	case "n", "N", "esc":
		m.confirmTarget = nil
		m.focus = FocusList
	}
	return m, nil
}

func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.form = nil
		m.focus = FocusList
		return m, nil
	}

	cmd, done := m.form.update(msg)
	if !done {
		return m, cmd
	}
	return m.submitForm()
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	form := m.form

	switch form.mode {
	case formCreate:
		payload := client.CreateUserPayload{
			Username:  form.value(0),
			FirstName: form.value(1),
			LastName:  form.value(2),
			Password:  form.value(3),
			Address:   form.value(4),
			Phone:     form.value(5),
		}
		return m.runFormMutation("create", "new", func(ctx context.Context) error {
			_, err := m.api.CreateUser(ctx, payload)
			return err
		})

	case formEdit:
		target := form.target
		payload := client.ProfilePayload{
			FirstName: form.value(0),
			LastName:  form.value(1),
			Address:   form.value(2),
			Phone:     form.value(3),
		}
		return m.runFormMutation("edit", target.ID, func(ctx context.Context) error {
			_, err := m.api.UpdateProfile(ctx, target, payload)
			return err
		})

	default: // formPassword
		target := form.target
		var oldPassword string
		next := 0
		if form.hasOldPassword() {
			oldPassword = form.value(0)
			next = 1
		}
		newPassword, confirmNew := form.value(next), form.value(next+1)
		return m.runFormMutation("change_password", target.ID, func(ctx context.Context) error {
			return m.api.ChangePassword(ctx, target, oldPassword, newPassword, confirmNew)
		})
	}
}

// runFormMutation submits a modal form's mutation. Validation and
// policy denials from the gateway come back synchronously classified,
// so they are rendered inline in the still-open form; everything else
// closes the form and flows through the normal mutation path.
func (m Model) runFormMutation(action, targetID string, call func(context.Context) error) (tea.Model, tea.Cmd) {
	m.form.errMsg = ""
	model, cmd := m.runMutation(action, targetID, call)
	next := model.(Model)
	next.form = nil
	next.focus = FocusList
	return next, cmd
}

func (m Model) runMutation(action, targetID string, call func(context.Context) error) (tea.Model, tea.Cmd) {
	if m.pendingTarget == targetID {
		return m, nil // one in-flight mutation per target
	}
	m.pendingTarget = targetID
	m.notice = ""

	return m, func() tea.Msg {
		return mutationMsg{action: action, err: call(context.Background())}
	}
}

func (m Model) handleMutation(msg mutationMsg) (tea.Model, tea.Cmd) {
	m.pendingTarget = ""

	if msg.err != nil {
		if client.IsSessionExpired(msg.err) {
			return m.forceLogout()
		}
		// Validation, policy, conflict, network: surface the message
		// and leave the roster exactly as it was.
		m.notice = msg.err.Error()
		m.record("USER_ACTION", "directory", map[string]any{"action": msg.action, "status": "failure"})
		return m, nil
	}

	m.notice = msg.action + " succeeded"
	m.record("USER_ACTION", "directory", map[string]any{"action": msg.action, "status": "success"})

	// Strong consistency over latency: always re-query the full
	// roster rather than patching in the mutation response.
	return m.startQuery()
}

// forceLogout is the uniform reaction to a dead credential: discard it
// along with all roster state and return to the login screen.
func (m Model) forceLogout() (tea.Model, tea.Cmd) {
	m.api.Logout()
	m.authenticated = false
	m.session = client.Session{}
	m.roster = nil
	m.phase = phaseIdle
	m.cursor = 0
	m.form = nil
	m.confirmTarget = nil
	m.pendingTarget = ""
	m.searchTerm = ""
	m.search.SetValue("")
	m.login = newLoginForm()
	m.login.errMsg = "session expired, sign in again"
	m.focus = FocusLogin
	return m, textinput.Blink
}

func (m Model) selected() *domain.User {
	if m.phase != phaseReady || m.cursor < 0 || m.cursor >= len(m.roster) {
		return nil
	}
	return m.roster[m.cursor]
}

func (m Model) record(eventType, page string, details map[string]any) {
	if m.telemetry != nil {
		m.telemetry.Record(eventType, page, details)
	}
}

// --- View ---

func (m Model) View() string {
	if m.focus == FocusLogin {
		return m.loginView()
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Directory"))
	b.WriteString("  ")
	who := m.session.Username
	if m.session.IsAdmin {
		who += " " + m.theme.AdminBadge.Render("[admin]")
	}
	b.WriteString(m.theme.Header.Render(who))
	b.WriteString("\n\n")

	b.WriteString(m.theme.SearchPrompt.Render(m.search.View()))
	b.WriteString("\n\n")

	switch {
	case m.focus == FocusForm && m.form != nil:
		b.WriteString(m.formView())
	case m.focus == FocusConfirm && m.confirmTarget != nil:
		b.WriteString(m.confirmView())
	default:
		b.WriteString(m.rosterView())
	}

	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.theme.Notice.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Help.Render(m.helpLine()))
	return b.String()
}

func (m Model) loginView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Directory — sign in"))
	b.WriteString("\n\n")
	b.WriteString(m.theme.FieldLabel.Render("Username"))
	b.WriteString(m.login.username.View())
	b.WriteString("\n")
	b.WriteString(m.theme.FieldLabel.Render("Password"))
	b.WriteString(m.login.password.View())
	b.WriteString("\n\n")
	if m.login.errMsg != "" {
		b.WriteString(m.theme.Error.Render(m.login.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Help.Render("enter submit · ctrl+c quit"))
	return b.String()
}

func (m Model) rosterView() string {
	switch m.phase {
	case phaseLoading:
		return m.spinner.View() + " loading..."
	case phaseFailed:
		return m.theme.Error.Render(m.errMsg)
	case phaseIdle:
		return ""
	}

	if len(m.roster) == 0 {
		// Valid Ready state, distinct from an error.
		empty := "No users found."
		if m.searchTerm != "" {
			empty += m.theme.Dim.Render("  (esc clears the search)")
		}
		return empty
	}

	var b strings.Builder
	for i, user := range m.roster {
		line := m.rosterLine(user)
		if i == m.cursor {
			line = m.theme.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) rosterLine(user *domain.User) string {
	badge := m.theme.MemberBadge.Render(user.Role)
	if user.Role == domain.RoleAdmin {
		badge = m.theme.AdminBadge.Render(user.Role)
	}
	self := ""
	if user.ID == m.session.SubjectID {
		self = m.theme.SelfMarker.Render(" (you)")
	}
	return fmt.Sprintf("%s %s — %s %s%s  %s  %s",
		user.FirstName, user.LastName, user.Username, badge, self,
		m.theme.Dim.Render("tel "+user.Phone), m.theme.Dim.Render(user.Address))
}

func (m Model) formView() string {
	var b strings.Builder
	b.WriteString(m.theme.ModalTitle.Render(m.form.title()))
	b.WriteString("\n\n")
	for i, input := range m.form.inputs {
		b.WriteString(m.theme.FieldLabel.Render(m.form.labels[i]))
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	if m.form.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Error.Render(m.form.errMsg))
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Help.Render("tab next · enter submit · esc cancel"))
	return m.theme.ModalBox.Render(b.String())
}

func (m Model) confirmView() string {
	prompt := fmt.Sprintf("Delete %s %s (%s)? This cannot be undone.\n\ny confirm · n cancel",
		m.confirmTarget.FirstName, m.confirmTarget.LastName, m.confirmTarget.Username)
	return m.theme.ModalBox.Render(m.theme.Error.Render(prompt))
}

// helpLine lists only the actions the policy allows for the selected
// target, so the UI never advertises an affordance it would veto.
func (m Model) helpLine() string {
	if m.focus != FocusList {
		return ""
	}

	parts := []string{"↑/↓ move", "/ search", "r refresh"}
	target := m.selected()
	if client.CanPerform(m.session, nil, client.ActionCreate) {
		parts = append(parts, "a add")
	}
	if target != nil {
		if client.CanPerform(m.session, target, client.ActionEditProfile) {
			parts = append(parts, "e edit")
		}
		if client.CanPerform(m.session, target, client.ActionPromote) {
			parts = append(parts, "p promote")
		}
		if client.CanPerform(m.session, target, client.ActionDemote) {
			parts = append(parts, "b demote")
		}
		if client.CanPerform(m.session, target, client.ActionChangePassword) {
			parts = append(parts, "w password")
		}
		if client.CanPerform(m.session, target, client.ActionDelete) {
			parts = append(parts, "d delete")
		}
	}
	parts = append(parts, "q quit")
	return strings.Join(parts, " · ")
}
