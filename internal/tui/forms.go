package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/peopledesk/directory-system/internal/client"
	"github.com/peopledesk/directory-system/internal/core/domain"
)

type formMode int

const (
	formCreate formMode = iota
	formEdit
	formPassword
)

// accountForm is the modal form state for create, edit and
// change-password dialogs. One field has focus at a time; tab/enter
// advance, enter on the last field submits.
type accountForm struct {
	mode   formMode
	target *domain.User // nil for create
	labels []string
	inputs []textinput.Model
	focus  int
	errMsg string // local validation error, rendered inline
}

func newField(label string, secret bool) textinput.Model {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = label
	input.CharLimit = 120
	if secret {
		input.EchoMode = textinput.EchoPassword
	}
	return input
}

func newCreateForm() *accountForm {
	form := &accountForm{
		mode:   formCreate,
		labels: []string{"Username", "First name", "Last name", "Password", "Address", "Phone"},
		inputs: []textinput.Model{
			newField("username", false),
			newField("first name", false),
			newField("last name", false),
			newField("password", true),
			newField("address", false),
			newField("phone", false),
		},
	}
	form.inputs[0].Focus()
	return form
}

func newEditForm(target *domain.User) *accountForm {
	form := &accountForm{
		mode:   formEdit,
		target: target,
		labels: []string{"First name", "Last name", "Address", "Phone"},
		inputs: []textinput.Model{
			newField("first name", false),
			newField("last name", false),
			newField("address", false),
			newField("phone", false),
		},
	}
	form.inputs[0].SetValue(target.FirstName)
	form.inputs[1].SetValue(target.LastName)
	form.inputs[2].SetValue(target.Address)
	form.inputs[3].SetValue(target.Phone)
	form.inputs[0].Focus()
	return form
}

// newPasswordForm builds the change-password dialog. The old-password
// field only exists on the self-service path: the admin reset path
// neither asks for nor forwards it.
func newPasswordForm(target *domain.User, session client.Session) *accountForm {
	form := &accountForm{
		mode:   formPassword,
		target: target,
	}
	if target.ID == session.SubjectID {
		form.labels = append(form.labels, "Old password")
		form.inputs = append(form.inputs, newField("old password", true))
	}
	form.labels = append(form.labels, "New password", "Confirm new")
	form.inputs = append(form.inputs, newField("new password", true), newField("confirm new password", true))
	form.inputs[0].Focus()
	return form
}

func (f *accountForm) hasOldPassword() bool {
	return f.mode == formPassword && len(f.inputs) == 3
}

func (f *accountForm) value(i int) string {
	return f.inputs[i].Value()
}

// update routes a message to the focused field and handles focus moves.
// Returns done=true when the form was submitted (enter on last field).
func (f *accountForm) update(msg tea.Msg) (cmd tea.Cmd, done bool) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			f.setFocus((f.focus + 1) % len(f.inputs))
			return nil, false
		case "shift+tab", "up":
			f.setFocus((f.focus - 1 + len(f.inputs)) % len(f.inputs))
			return nil, false
		case "enter":
			if f.focus == len(f.inputs)-1 {
				return nil, true
			}
			f.setFocus(f.focus + 1)
			return nil, false
		}
	}

	var c tea.Cmd
	f.inputs[f.focus], c = f.inputs[f.focus].Update(msg)
	return c, false
}

func (f *accountForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

func (f *accountForm) title() string {
	switch f.mode {
	case formCreate:
		return "Add user"
	case formEdit:
		return "Edit " + f.target.Username
	default:
		return "Change password for " + f.target.Username
	}
}

// loginForm is the two-field authentication screen shown before the
// roster.
type loginForm struct {
	username textinput.Model
	password textinput.Model
	focus    int
	errMsg   string
}

func newLoginForm() loginForm {
	form := loginForm{
		username: newField("username", false),
		password: newField("password", true),
	}
	form.username.Focus()
	return form
}

func (f *loginForm) update(msg tea.Msg) (cmd tea.Cmd, submit bool) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down", "shift+tab", "up":
			if f.focus == 0 {
				f.username.Blur()
				f.password.Focus()
				f.focus = 1
			} else {
				f.password.Blur()
				f.username.Focus()
				f.focus = 0
			}
			return nil, false
		case "enter":
			if f.focus == 0 {
				f.username.Blur()
				f.password.Focus()
				f.focus = 1
				return nil, false
			}
			return nil, true
		}
	}

	var c tea.Cmd
	if f.focus == 0 {
		f.username, c = f.username.Update(msg)
	} else {
		f.password, c = f.password.Update(msg)
	}
	return c, false
}
