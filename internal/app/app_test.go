package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HaPhanBaoMinh/sre/internal/domain"
)

type stubLister struct {
	views []domain.DeploymentView
	err   error
	calls []string
}

func (s *stubLister) List(_ context.Context, ns string) ([]domain.DeploymentView, error) {
	s.calls = append(s.calls, ns)
	return s.views, s.err
}

type stubDiagnoser struct {
	asked []string
}

func (s *stubDiagnoser) Diagnose(_ context.Context, name string, ns, _ mo.Option[string]) (*domain.Report, error) {
	s.asked = append(s.asked, ns.OrElse("")+"/"+name)
	r := &domain.Report{Deployment: domain.DeploymentView{Name: name, Namespace: ns.OrElse(""), Desired: 1, Ready: 1, Available: 1}}
	r.AddNote(domain.SeverityWarning, "metrics", "metrics-server not installed")
	return r, nil
}

var demo = []domain.DeploymentView{
	{Name: "api", Namespace: "default", Desired: 2, Ready: 2, Available: 2},
	{Name: "worker", Namespace: "default", Desired: 1, Ready: 0, Available: 0},
	{Name: "cart", Namespace: "staging", Desired: 1, Ready: 1, Available: 1},
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func loaded(t *testing.T, lister *stubLister, diagnoser *stubDiagnoser, ns string) Model {
	t.Helper()
	m := New(context.Background(), lister, diagnoser, ns)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = send(t, m, m.fetch()())
	return m
}

func TestFetchListsEveryNamespace(t *testing.T) {
	lister := &stubLister{views: demo}
	m := loaded(t, lister, &stubDiagnoser{}, "staging")

	assert.Equal(t, []string{""}, lister.calls)
	assert.Equal(t, []string{"", "default", "staging"}, m.nsList)
	require.Len(t, m.deps, 1)
	assert.Equal(t, "cart", m.deps[0].Name)
	assert.Contains(t, m.View(), "cart")
	assert.NotContains(t, m.View(), "worker")
}

func TestNamespacePicker(t *testing.T) {
	m := loaded(t, &stubLister{views: demo}, &stubDiagnoser{}, "")
	assert.Len(t, m.deps, 3)

	m, _ = send(t, m, key("n"))
	require.True(t, m.nsPickerOpen)
	assert.Contains(t, m.View(), "Switch Namespace")

	m, _ = send(t, m, key("down"))
	m, _ = send(t, m, key("enter"))
	assert.False(t, m.nsPickerOpen)
	assert.Equal(t, "default", m.ns)
	assert.Len(t, m.deps, 2)

	m, _ = send(t, m, key("n"))
	m, _ = send(t, m, key("esc"))
	assert.False(t, m.nsPickerOpen)
	assert.Equal(t, "default", m.ns)
}

func TestEnterDiagnosesSelectedDeployment(t *testing.T) {
	diagnoser := &stubDiagnoser{}
	m := loaded(t, &stubLister{views: demo}, diagnoser, "staging")

	m, cmd := send(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.True(t, m.infoOpen)
	assert.Contains(t, m.View(), "Diagnosing staging/cart")

	m, _ = send(t, m, cmd())
	assert.Equal(t, []string{"staging/cart"}, diagnoser.asked)
	require.NotNil(t, m.report)
	view := m.View()
	assert.Contains(t, view, "Deployment: cart, Namespace: staging")
	assert.Contains(t, view, "Warning [metrics]: metrics-server not installed")

	m, _ = send(t, m, key("esc"))
	assert.False(t, m.infoOpen)
}

func TestEnterWithoutDeploymentsDoesNothing(t *testing.T) {
	diagnoser := &stubDiagnoser{}
	m := loaded(t, &stubLister{}, diagnoser, "")

	m, cmd := send(t, m, key("enter"))
	assert.Nil(t, cmd)
	assert.False(t, m.infoOpen)
	assert.Empty(t, diagnoser.asked)
}

func TestListErrorIsShown(t *testing.T) {
	lister := &stubLister{views: demo}
	m := loaded(t, lister, &stubDiagnoser{}, "")

	lister.views, lister.err = nil, errors.New("connection refused")
	m, _ = send(t, m, m.fetch()())
	assert.Contains(t, m.View(), "Error: connection refused")
	assert.Len(t, m.deps, 3, "keeps the last good listing")

	lister.views, lister.err = demo[:1], nil
	m, _ = send(t, m, m.fetch()())
	assert.NotContains(t, m.View(), "connection refused")
	assert.Len(t, m.deps, 1)
}

func TestQuit(t *testing.T) {
	m := loaded(t, &stubLister{views: demo}, &stubDiagnoser{}, "")
	_, cmd := send(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
