// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/HaPhanBaoMinh/sre/internal/config"
	"github.com/HaPhanBaoMinh/sre/internal/domain"
	"github.com/HaPhanBaoMinh/sre/internal/report"
	"github.com/HaPhanBaoMinh/sre/internal/ui/styles"
	"github.com/HaPhanBaoMinh/sre/internal/ui/widgets"
)

const (
	allNamespaces   = ""
	allNamespacesUI = "(all namespaces)"
	refreshEvery    = 5 * time.Second
)

type Lister interface {
	List(ctx context.Context, ns string) ([]domain.DeploymentView, error)
}

type Diagnoser interface {
	Diagnose(ctx context.Context, name string, ns, pod mo.Option[string]) (*domain.Report, error)
}

type Model struct {
	ctx       context.Context
	lister    Lister
	diagnoser Diagnoser

	// Namespace picker
	nsPickerOpen bool
	nsTable      table.Model

	ns     string
	nsList []string

	table table.Model

	// report pane
	infoOpen bool
	infoVP   viewport.Model
	report   *domain.Report

	// cache
	all  []domain.DeploymentView
	deps []domain.DeploymentView

	width, height int
	err           error
}

func New(ctx context.Context, lister Lister, diagnoser Diagnoser, ns string) Model {
	t := table.New()
	t.SetHeight(12)
	t.SetWidth(100)

	m := Model{
		ctx:       ctx,
		lister:    lister,
		diagnoser: diagnoser,
		ns:        ns,
		nsList:    []string{allNamespaces},
		table:     t,
		infoVP:    viewport.New(100, 10),
	}

	// init ns picker table
	m.nsTable = table.New()
	m.nsTable.SetColumns([]table.Column{{Title: "Namespaces", Width: 32}})
	m.nsTable.SetHeight(10)
	m.nsTable.SetWidth(36)
	m.rebuildNamespaces()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetch(),
		tea.Tick(refreshEvery, func(time.Time) tea.Msg { return tickMsg{} }),
	)
}

type tickMsg struct{}
type deploymentsMsg []domain.DeploymentView
type reportMsg struct{ *domain.Report }
type errMsg struct{ error }

// fetch always lists every namespace so the picker stays complete; the table filters locally.
func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		views, err := m.lister.List(m.ctx, allNamespaces)
		if err != nil {
			return errMsg{err}
		}
		return deploymentsMsg(views)
	}
}

func (m Model) diagnose(d domain.DeploymentView) tea.Cmd {
	return func() tea.Msg {
		r, err := m.diagnoser.Diagnose(m.ctx, d.Name, mo.Some(d.Namespace), mo.None[string]())
		if err != nil {
			return errMsg{err}
		}
		return reportMsg{r}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.rebuildTable()

		var cmd tea.Cmd
		m.infoVP, cmd = m.infoVP.Update(msg)
		return m, cmd

	case deploymentsMsg:
		m.err = nil
		m.all = msg
		m.rebuildNamespaces()
		m.rebuildTable()
		if rows := len(m.deps); rows > 0 && m.table.Cursor() >= rows {
			m.table.SetCursor(0)
		}
		return m, nil

	case reportMsg:
		m.err = nil
		m.report = msg.Report
		m.infoVP.SetContent(renderReport(msg.Report))
		m.infoVP.GotoTop()
		return m, nil

	case tickMsg:
		return m, tea.Batch(
			m.fetch(),
			tea.Tick(refreshEvery, func(time.Time) tea.Msg { return tickMsg{} }),
		)

	case errMsg:
		m.err = msg.error
		return m, nil

	case tea.KeyMsg:
		if m.nsPickerOpen {
			switch msg.String() {
			case "enter":
				idx := clamp(m.nsTable.Cursor(), 0, len(m.nsList)-1)
				m.ns = m.nsList[idx]
				m.nsPickerOpen = false
				m.nsTable.Blur()
				m.infoOpen = false
				m.rebuildTable()
				m.table.SetCursor(0)
				return m, nil
			case "esc":
				m.nsPickerOpen = false
				m.nsTable.Blur()
				return m, nil
			case "up", "k", "down", "j", "pgup", "pgdown", "home", "end":
				var cmd tea.Cmd
				m.nsTable, cmd = m.nsTable.Update(msg)
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "n":
			m.nsPickerOpen = true
			m.nsTable.Focus()
			m.nsTable.SetCursor(max(0, lo.IndexOf(m.nsList, m.ns)))
			return m, nil

		case "r":
			return m, m.fetch()

		case "enter", "i":
			d, ok := m.selected()
			if !ok {
				return m, nil
			}
			m.infoOpen = true
			m.report = nil
			m.infoVP.SetContent(styles.Faint.Render("Diagnosing " + d.Namespace + "/" + d.Name + "..."))
			m.layout()
			return m, m.diagnose(d)

		case "esc":
			if m.infoOpen {
				m.infoOpen = false
				m.layout()
				return m, nil
			}
			return m, tea.Quit

		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			if m.infoOpen {
				var cmd tea.Cmd
				m.infoVP, cmd = m.infoVP.Update(msg)
				return m, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// layout splits the height between the table and the report pane.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	headerH := lipgloss.Height(styles.Header.Render("x"))
	footerH := lipgloss.Height(styles.Footer.Render("x"))
	base := m.height - headerH - footerH - 2 // top/bot padding
	if base < 10 {
		base = 10
	}
	if m.infoOpen {
		m.table.SetHeight(int(float64(base) * 0.35))
		m.infoVP.Height = base - m.table.Height() - 2 // box border
	} else {
		m.table.SetHeight(base)
		m.infoVP.Height = 0
	}
	m.table.SetWidth(m.width - 4)
	m.infoVP.Width = m.width - 6
}

func (m *Model) rebuildNamespaces() {
	nss := lo.Uniq(lo.Map(m.all, func(d domain.DeploymentView, _ int) string { return d.Namespace }))
	sort.Strings(nss)
	m.nsList = append([]string{allNamespaces}, nss...)
	m.nsTable.SetRows(lo.Map(m.nsList, func(ns string, _ int) table.Row {
		return table.Row{nsLabel(ns)}
	}))
}

func (m *Model) rebuildTable() {
	m.deps = lo.Filter(m.all, func(d domain.DeploymentView, _ int) bool {
		return m.ns == allNamespaces || d.Namespace == m.ns
	})

	wNS, wName, wReady, wBar, wAvail := m.deploymentColWidths(m.table.Width())
	cols := []table.Column{
		{Title: "NAMESPACE", Width: wNS},
		{Title: "NAME", Width: wName},
		{Title: "READY", Width: wReady},
		{Title: "", Width: wBar},
		{Title: "AVAILABLE", Width: wAvail},
	}
	rows := lo.Map(m.deps, func(d domain.DeploymentView, _ int) table.Row {
		ratio := 1.0
		if d.Desired > 0 {
			ratio = float64(d.Ready) / float64(d.Desired)
		}
		return table.Row{
			d.Namespace,
			d.Name,
			fmt.Sprintf("%d/%d", d.Ready, d.Desired),
			widgets.Bar(ratio, wBar-1),
			fmt.Sprint(d.Available),
		}
	})
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.Focus()
}

func (m Model) selected() (domain.DeploymentView, bool) {
	if len(m.deps) == 0 {
		return domain.DeploymentView{}, false
	}
	i := clamp(m.table.Cursor(), 0, len(m.deps)-1)
	return m.deps[i], true
}

func (m Model) View() string {
	head := styles.Header.Render("sre  │ ns: ") + styles.TabActive.Render(nsLabel(m.ns)) +
		styles.Header.Render(fmt.Sprintf("  deployments: %d", len(m.deps)))
	body := lipgloss.NewStyle().Padding(0, 1).Render(m.table.View())

	info := ""
	if m.infoOpen {
		info = styles.Box.Width(max(20, m.width-2)).Render(m.infoVP.View())
	}

	status := ""
	if m.err != nil {
		status = styles.Danger.Render("Error: " + m.err.Error())
	}

	// Overlay picker
	overlay := ""
	if m.nsPickerOpen {
		box := styles.Box.
			BorderForeground(lipgloss.Color("#7DCE13")).
			Width(40).Height(14)
		title := styles.Title.Render(" Switch Namespace (↑/↓, Enter, Esc) ")
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			m.nsTable.View(),
		)
		overlay = lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			box.Render(content),
		)
	}
	footer := styles.Footer.Render("↑/↓ move • [enter] diagnose • [pgup/pgdown] scroll report • [n] namespace • [esc] close • [q] quit")

	main := lipgloss.JoinVertical(lipgloss.Left, head, body, info, status, footer)
	if m.nsPickerOpen {
		return main + "\n" + overlay
	}
	return main
}

func renderReport(r *domain.Report) string {
	var b strings.Builder
	if err := report.NewPrinter(&b, config.OutputText).Report(r); err != nil {
		return "Error: " + err.Error()
	}
	return b.String()
}

func nsLabel(ns string) string {
	if ns == allNamespaces {
		return allNamespacesUI
	}
	return ns
}
