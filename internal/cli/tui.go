package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/permitscope/permitscope/pkg/console"
	"github.com/permitscope/permitscope/pkg/directory"
	"github.com/permitscope/permitscope/pkg/errors"
	"github.com/permitscope/permitscope/pkg/layout"
	"github.com/permitscope/permitscope/pkg/vizgraph"
)

// Tree styles
var (
	treeSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	treeNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	treeDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	categoryStyles = map[vizgraph.Category]lipgloss.Style{
		vizgraph.CategoryUser:     lipgloss.NewStyle().Foreground(colorBlue),
		vizgraph.CategoryRole:     lipgloss.NewStyle().Foreground(colorCyan),
		vizgraph.CategoryPolicy:   lipgloss.NewStyle().Foreground(colorYellow),
		vizgraph.CategoryEndpoint: lipgloss.NewStyle().Foreground(colorGreen),
		vizgraph.CategoryAction:   lipgloss.NewStyle().Foreground(colorGray),
		vizgraph.CategoryPage:     lipgloss.NewStyle().Foreground(colorWhite),
	}
)

// snapshotMsg delivers a fetch result back to the update loop.
type snapshotMsg console.Snapshot

// browseModel is the bubbletea model for interactive graph browsing. The
// console controller is confined to the update loop; fetches run as tea
// commands and hand their snapshot back through snapshotMsg, where stale
// generations are discarded by the controller.
type browseModel struct {
	ctrl *console.Controller
	sel  console.Selection
	dir  layout.Direction

	cursor int
	offset int
	height int

	searching bool
	input     string

	quitting bool
}

func newBrowseModel(ctrl *console.Controller, sel console.Selection) browseModel {
	return browseModel{ctrl: ctrl, sel: sel, dir: layout.DirectionVertical, height: 20}
}

func (m browseModel) Init() tea.Cmd {
	return m.fetch(m.ctrl.Select(m.sel), m.sel, false)
}

// fetch runs the controller's fetch on a goroutine. The generation and
// selection are captured up front so the command never reads controller
// state while the update loop keeps mutating it.
func (m browseModel) fetch(gen uint64, sel console.Selection, refresh bool) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx := context.Background()
		if refresh {
			ctx = directory.WithRefresh(ctx)
		}
		return snapshotMsg(ctrl.Fetch(ctx, gen, sel))
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.ctrl.Apply(console.Snapshot(msg))
		m.clampCursor()
		return m, nil

	case tea.WindowSizeMsg:
		m.height = msg.Height - 7
		if m.height < 5 {
			m.height = 5
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m browseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
	case "esc":
		m.searching = false
		m.input = ""
		m.ctrl.Search("")
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
			m.ctrl.Search(m.input)
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.input += string(msg.Runes)
			m.ctrl.Search(m.input)
		}
	}
	m.clampCursor()
	return m, nil
}

func (m browseModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}

	case "down", "j":
		if m.cursor < len(m.ctrl.Graph().Nodes)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}

	case "enter", " ":
		if n := m.nodeAt(m.cursor); n != nil && n.Collapsible {
			m.ctrl.Toggle(n.ID)
			m.clampCursor()
		}

	case "/":
		m.searching = true
		m.input = m.ctrl.Query()

	case "esc":
		if m.ctrl.Query() != "" {
			m.input = ""
			m.ctrl.Search("")
		}

	case "d":
		if m.dir == layout.DirectionVertical {
			m.dir = layout.DirectionHorizontal
		} else {
			m.dir = layout.DirectionVertical
		}
		m.ctrl.SetDirection(m.dir)

	case "r":
		sel := m.ctrl.Selection()
		return m, m.fetch(m.ctrl.Select(sel), sel, true)
	}
	return m, nil
}

func (m *browseModel) nodeAt(i int) *vizgraph.Node {
	nodes := m.ctrl.Graph().Nodes
	if i < 0 || i >= len(nodes) {
		return nil
	}
	return nodes[i]
}

func (m *browseModel) clampCursor() {
	n := len(m.ctrl.Graph().Nodes)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

func (m browseModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.title()))
	b.WriteString("\n")
	b.WriteString(treeDimStyle.Render("↑/↓ move  ⏎ expand/collapse  / search  r refresh  q quit"))
	b.WriteString("\n\n")

	switch m.ctrl.Phase() {
	case console.PhaseLoading:
		b.WriteString(StyleDim.Render("  Loading..."))
	case console.PhaseAccessDenied:
		b.WriteString(StyleError.Render("  Access denied"))
		b.WriteString("\n")
		b.WriteString(treeDimStyle.Render("  " + errors.UserMessage(m.ctrl.Err())))
	case console.PhaseNotFound:
		b.WriteString(StyleWarning.Render("  Not found"))
		b.WriteString("\n")
		b.WriteString(treeDimStyle.Render("  " + errors.UserMessage(m.ctrl.Err())))
	case console.PhaseError:
		b.WriteString(StyleError.Render("  Fetch failed"))
		b.WriteString("\n")
		b.WriteString(treeDimStyle.Render("  " + errors.UserMessage(m.ctrl.Err())))
		b.WriteString("\n")
		b.WriteString(treeDimStyle.Render("  Press r to retry."))
	default:
		m.renderTree(&b)
	}

	b.WriteString("\n\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m browseModel) title() string {
	sel := m.ctrl.Selection()
	if sel.Kind == console.SelectUser {
		return "Access for user " + sel.UserID
	}
	return "Page access"
}

func (m browseModel) renderTree(b *strings.Builder) {
	g := m.ctrl.Graph()
	if len(g.Nodes) == 0 {
		b.WriteString(treeDimStyle.Render("  Nothing to show."))
		return
	}

	depths := nodeDepths(g)
	end := m.offset + m.height
	if end > len(g.Nodes) {
		end = len(g.Nodes)
	}

	for i := m.offset; i < end; i++ {
		n := g.Nodes[i]
		if i > m.offset {
			b.WriteString("\n")
		}
		b.WriteString(m.renderNode(n, depths[n.ID], i == m.cursor))
	}
}

func (m browseModel) renderNode(n *vizgraph.Node, depth int, current bool) string {
	cursor := "  "
	if current {
		cursor = "▸ "
	}

	marker := "  "
	if n.Collapsible {
		if n.Expanded {
			marker = "▾ "
		} else {
			marker = "▸ "
		}
	}

	label := n.Title
	if n.Subtitle != "" {
		label += "  " + treeDimStyle.Render(n.Subtitle)
	}
	for _, badge := range n.Badges {
		label += treeDimStyle.Render(fmt.Sprintf("  [%s %d]", badge.Label, badge.Count))
	}

	style := treeNormalStyle
	if s, ok := categoryStyles[n.Category]; ok {
		style = s
	}
	if n.Highlight {
		style = StyleHighlight
	}
	if current {
		style = treeSelectedStyle
	}

	indent := strings.Repeat("  ", depth)
	return cursor + indent + style.Render(marker+label)
}

func (m browseModel) statusLine() string {
	g := m.ctrl.Graph()
	parts := []string{fmt.Sprintf("[%d/%d]", m.cursor+1, len(g.Nodes))}
	if m.searching {
		parts = append(parts, "search: "+m.input+"▌")
	} else if q := m.ctrl.Query(); q != "" {
		parts = append(parts, "search: "+q)
	}
	return treeDimStyle.Render("  " + strings.Join(parts, "  ·  "))
}

// nodeDepths derives each node's tree depth from the edge list. Roots have
// depth zero; every edge places its target one level below its source.
func nodeDepths(g vizgraph.Graph) map[string]int {
	depths := make(map[string]int, len(g.Nodes))
	// Nodes are emitted parents-first, so a single pass suffices.
	for _, e := range g.Edges {
		depths[e.Target] = depths[e.Source] + 1
	}
	return depths
}
