package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/board"
	"github.com/valter-silva-au/taskboard/internal/graph"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// Lane display order on the board.
var laneOrder = []board.Lane{
	board.LanePending,
	board.LaneWaiting,
	board.LaneInProgress,
	board.LaneDone,
	board.LaneVerified,
	board.LaneDeferred,
}

type boardModel struct {
	width  int
	height int

	projects   []string
	activeProj int
	phaseView  bool
	lanes      map[string]map[board.Lane][]models.Task
	phases     map[string][]graph.Phase
	critical   map[string]map[int]bool

	loading bool
	err     error
}

// boardLoadedMsg carries a fresh snapshot back to the model.
type boardLoadedMsg struct {
	projects []string
	lanes    map[string]map[board.Lane][]models.Task
	phases   map[string][]graph.Phase
	critical map[string]map[int]bool
	err      error
}

var (
	boardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	laneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	laneHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	lanePending    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	laneWaiting    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	laneInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	laneDone       = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	laneVerified   = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	laneDeferred   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)

	boardHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newBoardModel() boardModel {
	return boardModel{loading: true}
}

func (m boardModel) Init() tea.Cmd {
	return loadBoard
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			if len(m.projects) > 0 {
				m.activeProj = (m.activeProj + 1) % len(m.projects)
			}
			return m, nil
		case "shift+tab", "left", "h":
			if len(m.projects) > 0 {
				m.activeProj = (m.activeProj - 1 + len(m.projects)) % len(m.projects)
			}
			return m, nil
		case "p":
			m.phaseView = !m.phaseView
			return m, nil
		case "r":
			m.loading = true
			return m, loadBoard
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.projects = msg.projects
		m.lanes = msg.lanes
		m.phases = msg.phases
		m.critical = msg.critical
		m.err = nil
		if m.activeProj >= len(m.projects) {
			m.activeProj = 0
		}
		return m, nil
	}

	return m, nil
}

func (m boardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := boardTitleStyle.Render(" Task Board ")
	help := boardHelpStyle.Render("tab: next project | p: phase view | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}
	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}
	if len(m.projects) == 0 {
		return fmt.Sprintf("%s\n\n  No projects found.\n\n%s", title, help)
	}

	project := m.projects[m.activeProj]
	header := fmt.Sprintf("%s  project %d/%d: %s", title, m.activeProj+1, len(m.projects), project)

	var body string
	if m.phaseView {
		body = m.renderPhases(project)
	} else {
		body = m.renderLanes(project)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", header, body, help)
}

func (m boardModel) renderLanes(project string) string {
	lanes := m.lanes[project]
	availableWidth := m.width - 2
	colWidth := availableWidth / len(laneOrder)
	if colWidth < 14 {
		colWidth = 14
	}

	columns := make([]string, 0, len(laneOrder))
	for _, lane := range laneOrder {
		columns = append(columns, laneStyle.Width(colWidth-2).Render(m.renderLane(lane, lanes[lane], m.critical[project])))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// renderPhases lays tasks out by dependency depth, one column per phase.
// Tasks on the critical path stay highlighted so the longest chain reads
// left to right across the columns.
func (m boardModel) renderPhases(project string) string {
	phases := m.phases[project]
	if len(phases) == 0 {
		return "  No tasks."
	}

	availableWidth := m.width - 2
	colWidth := availableWidth / len(phases)
	if colWidth < 14 {
		colWidth = 14
	}

	critical := m.critical[project]
	columns := make([]string, 0, len(phases))
	for _, phase := range phases {
		var b strings.Builder
		b.WriteString(laneHeaderStyle.Render(fmt.Sprintf("phase %d (%d)", phase.Depth, len(phase.Tasks))))
		b.WriteString("\n")
		for _, t := range phase.Tasks {
			line := fmt.Sprintf("#%d %s", t.ID, t.Title)
			if critical[t.ID] {
				line = criticalStyle.Render("* " + line)
			} else {
				line = styleForLane(board.Classify(t)).Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
		columns = append(columns, laneStyle.Width(colWidth-2).Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func (m boardModel) renderLane(lane board.Lane, tasks []models.Task, critical map[int]bool) string {
	var b strings.Builder
	b.WriteString(laneHeaderStyle.Render(fmt.Sprintf("%s (%d)", lane, len(tasks))))
	b.WriteString("\n")

	if len(tasks) == 0 {
		b.WriteString("-")
		return b.String()
	}

	style := styleForLane(lane)
	for _, t := range tasks {
		marker := ""
		if len(t.BlockedBy) > 0 {
			marker = fmt.Sprintf(" <-%s", intList(t.BlockedBy))
		}
		line := fmt.Sprintf("#%d %s%s", t.ID, t.Title, marker)
		if critical[t.ID] {
			b.WriteString(criticalStyle.Render("* " + line))
		} else {
			b.WriteString(style.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func styleForLane(lane board.Lane) lipgloss.Style {
	switch lane {
	case board.LanePending:
		return lanePending
	case board.LaneWaiting:
		return laneWaiting
	case board.LaneInProgress:
		return laneInProgress
	case board.LaneDone:
		return laneDone
	case board.LaneVerified:
		return laneVerified
	case board.LaneDeferred:
		return laneDeferred
	default:
		return lipgloss.NewStyle()
	}
}

func loadBoard() tea.Msg {
	result := boardLoadedMsg{
		lanes:    make(map[string]map[board.Lane][]models.Task),
		phases:   make(map[string][]graph.Phase),
		critical: make(map[string]map[int]bool),
	}
	if Tasks == nil {
		result.err = fmt.Errorf("task service not initialized")
		return result
	}

	all, err := Tasks.GetAllTasks()
	if err != nil {
		result.err = fmt.Errorf("loading tasks: %w", err)
		return result
	}

	for name, project := range all {
		result.projects = append(result.projects, name)
		byLane := make(map[board.Lane][]models.Task)
		for _, t := range project.Tasks {
			lane := board.Classify(t)
			byLane[lane] = append(byLane[lane], t)
		}
		for lane := range byLane {
			sort.Slice(byLane[lane], func(i, j int) bool {
				return byLane[lane][i].ID < byLane[lane][j].ID
			})
		}
		result.lanes[name] = byLane
		result.phases[name] = graph.GroupByDepth(project.Tasks)

		onChain := make(map[int]bool)
		for _, id := range graph.LongestChain(project.Tasks) {
			onChain[id] = true
		}
		result.critical[name] = onChain
	}
	sort.Strings(result.projects)

	return result
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive lane board of every project's tasks",
	Long: `Launch an interactive terminal board grouping each project's tasks
into lanes (pending, waiting, in-progress, done, verified, deferred).
Tasks blocked by unfinished dependencies land in the waiting lane
regardless of their raw status.

Cycle through projects with Tab, toggle the phase view with p, refresh
with r, quit with q. Tasks on the longest dependency chain are
highlighted in both views.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := tea.NewProgram(newBoardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
