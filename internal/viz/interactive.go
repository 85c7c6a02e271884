package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/latgas/internal/config"
	"github.com/san-kum/latgas/internal/experiment"
	"github.com/san-kum/latgas/internal/mc"
)

var presetInfo = map[string]string{
	"ising2d":       "square lattice at zero field",
	"mixed":         "hot, crowded 2d gas",
	"overhead":      "long-range shoulder",
	"chain":         "1d nearest neighbors",
	"cubic":         "3d nearest neighbors",
	"lennard-jones": "shifted 12-6 pairs",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

var (
	menuTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuValue  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Bold(true)
	menuIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

// field is one editable setting on the config screen.
type field struct {
	name string
	step float64
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

var fields = []field{
	{"T", 0.1,
		func(c *config.Config) float64 { return c.Thermo.Temperature },
		func(c *config.Config, v float64) { c.Thermo.Temperature = max(v, 0.01) }},
	{"mu", 0.5,
		func(c *config.Config) float64 { return c.Thermo.Mu },
		func(c *config.Config, v float64) { c.Thermo.Mu = v }},
	{"L", 1,
		func(c *config.Config) float64 { return float64(c.Lattice.Lengths[0]) },
		func(c *config.Config, v float64) { c.Lattice.Lengths = []int{max(int(v), 2)} }},
	{"fill", 0.05,
		func(c *config.Config) float64 { return c.Lattice.Fill },
		func(c *config.Config, v float64) { c.Lattice.Fill = min(max(v, 0), 1) }},
}

type menu struct {
	state, cursor int
	presets       []string
	cfg           *config.Config
	fieldCursor   int
	reg           *experiment.Registry
	live          Model
	err           error
}

func NewInteractiveApp(reg *experiment.Registry) *menu {
	return &menu{state: stateMenu, presets: config.ListPresets(), reg: reg}
}

func (m menu) Init() tea.Cmd { return nil }

func (m menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		if m.state == stateMenu {
			return m.menuKey(key)
		}
		return m.configKey(key)
	}
	return m, nil
}

func (m menu) menuKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.cfg = config.GetPreset(m.presets[m.cursor])
		m.state, m.fieldCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m menu) configKey(msg tea.KeyMsg) (menu, tea.Cmd) {
	f := fields[m.fieldCursor]
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateMenu
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(fields)-1 {
			m.fieldCursor++
		}
	case "left", "h":
		f.set(m.cfg, f.get(m.cfg)-f.step)
	case "right", "l":
		f.set(m.cfg, f.get(m.cfg)+f.step)
	case "s", "enter":
		return m.start()
	}
	return m, nil
}

func (m menu) start() (menu, tea.Cmd) {
	mode, err := mc.ParseMode(m.cfg.Run.Mode)
	if err == nil {
		err = m.cfg.Validate()
	}
	var sys *mc.System
	if err == nil {
		sys, err = m.reg.Build(m.cfg, nil)
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	m.live = NewModel(sys, mode, m.cfg.Name, m.cfg.Lattice.Fill)
	m.state = stateSim
	return m, m.live.Init()
}

func (m menu) View() string {
	switch m.state {
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return m.viewMenu()
}

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(menuKey.Render(pairs[i]) + menuIdle.Render(" "+pairs[i+1]+"  "))
	}
	return "\n    " + b.String() + "\n"
}

func (m menu) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("LATGAS") + "\n    " + menuSub.Render("grand-canonical lattice gas") + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-16s", name)), menuValue.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", menuIdle.Render(fmt.Sprintf("  %-16s", name)), menuIdle.Render(desc)))
		}
	}
	b.WriteString(hints("j/k", "navigate", "enter", "select", "q", "quit"))
	return b.String()
}

func (m menu) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render(strings.ToUpper(m.cfg.Name)) + "\n    " + menuSub.Render(presetInfo[m.cfg.Name]) + "\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, f := range fields {
		val := fmt.Sprintf("%8.3f", f.get(m.cfg))
		if i == m.fieldCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", menuCursor.Render("▸"), menuActive.Render(fmt.Sprintf("%-10s", f.name)), menuValue.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("    %s %s\n", menuIdle.Render(fmt.Sprintf("  %-10s", f.name)), menuIdle.Render(val)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + StatusPaused.Render(m.err.Error()) + "\n")
	}
	b.WriteString(hints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back"))
	return b.String()
}

// RunInteractive lets the user pick and tune a preset, then runs it live.
func RunInteractive(reg *experiment.Registry) error {
	_, err := tea.NewProgram(NewInteractiveApp(reg), tea.WithAltScreen()).Run()
	return err
}
