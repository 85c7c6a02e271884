package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/latgas/internal/mc"
)

const (
	historyCapacity = 600
	tickInterval    = time.Second / 30

	tempFactor = 1.05
	muStep     = 0.5
)

type TickMsg time.Time

// Model steps one system per tick and renders a layer of its lattice next
// to the running observables.
type Model struct {
	sys       *mc.System
	mode      mc.Mode
	name      string
	fill      float64
	running   bool
	braille   bool
	layer     int
	steps     int
	initialT  float64
	initialMu float64
	energy    []float64
	density   []float64
	showHelp  bool
	err       error
}

// NewModel wraps sys. fill is the occupation probability used on reset.
func NewModel(sys *mc.System, mode mc.Mode, name string, fill float64) Model {
	l := sys.Lattice()
	return Model{
		sys:       sys,
		mode:      mode,
		name:      name,
		fill:      fill,
		running:   true,
		braille:   l.Lx > 40 || l.Ly > 40,
		initialT:  sys.T(),
		initialMu: sys.Mu(),
		energy:    make([]float64, 0, historyCapacity),
		density:   make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the system.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "up", "k":
			m.setT(m.sys.T() * tempFactor)
		case "down", "j":
			m.setT(m.sys.T() / tempFactor)
		case "right", "l":
			m.setMu(m.sys.Mu() + muStep)
		case "left", "h":
			m.setMu(m.sys.Mu() - muStep)
		case "m":
			m.cycleMode()
		case "[":
			m.layer = max(0, m.layer-1)
		case "]":
			m.layer = min(m.sys.Lattice().Lz-1, m.layer+1)
		case "b":
			m.braille = !m.braille
		case "c":
			m.sys.Clear()
			m.record()
		case "r":
			m.reset()
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) setT(t float64) {
	m.err = m.sys.SetT(t)
}

func (m *Model) setMu(mu float64) {
	m.err = m.sys.SetMu(mu)
}

func (m *Model) cycleMode() {
	modes := mc.Modes()
	for i, mode := range modes {
		if mode == m.mode {
			m.mode = modes[(i+1)%len(modes)]
			return
		}
	}
	m.mode = modes[0]
}

func (m *Model) step() {
	if err := m.sys.Step(m.mode); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.steps++
	m.record()
}

func (m *Model) record() {
	m.energy = append(m.energy, m.sys.Energy())
	m.density = append(m.density, float64(m.sys.Population())/float64(m.sys.Lattice().Sites()))
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
		m.density = m.density[1:]
	}
}

// reset restores the initial temperature and chemical potential and
// refills the lattice.
func (m *Model) reset() {
	m.err = nil
	_ = m.sys.SetT(m.initialT)
	_ = m.sys.SetMu(m.initialMu)
	if err := m.sys.Randomize(m.fill); err != nil {
		m.err = err
	}
	m.sys.ResetAcceptance()
	m.steps = 0
	m.energy = m.energy[:0]
	m.density = m.density[:0]
}

func (m Model) latticeView() string {
	l := m.sys.Lattice()
	particle := lipgloss.NewStyle().Foreground(CurrentTheme.Particle)
	if m.braille {
		c := CanvasFor(l.Lx, l.Ly)
		c.DrawLattice(l, m.layer)
		return particle.Render(c.String())
	}
	return particle.Render(Blocks(l, m.layer))
}

// View renders the TUI interface.
func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")

	if m.running {
		s.WriteString(StatusRunning.Render("RUNNING"))
	} else {
		s.WriteString(StatusPaused.Render("PAUSED"))
	}
	s.WriteString("\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(5), asciigraph.Width(36), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	l := m.sys.Lattice()
	density := float64(m.sys.Population()) / float64(l.Sites())
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d", m.steps))
	row("T", fmt.Sprintf("%.4g", m.sys.T()))
	row("mu", fmt.Sprintf("%.4g", m.sys.Mu()))
	row("Energy", fmt.Sprintf("%.2f", m.sys.Energy()))
	row("N", fmt.Sprintf("%d / %d", m.sys.Population(), l.Sites()))
	row("Density", ProgressBar(density, 20)+fmt.Sprintf(" %.3f", density))
	row("Accept", fmt.Sprintf("%.3f", m.sys.Acceptance().Rate()))
	row("Mode", m.mode.String())
	row("Backend", m.sys.Backend().Name())
	if l.Lz > 1 {
		row("Layer", fmt.Sprintf("%d / %d", m.layer+1, l.Lz))
	}
	s.WriteString("\n" + SparklineChart(m.density, 36) + "\n")
	if m.err != nil {
		s.WriteString("\n" + StatusPaused.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause R:Reset C:Clear Q:Quit\n↑↓:T ←→:mu M:Mode ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.latticeView()), statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  Up/K     - Temperature +5%          ║
║  Down/J   - Temperature -5%          ║
║  Right/L  - Chemical potential +0.5  ║
║  Left/H   - Chemical potential -0.5  ║
║  M        - Cycle step mode          ║
║  [ ]      - Previous/next layer      ║
║  B        - Toggle Braille view      ║
║  C        - Empty the lattice        ║
║  R        - Reset                    ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n" + mainView
	}
	return mainView
}

// RunLive runs a live view of sys until the user quits.
func RunLive(sys *mc.System, mode mc.Mode, name string, fill float64) error {
	_, err := tea.NewProgram(NewModel(sys, mode, name, fill), tea.WithAltScreen()).Run()
	return err
}
