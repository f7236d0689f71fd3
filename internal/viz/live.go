package viz

import (
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avrek/propsim/internal/engine"
)

const (
	width        = 70
	height       = 22
	trailLength  = 2000
	stepsPerTick = 40
)

type TickMsg time.Time

// Model animates one propagated body's planar trajectory around its central
// body. The body's position is read from the session state at the given
// block offset; the central body sits at the canvas center.
type Model struct {
	session *engine.Session
	name    string
	offset  int

	canvas *Canvas
	trail  [][2]int
	scale  float64
	paused bool
}

// NewModel sizes the view to the body's initial distance.
func NewModel(session *engine.Session, name string, offset int) Model {
	m := Model{
		session: session,
		name:    name,
		offset:  offset,
		canvas:  NewCanvas(width, height),
		trail:   make([][2]int, 0, trailLength),
	}
	x := session.State()
	r := norm3(x[offset], x[offset+1], x[offset+2])
	if r == 0 {
		r = 1
	}
	// leave a margin around the initial orbit
	m.scale = 2.6 * r / float64(height*4)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.session.Reset()
			m.trail = m.trail[:0]
		}
		return m, nil

	case TickMsg:
		if !m.paused && !m.session.Done() {
			for i := 0; i < stepsPerTick; i++ {
				if !m.session.Step() {
					break
				}
				m.trail = append(m.trail, m.project())
				if len(m.trail) > trailLength {
					m.trail = m.trail[1:]
				}
			}
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m Model) project() [2]int {
	x := m.session.State()
	px := width + int(x[m.offset]/m.scale)
	py := height*2 - int(x[m.offset+1]/m.scale)
	return [2]int{px, py}
}

func (m Model) View() string {
	m.canvas.Clear()
	m.canvas.Set(width, height*2) // central body
	for _, p := range m.trail {
		m.canvas.Set(p[0], p[1])
	}

	x := m.session.State()
	r := norm3(x[m.offset], x[m.offset+1], x[m.offset+2])
	v := norm3(x[m.offset+3], x[m.offset+4], x[m.offset+5])

	status := StatusOK.Render("running")
	switch {
	case m.session.Done():
		status = StatusWarn.Render("terminated")
	case m.paused:
		status = StatusWarn.Render("paused")
	}

	stats := lipgloss.JoinVertical(lipgloss.Left,
		row("status", status),
		row("epoch", fmt.Sprintf("%.1f s", m.session.Epoch())),
		row("steps", fmt.Sprintf("%d", m.session.Steps())),
		row("distance", fmt.Sprintf("%.1f km", r/1e3)),
		row("speed", fmt.Sprintf("%.1f m/s", v)),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		CanvasStyle.Render(m.canvas.String()),
		stats,
	)

	return HeaderStyle.Render("propsim live: "+m.name) + "\n" +
		body + "\n" +
		HelpStyle.Render("space pause · r reset · q quit")
}

func row(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}

func norm3(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}
