package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/qrsim/internal/dynamo"
	"github.com/san-kum/qrsim/internal/sim"
)

const (
	width       = 60
	height      = 24
	trailLength = 200
)

type TickMsg time.Time

type point struct{ x, y float64 }

// tracker follows the scheduler's commits so the view never has to query
// the store itself.
type tracker struct {
	latest  dynamo.Snapshot
	trails  map[string][]point
	blocked int
}

func newTracker(world dynamo.Snapshot) *tracker {
	t := &tracker{latest: world.Clone(), trails: make(map[string][]point, len(world))}
	for id, s := range world {
		t.trails[id] = []point{{s.X, s.Y}}
	}
	return t
}

func (t *tracker) OnCommit(c sim.Commit) {
	t.latest[c.Agent] = c.State
	trail := append(t.trails[c.Agent], point{c.State.X, c.State.Y})
	if len(trail) > trailLength {
		trail = trail[len(trail)-trailLength:]
	}
	t.trails[c.Agent] = trail
}

func (t *tracker) OnBlocked(string, int, float64) { t.blocked++ }

// LiveModel runs one scheduler pass per tick and draws every body with its
// recent trail.
type LiveModel struct {
	sched    *sim.Scheduler
	track    *tracker
	title    string
	budget   int
	interval time.Duration
	canvas   *Canvas
	view     Viewport
	running  bool
	done     bool
	last     sim.PassStats
	err      error
}

// NewLiveModel attaches a view to a freshly built scheduler. budget bounds
// the number of passes; fps sets the tick rate.
func NewLiveModel(s *sim.Scheduler, title string, budget, fps int) (LiveModel, error) {
	if fps <= 0 {
		return LiveModel{}, fmt.Errorf("%w: fps must be positive, got %d", dynamo.ErrParameterBounds, fps)
	}
	world, err := s.World(dynamo.SeedLow)
	if err != nil {
		return LiveModel{}, fmt.Errorf("read seed: %w", err)
	}
	track := newTracker(world)
	s.AddObserver(track)

	return LiveModel{
		sched:    s,
		track:    track,
		title:    title,
		budget:   budget,
		interval: time.Second / time.Duration(fps),
		canvas:   NewCanvas(width, height),
		view:     FitViewport(world, 0.25),
		running:  true,
	}, nil
}

func (m LiveModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return m.tick()
}

// Update handles keys and advances the scheduler on each tick.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.advance()
			}
		case "f":
			m.view = FitViewport(m.track.latest, 0.25)
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		if m.done {
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *LiveModel) advance() {
	if m.done {
		return
	}
	if m.sched.Passes() >= m.budget {
		m.done = true
		return
	}
	stats, err := m.sched.Pass()
	m.last = stats
	switch {
	case err != nil:
		m.err = err
		m.done = true
	case stats.Committed == 0:
		m.done = true
	}
	for _, s := range m.track.latest {
		if !m.view.Contains(s.X, s.Y) {
			m.view = FitViewport(m.track.latest, 0.25)
			break
		}
	}
}

// Err is the error that stopped the run, if any.
func (m LiveModel) Err() error { return m.err }

func (m LiveModel) draw() {
	m.canvas.Clear()
	for _, id := range m.sched.Order() {
		trail := m.track.trails[id]
		for i := 1; i < len(trail); i++ {
			x0, y0 := m.view.Project(m.canvas, trail[i-1].x, trail[i-1].y)
			x1, y1 := m.view.Project(m.canvas, trail[i].x, trail[i].y)
			m.canvas.DrawLine(x0, y0, x1, y1)
		}
		if s, ok := m.track.latest[id]; ok {
			m.canvas.Dot(m.view.Project(m.canvas, s.X, s.Y))
		}
	}
}

func (m LiveModel) status() string {
	switch {
	case m.err != nil:
		return StatusStalled.Render("ERROR")
	case m.done && m.last.Pass > 0 && m.last.Committed == 0:
		return StatusStalled.Render(fmt.Sprintf("STALLED (pass %d)", m.last.Pass))
	case m.done:
		return StatusPaused.Render("DONE")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

func (m LiveModel) View() string {
	m.draw()
	canvasView := CanvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status() + "\n\n")
	s.WriteString(Row("pass", fmt.Sprintf("%d/%d", m.sched.Passes(), m.budget)) + "\n")
	s.WriteString(Row("records", fmt.Sprintf("%d", m.sched.Store().Len())) + "\n")
	s.WriteString(Row("blocked", fmt.Sprintf("%d", m.track.blocked)) + "\n\n")

	for _, id := range m.sched.Order() {
		cursor, _ := m.sched.Cursor(id)
		st := m.sched.Status(id)
		s.WriteString(MetricLabel.Render(id) + StatusStyle(st).Render(fmt.Sprintf("%-9s", st)) +
			MetricValue.Render(fmt.Sprintf(" t=%.3f", cursor)) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + StatusStalled.Render(m.err.Error()) + "\n")
	}
	s.WriteString(KeyHint.Render("\nSP:Pause N:Step F:Fit Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, PanelStyle.Render(s.String()))
}
