package viz

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/springnet/internal/physics"
	"github.com/san-kum/springnet/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	statsWidth      = 45

	// TimestepPerFrame is the simulated time advanced on every tick.
	TimestepPerFrame = 0.05
	// CoefficientFactor scales the selected coefficient per key press.
	CoefficientFactor = 1.1
	// PanStep is one keyboard pan in viewport widths.
	PanStep = 0.01

	fitMargin = 1.0

	// canvas padding, in cells
	padTop  = 1
	padLeft = 2
)

var (
	canvasStyle      = lipgloss.NewStyle().Padding(padTop, padLeft)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(statsWidth)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type TickMsg time.Time

// ExportFunc writes the current layout somewhere and returns where.
type ExportFunc func(sys *physics.System, vp Viewport) (string, error)

// coefficient is one live-tunable system parameter.
type coefficient struct {
	name string
	ptr  func(p *physics.Params) *float64
}

var coefficients = []coefficient{
	{"repulsion", func(p *physics.Params) *float64 { return &p.Repulsion }},
	{"friction", func(p *physics.Params) *float64 { return &p.Friction }},
}

// Model is the interactive layout viewer. It owns the System while running.
type Model struct {
	sys           *physics.System
	name          string
	dt            float64
	width, height int
	canvas        *Canvas
	vp            Viewport
	running       bool
	t             float64
	steps         int
	err           error
	status        string

	dragging bool
	dragged  physics.BodyID
	cursor   r2.Vec

	selected      int
	energyHistory []float64

	recording bool
	frames    []*image.Paletted
	gifPath   string
	export    ExportFunc
	showHelp  bool
}

// NewModel builds a viewer for sys, with the viewport fitted to its bodies.
func NewModel(sys *physics.System, name string) Model {
	c := NewCanvas(width, height)
	return Model{
		sys:           sys,
		name:          name,
		dt:            TimestepPerFrame,
		width:         width,
		height:        height,
		canvas:        c,
		vp:            Fit(sys.Bounds(), fitMargin, c.PixelWidth(), c.PixelHeight()),
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		gifPath:       "springnet.gif",
	}
}

// WithExport sets the handler for the export key.
func (m Model) WithExport(fn ExportFunc) Model {
	m.export = fn
	return m
}

// WithTimestep overrides TimestepPerFrame.
func (m Model) WithTimestep(dt float64) Model {
	if dt > 0 {
		m.dt = dt
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Run starts the viewer full screen with mouse support and blocks until quit.
func Run(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width-statsWidth-2*padLeft-1, msg.Height-2*padTop)
	case TickMsg:
		if m.dragging {
			m.sys.SetPosition(m.dragged, m.cursor)
		}
		if m.running {
			m.step()
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
		if m.running {
			m.err = nil
		}
	case "w":
		m.vp.Shift(r2.Vec{Y: -PanStep})
	case "s":
		m.vp.Shift(r2.Vec{Y: PanStep})
	case "a":
		m.vp.Shift(r2.Vec{X: -PanStep})
	case "d":
		m.vp.Shift(r2.Vec{X: PanStep})
	case "+", "=":
		m.vp.Zoom(1 / ZoomFactor)
	case "-", "_":
		m.vp.Zoom(ZoomFactor)
	case "f":
		m.vp = Fit(m.sys.Bounds(), fitMargin, m.canvas.PixelWidth(), m.canvas.PixelHeight())
	case "x":
		m.sys.Agitate()
	case "tab":
		m.selected = (m.selected + 1) % len(coefficients)
	case "up", "k":
		m.adjustCoefficient(CoefficientFactor)
	case "down", "j":
		m.adjustCoefficient(1 / CoefficientFactor)
	case "p":
		if m.sys.HasAnimation() {
			m.sys.ToggleAnimation()
		}
	case "r":
		m.sys.RewindAnimation()
	case "g":
		m.toggleRecording()
	case "e":
		m.exportLayout()
	case "?":
		m.showHelp = !m.showHelp
	case "t":
		names := ThemeNames()
		for i, name := range names {
			if name == CurrentTheme.Name {
				SetTheme(names[(i+1)%len(names)])
				break
			}
		}
	}
	return m, nil
}

// handleMouse picks, drags and locks bodies and zooms with the wheel.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	col, row := msg.X-padLeft, msg.Y-padTop
	m.cursor = CanvasToWorld(col, row, m.canvas, m.vp)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.vp.Zoom(1 / ZoomFactor)
	case msg.Button == tea.MouseButtonWheelDown:
		m.vp.Zoom(ZoomFactor)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if hits := m.bodiesNear(m.cursor); len(hits) > 0 {
			m.dragging, m.dragged = true, hits[0]
			m.sys.SetPosition(m.dragged, m.cursor)
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonRight:
		for _, id := range m.bodiesNear(m.cursor) {
			m.sys.ToggleLock(id)
		}
	case msg.Action == tea.MouseActionRelease:
		m.dragging = false
	}
}

// bodiesNear is BodiesAt with at least one cell of slack, since a terminal
// cell is coarse compared to small bodies.
func (m *Model) bodiesNear(p r2.Vec) []physics.BodyID {
	if hits := m.sys.BodiesAt(p); len(hits) > 0 {
		return hits
	}
	slack := 2 / m.vp.PixelsPerMeter(m.canvas.PixelWidth())
	for i, b := range m.sys.Bodies() {
		if r2.Norm(r2.Sub(p, b.Position)) <= b.Radius+slack {
			return []physics.BodyID{physics.BodyID(i)}
		}
	}
	return nil
}

func (m *Model) adjustCoefficient(factor float64) {
	v := coefficients[m.selected].ptr(&m.sys.Params)
	*v *= factor
}

// resize grows the canvas to w x h cells, keeping the world scale.
func (m *Model) resize(w, h int) {
	if w < 10 || h < 5 {
		return
	}
	oldW, oldH := m.canvas.PixelWidth(), m.canvas.PixelHeight()
	m.width, m.height = w, h
	m.canvas = NewCanvas(w, h)
	m.vp.Refit(oldW, oldH, m.canvas.PixelWidth(), m.canvas.PixelHeight())
}

// step advances the system one frame. A failed step pauses the viewer and
// leaves the system untouched; a step that leaves a non-finite state pauses
// it with sim.ErrUnstable.
func (m *Model) step() {
	if err := m.sys.Step(m.dt); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.t += m.dt
	m.steps++
	if !m.sys.Valid() {
		m.err = fmt.Errorf("%w at t=%.2f", sim.ErrUnstable, m.t)
		m.running = false
		return
	}

	m.energyHistory = append(m.energyHistory, m.sys.KineticEnergy()+m.sys.SpringEnergy())
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	if !m.sys.Valid() {
		return
	}
	DrawSystem(m.canvas, m.sys, m.vp, string(CurrentTheme.Muted))
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = make([]*image.Paletted, 0)
		m.status = "recording"
		return
	}
	if err := m.saveGIF(); err != nil {
		m.status = "gif: " + err.Error()
	} else if len(m.frames) > 0 {
		m.status = "saved " + m.gifPath
	}
	m.recording = false
	m.frames = nil
}

func (m *Model) exportLayout() {
	if m.export == nil {
		m.status = "export not configured"
		return
	}
	where, err := m.export(m.sys, m.vp)
	if err != nil {
		m.status = "export: " + err.Error()
		return
	}
	m.status = "exported " + where
}

// View renders the TUI interface.
func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.Render(lipgloss.NewStyle()))
	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.name), CurrentTheme.Primary, CurrentTheme.Secondary) + "\n\n")

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.err != nil:
		status = StatusError.Render("HALTED: " + m.err.Error())
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}
	if m.recording {
		status += " " + StatusRecording.Render("● REC")
	}
	s.WriteString(status + "\n")
	if m.status != "" {
		s.WriteString(Subtle.Render(m.status) + "\n")
	}
	s.WriteString("\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	s.WriteString(labelStyle.Render("Bodies") + valueStyle.Render(fmt.Sprintf("%d / %d springs", m.sys.Len(), len(m.sys.Springs()))) + "\n")
	s.WriteString(labelStyle.Render("Kinetic") + valueStyle.Render(fmt.Sprintf("%.4f", m.sys.KineticEnergy())) + "\n")
	s.WriteString(labelStyle.Render("Spring") + valueStyle.Render(fmt.Sprintf("%.4f", m.sys.SpringEnergy())) + "\n")
	if m.sys.HasAnimation() {
		state := "paused"
		if m.sys.AnimationPlaying() {
			state = "playing"
		}
		s.WriteString(labelStyle.Render("Animation") + valueStyle.Render(fmt.Sprintf("%.2fs %s", m.sys.AnimationClock(), state)) + "\n")
	}
	if m.dragging {
		s.WriteString(labelStyle.Render("Dragging") + valueStyle.Render(m.sys.Body(m.dragged).Label) + "\n")
	}

	s.WriteString("\nCOEFFICIENTS\n")
	for i, c := range coefficients {
		line := fmt.Sprintf("%-10s %.4g", c.name, *c.ptr(&m.sys.Params))
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause X:Agitate Q:Quit\nWASD:Pan +-:Zoom F:Fit\nTab ↑↓:Tune  ?:Help"))

	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  X        - Agitate bodies           ║
║  W/A/S/D  - Pan                      ║
║  +/-      - Zoom in/out              ║
║  F        - Fit layout to screen     ║
║  Tab      - Select coefficient       ║
║  Up/K     - Increase (x1.1)          ║
║  Down/J   - Decrease (/1.1)          ║
║  P        - Play/pause animation     ║
║  R        - Rewind animation         ║
║  G        - Toggle GIF recording     ║
║  E        - Export layout            ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╠══════════════════════════════════════╣
║  Left drag   - Move a body           ║
║  Right click - Lock/unlock a body    ║
║  Wheel       - Zoom                  ║
╚══════════════════════════════════════╝`

// captureFrame rasterizes the braille canvas, one block per dot, in the cell
// colors.
func (m *Model) captureFrame() {
	charW, charH := 8, 16
	imgW, imgH := m.width*charW, m.height*charH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), palette.Plan9)
	dotW, dotH := charW/2, charH/4

	for row := 0; row < m.height; row++ {
		for col := 0; col < m.width; col++ {
			ink := colorful.Color{R: 1, G: 1, B: 1}
			if hex := m.canvas.Colors[row][col]; hex != "" {
				if c, err := colorful.Hex(hex); err == nil {
					ink = c
				}
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !m.canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					baseX, baseY := col*charW+dx*dotW, row*charH+dy*dotH
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.Set(baseX+px, baseY+py, ink)
						}
					}
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() error {
	if len(m.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(m.gifPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
