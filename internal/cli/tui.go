package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/wafermask/pkg/core/wafer"
	"github.com/matzehuels/wafermask/pkg/job"
)

// Editor styles
var (
	editorSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editorNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	editorDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	editorErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// Editable fields of a section.
const (
	fieldStructure = iota
	fieldDistance
	fieldRadius
	numFields
)

var fieldLabels = [numFields]string{"Structure", "Distance", "Radius"}

// =============================================================================
// SectionEditorModel - Interactive section setup editor
// =============================================================================

// SectionEditorModel is the bubbletea model for editing the section setups
// of a job. Changes are applied to Job as they are committed and written to
// Path on save.
type SectionEditorModel struct {
	Job  *job.Job
	Path string

	Cursor int // zero-based section index
	Field  int

	structure wafer.Structure
	distance  string
	radius    string

	Status string
	Err    error
	Dirty  bool
	Saved  bool
}

// NewSectionEditorModel creates an editor positioned on section 1.
func NewSectionEditorModel(j *job.Job, path string) SectionEditorModel {
	m := SectionEditorModel{Job: j, Path: path}
	m.load()
	return m
}

// Section returns the one-based number of the selected section.
func (m SectionEditorModel) Section() int { return m.Cursor + 1 }

// load fills the input fields from the selected section. Unconfigured
// sections show the first structure with zero values.
func (m *SectionEditorModel) load() {
	s, ok := m.Job.Section(m.Section())
	if !ok {
		s = job.Section{Number: m.Section(), Structure: wafer.Structures[0]}
	}
	m.structure = s.Structure
	m.distance = formatMicrons(s.Distance)
	m.radius = formatMicrons(s.Radius)
}

func (m SectionEditorModel) Init() tea.Cmd {
	return nil
}

func (m SectionEditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch k := key.String(); k {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit
	case "up", "k":
		m.move(-1, 0)
	case "down", "j":
		m.move(1, 0)
	case "left", "h":
		m.move(0, -1)
	case "right", "l":
		m.move(0, 1)
	case "tab":
		m.Field = (m.Field + 1) % numFields
	case "shift+tab":
		m.Field = (m.Field + numFields - 1) % numFields
	case " ":
		m.cycleStructure()
	case "backspace":
		m.edit(func(s string) string {
			if s == "" {
				return s
			}
			return s[:len(s)-1]
		})
	case "enter":
		m.commit()
	case "x":
		m.clear()
	case "z":
		m.cycleSize()
	case "r", "R", "c", "C":
		m.resize(k)
	case "w":
		if m.save() {
			return m, tea.Quit
		}
	default:
		if len(k) == 1 && strings.ContainsAny(k, "0123456789.") {
			m.edit(func(s string) string { return s + k })
		}
	}
	return m, nil
}

// move shifts the cursor by whole rows and columns. Moves past the edge of
// the partition are ignored.
func (m *SectionEditorModel) move(dr, dc int) {
	row, col := m.Cursor/m.Job.Cols+dr, m.Cursor%m.Job.Cols+dc
	if row < 0 || row >= m.Job.Rows || col < 0 || col >= m.Job.Cols {
		return
	}
	m.Cursor = row*m.Job.Cols + col
	m.Err = nil
	m.Status = ""
	m.load()
}

func (m *SectionEditorModel) cycleStructure() {
	i := slices.Index(wafer.Structures, m.structure)
	m.structure = wafer.Structures[(i+1)%len(wafer.Structures)]
	m.Field = fieldStructure
}

// edit applies fn to the focused numeric field.
func (m *SectionEditorModel) edit(fn func(string) string) {
	switch m.Field {
	case fieldDistance:
		m.distance = fn(m.distance)
	case fieldRadius:
		m.radius = fn(m.radius)
	}
}

// commit validates the input fields and stores them as the setup of the
// selected section. Invalid input leaves the job unchanged.
func (m *SectionEditorModel) commit() {
	distance, err := strconv.ParseFloat(m.distance, 64)
	if err != nil {
		m.fail(fmt.Errorf("distance %q is not a number", m.distance))
		return
	}
	radius, err := strconv.ParseFloat(m.radius, 64)
	if err != nil {
		m.fail(fmt.Errorf("radius %q is not a number", m.radius))
		return
	}

	prev, existed := m.Job.Section(m.Section())
	m.Job.SetSection(job.Section{Number: m.Section(), Structure: m.structure, Distance: distance, Radius: radius})
	if err := m.Job.Validate(); err != nil {
		if existed {
			m.Job.SetSection(prev)
		} else {
			m.Job.RemoveSection(m.Section())
		}
		m.fail(err)
		return
	}
	m.Dirty = true
	m.Err = nil
	m.Status = fmt.Sprintf("Section %d set to %s", m.Section(), m.structure)
}

func (m *SectionEditorModel) clear() {
	if m.Job.RemoveSection(m.Section()) {
		m.Dirty = true
		m.Status = fmt.Sprintf("Section %d cleared", m.Section())
	}
	m.Err = nil
	m.load()
}

// cycleSize switches to the next supported wafer size.
func (m *SectionEditorModel) cycleSize() {
	sizes := wafer.Supported()
	i := slices.Index(sizes, m.Job.Size)
	m.Job.Size = sizes[(i+1)%len(sizes)]
	m.Dirty = true
	m.Err = nil
	m.Status = "Wafer size " + m.Job.Size.String()
}

// resize grows (lowercase) or shrinks (uppercase) the partition. Setups of
// sections that fall outside the new partition are dropped.
func (m *SectionEditorModel) resize(k string) {
	rows, cols := m.Job.Rows, m.Job.Cols
	switch k {
	case "r":
		rows++
	case "R":
		rows--
	case "c":
		cols++
	case "C":
		cols--
	}
	if rows < 1 || cols < 1 {
		return
	}
	m.Job.Rows, m.Job.Cols = rows, cols

	var dropped []int
	for _, s := range m.Job.SortedSections() {
		if s.Number > rows*cols {
			m.Job.RemoveSection(s.Number)
			dropped = append(dropped, s.Number)
		}
	}
	if m.Cursor >= rows*cols {
		m.Cursor = rows*cols - 1
	}
	m.Dirty = true
	m.Err = nil
	m.Status = fmt.Sprintf("Partition %dx%d", rows, cols)
	if len(dropped) > 0 {
		m.Status += fmt.Sprintf(", dropped sections %v", dropped)
	}
	m.load()
}

// save writes the job to Path and reports whether it succeeded.
func (m *SectionEditorModel) save() bool {
	if err := m.Job.Validate(); err != nil {
		m.fail(err)
		return false
	}
	if err := job.Save(m.Path, m.Job); err != nil {
		m.fail(err)
		return false
	}
	m.Saved = true
	m.Dirty = false
	return true
}

func (m *SectionEditorModel) fail(err error) {
	m.Err = err
	m.Status = ""
}

func (m SectionEditorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s · %s · %dx%d", m.Job.Name, m.Job.Size, m.Job.Rows, m.Job.Cols)))
	b.WriteString("\n")
	b.WriteString(editorDimStyle.Render("arrows: section  tab: field  space: structure  enter: apply  x: clear"))
	b.WriteString("\n")
	b.WriteString(editorDimStyle.Render("r/R c/C: rows/cols  z: wafer size  w: save  q: quit"))
	b.WriteString("\n\n")

	b.WriteString(m.grid())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %d\n", editorNormalStyle.Render("Section"), m.Section())
	values := [numFields]string{m.structure.String(), m.distance, m.radius}
	for f := range numFields {
		cursor := "  "
		style := editorNormalStyle
		if f == m.Field {
			cursor = "▸ "
			style = editorSelectedStyle
		}
		unit := ""
		if f != fieldStructure {
			unit = " " + m.Job.Unit
		}
		b.WriteString(style.Render(fmt.Sprintf("%s%-10s %s%s", cursor, fieldLabels[f], values[f], unit)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.Err != nil:
		b.WriteString(editorErrorStyle.Render(iconError + " " + m.Err.Error()))
	case m.Status != "":
		b.WriteString(StyleSuccess.Render(iconSuccess + " " + m.Status))
	case m.Dirty:
		b.WriteString(StyleWarning.Render("unsaved changes"))
	}
	b.WriteString("\n")

	return b.String()
}

// grid renders the partition with one cell per section.
func (m SectionEditorModel) grid() string {
	rows := make([][]string, m.Job.Rows)
	for r := range rows {
		rows[r] = make([]string, m.Job.Cols)
		for c := range rows[r] {
			n := r*m.Job.Cols + c + 1
			label := "-"
			if s, ok := m.Job.Section(n); ok {
				label = s.Structure.String()
			}
			rows[r][c] = fmt.Sprintf("%d %s", n, label)
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		BorderRow(true).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			n := row*m.Job.Cols + col + 1
			if n == m.Section() {
				return style.Inherit(editorSelectedStyle)
			}
			if _, ok := m.Job.Section(n); !ok {
				return style.Inherit(editorDimStyle)
			}
			return style.Inherit(editorNormalStyle)
		}).
		Render()
}
