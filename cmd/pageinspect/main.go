// Command pageinspect is an interactive browser over one heap file's pages
// and slots: which slots are occupied, and what each occupied slot decodes
// to under a caller-supplied schema. It reads pages directly off disk, not
// through a buffer pool, so what it shows is always the on-disk state.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"storemy/pkg/primitives"
	"storemy/pkg/storage/heap"
	"storemy/pkg/storage/page"
	"storemy/pkg/tuple"
	"storemy/pkg/types"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	up, down, enter, back, quit key.Binding
}

var keys = keyMap{
	up:    key.NewBinding(key.WithKeys("up", "k")),
	down:  key.NewBinding(key.WithKeys("down", "j")),
	enter: key.NewBinding(key.WithKeys("enter")),
	back:  key.NewBinding(key.WithKeys("esc")),
	quit:  key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

type view int

const (
	viewPageList view = iota
	viewPageDetail
)

type model struct {
	file   *heap.HeapFile
	td     *tuple.TupleDescription
	view   view
	cursor int

	numPages     int
	selectedPage int
	slots        []slotRow
	err          error
}

type slotRow struct {
	slot     int
	occupied bool
	tuple    string
}

func initialModel(file *heap.HeapFile, td *tuple.TupleDescription) model {
	n, err := file.NumPages()
	return model{file: file, td: td, view: viewPageList, numPages: n, err: err}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.quit):
		return m, tea.Quit

	case key.Matches(keyMsg, keys.up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(keyMsg, keys.down):
		limit := m.numPages
		if m.view == viewPageDetail {
			limit = len(m.slots)
		}
		if m.cursor < limit-1 {
			m.cursor++
		}

	case key.Matches(keyMsg, keys.back):
		m.view = viewPageList
		m.cursor = m.selectedPage

	case key.Matches(keyMsg, keys.enter):
		if m.view == viewPageList {
			m.selectedPage = m.cursor
			m.loadPage(m.cursor)
			m.view = viewPageDetail
			m.cursor = 0
		}
	}

	return m, nil
}

func (m *model) loadPage(pageNo int) {
	pid := page.NewPageDescriptor(m.file.GetID(), primitives.PageNumber(pageNo))
	hp, err := m.file.ReadPage(pid)
	if err != nil {
		m.err = err
		return
	}

	tuples := hp.Tuples()
	tupleIdx := 0

	rows := make([]slotRow, 0, hp.NumSlots())
	for i := 0; i < hp.NumSlots(); i++ {
		if tupleIdx < len(tuples) && tuples[tupleIdx].RecordID != nil && int(tuples[tupleIdx].RecordID.SlotID) == i {
			rows = append(rows, slotRow{slot: i, occupied: true, tuple: tuples[tupleIdx].String()})
			tupleIdx++
		} else {
			rows = append(rows, slotRow{slot: i, occupied: false})
		}
	}
	m.slots = rows
}

func (m model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("error: %v\n\npress q to quit", m.err))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("pageinspect: %s", m.file.Path())) + "\n")

	switch m.view {
	case viewPageList:
		b.WriteString(headerStyle.Render(fmt.Sprintf(" %d pages ", m.numPages)) + "\n\n")
		for i := 0; i < m.numPages; i++ {
			line := fmt.Sprintf("page %d", i)
			if i == m.cursor {
				b.WriteString(selectedItemStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString(itemStyle.Render("  "+line) + "\n")
			}
		}
		b.WriteString("\n" + helpStyle.Render("up/down: navigate  enter: open page  q: quit"))

	case viewPageDetail:
		b.WriteString(headerStyle.Render(fmt.Sprintf(" page %d: %d slots ", m.selectedPage, len(m.slots))) + "\n\n")
		for i, row := range m.slots {
			var line string
			if row.occupied {
				line = fmt.Sprintf("slot %-4d [x] %s", row.slot, row.tuple)
			} else {
				line = fmt.Sprintf("slot %-4d [ ]", row.slot)
			}
			if i == m.cursor {
				b.WriteString(selectedItemStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString(itemStyle.Render("  "+line) + "\n")
			}
		}
		b.WriteString("\n" + helpStyle.Render("up/down: navigate  esc: back  q: quit"))
	}

	return b.String()
}

func main() {
	filePath := flag.String("file", "", "path to a heap file")
	schemaSpec := flag.String("schema", "", "schema as comma-separated name:type pairs, e.g. id:int,name:string")
	flag.Parse()

	if *filePath == "" || *schemaSpec == "" {
		fmt.Println("usage: pageinspect -file <path> -schema <name:type,...>")
		os.Exit(1)
	}

	td, err := parseSchema(*schemaSpec)
	if err != nil {
		fmt.Printf("invalid schema: %v\n", err)
		os.Exit(1)
	}

	hf, err := heap.NewHeapFile(*filePath, td)
	if err != nil {
		fmt.Printf("opening heap file: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(hf, td), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func parseSchema(spec string) (*tuple.TupleDescription, error) {
	pairs := strings.Split(spec, ",")
	fieldTypes := make([]types.Type, 0, len(pairs))
	names := make([]string, 0, len(pairs))

	for _, pair := range pairs {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected name:type, got %q", pair)
		}

		name := strings.TrimSpace(parts[0])
		switch strings.ToLower(strings.TrimSpace(parts[1])) {
		case "int":
			fieldTypes = append(fieldTypes, types.IntType)
		case "string":
			fieldTypes = append(fieldTypes, types.StringType)
		default:
			return nil, fmt.Errorf("unknown type %q for field %q", parts[1], name)
		}
		names = append(names, name)
	}

	return tuple.NewTupleDescription(fieldTypes, names)
}
