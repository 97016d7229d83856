package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BrowseView ViewState = iota
	SearchView
	ConfirmDeleteView
	RateView
)

// Controller is the part of a list controller the TUI drives.
// [tasks.RecipeController] and [tasks.TrainController] implement it.
type Controller[T any] interface {
	Updates() <-chan tasks.Event
	Snapshot() tasks.Snapshot[T]
	Get(id int) (T, bool)
	SetSearchQuery(query string)
	ClearSearch()
	SetSort(col models.Column) error
	Resort()
	Delete(ctx context.Context, id int) error
}

// listConfig holds what differs between the recipe and train lists.
type listConfig[T any] struct {
	title   string
	columns []ColumnLabel
	item    func(T) item
	clip    func(T) string
	load    func(ctx context.Context) error
	rate    func(ctx context.Context, id, stars int) error // nil disables rating
	canRate func(T) bool
}

// Model is a searchable, sortable list view over one controller.
type Model[T any] struct {
	ctx       context.Context
	ctrl      Controller[T]
	cfg       listConfig[T]
	view      ViewState
	width     int
	height    int
	list      list.Model
	input     textinput.Model
	spinner   spinner.Model
	snapshot  tasks.Snapshot[T]
	status    string
	err       error
	help      help.Model
	keys      keyMap
	clipboard func(string) error
}

// NewRecipeModel creates the recipe list view. Owners cannot rate their own recipes from it.
func NewRecipeModel(ctx context.Context, c *tasks.RecipeController) *Model[models.Recipe] {
	return newModel[models.Recipe](ctx, c, listConfig[models.Recipe]{
		title:   "Recipes",
		columns: RecipeColumns,
		item:    recipeItem,
		clip:    recipeClip,
		load:    c.LoadAll,
		rate: func(ctx context.Context, id, stars int) error {
			_, err := c.RateRecipe(ctx, id, stars)
			return err
		},
		canRate: c.CanRate,
	})
}

// NewTrainModel creates the train list view over ownerID's trips.
func NewTrainModel(ctx context.Context, c *tasks.TrainController, ownerID int) *Model[models.Train] {
	return newModel[models.Train](ctx, c, listConfig[models.Train]{
		title:   "Trains",
		columns: TrainColumns,
		item:    trainItem,
		clip:    trainClip,
		load:    func(ctx context.Context) error { return c.Load(ctx, ownerID) },
	})
}

func newModel[T any](ctx context.Context, ctrl Controller[T], cfg listConfig[T]) *Model[T] {
	input := textinput.New()
	input.Placeholder = "Search..."
	input.Prompt = "🔍 "

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = cfg.title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)

	return &Model[T]{
		ctx:       ctx,
		ctrl:      ctrl,
		cfg:       cfg,
		view:      BrowseView,
		list:      l,
		input:     input,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:      help.New(),
		keys:      newKeyMap(),
		clipboard: clipboard.WriteAll,
	}
}

// Init starts listening for controller events and loads the collection.
func (m *Model[T]) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent(), m.load())
}

// Update handles incoming messages and updates the model state.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)
		m.input.Width = msg.Width - 10
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		case RateView:
			return m.handleRateKeys(msg)
		default:
			return m.handleBrowseKeys(msg)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model[T]) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgControllerEvent:
		ev := msg.data.(tasks.Event)
		if ev.Kind == tasks.Searched {
			// Results arrive in server order; the active sort is reapplied here, not by the controller.
			m.ctrl.Resort()
		}
		if ev.Kind == tasks.Failed && ev.Err != nil {
			m.err = ev.Err
		}
		m.refresh()
		return m, m.waitForEvent()

	case MsgActionDone:
		res := msg.data.(actionResult)
		m.err = res.err
		if res.err == nil {
			m.status = res.status
		}
		m.refresh()
	}
	return m, nil
}

func (m *Model[T]) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.clear):
		m.input.SetValue("")
		m.ctrl.ClearSearch()
		m.status, m.err = "", nil
		return m, nil

	case key.Matches(msg, m.keys.sort):
		idx := int(msg.String()[0] - '1')
		if idx < len(m.cfg.columns) {
			if err := m.ctrl.SetSort(m.cfg.columns[idx].Column); err != nil {
				m.err = err
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.refresh):
		m.status = "Reloading..."
		return m, m.load()
	}

	entity, ok := m.selected()
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.delete):
		m.view = ConfirmDeleteView
		return m, nil

	case key.Matches(msg, m.keys.rate) && m.cfg.rate != nil:
		if m.cfg.canRate != nil && !m.cfg.canRate(entity) {
			m.status = "You cannot rate your own recipe"
			return m, nil
		}
		m.view = RateView
		return m, nil

	case key.Matches(msg, m.keys.copy):
		if err := m.clipboard(m.cfg.clip(entity)); err != nil {
			m.err = fmt.Errorf("failed to copy: %w", err)
		} else {
			m.status = "Copied to clipboard"
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model[T]) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter", "down":
		m.view = BrowseView
		m.input.Blur()
		return m, nil
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if query := m.input.Value(); query != prev {
		if query == "" {
			m.ctrl.ClearSearch()
		} else {
			m.ctrl.SetSearchQuery(query)
		}
	}
	return m, cmd
}

func (m *Model[T]) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = BrowseView
		if it, ok := m.list.SelectedItem().(item); ok {
			return m, m.delete(it)
		}
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = BrowseView
	}
	return m, nil
}

func (m *Model[T]) handleRateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := msg.String()
	switch {
	case len(s) == 1 && s[0] >= '1' && s[0] <= '5':
		m.view = BrowseView
		if it, ok := m.list.SelectedItem().(item); ok {
			return m, m.rate(it, int(s[0]-'0'))
		}
	case s == "esc" || s == "q":
		m.view = BrowseView
	}
	return m, nil
}

// selected returns the entity under the cursor.
func (m *Model[T]) selected() (T, bool) {
	it, ok := m.list.SelectedItem().(item)
	if !ok {
		var zero T
		return zero, false
	}
	return m.ctrl.Get(it.id)
}

// refresh copies the controller's state into the list.
func (m *Model[T]) refresh() {
	m.snapshot = m.ctrl.Snapshot()
	items := make([]list.Item, len(m.snapshot.View))
	for i, entity := range m.snapshot.View {
		items[i] = m.cfg.item(entity)
	}
	m.list.SetItems(items)
}

func (m *Model[T]) waitForEvent() tea.Cmd {
	updates := m.ctrl.Updates()
	return func() tea.Msg {
		ev, ok := <-updates
		if !ok {
			return updatesClosedMsg()
		}
		return controllerEventMsg(ev)
	}
}

func (m *Model[T]) load() tea.Cmd {
	return func() tea.Msg {
		err := m.cfg.load(m.ctx)
		return actionDoneMsg("", err)
	}
}

func (m *Model[T]) delete(it item) tea.Cmd {
	return func() tea.Msg {
		err := m.ctrl.Delete(m.ctx, it.id)
		return actionDoneMsg(fmt.Sprintf("Deleted %s", it.title), err)
	}
}

func (m *Model[T]) rate(it item, stars int) tea.Cmd {
	return func() tea.Msg {
		err := m.cfg.rate(m.ctx, it.id, stars)
		return actionDoneMsg(fmt.Sprintf("Rated %s %d ★", it.title, stars), err)
	}
}

// View renders the UI based on the current view state.
func (m *Model[T]) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("%s (%d of %d)", m.cfg.title, len(m.snapshot.View), len(m.snapshot.Collection))))
	b.WriteString("\n")
	b.WriteString(styles.input.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderSort())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.list.View())
	b.WriteString("\n")

	switch m.view {
	case ConfirmDeleteView:
		b.WriteString(styles.warn.Render("Delete this entry? (y/n)"))
	case RateView:
		b.WriteString(styles.warn.Render("Rate 1-5 stars (esc to cancel)"))
	default:
		helpKeys := []key.Binding{m.keys.search, m.keys.clear, m.keys.sort, m.keys.delete, m.keys.copy, m.keys.quit}
		if m.cfg.rate != nil {
			helpKeys = slices.Insert(helpKeys, 4, m.keys.rate)
		}
		b.WriteString(m.help.ShortHelpView(helpKeys))
	}
	return b.String()
}

func (m *Model[T]) renderSort() string {
	parts := make([]string, len(m.cfg.columns))
	for i, c := range m.cfg.columns {
		label := fmt.Sprintf("%d %s", i+1, c.Label)
		if m.snapshot.Sort.Column == c.Column {
			arrow := "▲"
			if m.snapshot.Sort.Direction == tasks.Descending {
				arrow = "▼"
			}
			label = styles.ok.Render(label + " " + arrow)
		}
		parts[i] = label
	}
	return styles.header.Render("Sort: ") + strings.Join(parts, "  ")
}

func (m *Model[T]) renderStatus() string {
	switch {
	case m.snapshot.Search.Error != "":
		return styles.err.Render(m.snapshot.Search.Error)
	case m.err != nil:
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.snapshot.Search.Loading || m.snapshot.State != tasks.Idle:
		return fmt.Sprintf("%s %s...", m.spinner.View(), m.snapshot.State)
	case m.status != "":
		return styles.ok.Render(m.status)
	default:
		return styles.help.Render(" ")
	}
}
