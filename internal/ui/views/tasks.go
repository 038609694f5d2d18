package views

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/session"
	"github.com/tgienger/taskdeck/internal/store"
	"github.com/tgienger/taskdeck/internal/ui/keys"
	"github.com/tgienger/taskdeck/internal/ui/styles"
)

// each card is three lines plus a blank separator
const cardHeight = 4

type tasksLoadedMsg struct {
	out store.Outcome
}

// taskChangedMsg reports a toggle, delete or refresh of one task
type taskChangedMsg struct {
	id  int64
	out store.Outcome
}

type taskSavedMsg struct {
	out store.Outcome
}

type taskForm struct {
	sess      *session.Task
	title     textinput.Model
	desc      textarea.Model
	completed bool
	focusIdx  int // 0=title, 1=desc, 2=completed (edit only), 3=save
}

func (f *taskForm) fields() int {
	if f.sess.Mode() == session.ModeEdit {
		return 4
	}
	return 3
}

// TaskListView shows the task cards and the comment section of the expanded task
type TaskListView struct {
	ctx      context.Context
	tasks    *store.TaskStore
	comments store.CommentAPI
	author   string
	logger   *log.Logger
	styles   *styles.Styles
	keys     keys.KeyMap

	width  int
	height int

	spinner spinner.Model
	loading bool
	busy    map[int64]int // in-flight toggles and deletes per task

	cursor  int
	scrollY int

	// Expanded task and its comments
	expandedID int64
	section    *CommentSection

	// Task creation/editing
	form   *taskForm
	notice string

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string

	showHelpPopup bool

	mdStyle string
}

// NewTaskListView creates the task list. comments is used to build a comment
// store each time a task is expanded.
func NewTaskListView(ctx context.Context, tasks *store.TaskStore, comments store.CommentAPI, author string, logger *log.Logger) *TaskListView {
	if logger == nil {
		logger = log.Default()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Current.Primary)

	return &TaskListView{
		ctx:      ctx,
		tasks:    tasks,
		comments: comments,
		author:   author,
		logger:   logger,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		spinner:  sp,
		busy:     make(map[int64]int),
		mdStyle:  markdownStyle(""),
	}
}

// SetMarkdownStyle selects the glamour style of expanded descriptions
func (v *TaskListView) SetMarkdownStyle(style string) {
	v.mdStyle = markdownStyle(style)
}

// Init loads the tasks
func (v *TaskListView) Init() tea.Cmd {
	return v.reload()
}

func (v *TaskListView) reload() tea.Cmd {
	v.loading = true
	st, ctx := v.tasks, v.ctx
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		return tasksLoadedMsg{out: st.Load(ctx)}
	})
}

func (v *TaskListView) refresh(id int64) tea.Cmd {
	st, ctx := v.tasks, v.ctx
	return func() tea.Msg {
		_, out := st.Refresh(ctx, id)
		return taskChangedMsg{id: id, out: out}
	}
}

func (v *TaskListView) selected() (models.Task, bool) {
	items := v.tasks.Items()
	if v.cursor < 0 || v.cursor >= len(items) {
		return models.Task{}, false
	}
	return items[v.cursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		if v.form != nil {
			v.form.desc.SetWidth(clamp(contentWidth-10, 20, 60))
		}
		if v.section != nil {
			v.section.SetWidth(contentWidth - 4)
		}
		return v, nil

	case spinner.TickMsg:
		if !v.loading && len(v.busy) == 0 {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tasksLoadedMsg:
		v.loading = false
		v.clampCursor()
		// the expanded task may be gone after a reload
		if v.section != nil {
			if _, ok := v.tasks.Get(v.expandedID); !ok {
				v.collapse()
			}
		}
		return v, nil

	case taskChangedMsg:
		if n := v.busy[msg.id]; n > 1 {
			v.busy[msg.id] = n - 1
		} else {
			delete(v.busy, msg.id)
		}
		if _, ok := v.tasks.Get(msg.id); !ok && msg.id == v.expandedID {
			v.collapse()
		}
		v.clampCursor()
		return v, nil

	case taskSavedMsg:
		if v.form == nil || msg.out.Status == store.StatusFailed {
			// failed saves keep the form and its draft for retry
			return v, nil
		}
		if v.form.sess.Mode() == session.ModeCreate && msg.out.OK() {
			v.cursor = 0
			v.scrollY = 0
		}
		v.form = nil
		return v, nil

	case commentsLoadedMsg:
		return v, v.forwardToSection(msg.taskID, msg)
	case commentSavedMsg:
		return v, v.forwardToSection(msg.taskID, msg)
	case commentDeletedMsg:
		return v, v.forwardToSection(msg.taskID, msg)

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		// Validation notices block until dismissed
		if v.notice != "" {
			v.notice = ""
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.form != nil {
			return v.updateEditing(msg)
		}

		if v.section != nil && v.section.Focused() {
			return v, v.section.Update(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

// responses for a section that has since been closed are dropped
func (v *TaskListView) forwardToSection(taskID int64, msg tea.Msg) tea.Cmd {
	if v.section == nil || v.section.TaskID() != taskID {
		return nil
	}
	return v.section.Update(msg)
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < v.tasks.Len()-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startForm(nil)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if task, ok := v.selected(); ok {
			v.startForm(&task)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if task, ok := v.selected(); ok {
			return v, v.toggle(task)
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if task, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = task.ID
			v.deleteTargetName = task.Title
		}
		return v, nil

	case key.Matches(msg, v.keys.Comments):
		if task, ok := v.selected(); ok {
			return v, v.toggleComments(task.ID)
		}
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		if v.section != nil {
			v.section.Focus()
		}
		return v, nil

	case key.Matches(msg, v.keys.Reload):
		return v, v.reload()
	}

	return v, nil
}

func (v *TaskListView) toggle(task models.Task) tea.Cmd {
	v.busy[task.ID]++
	st, ctx, id, completed := v.tasks, v.ctx, task.ID, !task.Completed
	return tea.Batch(v.spinner.Tick, func() tea.Msg {
		_, out := st.ToggleComplete(ctx, id, completed)
		return taskChangedMsg{id: id, out: out}
	})
}

// toggleComments expands id, or collapses it when it is already expanded
func (v *TaskListView) toggleComments(id int64) tea.Cmd {
	var cmds []tea.Cmd
	if v.section != nil {
		closed := v.expandedID
		v.collapse()
		cmds = append(cmds, v.refresh(closed))
		if closed == id {
			return tea.Batch(cmds...)
		}
	}

	v.expandedID = id
	v.section = NewCommentSection(v.ctx, v.comments, id, v.author, v.logger)
	v.section.SetWidth(styles.ContentWidth(v.width) - 4)
	cmds = append(cmds, v.section.Init())
	return tea.Batch(cmds...)
}

// collapse discards the comment section and its store
func (v *TaskListView) collapse() {
	v.section = nil
	v.expandedID = 0
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Yes):
		v.confirmingDelete = false
		v.busy[v.deleteTargetID]++
		st, ctx, id := v.tasks, v.ctx, v.deleteTargetID
		return v, tea.Batch(v.spinner.Tick, func() tea.Msg {
			// the y/n prompt already asked
			return taskChangedMsg{id: id, out: st.Delete(ctx, id, store.AlwaysConfirm)}
		})
	case key.Matches(msg, v.keys.No):
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *TaskListView) startForm(task *models.Task) {
	contentWidth := styles.ContentWidth(v.width)

	title := textinput.New()
	title.Placeholder = "Enter task title..."
	title.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Enter task description..."
	desc.CharLimit = 5000
	desc.SetWidth(clamp(contentWidth-10, 20, 60))
	desc.SetHeight(5)
	desc.ShowLineNumbers = false

	f := &taskForm{
		sess:  session.NewTask(v.tasks, task),
		title: title,
		desc:  desc,
	}
	if task != nil {
		f.title.SetValue(task.Title)
		f.desc.SetValue(task.Description)
		f.completed = task.Completed
	}
	v.form = f
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.form.title.Blur()
	v.form.desc.Blur()
	switch v.form.focusIdx {
	case 0:
		v.form.title.Focus()
	case 1:
		v.form.desc.Focus()
	}
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := v.form
	// inputs are disabled while the request is in flight
	if f.sess.Submitting() {
		return v, nil
	}

	n := f.fields()
	saveIdx := n - 1
	switch {
	case key.Matches(msg, v.keys.Back):
		v.form = nil
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.ShiftTab):
		f.focusIdx = (f.focusIdx + n - 1) % n
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		f.focusIdx = (f.focusIdx + 1) % n
		v.updateEditFocus()
		return v, nil

	case f.focusIdx == 2 && saveIdx == 3 && (key.Matches(msg, v.keys.Enter) || msg.String() == " "):
		f.completed = !f.completed
		setField(v.logger, f.sess, session.FieldCompleted, fmt.Sprint(f.completed))
		return v, nil

	case key.Matches(msg, v.keys.Enter) && f.focusIdx != 1:
		if f.focusIdx == saveIdx {
			return v, v.saveTask()
		}
		f.focusIdx++
		v.updateEditFocus()
		return v, nil
	}

	var cmd tea.Cmd
	switch f.focusIdx {
	case 0:
		f.title, cmd = f.title.Update(msg)
		setField(v.logger, f.sess, session.FieldTitle, f.title.Value())
	case 1:
		f.desc, cmd = f.desc.Update(msg)
		setField(v.logger, f.sess, session.FieldDescription, f.desc.Value())
	}
	return v, cmd
}

func (v *TaskListView) saveTask() tea.Cmd {
	commit, err := v.form.sess.Start(v.ctx)
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			v.notice = verr.Message
		}
		return nil
	}
	return func() tea.Msg {
		return taskSavedMsg{out: commit()}
	}
}

func (v *TaskListView) clampCursor() {
	if n := v.tasks.Len(); v.cursor >= n {
		v.cursor = max(0, n-1)
	}
	v.ensureVisible()
}

func (v *TaskListView) ensureVisible() {
	visibleItems := max((v.height-8)/cardHeight, 1)

	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.notice != "" {
		return v.renderNotice()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.form != nil {
		return v.renderEditForm()
	}

	var b strings.Builder

	b.WriteString(v.renderHeader())
	b.WriteString("\n")

	if msg := v.tasks.LastError(); msg != "" {
		b.WriteString(v.styles.Banner.Width(styles.ContentWidth(v.width) - 2).Render(msg))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(v.renderTaskList())

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	title := s.Title.Render("Tasks") + " " + s.TitleMuted.Render(fmt.Sprintf("(%d)", v.tasks.Len()))
	if v.loading {
		title += " " + v.spinner.View()
	}
	return title
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles
	items := v.tasks.Items()

	if len(items) == 0 {
		if v.loading && !v.tasks.Loaded() {
			return v.spinner.View() + " " + s.TitleMuted.Render("Loading tasks...")
		}
		return s.TitleMuted.Render("No tasks yet. Press 'n' to create one.")
	}

	visibleItems := max((v.height-8)/cardHeight, 1)
	endIdx := min(v.scrollY+visibleItems, len(items))

	var cards []string
	for i := v.scrollY; i < endIdx; i++ {
		cards = append(cards, v.renderTaskItem(items[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	status := s.StatusPending.Render("○ Pending")
	if task.Completed {
		status = s.StatusDone.Render("✓ Completed")
	}
	if v.busy[task.ID] > 0 {
		status = v.spinner.View() + " " + status
	}
	titleWidth := width - lipgloss.Width(status) - 3
	titleLine := lipgloss.NewStyle().Width(titleWidth+1).Render(truncate(task.Title, titleWidth)) + " " + status

	meta := "Created " + task.CreatedAt.Local().Format(dateLayout)
	if task.Updated() {
		meta += " · Updated " + task.UpdatedAt.Local().Format(dateLayout)
	}
	meta += fmt.Sprintf(" · %d comments", task.CommentsCount)

	expanded := task.ID == v.expandedID && v.section != nil

	var desc string
	switch {
	case expanded && strings.TrimSpace(task.Description) != "":
		desc = renderMarkdown(task.Description, v.mdStyle, width-4)
	case strings.TrimSpace(task.Description) == "":
		desc = s.TitleMuted.Render("No description")
	default:
		desc = s.TitleMuted.Render(truncate(firstLine(task.Description), width-4))
	}

	lines := []string{titleLine, desc, s.Meta.Render(truncate(meta, width-4))}
	if expanded {
		lines = append(lines, "", v.section.View())
	}

	cardStyle := s.Card
	if selected {
		cardStyle = s.CardSelected
	}
	return cardStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...)) + "\n"
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	f := v.form
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "Create New Task"
	btnLabel := " Create Task "
	if f.sess.Mode() == session.ModeEdit {
		formTitle = "Edit Task"
		btnLabel = " Update Task "
	}
	if f.sess.Submitting() {
		btnLabel = " Saving... "
	}

	titleStyle := s.Input
	descStyle := s.Input
	btnStyle := s.Button
	completedStyle := s.TitleMuted
	switch f.focusIdx {
	case 0:
		titleStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case f.fields() - 1:
		btnStyle = s.ButtonFocused
	case 2:
		completedStyle = s.HelpKey
	}

	// Dynamic input width based on content width
	inputWidth := clamp(contentWidth-6, 20, 60)

	rows := []string{
		s.Title.Render(formTitle),
		"",
		"Title *",
		titleStyle.Width(inputWidth).Render(f.title.View()),
		"",
		"Description",
		descStyle.Render(f.desc.View()),
		"",
	}
	if f.sess.Mode() == session.ModeEdit {
		box := "[ ]"
		if f.completed {
			box = "[x]"
		}
		rows = append(rows, completedStyle.Render(box+" Mark as completed"), "")
	}

	if msg := v.tasks.LastError(); msg != "" {
		rows = append(rows, s.Banner.Width(inputWidth).Render(msg), "")
	}

	rows = append(rows,
		btnStyle.Render(btnLabel),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)

	// Center within content width, then center that in terminal
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s new • %s edit • %s done • %s del • %s comments • %s reload • %s quit",
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("x"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("c"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↑/↓") + "    move",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("x") + "      toggle completed",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("c/↵") + "    show/hide comments",
		s.HelpKey.Render("tab") + "    focus comments",
		s.HelpKey.Render("r") + "      reload",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Modal.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderNotice() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Notice.Render(v.notice),
		"",
		s.TitleMuted.Render("Press any key to continue"),
	)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Modal.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.Title.Render(truncate(v.deleteTargetName, contentWidth-8)),
		lipgloss.NewStyle().Width(clamp(contentWidth-8, 20, 60)).Align(lipgloss.Center).Render(
			s.TitleMuted.Render(v.tasks.ConfirmDeletePrompt()),
		),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
