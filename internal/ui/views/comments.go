package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
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

type commentItem struct {
	comment models.Comment
}

func (i commentItem) FilterValue() string { return i.comment.Content }

type commentDelegate struct {
	styles  *styles.Styles
	width   int
	focused bool
}

func (d *commentDelegate) Height() int                               { return 2 }
func (d *commentDelegate) Spacing() int                              { return 1 }
func (d *commentDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d *commentDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	c, ok := item.(commentItem)
	if !ok {
		return
	}

	selected := d.focused && index == m.Index()
	width := max(d.width-4, 20)

	header := d.styles.Author.Render(c.comment.Author) + " " +
		d.styles.Meta.Render(c.comment.CreatedAt.Local().Format(dateLayout))
	if c.comment.Edited() {
		header += d.styles.Meta.Render(" (edited)")
	}
	body := truncate(strings.ReplaceAll(strings.TrimSpace(c.comment.Content), "\n", " "), width-4)

	lineStyle := d.styles.ListItem
	if selected {
		lineStyle = d.styles.ListSelected
	}
	fmt.Fprintf(w, "%s\n%s", lineStyle.Width(width).Render(header), lineStyle.Width(width).Render(body))
}

// Comment section messages carry the task id so that responses arriving after
// the section was closed are dropped.
type commentsLoadedMsg struct {
	taskID int64
	out    store.Outcome
}

type commentSavedMsg struct {
	taskID int64
	out    store.Outcome
}

type commentDeletedMsg struct {
	taskID int64
	out    store.Outcome
}

type commentForm struct {
	sess     *session.Comment
	content  textarea.Model
	author   textinput.Model
	focusIdx int // 0=content, 1=author, 2=save
}

// CommentSection lists and edits the comments of one expanded task. It owns
// its own comment store, which is discarded with the section.
type CommentSection struct {
	ctx      context.Context
	taskID   int64
	store    *store.CommentStore
	list     list.Model
	delegate *commentDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	author   string
	logger   *log.Logger
	width    int

	focused bool
	loading bool

	form             *commentForm
	notice           string
	confirmingDelete bool
	deleteTargetID   int64
}

// NewCommentSection creates the section for taskID; author pre-fills new comments
func NewCommentSection(ctx context.Context, api store.CommentAPI, taskID int64, author string, logger *log.Logger) *CommentSection {
	if logger == nil {
		logger = log.Default()
	}
	s := styles.NewStyles()
	delegate := &commentDelegate{styles: s, width: 60}

	l := list.New([]list.Item{}, delegate, 60, 12)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return &CommentSection{
		ctx:      ctx,
		taskID:   taskID,
		store:    store.NewCommentStore(api, taskID, logger),
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		author:   author,
		logger:   logger,
		width:    60,
	}
}

// TaskID returns the task whose comments are shown
func (s *CommentSection) TaskID() int64 { return s.taskID }

// Focused reports whether keys go to the section
func (s *CommentSection) Focused() bool { return s.focused }

// Focus gives the section keyboard focus
func (s *CommentSection) Focus() {
	s.focused = true
	s.delegate.focused = true
}

// Blur returns keyboard focus to the task list
func (s *CommentSection) Blur() {
	s.focused = false
	s.delegate.focused = false
}

// SetWidth resizes the section
func (s *CommentSection) SetWidth(width int) {
	s.width = width
	s.delegate.width = width
	s.list.SetSize(width, 12)
	if s.form != nil {
		s.form.content.SetWidth(clamp(width-6, 20, 60))
	}
}

// Items returns the loaded comments
func (s *CommentSection) Items() []models.Comment {
	return s.store.Items()
}

// Init loads the comments
func (s *CommentSection) Init() tea.Cmd {
	s.loading = true
	return s.load()
}

func (s *CommentSection) load() tea.Cmd {
	st, ctx, taskID := s.store, s.ctx, s.taskID
	return func() tea.Msg {
		return commentsLoadedMsg{taskID: taskID, out: st.Load(ctx)}
	}
}

// Update handles a message addressed to this section
func (s *CommentSection) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case commentsLoadedMsg:
		s.loading = false
		s.syncItems()
		return nil

	case commentSavedMsg:
		created := false
		// a failed save keeps the form open for retry
		if s.form != nil && msg.out.Status != store.StatusFailed {
			created = s.form.sess.Mode() == session.ModeCreate
			s.form = nil
		}
		s.syncItems()
		if created && msg.out.OK() {
			s.list.Select(0)
		}
		return nil

	case commentDeletedMsg:
		s.syncItems()
		return nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return nil
}

func (s *CommentSection) syncItems() {
	comments := s.store.Items()
	items := make([]list.Item, len(comments))
	for i, c := range comments {
		items[i] = commentItem{comment: c}
	}
	s.list.SetItems(items)
}

func (s *CommentSection) handleKey(msg tea.KeyMsg) tea.Cmd {
	// Blocking notice - any key closes it
	if s.notice != "" {
		s.notice = ""
		return nil
	}

	if s.confirmingDelete {
		return s.updateConfirmDelete(msg)
	}

	if s.form != nil {
		return s.updateForm(msg)
	}

	switch {
	case key.Matches(msg, s.keys.Quit):
		return tea.Quit
	case key.Matches(msg, s.keys.Back), key.Matches(msg, s.keys.Tab):
		s.Blur()
	case key.Matches(msg, s.keys.Up):
		s.list.CursorUp()
	case key.Matches(msg, s.keys.Down):
		s.list.CursorDown()
	case key.Matches(msg, s.keys.New):
		s.startForm(nil)
		return textinput.Blink
	case key.Matches(msg, s.keys.Edit):
		if item, ok := s.list.SelectedItem().(commentItem); ok {
			c := item.comment
			s.startForm(&c)
			return textinput.Blink
		}
	case key.Matches(msg, s.keys.Delete):
		if item, ok := s.list.SelectedItem().(commentItem); ok {
			s.confirmingDelete = true
			s.deleteTargetID = item.comment.ID
		}
	case key.Matches(msg, s.keys.Reload):
		s.loading = true
		return s.load()
	}
	return nil
}

func (s *CommentSection) updateConfirmDelete(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, s.keys.Yes):
		s.confirmingDelete = false
		st, ctx, taskID, id := s.store, s.ctx, s.taskID, s.deleteTargetID
		return func() tea.Msg {
			// the y/n prompt already asked
			return commentDeletedMsg{taskID: taskID, out: st.Delete(ctx, id, store.AlwaysConfirm)}
		}
	case key.Matches(msg, s.keys.No):
		s.confirmingDelete = false
	}
	return nil
}

func (s *CommentSection) startForm(c *models.Comment) {
	content := textarea.New()
	content.Placeholder = "Write a comment..."
	content.CharLimit = 2000
	content.SetWidth(clamp(s.width-6, 20, 60))
	content.SetHeight(3)
	content.ShowLineNumbers = false

	author := textinput.New()
	author.Placeholder = "Your name"
	author.CharLimit = 100

	f := &commentForm{
		sess:    session.NewComment(s.store, c),
		content: content,
		author:  author,
	}
	if c != nil {
		f.content.SetValue(c.Content)
		f.author.SetValue(c.Author)
	} else if s.author != "" {
		f.author.SetValue(s.author)
		setField(s.logger, f.sess, session.FieldAuthor, s.author)
	}
	s.form = f
	s.updateFormFocus()
}

func (s *CommentSection) updateFormFocus() {
	s.form.content.Blur()
	s.form.author.Blur()
	switch s.form.focusIdx {
	case 0:
		s.form.content.Focus()
	case 1:
		s.form.author.Focus()
	}
}

func (s *CommentSection) updateForm(msg tea.KeyMsg) tea.Cmd {
	f := s.form
	// inputs are disabled while the request is in flight
	if f.sess.Submitting() {
		return nil
	}

	switch {
	case key.Matches(msg, s.keys.Back):
		s.form = nil
		return nil
	case key.Matches(msg, s.keys.Save):
		return s.submitForm()
	case key.Matches(msg, s.keys.ShiftTab):
		f.focusIdx = (f.focusIdx + 2) % 3
		s.updateFormFocus()
		return nil
	case key.Matches(msg, s.keys.Tab):
		f.focusIdx = (f.focusIdx + 1) % 3
		s.updateFormFocus()
		return nil
	case key.Matches(msg, s.keys.Enter) && f.focusIdx != 0:
		if f.focusIdx == 2 {
			return s.submitForm()
		}
		f.focusIdx++
		s.updateFormFocus()
		return nil
	}

	var cmd tea.Cmd
	switch f.focusIdx {
	case 0:
		f.content, cmd = f.content.Update(msg)
		setField(s.logger, f.sess, session.FieldContent, f.content.Value())
	case 1:
		f.author, cmd = f.author.Update(msg)
		setField(s.logger, f.sess, session.FieldAuthor, f.author.Value())
	}
	return cmd
}

func (s *CommentSection) submitForm() tea.Cmd {
	commit, err := s.form.sess.Start(s.ctx)
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			s.notice = verr.Message
		}
		return nil
	}
	taskID := s.taskID
	return func() tea.Msg {
		return commentSavedMsg{taskID: taskID, out: commit()}
	}
}

// View renders the section
func (s *CommentSection) View() string {
	st := s.styles
	var parts []string

	count := len(s.list.Items())
	parts = append(parts, st.Title.Render(fmt.Sprintf("Comments (%d)", count)))

	if msg := s.store.LastError(); msg != "" {
		parts = append(parts, st.Banner.Render(msg))
	}

	switch {
	case s.loading && !s.store.Loaded():
		parts = append(parts, st.TitleMuted.Render("Loading comments..."))
	case count == 0:
		parts = append(parts, st.TitleMuted.Render("No comments yet."))
	default:
		parts = append(parts, s.list.View())
	}

	if s.confirmingDelete {
		parts = append(parts, s.renderDeleteConfirm())
	}
	if s.form != nil {
		parts = append(parts, s.renderForm())
	}
	if s.notice != "" {
		parts = append(parts, st.Modal.Render(st.Notice.Render(s.notice)+"\n"+st.TitleMuted.Render("Press any key to continue")))
	}

	if s.focused && s.form == nil && !s.confirmingDelete {
		parts = append(parts, st.Help.Render(
			fmt.Sprintf("%s new • %s edit • %s del • %s reload • %s back",
				st.HelpKey.Render("n"),
				st.HelpKey.Render("e"),
				st.HelpKey.Render("d"),
				st.HelpKey.Render("r"),
				st.HelpKey.Render("esc"),
			),
		))
	} else if !s.focused {
		parts = append(parts, st.TitleMuted.Render("tab: focus comments"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (s *CommentSection) renderDeleteConfirm() string {
	st := s.styles
	return st.Modal.Render(lipgloss.JoinVertical(lipgloss.Left,
		st.Title.Foreground(styles.Current.Error).Render("Delete Comment?"),
		st.TitleMuted.Render(s.store.ConfirmDeletePrompt()),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			st.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			st.Button.Render(" N - No "),
		),
	))
}

func (s *CommentSection) renderForm() string {
	st := s.styles
	f := s.form

	contentStyle := st.Input
	authorStyle := st.Input
	btnStyle := st.Button
	switch f.focusIdx {
	case 0:
		contentStyle = st.InputFocused
	case 1:
		authorStyle = st.InputFocused
	case 2:
		btnStyle = st.ButtonFocused
	}

	title := "Add Comment"
	label := " Add Comment "
	if f.sess.Mode() == session.ModeEdit {
		title = "Edit Comment"
		label = " Update "
	}
	if f.sess.Submitting() {
		label = " Saving... "
	}

	inputWidth := clamp(s.width-6, 20, 60)
	return lipgloss.JoinVertical(lipgloss.Left,
		st.Title.Render(title),
		"Comment *",
		contentStyle.Render(f.content.View()),
		"Name *",
		authorStyle.Width(inputWidth).Render(f.author.View()),
		btnStyle.Render(label),
		st.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)
}
