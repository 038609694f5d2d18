package ui

import (
	"context"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/taskdeck/internal/store"
	"github.com/tgienger/taskdeck/internal/ui/views"
)

// Client is the remote API used by the TUI; *api.Client implements it
type Client interface {
	store.TaskAPI
	store.CommentAPI
}

// Options configure the application
type Options struct {
	// Author pre-fills the author of new comments
	Author string
	// MarkdownStyle is a glamour style name; empty follows the terminal
	MarkdownStyle string
	Logger        *log.Logger
}

// App is the root model
type App struct {
	tasks    *store.TaskStore
	taskList *views.TaskListView
	width    int
	height   int
}

// NewApp creates a new application backed by client
func NewApp(ctx context.Context, client Client, opts Options) *App {
	tasks := store.NewTaskStore(client, opts.Logger)
	taskList := views.NewTaskListView(ctx, tasks, client, opts.Author, opts.Logger)
	taskList.SetMarkdownStyle(opts.MarkdownStyle)
	return &App{
		tasks:    tasks,
		taskList: taskList,
	}
}

// Tasks exposes the task store
func (a *App) Tasks() *store.TaskStore { return a.tasks }

func (a *App) Init() tea.Cmd {
	return a.taskList.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case tea.KeyMsg:
		// ctrl+c always quits, even from a form
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
	}

	_, cmd := a.taskList.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	return a.taskList.View()
}
