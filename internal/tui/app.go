// Package tui provides the interactive Bubble Tea forecast dashboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/fincast/internal/cli"
	"github.com/theirongolddev/fincast/internal/forecast"
	"github.com/theirongolddev/fincast/internal/model"
	"github.com/theirongolddev/fincast/internal/tui/components"
	"github.com/theirongolddev/fincast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	minMonths     = 1
	maxMonths     = 12
	defaultMonths = 3

	minTerminalWidth = 60
	maxContentWidth  = 160
)

// Data is everything the dashboard renders from.
type Data struct {
	History []model.Transaction
	Stored  []model.StoredPrediction
}

// Loader fetches dashboard data. It runs off the UI goroutine.
type Loader func(ctx context.Context) (Data, error)

// Options configures a new App.
type Options struct {
	Load      Loader
	Now       time.Time
	Months    int
	AccountID string
}

// DataLoadedMsg is sent when the loader finishes.
type DataLoadedMsg struct {
	Data     Data
	Err      error
	LoadTime time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	data     Data
	loaded   bool
	loading  bool
	loadErr  error
	loadTime time.Duration

	// Derived for the current month count
	months      int
	predictions []model.Prediction
	categories  []string
	reports     []model.AccuracyReport
	table       table.Model

	// UI state
	width     int
	height    int
	activeTab int
	spinner   spinner.Model
}

// NewApp creates a new dashboard model.
func NewApp(opts Options) App {
	months := opts.Months
	if months < minMonths {
		months = defaultMonths
	}
	if months > maxMonths {
		months = maxMonths
	}
	if opts.AccountID == "" {
		opts.AccountID = model.AllAccounts
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return App{
		opts:    opts,
		months:  months,
		loading: true,
		spinner: sp,
		table:   table.New(table.WithFocused(true)),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(loadCmd(a.opts.Load), a.spinner.Tick)
}

func loadCmd(load Loader) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		data, err := load(ctx)
		return DataLoadedMsg{Data: data, Err: err, LoadTime: time.Since(start)}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.rebuildTable()
		return a, nil

	case DataLoadedMsg:
		a.loading = false
		a.loaded = true
		a.loadErr = msg.Err
		a.loadTime = msg.LoadTime
		if msg.Err == nil {
			a.data = msg.Data
		}
		a.recompute()
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.updateKey(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return a, tea.Quit
	}
	if a.loading {
		return a, nil
	}

	switch key {
	case "left", "h":
		if a.months > minMonths {
			a.months--
			a.recompute()
		}
		return a, nil
	case "right", "l":
		if a.months < maxMonths {
			a.months++
			a.recompute()
		}
		return a, nil
	case "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		a.rebuildTable()
		return a, nil
	case "r":
		a.loading = true
		return a, tea.Batch(loadCmd(a.opts.Load), a.spinner.Tick)
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
			a.rebuildTable()
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

// recompute regenerates the forecast and accuracy reports for the current
// month count.
func (a *App) recompute() {
	a.predictions = forecast.GeneratePredictions(a.data.History, a.months, a.opts.Now)
	a.categories = forecast.Categories(a.data.History)

	var stored []model.StoredPrediction
	for _, sp := range a.data.Stored {
		if sp.AccountID == a.opts.AccountID {
			stored = append(stored, sp)
		}
	}
	a.reports = forecast.CompareActuals(stored, a.data.History, a.opts.Now)
	a.rebuildTable()
}

func (a *App) rebuildTable() {
	var (
		headers []string
		rows    []table.Row
	)
	if a.activeTab == 0 {
		headers, rows = forecastRows(a.predictions, a.categories)
	} else {
		headers, rows = accuracyRows(a.reports)
	}

	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		w := lipgloss.Width(h)
		for _, r := range rows {
			if cw := lipgloss.Width(r[i]); cw > w {
				w = cw
			}
		}
		cols[i] = table.Column{Title: h, Width: w}
	}

	t := theme.Active
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(t.Accent).BorderForeground(t.Border).Bold(true)
	styles.Selected = styles.Selected.Foreground(t.TextPrimary).Background(t.Surface).Bold(false)

	height := len(rows) + 1
	if a.height > 0 && height > a.height-12 {
		height = max(3, a.height-12)
	}

	// Columns and rows must agree before SetRows renders.
	a.table.SetRows(nil)
	a.table.SetColumns(cols)
	a.table.SetRows(rows)
	a.table.SetHeight(height)
	a.table.SetWidth(max(10, a.contentWidth()-4))
	a.table.SetStyles(styles)
}

func forecastRows(preds []model.Prediction, categories []string) ([]string, []table.Row) {
	headers := append([]string{"Month"}, categories...)
	headers = append(headers, "Total")

	rows := make([]table.Row, 0, len(preds))
	for _, p := range preds {
		row := table.Row{p.Label()}
		for _, c := range categories {
			cf, ok := p.Categories[c]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%s %3.0f%%", cli.FormatCompactMoney(cf.Amount), cf.Confidence*100))
		}
		row = append(row, cli.FormatCompactMoney(p.Total))
		rows = append(rows, row)
	}
	return headers, rows
}

func accuracyRows(reports []model.AccuracyReport) ([]string, []table.Row) {
	headers := []string{"Month", "Predicted", "Actual", "Difference", "Diff %"}
	rows := make([]table.Row, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, table.Row{
			r.Month.Format("Jan 2006"),
			cli.FormatMoney(r.PredictedTotal),
			cli.FormatMoney(r.ActualTotal),
			cli.FormatDelta(r.Difference),
			fmt.Sprintf("%.1f%%", r.PercentageDiff),
		})
	}
	return headers, rows
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  fincast needs at least %d columns.\n", a.width, minTerminalWidth)
	}
	if !a.loaded {
		return a.viewLoading()
	}
	return a.viewMain()
}

func (a App) viewLoading() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Accent).
		Padding(1, 3).
		Render(
			lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Render("◈ fincast") +
				lipgloss.NewStyle().Foreground(t.TextMuted).Render(" · Forecast") +
				"\n\n" + a.spinner.View() +
				lipgloss.NewStyle().Foreground(t.TextMuted).Render(" Loading transactions..."),
		)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewMain() string {
	t := theme.Active
	cw := a.contentWidth()

	var b strings.Builder
	b.WriteString(components.RenderTabBar(a.activeTab))
	b.WriteString("\n\n")

	if a.loadErr != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Negative).Render("  Could not load data: " + a.loadErr.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(components.MetricRow(a.metrics(), cw))
	b.WriteString("\n")

	switch {
	case a.activeTab == 0 && len(a.predictions) == 0:
		b.WriteString(components.ContentCard("Forecast", "No transactions yet. Run `fincast import FILE` first.", cw))
	case a.activeTab == 1 && len(a.reports) == 0:
		b.WriteString(components.ContentCard("Accuracy", "No past predictions to compare. Forecasts are stored each time you run `fincast forecast`.", cw))
	default:
		title := fmt.Sprintf("Next %s", cli.FormatMonths(a.months))
		if a.activeTab == 1 {
			title = "Predicted vs actual"
		}
		b.WriteString(components.ContentCard(title, a.table.View(), cw))
	}
	b.WriteString("\n")

	info := fmt.Sprintf("%s · %s · loaded in %s", a.opts.AccountID, a.opts.Now.Format("2006-01-02"), a.loadTime.Round(time.Millisecond))
	b.WriteString(components.RenderStatusBar(cw, info))
	return b.String()
}

func (a App) metrics() []components.Metric {
	t := theme.Active
	if a.activeTab == 1 {
		var predicted, actual float64
		for _, r := range a.reports {
			predicted += r.PredictedTotal
			actual += r.ActualTotal
		}
		return []components.Metric{
			{Label: "Months compared", Value: cli.FormatNumber(int64(len(a.reports)))},
			{Label: "Predicted", Value: cli.FormatCompactMoney(predicted)},
			{Label: "Actual", Value: cli.FormatCompactMoney(actual)},
			{Label: "Difference", Value: cli.FormatDelta(actual - predicted)},
		}
	}

	var next, conf float64
	var n int
	totals := make([]float64, len(a.predictions))
	for i, p := range a.predictions {
		totals[i] = p.Total
		for _, cf := range p.Categories {
			conf += cf.Confidence
			n++
		}
	}
	if len(a.predictions) > 0 {
		next = a.predictions[0].Total
	}
	avg := 0.0
	if n > 0 {
		avg = conf / float64(n)
	}
	return []components.Metric{
		{Label: "Next month", Value: cli.FormatCompactMoney(next), Note: cli.RenderSparkline(totals)},
		{Label: "Avg confidence", Value: cli.FormatPercent(avg), Color: theme.ForConfidence(avg)},
		{Label: "Categories", Value: cli.FormatNumber(int64(len(a.categories)))},
		{Label: "Transactions", Value: cli.FormatNumber(int64(len(a.data.History))), Color: t.TextPrimary},
	}
}
