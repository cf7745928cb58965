package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/fincast/internal/model"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func testData() Data {
	var history []model.Transaction
	for _, m := range []time.Month{time.July, time.August, time.September} {
		history = append(history,
			model.Transaction{Type: model.Expense, Amount: 1000, Category: "rent", Date: time.Date(2026, m, 1, 0, 0, 0, 0, time.UTC)},
			model.Transaction{Type: model.Expense, Amount: 300, Category: "food", Date: time.Date(2026, m, 12, 0, 0, 0, 0, time.UTC)},
		)
	}
	stored := []model.StoredPrediction{{
		AccountID: model.AllAccounts,
		Prediction: model.Prediction{
			Month:      time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
			Total:      1200,
			Categories: map[string]model.CategoryForecast{"rent": {Amount: 1000}, "food": {Amount: 200}},
		},
	}}
	return Data{History: history, Stored: stored}
}

func loadedApp(t *testing.T) App {
	t.Helper()
	a := NewApp(Options{
		Load: func(context.Context) (Data, error) { return testData(), nil },
		Now:  testNow,
	})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.Update(DataLoadedMsg{Data: testData(), LoadTime: time.Millisecond})
	return m.(App)
}

func press(t *testing.T, a App, msgs ...tea.KeyMsg) App {
	t.Helper()
	var m tea.Model = a
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m.(App)
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestLoadedForecast(t *testing.T) {
	a := loadedApp(t)
	if !a.loaded || a.loading {
		t.Fatal("app not marked loaded")
	}
	if len(a.predictions) != 3 {
		t.Fatalf("predictions = %d, want default 3", len(a.predictions))
	}
	if a.predictions[0].Total != 1300 {
		t.Errorf("next month total = %v, want 1300", a.predictions[0].Total)
	}
	if len(a.reports) != 1 || a.reports[0].ActualTotal != 1300 {
		t.Errorf("reports = %+v, want one September report with actual 1300", a.reports)
	}

	view := a.View()
	for _, want := range []string{"Nov 2026", "Jan 2027", "rent", "food"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestMonthsKeysClamp(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if a.months != 4 || len(a.predictions) != 4 {
		t.Fatalf("after right: months = %d, predictions = %d", a.months, len(a.predictions))
	}

	for i := 0; i < 20; i++ {
		a = press(t, a, tea.KeyMsg{Type: tea.KeyRight})
	}
	if a.months != maxMonths {
		t.Errorf("months = %d, want clamp at %d", a.months, maxMonths)
	}

	for i := 0; i < 20; i++ {
		a = press(t, a, tea.KeyMsg{Type: tea.KeyLeft})
	}
	if a.months != minMonths || len(a.predictions) != 1 {
		t.Errorf("months = %d, want clamp at %d", a.months, minMonths)
	}
}

func TestTabsAndQuit(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, tea.KeyMsg{Type: tea.KeyTab})
	if a.activeTab != 1 {
		t.Fatalf("activeTab = %d after tab, want 1", a.activeTab)
	}
	if !strings.Contains(a.View(), "Sep 2026") {
		t.Error("accuracy view missing Sep 2026")
	}
	a = press(t, a, runeKey('f'))
	if a.activeTab != 0 {
		t.Fatalf("activeTab = %d after f, want 0", a.activeTab)
	}

	_, cmd := a.Update(runeKey('q'))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestLoadError(t *testing.T) {
	a := NewApp(Options{Now: testNow})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = m.Update(DataLoadedMsg{Err: errors.New("db locked")})
	view := m.View()
	if !strings.Contains(view, "db locked") || !strings.Contains(view, "No transactions yet") {
		t.Errorf("view = %q", view)
	}
}

func TestLoadingIgnoresMonthKeys(t *testing.T) {
	a := NewApp(Options{Now: testNow, Months: 5})
	a = press(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if a.months != 5 {
		t.Errorf("months changed while loading: %d", a.months)
	}
}
