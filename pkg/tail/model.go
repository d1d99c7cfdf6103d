/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package tail renders a dashboard's live error stream in the terminal.
package tail

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mfreeman451/lineradar/pkg/models"
)

const (
	maxLines     = 500
	chromeHeight = 2 // header and status bar
)

var errStreamClosed = errors.New("live error stream closed")

// EventMsg carries one live error into the model.
type EventMsg struct {
	Event *models.LiveErrorEvent
}

// StreamErrMsg reports that the stream ended.
type StreamErrMsg struct {
	Err error
}

type keyMap struct {
	Quit  key.Binding
	Clear key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Clear: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear"),
	),
}

// Model is the bubbletea model of the live error view.
type Model struct {
	events   <-chan *models.LiveErrorEvent
	errs     <-chan error
	station  string
	location *time.Location
	viewport viewport.Model
	lines    []string
	count    int
	err      error
}

// New builds a model reading from events until errs yields.
func New(events <-chan *models.LiveErrorEvent, errs <-chan error, station string, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}

	return Model{
		events:   events,
		errs:     errs,
		station:  station,
		location: loc,
		viewport: viewport.New(0, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev, ok := <-m.events:
			if !ok {
				return StreamErrMsg{Err: errStreamClosed}
			}

			return EventMsg{Event: ev}
		case err := <-m.errs:
			if err == nil {
				err = errStreamClosed
			}

			return StreamErrMsg{Err: err}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.viewport.SetContent(strings.Join(m.lines, "\n"))

		return m, nil
	case EventMsg:
		m.count++
		m.lines = append(m.lines, FormatEvent(msg.Event, m.location))

		if len(m.lines) > maxLines {
			m.lines = m.lines[len(m.lines)-maxLines:]
		}

		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		m.viewport.GotoBottom()

		return m, m.waitForEvent()
	case StreamErrMsg:
		m.err = msg.Err

		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Clear):
			m.lines = nil
			m.viewport.SetContent("")

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

func (m Model) View() string {
	scope := "all stations"
	if m.station != "" {
		scope = "station " + m.station
	}

	header := titleStyle.Render("lineradar live errors") + dimStyle.Render(fmt.Sprintf("  %s, %d received", scope, m.count))

	status := statusBarStyle.Render(fmt.Sprintf("%s %s  %s %s",
		keys.Quit.Help().Key, keys.Quit.Help().Desc,
		keys.Clear.Help().Key, keys.Clear.Help().Desc))

	if m.err != nil {
		status = errorBarStyle.Render("stream ended: " + m.err.Error())
	}

	return header + "\n" + m.viewport.View() + "\n" + status
}

// FormatEvent renders one live error as a single line.
func FormatEvent(ev *models.LiveErrorEvent, loc *time.Location) string {
	if ev == nil {
		return ""
	}

	at := ev.Time
	if at.IsZero() {
		at = ev.Created
	}

	var b strings.Builder

	b.WriteString(dimStyle.Render(at.In(loc).Format(time.TimeOnly)))
	b.WriteByte(' ')
	b.WriteString(stationStyle.Render(ev.StationName))
	fmt.Fprintf(&b, " %s %s", ev.MotorType, ev.DeviceCode)

	for _, r := range ev.Errors {
		b.WriteByte(' ')
		b.WriteString(breachStyle.Render(fmt.Sprintf("%s=%.3f(%s %+.3f)", r.Test, r.Value, r.Classification, r.Offset)))
	}

	return b.String()
}
