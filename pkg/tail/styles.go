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

package tail

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("63")
	warning = lipgloss.Color("214")
	danger  = lipgloss.Color("196")
	subtle  = lipgloss.Color("241")
	surface = lipgloss.Color("236")

	titleStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)

	stationStyle = lipgloss.NewStyle().
			Foreground(warning).
			Bold(true)

	breachStyle = lipgloss.NewStyle().
			Foreground(danger)

	dimStyle = lipgloss.NewStyle().
			Foreground(subtle)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(subtle).
			Background(surface).
			Padding(0, 1)

	errorBarStyle = statusBarStyle.
			Foreground(danger).
			Bold(true)
)
