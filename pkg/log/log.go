// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log renders outcomes and diff previews for humans, mirroring
// everything to zerolog for debugging.
package log

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/applydir/pkg/outcome"
)

// 📢 UserLogger provides user-friendly feedback about applied changes
type UserLogger struct {
	log zerolog.Logger
}

// 🎯 NewUserLogger creates a new user logger from the context logger
func NewUserLogger(ctx context.Context) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
	}
}

// 📝 LogOutcome prints one outcome with appropriate emoji and formatting
func (u *UserLogger) LogOutcome(o outcome.Outcome) {
	var printer *pterm.PrefixPrinter
	switch {
	case o.Kind == outcome.KindChangesSuccessful:
		printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"})
	case o.Severity == outcome.SeverityError:
		printer = pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"})
	case o.Severity == outcome.SeverityWarning:
		printer = pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"})
	default:
		printer = pterm.Info.WithPrefix(pterm.Prefix{Text: "ℹ️"})
	}

	msg := o.Message
	if file, ok := o.Details["file"].(string); ok && file != "" {
		msg = fmt.Sprintf("%s (%s)", o.Message, file)
	}
	printer.Println(msg)

	event := u.log.Info()
	switch o.Severity {
	case outcome.SeverityError:
		event = u.log.Error()
	case outcome.SeverityWarning:
		event = u.log.Warn()
	}
	event.Str("kind", string(o.Kind)).Fields(o.Details).Msg(o.Message)
}

// 📊 LogSummary prints the aggregate result of a batch
func (u *UserLogger) LogSummary(results outcome.List) {
	errs := len(results.Errors())
	warns := len(results.Warnings())
	if errs > 0 {
		pterm.Error.WithPrefix(pterm.Prefix{Text: "📦"}).
			Printfln("batch finished with %d error(s), %d warning(s)", errs, warns)
		u.log.Error().Int("errors", errs).Int("warnings", warns).Msg("batch finished")
		return
	}
	pterm.Success.WithPrefix(pterm.Prefix{Text: "📦"}).
		Printfln("batch finished cleanly (%d warning(s))", warns)
	u.log.Info().Int("warnings", warns).Msg("batch finished")
}
