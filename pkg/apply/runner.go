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

package apply

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/applydir/pkg/change"
	"github.com/walteh/applydir/pkg/outcome"
	"golang.org/x/sync/errgroup"
)

// 🏃 Runner executes a batch, optionally fanning independent file groups out
// across goroutines. Different target files share no mutable state, so
// parallelism across groups is safe; records within one group always run
// sequentially.
type Runner struct {
	applicator *Applicator
	async      bool
}

// 🏗️ NewRunner creates a new runner
func NewRunner(applicator *Applicator, async bool) *Runner {
	return &Runner{
		applicator: applicator,
		async:      async,
	}
}

// Run applies the batch and returns the outcome list in batch order
func (r *Runner) Run(ctx context.Context, batch *change.Batch, baseDir string) outcome.List {
	if r.async {
		return r.runAsync(ctx, batch, baseDir)
	}
	return r.applicator.Apply(ctx, batch, baseDir)
}

// runAsync applies each file group in its own goroutine. Per-group outcome
// slices are collected by index so the returned order matches the batch.
func (r *Runner) runAsync(ctx context.Context, batch *change.Batch, baseDir string) outcome.List {
	groups := batch.Groups()
	collected := make([]outcome.List, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			collected[i] = r.applicator.applyGroup(ctx, group, baseDir)
			return nil
		})
	}
	// Workers report through outcomes, never through errors.
	_ = g.Wait()

	zerolog.Ctx(ctx).Debug().Int("groups", len(groups)).Msg("async apply finished")

	var results outcome.List
	for _, list := range collected {
		results = append(results, list...)
	}
	return results
}
