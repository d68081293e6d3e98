package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"nitro/markdown-visual/internal/service/diagram"
	"nitro/markdown-visual/internal/service/scan"
)

// Renderer represents the diagram renderer used to process the blocks.
type Renderer interface {
	Render(ctx context.Context, id, code string) (string, error)
} // nolint: golint

type workerError struct {
	units []workerErrorUnit
}

func (w workerError) Error() string {
	if len(w.units) == 1 {
		return w.units[0].err.Error()
	}

	errors := make([]string, 0, len(w.units))
	for _, unit := range w.units {
		errors = append(errors, unit.err.Error())
	}
	return fmt.Sprintf("multiple errors detected ('%s')", strings.Join(errors, "', '"))
}

type workerErrorUnit struct {
	err error
	id  string
}

// Result of a diagram block.
type Result struct {
	Block   scan.Block
	ID      string
	SVG     string
	Err     error
	Skipped bool
}

// Worker renders the diagram blocks concurrently. A failure at one block doesn't affect the others.
type Worker struct {
	Renderer    Renderer
	Prefix      string
	Concurrency int
}

// Process the blocks. It returns once every render has settled, with the results in the same order as the blocks.
func (w Worker) Process(ctx context.Context, blocks []scan.Block) ([]Result, error) {
	if w.Renderer == nil {
		return nil, errors.New("missing 'renderer'")
	}

	prefix := w.Prefix
	if prefix == "" {
		prefix = "diagram"
	}

	var (
		results = make([]Result, len(blocks))
		group   errgroup.Group
	)
	if w.Concurrency > 0 {
		group.SetLimit(w.Concurrency)
	}

	for i, block := range blocks {
		results[i] = Result{Block: block, ID: diagram.ID(prefix, block.Index)}
		if block.Empty() {
			results[i].Skipped = true
			continue
		}

		i, block := i, block
		group.Go(func() error {
			// A panicking renderer fails its own block only.
			defer func() {
				if r := recover(); r != nil {
					results[i].SVG = ""
					results[i].Err = diagram.NewError(results[i].ID, block.Code, fmt.Errorf("panic during the render: %v", r))
				}
			}()

			svg, err := w.Renderer.Render(ctx, results[i].ID, block.Code)
			results[i].SVG, results[i].Err = svg, err
			return nil
		})
	}
	_ = group.Wait()

	return results, nil
}

// Failures aggregates the errors of the results. It returns nil if every block rendered or was skipped.
func Failures(results []Result) error {
	var units []workerErrorUnit
	for _, result := range results {
		if result.Err != nil {
			units = append(units, workerErrorUnit{err: result.Err, id: result.ID})
		}
	}
	if len(units) == 0 {
		return nil
	}
	return workerError{units: units}
}
