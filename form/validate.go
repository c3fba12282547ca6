package form

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/errtree"
	"github.com/reoring/formstate/i18n"
	"github.com/reoring/formstate/value"
)

// Validator checks a raw root and reports failures as data. The error result
// is for the validator itself failing, not for invalid input.
type Validator interface {
	Validate(ctx context.Context, root any) ([]formstate.Issue, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, root any) ([]formstate.Issue, error)

func (fn ValidatorFunc) Validate(ctx context.Context, root any) ([]formstate.Issue, error) {
	return fn(ctx, root)
}

// Result is what ValidateAsync delivers.
type Result struct {
	Errors *errtree.Tree
	Err    error
}

// start begins a validation generation. Callers hold mu.
func (f *Form) start() uint64 {
	f.gen++
	return f.gen
}

// apply stores the result of generation gen unless a newer validation has
// started since. Callers hold mu.
func (f *Form) apply(gen uint64, issues []formstate.Issue) (bool, error) {
	if gen != f.gen {
		f.log.Debug("form: stale validation dropped", slog.Uint64("generation", gen), slog.Uint64("latest", f.gen))
		return false, ErrStaleValidation
	}
	f.issues = i18n.Localize(issues, f.tr)
	return f.rebuild(), nil
}

func (f *Form) run(ctx context.Context, root any) ([]formstate.Issue, error) {
	if f.v == nil {
		return nil, nil
	}
	issues, err := f.v.Validate(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("form: validator: %w", err)
	}
	return issues, nil
}

func (f *Form) validate(ctx context.Context) (bool, error) {
	f.mu.Lock()
	gen := f.start()
	f.mu.Unlock()

	issues, err := f.run(ctx, f.node.Raw())
	if err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apply(gen, issues)
}

// Validate runs the validator on the current value and returns the filtered
// error tree.
func (f *Form) Validate(ctx context.Context) (*errtree.Tree, error) {
	changed, err := f.validate(ctx)
	if err != nil {
		return nil, err
	}
	if changed {
		f.emit(Event{ErrorsChanged: true})
	}
	return f.Errors(), nil
}

// ValidateAsync runs the validator on a snapshot of the current value in a
// new goroutine. The channel receives exactly one Result and is then closed.
// A result overtaken by a newer Validate, ValidateAsync, Submit or Reset is
// discarded and reported as ErrStaleValidation.
func (f *Form) ValidateAsync(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)
	f.mu.Lock()
	gen := f.start()
	snapshot := value.Clone(f.node.Raw())
	f.mu.Unlock()

	go func() {
		defer close(out)
		issues, err := f.run(ctx, snapshot)
		if err != nil {
			out <- Result{Err: err}
			return
		}
		f.mu.Lock()
		changed, err := f.apply(gen, issues)
		tree := f.tree
		f.mu.Unlock()
		if err != nil {
			out <- Result{Err: err}
			return
		}
		if changed {
			f.emit(Event{ErrorsChanged: true})
		}
		out <- Result{Errors: tree}
	}()
	return out
}

// Submit marks the whole value as submitted, validates it and returns the
// remaining failures as formstate.Issues when any survive the mode filter.
// Paths reported by the validator are marked submitted too, so failures at
// absent keys are not lost under OnSubmit.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	f.touches.MarkSubmittedTree(f.node.Raw())
	gen := f.start()
	f.mu.Unlock()

	issues, err := f.run(ctx, f.node.Raw())
	if err != nil {
		return fmt.Errorf("form: submit: %w", err)
	}

	f.mu.Lock()
	for _, it := range issues {
		f.touches.MarkSubmitted(it.Path)
	}
	changed, err := f.apply(gen, issues)
	remaining := f.tree.Issues()
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if changed {
		f.emit(Event{ErrorsChanged: true})
	}
	f.log.Debug("form: submit", slog.Int("issues", len(remaining)))
	if len(remaining) > 0 {
		return formstate.Issues(remaining)
	}
	return nil
}
