package cmdgroup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/wader/svgcast/internal/goffmpeg/cmdgroup"
)

func TestRunFuncs(t *testing.T) {
	defer leaktest.Check(t)()

	cg, _ := cmdgroup.WithContext(context.Background())
	var a, b bool
	errs := cg.Run(
		cmdgroup.Func(func() error { a = true; return nil }),
		cmdgroup.Func(func() error { b = true; return nil }),
	)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if !a || !b {
		t.Errorf("expected both funcs to run, got %v %v", a, b)
	}
}

func TestFailureCancelsGroup(t *testing.T) {
	defer leaktest.Check(t)()

	failErr := errors.New("fail")
	cg, ctx := cmdgroup.WithContext(context.Background())
	errs := cg.Run(
		cmdgroup.Func(func() error { return failErr }),
		cmdgroup.Func(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Second):
				return errors.New("not cancelled")
			}
		}),
	)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if !errors.Is(errs[0], failErr) {
		t.Errorf("expected first error to be cause, got %v", errs[0])
	}
	if !errors.Is(errs[1], context.Canceled) {
		t.Errorf("expected second error to be cancel, got %v", errs[1])
	}
}
