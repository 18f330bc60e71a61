package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "qp.Solve")
		panic("mat: dimension mismatch")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "qp.Solve" {
		t.Errorf("Expected operation 'qp.Solve', got '%s'", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if panicErr.Error() != "panic in qp.Solve: mat: dimension mismatch" {
		t.Errorf("unexpected message %q", panicErr.Error())
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "qp.Solve")
		return nil
	}

	if err := testFunc(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

func TestRecover_WrapsExistingError(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "kkt")
		err = ErrSolverFailed
		panic("singular")
	}

	err := testFunc()
	if !Is(err, ErrSolverFailed) {
		t.Errorf("existing error should be preserved, got %v", err)
	}
	if !strings.Contains(err.Error(), "panic in kkt: singular") {
		t.Errorf("panic information missing from %q", err.Error())
	}
}

func TestSafeExecute(t *testing.T) {
	tests := []struct {
		name       string
		fn         func() error
		wantErr    bool
		wantPanic  bool
		wantUnwrap error
	}{
		{
			name:    "returns nil",
			fn:      func() error { return nil },
			wantErr: false,
		},
		{
			name:    "returns error",
			fn:      func() error { return ErrEmptyData },
			wantErr: true,
		},
		{
			name:      "panics with string",
			fn:        func() error { panic("boom") },
			wantErr:   true,
			wantPanic: true,
		},
		{
			name:       "panics with error",
			fn:         func() error { panic(ErrSolverFailed) },
			wantErr:    true,
			wantPanic:  true,
			wantUnwrap: ErrSolverFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("op", tt.fn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeExecute() error = %v, wantErr %v", err, tt.wantErr)
			}
			var panicErr *PanicError
			if got := errors.As(err, &panicErr); got != tt.wantPanic {
				t.Errorf("PanicError = %v, want %v", got, tt.wantPanic)
			}
			if tt.wantUnwrap != nil && !Is(err, tt.wantUnwrap) {
				t.Errorf("expected %v to unwrap to %v", err, tt.wantUnwrap)
			}
			if tt.wantPanic && !strings.Contains(panicErr.String(), "Stack trace:") {
				t.Error("String() should include the stack trace")
			}
		})
	}
}
