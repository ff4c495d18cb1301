package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestCheckAllowsReadOnlySelect(t *testing.T) {
	if err := Check("SELECT * FROM sales"); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
}

func TestCheckBlocksDDL(t *testing.T) {
	err := Check("DROP TABLE sales")
	if !errors.Is(err, ErrUnsafeQuery) {
		t.Fatalf("err = %v, want ErrUnsafeQuery", err)
	}
}

func TestCheckBlocksMultiStatementMutation(t *testing.T) {
	err := Check("select * from sales; update sales set x=1")
	if !errors.Is(err, ErrUnsafeQuery) {
		t.Fatalf("err = %v, want ErrUnsafeQuery", err)
	}
}

func TestCheckIsCaseInsensitive(t *testing.T) {
	if err := Check("DeLeTe FROM sales"); !errors.Is(err, ErrUnsafeQuery) {
		t.Fatalf("err = %v, want ErrUnsafeQuery", err)
	}
}

func TestAuditorObserveNeverBlocks(t *testing.T) {
	auditor := NewAuditor(slog.New(slog.NewTextHandler(io.Discard, nil)))
	auditor.Observe(context.Background(), "question", "'; DROP TABLE users--")
	auditor.Observe(context.Background(), "question", "what were total sales?")

	var nilAuditor *Auditor
	nilAuditor.Observe(context.Background(), "question", "anything")
}
