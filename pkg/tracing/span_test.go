package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestChildSpansInheritTrace(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "run-1")
	ctx2, load := StartChildSpan(ctx, "load-index")
	_, parse := StartChildSpan(ctx2, "parse")
	parse.End()
	load.End()
	_, rank := StartChildSpan(ctx, "rank-queries")
	rank.End()
	root.End()

	if SpanFromContext(ctx2) != load {
		t.Error("context does not carry the child span")
	}
	var names []string
	var depths []int
	root.Walk(func(s *Span, depth int) {
		names = append(names, s.Name)
		depths = append(depths, depth)
		if s.TraceID != "run-1" {
			t.Errorf("span %s trace = %q", s.Name, s.TraceID)
		}
	})
	if got := strings.Join(names, ","); got != "search,load-index,parse,rank-queries" {
		t.Errorf("walk order = %s", got)
	}
	if depths[2] != 2 || depths[3] != 1 {
		t.Errorf("depths = %v", depths)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	_, s := StartSpan(context.Background(), "x", "")
	s.End()
	d := s.Duration
	s.End()
	if s.Duration != d {
		t.Error("second End changed the duration")
	}
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	ctx, root := StartSpan(context.Background(), "evaluate", "run-7")
	_, child := StartChildSpan(ctx, "score")
	child.SetAttr("queries", 50)
	child.End()
	root.End()
	root.Log()

	out := buf.String()
	if strings.Count(out, "msg=span") != 2 {
		t.Fatalf("log output:\n%s", out)
	}
	if !strings.Contains(out, "span=score") || !strings.Contains(out, "queries=50") || !strings.Contains(out, "trace_id=run-7") {
		t.Errorf("missing attributes:\n%s", out)
	}
}
