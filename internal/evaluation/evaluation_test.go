package evaluation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/judgments"
	"github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/internal/evaluation/results"
	apperrors "github.com/Adithya-Monish-Kumar-K/Retrieval-Evaluation-Toolkit/pkg/errors"
)

const tolerance = 1e-9

// ranked adds docNos for queryID with strictly decreasing scores so the
// given order is the rank order.
func ranked(t *testing.T, res *results.Results, queryID string, docNos ...string) {
	t.Helper()
	for i, d := range docNos {
		if err := res.AddResult(queryID, d, float64(len(docNos)-i), i+1); err != nil {
			t.Fatal(err)
		}
	}
}

func judge(t *testing.T, j *judgments.Judgments, queryID string, grades map[string]int) {
	t.Helper()
	for d, g := range grades {
		if err := j.AddJudgment(queryID, d, g); err != nil {
			t.Fatal(err)
		}
	}
}

func docs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("D%04d", i+1)
	}
	return out
}

func TestAveragePrecision(t *testing.T) {
	res := results.New()
	ranked(t, res, "1", "D1", "D2", "D3", "D4")
	qrels := judgments.New()
	judge(t, qrels, "1", map[string]int{"D2": 1, "D4": 1, "D1": 0})

	ap, err := AveragePrecision("1", res, qrels)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ap-0.5) > tolerance {
		t.Errorf("AP = %v, want 0.5", ap)
	}
}

func TestAveragePrecisionDepth(t *testing.T) {
	all := docs(1001)
	res := results.New()
	ranked(t, res, "1", all...)
	qrels := judgments.New()
	judge(t, qrels, "1", map[string]int{all[1000]: 1})

	ap, err := AveragePrecision("1", res, qrels)
	if err != nil {
		t.Fatal(err)
	}
	if ap != 0 {
		t.Errorf("relevant doc at rank 1001 counted: AP = %v", ap)
	}
}

func TestAveragePrecisionUnretrievedRelevant(t *testing.T) {
	res := results.New()
	ranked(t, res, "1", "D1", "D2")
	qrels := judgments.New()
	judge(t, qrels, "1", map[string]int{"D1": 1, "D9": 1})

	ap, _ := AveragePrecision("1", res, qrels)
	if math.Abs(ap-0.5) > tolerance {
		t.Errorf("AP = %v, want 0.5", ap)
	}
}

func TestNDCG(t *testing.T) {
	res := results.New()
	ranked(t, res, "1", "D1", "D2", "D3")
	qrels := judgments.New()
	judge(t, qrels, "1", map[string]int{"D1": 1})

	ndcg, err := NDCG("1", res, qrels, 10)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(ndcg-1) > tolerance {
		t.Errorf("NDCG@10 = %v, want 1", ndcg)
	}

	res2 := results.New()
	ranked(t, res2, "1", "D2", "D1")
	ndcg, _ = NDCG("1", res2, qrels, 10)
	if want := 1 / math.Log2(3); math.Abs(ndcg-want) > tolerance {
		t.Errorf("NDCG@10 with hit at rank 2 = %v, want %v", ndcg, want)
	}
}

func TestNDCGCutoff(t *testing.T) {
	all := docs(20)
	res := results.New()
	ranked(t, res, "1", all...)
	qrels := judgments.New()
	judge(t, qrels, "1", map[string]int{all[14]: 1})

	if v, _ := NDCG("1", res, qrels, 10); v != 0 {
		t.Errorf("NDCG@10 counted rank 15: %v", v)
	}
	if v, _ := NDCG("1", res, qrels, 1000); math.Abs(v-1/math.Log2(16)) > tolerance {
		t.Errorf("NDCG@1000 = %v", v)
	}
}

func TestNDCGZeroIdeal(t *testing.T) {
	res := results.New()
	ranked(t, res, "1", "D1")
	qrels := judgments.New()
	judge(t, qrels, "1", map[string]int{"D1": 0})

	v, err := NDCG("1", res, qrels, 10)
	if err != nil || v != 0 || math.IsNaN(v) {
		t.Errorf("NDCG with no relevant docs = %v, %v; want 0", v, err)
	}
}

func TestPrecisionAt10(t *testing.T) {
	all := docs(10)
	res := results.New()
	ranked(t, res, "1", all...)
	qrels := judgments.New()
	judge(t, qrels, "1", map[string]int{all[0]: 1, all[4]: 1, all[9]: 1})
	if p, _ := PrecisionAt10("1", res, qrels); math.Abs(p-0.3) > tolerance {
		t.Errorf("P@10 = %v, want 0.3", p)
	}

	short := docs(5)
	res2 := results.New()
	ranked(t, res2, "2", short...)
	judge(t, qrels, "2", map[string]int{short[1]: 1, short[3]: 1})
	if p, _ := PrecisionAt10("2", res2, qrels); math.Abs(p-0.4) > tolerance {
		t.Errorf("P@10 with 5 results = %v, want 0.4", p)
	}
}

func TestMetricsWithoutResults(t *testing.T) {
	res := results.New()
	qrels := judgments.New()
	judge(t, qrels, "1", map[string]int{"D1": 1})

	for name, fn := range map[string]func() (float64, error){
		"ap":   func() (float64, error) { return AveragePrecision("1", res, qrels) },
		"p10":  func() (float64, error) { return PrecisionAt10("1", res, qrels) },
		"ndcg": func() (float64, error) { return NDCG("1", res, qrels, 10) },
	} {
		if v, err := fn(); err != nil || v != 0 {
			t.Errorf("%s without results = %v, %v; want 0", name, v, err)
		}
	}
}

func TestMetricsUnknownQuery(t *testing.T) {
	res := results.New()
	ranked(t, res, "7", "D1")
	qrels := judgments.New()
	judge(t, qrels, "1", map[string]int{"D1": 1})

	if _, err := AveragePrecision("7", res, qrels); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("AP err = %v, want ErrNotFound", err)
	}
	if _, err := NDCG("7", res, qrels, 10); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("NDCG err = %v, want ErrNotFound", err)
	}
}

func TestEvaluateReport(t *testing.T) {
	res := results.New()
	ranked(t, res, "401", "LA-1")
	ranked(t, res, "999", "LA-9")
	qrels := judgments.New()
	judge(t, qrels, "401", map[string]int{"LA-1": 1})
	judge(t, qrels, "402", map[string]int{"LA-2": 0})
	judge(t, qrels, "403", map[string]int{"LA-3": 1})

	report, err := Evaluate(context.Background(), res, qrels, "BM25")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := report.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want := `ap 401 1.0000
ap 403 0.0000
ndcg_cut_10 401 1.0000
ndcg_cut_10 403 0.0000
ndcg_cut_1000 401 1.0000
ndcg_cut_1000 403 0.0000
P_10 401 1.0000
P_10 403 0.0000
`
	if buf.String() != want {
		t.Errorf("report =\n%s\nwant\n%s", buf.String(), want)
	}
	if m := report.Mean(MetricAP); m != 0.5 {
		t.Errorf("mean AP = %v, want 0.5", m)
	}
	if v, ok := report.Value(MetricP10, "401"); !ok || v != 1 {
		t.Errorf("Value(P_10, 401) = %v, %v", v, ok)
	}

	path := filepath.Join(t.TempDir(), "output.txt")
	if err := report.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != want {
		t.Errorf("file contents differ from WriteTo output")
	}
}

func TestEvaluateCancelled(t *testing.T) {
	qrels := judgments.New()
	judge(t, qrels, "1", map[string]int{"D1": 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Evaluate(ctx, results.New(), qrels, "BM25"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
