package patterncalc

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"nickandperla.net/patterncalc/internal/container"
	"nickandperla.net/patterncalc/internal/eval"
	"nickandperla.net/patterncalc/internal/geom"
	"nickandperla.net/patterncalc/internal/store"
)

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(append([]Option{WithMemoryStore()}, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEvaluateAgainstTables(t *testing.T) {
	e := newEngine(t)
	if err := e.AddMeasurement("A", 10, ""); err != nil {
		t.Fatal(err)
	}
	if err := e.AddMeasurement("B", 5, ""); err != nil {
		t.Fatal(err)
	}

	v, err := e.Evaluate("A+B*2")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if v != 20 {
		t.Errorf("expected 20, got %v", v)
	}

	if _, err := e.Evaluate("unknownVar+1"); !errors.Is(err, eval.ErrUnassignableToken) {
		t.Errorf("expected unassignable token, got %v", err)
	}
	if _, err := e.Evaluate("1/0"); !errors.Is(err, eval.ErrInvalidResult) {
		t.Errorf("expected invalid result, got %v", err)
	}
}

func TestIncrementLifecycle(t *testing.T) {
	e := newEngine(t)
	name, err := e.AddIncrement("@inc1", "3", "", false)
	if err != nil {
		t.Fatalf("AddIncrement failed: %v", err)
	}
	e.SetField(Field{OwnerID: 4, Attr: "length", Formula: "@inc1*2"})

	if v, _ := e.Evaluate("@inc1*2"); v != 6 {
		t.Errorf("expected 6, got %v", v)
	}
	if !e.IsUsedBy(name) {
		t.Error("expected @inc1 to be used")
	}
	if err := e.Remove(name); !errors.Is(err, container.ErrVariableInUse) {
		t.Fatalf("expected VariableInUse, got %v", err)
	}

	e.SetField(Field{OwnerID: 4, Attr: "length", Formula: "5*2"})
	if err := e.Remove(name); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !e.IsUnique(name) {
		t.Error("expected the name to be free after removal")
	}
}

func TestGeneratedIncrementName(t *testing.T) {
	e := newEngine(t)
	first, err := e.AddIncrement("", "1", "", false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.AddIncrement("", "2", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if first != "@custom_increment_1" || second != "@custom_increment_2" {
		t.Errorf("unexpected generated names %q, %q", first, second)
	}
}

func TestRenameRewritesCorpus(t *testing.T) {
	e := newEngine(t)
	if _, err := e.AddIncrement("#a", "2", "", false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddIncrement("#b", "#a*3", "", false); err != nil {
		t.Fatal(err)
	}
	e.SetField(Field{OwnerID: 9, Attr: "length", Formula: "#a + #ab"})

	res, err := e.Rename("#a", "#c")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if !res.Literal || res.Name != "#c" {
		t.Errorf("unexpected result %+v", res)
	}
	if got := e.Corpus()[0].Formula; got != "#c + #ab" {
		t.Errorf("expected token exact rewrite, got %q", got)
	}
	if v, err := e.Evaluate("#b"); err != nil || v != 6 {
		t.Errorf("expected #b = 6 after rename, got %v (%v)", v, err)
	}

	if _, err := e.Rename("#c", "#a"); err != nil {
		t.Fatal(err)
	}
	if got := e.Corpus()[0].Formula; got != "#a + #ab" {
		t.Errorf("expected the original text back, got %q", got)
	}
}

func TestWarningPolicy(t *testing.T) {
	var buf bytes.Buffer
	lenient := newEngine(t, WithLogger(zerolog.New(&buf)))
	v, err := lenient.Evaluate(`warning("too small"; 4)`)
	if err != nil || v != 4 {
		t.Errorf("expected 4 in lenient mode, got %v (%v)", v, err)
	}
	if !strings.Contains(buf.String(), "too small") {
		t.Errorf("expected the warning to be logged, got %q", buf.String())
	}

	pedantic := newEngine(t, WithPedantic(true))
	if _, err := pedantic.Evaluate(`warning("too small"; 4)`); !errors.Is(err, eval.ErrWarning) {
		t.Errorf("expected a warning error, got %v", err)
	}
}

func TestEvaluateUserLocale(t *testing.T) {
	e := newEngine(t, WithLocale("de-DE", true))
	v, canonical, err := e.EvaluateUser("max(1,5; 2,5)")
	if err != nil {
		t.Fatalf("EvaluateUser failed: %v", err)
	}
	if v != 2.5 || canonical != "max(1.5; 2.5)" {
		t.Errorf("expected 2.5 from %q, got %v from %q", "max(1.5; 2.5)", v, canonical)
	}
}

func TestFieldsWriteThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.db")
	open := func() *Engine {
		t.Helper()
		e, err := New(WithSQLiteStore(path))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return e
	}

	e := open()
	if err := e.SetField(Field{OwnerID: 3, Attr: "angle", Formula: "90"}); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	if err := e.SetField(Field{OwnerID: 3, Attr: "length", Formula: "12"}); err != nil {
		t.Fatalf("SetField failed: %v", err)
	}
	e.Close() // no Save

	e = open()
	if got := e.Corpus(); len(got) != 2 || got[1].Formula != "12" {
		t.Fatalf("expected both fields stored without Save, got %+v", got)
	}
	if err := e.RemoveField(3, "angle"); err != nil {
		t.Fatalf("RemoveField failed: %v", err)
	}
	if err := e.RemoveField(3, "absent"); err != nil {
		t.Errorf("removing an absent field: %v", err)
	}
	e.Close()

	e = open()
	defer e.Close()
	if got := e.Corpus(); len(got) != 1 || got[0].Attr != "length" {
		t.Errorf("expected only the length field left, got %+v", got)
	}
	if v, err := e.Metadata(store.KeySchemaVersion); err != nil || v != store.SchemaVersion {
		t.Errorf("expected schema version %s, got %q (%v)", store.SchemaVersion, v, err)
	}
}

func TestMetadataWithoutStore(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if v, err := e.Metadata(store.KeyUnit); v != "" || err != nil {
		t.Errorf("expected empty metadata, got %q (%v)", v, err)
	}
}

func TestSQLitePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.db")

	e, err := New(WithSQLiteStore(path), WithUnit(geom.Mm))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := e.AddMeasurement("@waist", 720, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddIncrement("#quarter", "@waist/4", "quarter waist", false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddSeparator("", "front", false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddIncrement("#scratch", "#quarter+1", "", true); err != nil {
		t.Fatal(err)
	}
	e.SetField(Field{OwnerID: 2, Attr: "length", Formula: "#quarter"})
	ns := e.Container().Namespace()
	if err := e.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	e.Close()

	e2, err := New(WithSQLiteStore(path))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer e2.Close()

	if e2.Container().Namespace() != ns {
		t.Errorf("expected namespace %s, got %s", ns, e2.Container().Namespace())
	}
	if e2.Container().Unit() != geom.Mm {
		t.Errorf("expected the stored unit, got %s", e2.Container().Unit())
	}
	if v, err := e2.Evaluate("#scratch"); err != nil || v != 181 {
		t.Errorf("expected #scratch = 181, got %v (%v)", v, err)
	}
	rows := e2.Container().Increments(false)
	if len(rows) != 2 || rows[1].Name() != "@separator_1" {
		t.Errorf("unexpected increment table after reload")
	}
	if !e2.IsUsedBy("#quarter") {
		t.Error("expected the corpus to survive the reload")
	}
}

func TestRenameLabel(t *testing.T) {
	e := newEngine(t)
	e.SetField(Field{OwnerID: 1, Attr: "length", Formula: "Line_A_B*2"})
	if n := e.RenameLabel("A", "C"); n != 1 {
		t.Fatalf("expected one formula to change, got %d", n)
	}
	if got := e.Corpus()[0].Formula; got != "Line_C_B*2" {
		t.Errorf("unexpected formula %q", got)
	}
}

func TestCheck(t *testing.T) {
	e := newEngine(t)
	if _, err := e.Check("2-2", eval.CheckOptions{Zero: true}); !errors.Is(err, eval.ErrInvalidResult) {
		t.Errorf("expected a zero result to be rejected, got %v", err)
	}
}
