package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalogimport/internal/core"
)

func writeCatalog(t *testing.T, rows int, category string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(core.ExpectedHeaders, ",") + "\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&b, `Produto %d,350ml,%s,unidade,10un,Ambev,"R$ 2,00","R$ 3,50",75%%,-,-,Normal`+"\n", i, category)
	}
	path := filepath.Join(t.TempDir(), "produtos.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execRoot(args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestImportDryRun(t *testing.T) {
	path := writeCatalog(t, 12, "Cerveja")

	out, stderr, err := execRoot("import", path, "--dry-run", "--chunk-size", "5")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	for _, want := range []string{"Dry run", "Inserted: 12", "Failed: 0", "Created categories: Cerveja"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(stderr, "[completed]") {
		t.Errorf("progress missing the completed phase:\n%s", stderr)
	}
}

func TestImportDryRunDeclined(t *testing.T) {
	path := writeCatalog(t, 2, "Cerveja")

	_, stderr, err := execRoot("import", path, "--dry-run", "--no-create")

	var ee *exitError
	if !errors.As(err, &ee) || ee.code != exitFailure {
		t.Fatalf("err = %v, want exit code %d", err, exitFailure)
	}
	if !strings.Contains(err.Error(), "IMP002") {
		t.Errorf("err = %q, want code IMP002", err)
	}
	if !strings.Contains(stderr, "Cerveja") {
		t.Errorf("stderr does not name the declined category:\n%s", stderr)
	}
}

func TestImportUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing file", args: []string{"import", filepath.Join(t.TempDir(), "nope.csv"), "--dry-run"}},
		{name: "no database", args: []string{"import", writeCatalog(t, 1, "Cerveja")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("DB_URL", "")

			_, _, err := execRoot(tt.args...)
			var ee *exitError
			if !errors.As(err, &ee) || ee.code != exitUsage {
				t.Errorf("err = %v, want exit code %d", err, exitUsage)
			}
		})
	}
}

func TestConfirmerPrompt(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"s\n", true},
		{"Sim\n", true},
		{"yes", true},
		{"\n", false},
		{"n\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.SetIn(strings.NewReader(tt.input))
			cmd.SetErr(&bytes.Buffer{})

			got, err := confirmer(cmd, importOptions{})(context.Background(), []string{"Vinhos"})
			if err != nil {
				t.Fatalf("confirm: %v", err)
			}
			if got != tt.want {
				t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTemplateCommand(t *testing.T) {
	out, _, err := execRoot("template")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if first, _, _ := strings.Cut(out, "\n"); first != strings.Join(core.ExpectedHeaders, ",") {
		t.Errorf("header line = %q", first)
	}

	path := filepath.Join(t.TempDir(), "modelo.xlsx")
	if _, _, err := execRoot("template", "--format", "xlsx", "-o", path); err != nil {
		t.Fatalf("template xlsx: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("xlsx output is not a zip archive")
	}

	if _, _, err := execRoot("template", "--format", "pdf"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestPreviewCommand(t *testing.T) {
	path := writeCatalog(t, 3, "Cerveja")

	out, _, err := execRoot("preview", path, "--sample", "2")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out, "Rows: 3 (valid 3") {
		t.Errorf("output:\n%s", out)
	}
	if strings.Count(out, "  line ") != 2 {
		t.Errorf("sample lines = %d, want 2:\n%s", strings.Count(out, "  line "), out)
	}
}
