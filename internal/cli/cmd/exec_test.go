package cmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/druxorey/project-lucario/internal/cli/cmd"
	"github.com/druxorey/project-lucario/internal/log"
)

// s1Image is the S1 scenario program from spec.md §8: LOAD Immediate 7, SUM
// Immediate 5, SVC 0. A clean run ends with AC=12 and exit code 0.
const s1Image = `_start 1
.NumeroPalabras 3
.NombreProg s1
04100007
00100005
13000000
`

func writeTempImage(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	fn := filepath.Join(dir, "s1.img")

	if err := os.WriteFile(fn, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %s", err)
	}

	return fn
}

func TestExecutorRunsProgramToCleanExit(t *testing.T) {
	fn := writeTempImage(t, s1Image)

	var out bytes.Buffer

	logger := log.NewFormattedLogger(&out)

	code := cmd.Executor().Run(context.Background(), []string{fn}, &out, logger)
	if code != 0 {
		t.Errorf("exit code = %d, want 0; log output:\n%s", code, out.String())
	}
}

func TestExecutorRequiresAtLeastOneImage(t *testing.T) {
	var out bytes.Buffer

	logger := log.NewFormattedLogger(&out)

	code := cmd.Executor().Run(context.Background(), nil, &out, logger)
	if code == 0 {
		t.Error("expected a nonzero exit code when no program images are given")
	}
}

func TestExecutorReportsMissingFile(t *testing.T) {
	var out bytes.Buffer

	logger := log.NewFormattedLogger(&out)

	code := cmd.Executor().Run(context.Background(), []string{"does-not-exist.img"}, &out, logger)
	if code == 0 {
		t.Error("expected a nonzero exit code for a missing program image")
	}
}
