package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muzzletov/mendxml/internal/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCleanStdin(t *testing.T) {
	out, _, err := execute(t, `<a>1 < 2 & 3</a>`, "clean", "--check")
	if err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if out != "<a>1 &lt; 2 &amp; 3</a>\n" {
		t.Errorf("clean output = %q", out)
	}
}

func TestCleanFileToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.xml")
	outPath := filepath.Join(dir, "out.xml")
	if err := os.WriteFile(in, []byte(`<a><b x='1'/></a>`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := execute(t, "", "clean", in, "-o", outPath, "--indent", "\t"); err != nil {
		t.Fatalf("clean error = %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "<a>\n\t<b x=\"1\"/>\n</a>\n" {
		t.Errorf("output = %q", got)
	}
}

func TestCleanReportsParseError(t *testing.T) {
	_, _, err := execute(t, `<a x="1"`, "clean")
	if err == nil || !strings.Contains(err.Error(), "unexpected end of input") {
		t.Fatalf("clean error = %v, want unexpected end", err)
	}
}

func TestCleanStrictFlag(t *testing.T) {
	input := `<a><b></bb></a>`

	if _, _, err := execute(t, input, "clean"); err != nil {
		t.Fatalf("lenient clean error = %v", err)
	}
	if _, _, err := execute(t, input, "clean", "--strict"); err == nil {
		t.Fatal("strict clean should reject </bb> closing <b>")
	}
}

func TestCleanDepthLimit(t *testing.T) {
	deep := strings.Repeat("<a>", 10001) + strings.Repeat("</a>", 10001)

	_, _, err := execute(t, deep, "clean")
	if err == nil || !strings.Contains(err.Error(), "depth") {
		t.Fatalf("clean error = %v, want the default depth limit", err)
	}

	if _, _, err := execute(t, `<a><b><c/></b></a>`, "clean", "--max-depth", "2"); err == nil {
		t.Fatal("clean with --max-depth 2 should reject three levels")
	}
	if _, _, err := execute(t, `<a><b><c/></b></a>`, "clean", "--max-depth", "0"); err != nil {
		t.Fatalf("unbounded clean error = %v", err)
	}
}

func TestRecordJSON(t *testing.T) {
	out, _, err := execute(t, `<a z="1" y="2"><b>hi</b></a>`, "record")
	if err != nil {
		t.Fatalf("record error = %v", err)
	}

	want := `{
    "name": "a",
    "attributes": {
        "z": "1",
        "y": "2"
    },
    "children": [
        {
            "name": "b",
            "attributes": {},
            "text": "hi"
        }
    ]
}
`
	if out != want {
		t.Errorf("record output =\n%s\nwant\n%s", out, want)
	}
}

func TestRecordYAML(t *testing.T) {
	out, _, err := execute(t, `<a z="1" y="2"/>`, "record", "--format", "yaml")
	if err != nil {
		t.Fatalf("record error = %v", err)
	}

	want := "name: a\nattributes:\n  z: \"1\"\n  y: \"2\"\n"
	if out != want {
		t.Errorf("record output = %q, want %q", out, want)
	}
}

func TestRecordUnknownFormat(t *testing.T) {
	if _, _, err := execute(t, `<a/>`, "record", "-f", "toml"); err == nil {
		t.Fatal("record with an unknown format should fail")
	}
}

func TestBatch(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "clean")

	if err := os.WriteFile(filepath.Join(src, "items.xml"), []byte(`<items><item n="a & b"/></items>`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, _, err := execute(t, "", "batch", "--src", src, "--dst", dst, "--check")
	if err != nil {
		t.Fatalf("batch error = %v", err)
	}
	if !strings.Contains(out, "cleaned 1") {
		t.Errorf("batch summary missing counts: %q", out)
	}
	if _, err := os.Stat(filepath.Join(dst, ".mendxml.db")); err != nil {
		t.Errorf("manifest not created: %v", err)
	}

	out, _, err = execute(t, "", "batch", "--src", src, "--dst", dst)
	if err != nil {
		t.Fatalf("second batch error = %v", err)
	}
	if !strings.Contains(out, "skipped 1") {
		t.Errorf("second batch should skip the unchanged file: %q", out)
	}
}

func TestBatchFailureExitsNonZero(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "bad.xml"), []byte(`<a b>`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, _, err := execute(t, "", "batch", "--src", src, "--dst", t.TempDir(), "--no-manifest")
	if err == nil {
		t.Fatal("batch with a malformed document should fail")
	}
	if !strings.Contains(out, "bad.xml") {
		t.Errorf("failure not listed: %q", out)
	}
}

func TestBatchRetryFailed(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	bad := filepath.Join(src, "bad.xml")
	if err := os.WriteFile(bad, []byte(`<a b>`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "good.xml"), []byte(`<a/>`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := execute(t, "", "batch", "--src", src, "--dst", dst); err == nil {
		t.Fatal("first batch should report the malformed document")
	}

	if err := os.WriteFile(bad, []byte(`<a b="1"/>`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, _, err := execute(t, "", "batch", "--src", src, "--dst", dst, "--retry-failed")
	if err != nil {
		t.Fatalf("retry batch error = %v", err)
	}
	if !strings.Contains(out, "cleaned 1") || !strings.Contains(out, "skipped 0") {
		t.Errorf("retry summary = %q", out)
	}

	if _, _, err := execute(t, "", "batch", "--src", src, "--dst", dst, "--retry-failed", "--no-manifest"); err == nil {
		t.Error("--retry-failed without the manifest should fail")
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.xml")
	bad := filepath.Join(dir, "bad.xml")
	if err := os.WriteFile(good, []byte(`<a>1 &amp; 2</a>`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(bad, []byte(`<a>1 & 2</a>`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, _, err := execute(t, "", "check", good)
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	if !strings.Contains(out, "ok") {
		t.Errorf("check output = %q", out)
	}

	out, _, err = execute(t, "", "check", good, bad)
	if err == nil {
		t.Fatal("check of a malformed file should fail")
	}
	if !strings.Contains(out, "FAIL") || !strings.Contains(out, "bad.xml") {
		t.Errorf("check output = %q", out)
	}
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mendxml.toml")
	if err := os.WriteFile(path, []byte("[render]\nindent = \"  \"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, _, err := execute(t, `<a><b/></a>`, "--config", path, "clean")
	if err != nil {
		t.Fatalf("clean error = %v", err)
	}
	if out != "<a>\n  <b/>\n</a>\n" {
		t.Errorf("clean output = %q", out)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "mendxml v"+Version) {
		t.Errorf("version output = %q", out)
	}
}
