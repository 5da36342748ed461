package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Stub describes the behaviour of a fake mkvmerge executable.
type Stub struct {
	// Identify is printed for `-J <file>`.
	Identify string
	// IdentifyByName overrides Identify for inputs whose base name matches.
	IdentifyByName map[string]string
	// FailOn makes a remux exit 2 when the input path contains it.
	FailOn string
	// FailMessage is written to stderr on a failed remux.
	FailMessage string
	// EmptyOutput makes remuxes create a zero-byte output.
	EmptyOutput bool
	// ArgsLog, when set, receives one line of arguments per invocation.
	ArgsLog string
}

// StubMkvmerge writes a shell script emulating mkvmerge into dir and returns
// its path. A successful remux copies the input file to the -o target.
func StubMkvmerge(t testing.TB, dir string, stub Stub) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}

	fixtures := filepath.Join(dir, "fixtures")
	if err := os.MkdirAll(fixtures, 0o755); err != nil {
		t.Fatalf("mkdir fixtures: %v", err)
	}
	writeFixture := func(name, body string) string {
		path := filepath.Join(fixtures, name+".json")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
		return path
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	if stub.ArgsLog != "" {
		fmt.Fprintf(&b, "echo \"$@\" >> %q\n", stub.ArgsLog)
	}
	b.WriteString("if [ \"$1\" = \"--version\" ]; then\n  echo 'mkvmerge v80.0 (\"stub\") 64-bit'\n  exit 0\nfi\n")
	b.WriteString("if [ \"$1\" = \"-J\" ]; then\n")
	b.WriteString("  case \"$(basename \"$2\")\" in\n")
	i := 0
	for name, body := range stub.IdentifyByName {
		path := writeFixture(fmt.Sprintf("named-%d", i), body)
		fmt.Fprintf(&b, "    %q) cat %q; exit 0;;\n", name, path)
		i++
	}
	if stub.Identify != "" {
		path := writeFixture("default", stub.Identify)
		fmt.Fprintf(&b, "    *) cat %q; exit 0;;\n", path)
	} else {
		b.WriteString("    *) echo '{\"errors\": [\"unsupported file\"]}'; exit 2;;\n")
	}
	b.WriteString("  esac\nfi\n")
	b.WriteString("out=\"\"\nprev=\"\"\nfor arg in \"$@\"; do\n  if [ \"$prev\" = \"-o\" ]; then out=\"$arg\"; fi\n  prev=\"$arg\"\ndone\n")
	b.WriteString("input=\"$prev\"\n")
	if stub.FailOn != "" {
		msg := stub.FailMessage
		if msg == "" {
			msg = "Error: unsupported codec"
		}
		fmt.Fprintf(&b, "case \"$input\" in\n  *%s*) echo %q >&2; exit 2;;\nesac\n", stub.FailOn, msg)
	}
	if stub.EmptyOutput {
		b.WriteString(": > \"$out\"\nexit 0\n")
	} else {
		b.WriteString("cp \"$input\" \"$out\"\n")
	}

	path := filepath.Join(dir, "mkvmerge")
	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		t.Fatalf("write stub mkvmerge: %v", err)
	}
	return path
}

// SampleIdentify is a typical anime release: Japanese audio, a French dub,
// and two French subtitle tracks.
const SampleIdentify = `{
  "container": {"type": "Matroska", "recognized": true, "supported": true},
  "tracks": [
    {"id": 0, "type": "video", "codec": "AVC/H.264/MPEG-4p10", "properties": {"language": "und"}},
    {"id": 1, "type": "audio", "codec": "AAC", "properties": {"language": "jpn", "track_name": "Japanese", "default_track": true}},
    {"id": 2, "type": "audio", "codec": "AAC", "properties": {"language": "fre", "track_name": "French Dub"}},
    {"id": 3, "type": "subtitles", "codec": "SubStationAlpha", "properties": {"language": "fre", "track_name": "French"}},
    {"id": 4, "type": "subtitles", "codec": "SubStationAlpha", "properties": {"language": "fre", "track_name": "Signs & Songs"}}
  ]
}`
