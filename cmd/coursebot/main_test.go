package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barun-bash/coursebot/internal/config"
	"github.com/barun-bash/coursebot/internal/version"
)

var configEnv = []string{
	"CANVAS_API_KEY", "ZULIP_API_KEY", "CANVAS_SERVER_URL", "CANVAS_COURSE_ID",
	"ZULIP_SERVER_URL", "ZULIP_EMAIL", "PROF_EMAILS", "TA_EMAILS",
	"REMINDER_GROUPS", "REMINDER_MAX_DAYS", "RESOURCES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

// run executes coursebot in project dir with color off and returns stdout,
// stderr and the command error.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--no-color", "-C", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestParseCommand(t *testing.T) {
	clearEnv(t)
	out, _, err := run(t, t.TempDir(), "parse", "show", "me", "comments", "on", "lab", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "simple\n  action\n    ACTION \"show me\"\n"), out)
}

func TestParseCommandBracket(t *testing.T) {
	clearEnv(t)
	out, _, err := run(t, t.TempDir(), "parse", "-f", "bracket", "message students with no submissions for lab")
	require.NoError(t, err)
	assert.Equal(t, `(simple (action (ACTION "message")) (noun (NOUN "students")) (preposition (PREPOSITION "with")) (condition (CONDITION "no submissions")) (preposition (PREPOSITION "for")) (noun (NOUN "lab")))`+"\n", out)
}

func TestParseCommandAmbiguous(t *testing.T) {
	clearEnv(t)
	out, _, err := run(t, t.TempDir(), "parse", "--format", "bracket", "message students with the lab")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "⚠ ambiguous: 2 derivations\nalternative 1 of 2\n"), out)
}

func TestParseCommandSyntaxError(t *testing.T) {
	clearEnv(t)
	out, errOut, err := run(t, t.TempDir(), "parse", "message studnets")
	assert.ErrorIs(t, err, errReported)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "✗ syntax error at column 9")
	assert.Contains(t, errOut, "  message studnets\n          ^")
	assert.Contains(t, errOut, `did you mean "students"?`)
}

func TestParseCommandMaxDerivations(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, errOut, err := run(t, dir, "parse", "--max-derivations", "1", "message students with the lab")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, errOut, "✗ too many derivations: 2 trees, limit 1")

	out, _, err := run(t, dir, "parse", "--max-derivations", "2", "-f", "bracket", "message students with the lab")
	require.NoError(t, err)
	assert.Contains(t, out, "ambiguous: 2 derivations")

	_, errOut, err = run(t, dir, "parse", "--max-derivations=-1", "message students")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, errOut, "must not be negative")
}

func TestParseCommandBadFormat(t *testing.T) {
	clearEnv(t)
	_, _, err := run(t, t.TempDir(), "parse", "-f", "json", "message students")
	assert.ErrorContains(t, err, `unknown format "json"`)
}

func TestParseCommandNeedsSentence(t *testing.T) {
	clearEnv(t)
	_, _, err := run(t, t.TempDir(), "parse")
	assert.Error(t, err)
}

func TestCustomGrammar(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "greet.grammar")
	require.NoError(t, os.WriteFile(path, []byte("sentence: \"hello\" NAME\nNAME: \"world\" | \"class\"\n%ignore WS\n%import common.WS\n"), 0644))

	out, _, err := run(t, dir, "--grammar", path, "parse", "-f", "bracket", "hello class")
	require.NoError(t, err)
	assert.Equal(t, `(sentence ("hello" "hello") (NAME "class"))`+"\n", out)

	_, errOut, err := run(t, dir, "--grammar", path, "parse", "hello students")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, errOut, "unknown word")
}

func TestGrammarFromConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".coursebot"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "g.grammar"), []byte("cmd: \"go\"\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".coursebot", "config.yaml"), []byte("grammar:\n  file: g.grammar\n  start: cmd\n"), 0644))

	out, _, err := run(t, dir, "parse", "-f", "bracket", "go")
	require.NoError(t, err)
	assert.Equal(t, `(cmd ("go" "go"))`+"\n", out)
}

func TestCheckBuiltin(t *testing.T) {
	clearEnv(t)
	out, _, err := run(t, t.TempDir(), "check")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ message students with no submissions for lab built-in samples:1")
	assert.Contains(t, out, "⚠ message students with the lab (2 derivations)")
	assert.Contains(t, out, "✓ 13 cases: 11 unambiguous, 2 ambiguous, 0 failed")
}

func TestCheckMaxDerivations(t *testing.T) {
	clearEnv(t)
	out, _, err := run(t, t.TempDir(), "check", "--max-derivations", "1")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "✗ message students with the lab built-in samples:")
	assert.Contains(t, out, "✗ 13 cases: 11 unambiguous, 0 ambiguous, 2 failed")
}

func TestCheckCasesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cases := filepath.Join(dir, "cases.txt")
	require.NoError(t, os.WriteFile(cases, []byte("# regression cases\nshow me comments on lab 2\n\nstudents message lab\n"), 0644))

	out, _, err := run(t, dir, "check", cases)
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "✓ show me comments on lab 2 "+cases+":2")
	assert.Contains(t, out, "✗ students message lab "+cases+":4")
	assert.Contains(t, out, `unexpected "students"; expected ACTION`)
	assert.Contains(t, out, "✗ 2 cases: 1 unambiguous, 0 ambiguous, 1 failed")
}

func TestCheckMissingFile(t *testing.T) {
	clearEnv(t)
	_, _, err := run(t, t.TempDir(), "check", "absent.txt")
	assert.ErrorContains(t, err, "opening cases")
}

func TestCheckWatchNeedsFile(t *testing.T) {
	clearEnv(t)
	_, _, err := run(t, t.TempDir(), "check", "--watch")
	assert.ErrorContains(t, err, "nothing to watch")
}

func TestCheckWatchStopsOnCancel(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cases := filepath.Join(dir, "cases.txt")
	require.NoError(t, os.WriteFile(cases, []byte("show me comments on lab 2\n"), 0644))

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--no-color", "-C", dir, "check", "--watch", cases})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, out.String(), "1 cases: 1 unambiguous")
	assert.Contains(t, out.String(), "watching "+cases)
}

func TestSamplesCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	out, _, err := run(t, dir, "samples")
	require.NoError(t, err)
	assert.Contains(t, out, "message students with no submissions for lab")

	out, _, err = run(t, dir, "samples", "deadline")
	require.NoError(t, err)
	assert.Contains(t, out, "extend deadlines")

	out, _, err = run(t, dir, "samples", "-c", "ambiguous")
	require.NoError(t, err)
	assert.Contains(t, out, "message students with lab on test")
	assert.NotContains(t, out, "show me comments on lab 2")

	_, _, err = run(t, dir, "samples", "-c", "nope")
	assert.ErrorContains(t, err, `unknown category "nope"`)

	out, _, err = run(t, dir, "samples", "zzzz")
	require.NoError(t, err)
	assert.Contains(t, out, `no samples match "zzzz"`)
}

func TestGrammarCommand(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	out, _, err := run(t, dir, "grammar")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "start: sentence\n"), out)

	out, _, err = run(t, dir, "grammar", "--vocabulary")
	require.NoError(t, err)
	assert.Contains(t, strings.Split(out, "\n"), "no submissions")
}

func TestVersionCommand(t *testing.T) {
	clearEnv(t)
	out, _, err := run(t, t.TempDir(), "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Info()+"\n", out)

	out, _, err = run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "coursebot "+version.Info()+"\n"), out)
}

func TestUnknownTheme(t *testing.T) {
	clearEnv(t)
	_, _, err := run(t, t.TempDir(), "--theme", "neon", "version")
	assert.ErrorContains(t, err, `unknown theme "neon"`)
}

func TestInitCommand(t *testing.T) {
	clearEnv(t)
	t.Setenv("CANVAS_API_KEY", "canvas-secret")
	dir := t.TempDir()
	out, _, err := run(t, dir, "init",
		"--canvas-url", "https://canvas.example.edu/api/v1/",
		"--course-id", "42",
		"--zulip-site", "https://chat.example.edu",
		"--zulip-email", "bot@chat.example.edu",
		"--groups", "prof,ta",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ wrote .coursebot/config.yaml")

	data, err := os.ReadFile(filepath.Join(dir, ".coursebot", "config.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "canvas-secret")
	assert.Contains(t, string(data), "history.db")
	assert.NotContains(t, string(data), dir, "paths are saved relative to the project")

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "42", cfg.Canvas.CourseID)
	assert.Equal(t, "bot@chat.example.edu", cfg.Zulip.Email)
	assert.Equal(t, []string{"prof", "ta"}, cfg.Reminders.Groups)
	assert.Equal(t, "Video Lectures", cfg.Canvas.VideoModule)

	_, _, err = run(t, dir, "init")
	assert.ErrorContains(t, err, "already exists")

	_, _, err = run(t, dir, "init", "--force", "--course-id", "7")
	require.NoError(t, err)
	cfg, err = config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "7", cfg.Canvas.CourseID)
	assert.Empty(t, cfg.Reminders.Groups)
}

func TestInitRejectsUnknownTimezone(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	_, _, err := run(t, dir, "init", "--timezone", "Mars/Olympus")
	assert.ErrorContains(t, err, "reminders.timezone")
	assert.NoFileExists(t, filepath.Join(dir, ".coursebot", "config.yaml"))
}

func TestRemindNotConfigured(t *testing.T) {
	clearEnv(t)
	_, _, err := run(t, t.TempDir(), "remind")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "canvas.base_url is not set")
	assert.Contains(t, err.Error(), "CANVAS_API_KEY")
}

// fakeServer serves the Canvas and Zulip endpoints remind uses for a course
// with one student who has one overdue assignment.
func fakeServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var sent atomic.Int32
	overdue := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)
	upcoming := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/courses/42/assignments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"id":1,"name":"Assignment 1 - Part 1","due_at":%q,"published":true,"html_url":"https://canvas/a/1"},
			{"id":2,"name":"Lab 2","due_at":%q,"published":true}]`, overdue, upcoming)
	})
	mux.HandleFunc("/api/v1/courses/42/modules", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":9,"name":"Video Lectures","published":true}]`)
	})
	mux.HandleFunc("/api/v1/courses/42/modules/9/items", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":3,"title":"7. Assignment 1 Solution","published":true,"html_url":"https://canvas/v/3"}]`)
	})
	mux.HandleFunc("/api/v1/courses/42/users", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":100,"name":"Ada","email":"ada@school.edu"}]`)
	})
	mux.HandleFunc("/api/v1/courses/42/assignments/{aid}/submissions/{uid}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"submitted_at":null}`)
	})
	mux.HandleFunc("/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":"success","members":[{"user_id":1,"email":"prof@school.edu"},{"user_id":2,"email":"ada@school.edu"}]}`)
	})
	mux.HandleFunc("/api/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		n := sent.Add(1)
		fmt.Fprintf(w, `{"result":"success","id":%d}`, n)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &sent
}

func configureRemind(t *testing.T, url string) {
	t.Helper()
	clearEnv(t)
	t.Setenv("CANVAS_SERVER_URL", url)
	t.Setenv("CANVAS_COURSE_ID", "42")
	t.Setenv("CANVAS_API_KEY", "canvas-key")
	t.Setenv("ZULIP_SERVER_URL", url)
	t.Setenv("ZULIP_EMAIL", "bot@school.edu")
	t.Setenv("ZULIP_API_KEY", "zulip-key")
	t.Setenv("PROF_EMAILS", "prof@school.edu")
	t.Setenv("REMINDER_GROUPS", "prof")
	t.Setenv("RESOURCES", `[{"text":"Office hours","link":"https://meet/x"}]`)
}

func TestRemindDryRun(t *testing.T) {
	srv, sent := fakeServer(t)
	configureRemind(t, srv.URL)

	out, _, err := run(t, t.TempDir(), "remind", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, int32(0), sent.Load())
	assert.Contains(t, out, "Ada <ada@school.edu>")
	assert.Contains(t, out, "to: prof@school.edu")
	assert.Contains(t, out, "Assignment 1 - Part 1")
	assert.Contains(t, out, "Office hours")
	assert.Contains(t, out, "(dry run): 1 of 1 students would be reminded")
}

func TestRemindSendsOncePerDay(t *testing.T) {
	srv, sent := fakeServer(t)
	configureRemind(t, srv.URL)
	dir := t.TempDir()

	out, _, err := run(t, dir, "remind")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ ada@school.edu: reminded about 1 overdue")
	assert.Equal(t, int32(1), sent.Load())
	assert.FileExists(t, filepath.Join(dir, ".coursebot", "history.db"))

	out, _, err = run(t, dir, "remind")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@school.edu: already reminded today")
	assert.Equal(t, int32(1), sent.Load())

	_, _, err = run(t, dir, "remind", "--force")
	require.NoError(t, err)
	assert.Equal(t, int32(2), sent.Load())

	out, _, err = run(t, dir, "remind", "log", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "ada@school.edu"))
	assert.Contains(t, out, "1 overdue")
}

func TestRemindLogEmpty(t *testing.T) {
	clearEnv(t)
	out, _, err := run(t, t.TempDir(), "remind", "log")
	require.NoError(t, err)
	assert.Contains(t, out, "no reminders sent yet")
}
