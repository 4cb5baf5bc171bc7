package remind

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/barun-bash/coursebot/internal/canvas"
	"github.com/barun-bash/coursebot/internal/history"
	"github.com/barun-bash/coursebot/internal/zulip"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCourse struct {
	fakeSubmissions
	students []canvas.User
	subErr   error
}

func (f *fakeCourse) ListAssignments(context.Context) ([]canvas.Assignment, error) {
	return testAssignments(), nil
}

func (f *fakeCourse) FindModule(_ context.Context, name string) (*canvas.Module, error) {
	if name != "Video Lectures" {
		return nil, fmt.Errorf("module %q not found", name)
	}
	return &canvas.Module{ID: 9, Name: name}, nil
}

func (f *fakeCourse) ListModuleItems(context.Context, int) ([]canvas.ModuleItem, error) {
	return testVideos(), nil
}

func (f *fakeCourse) ListStudents(context.Context) ([]canvas.User, error) {
	return f.students, nil
}

func (f *fakeCourse) GetSubmission(ctx context.Context, assignmentID, userID int) (*canvas.Submission, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.fakeSubmissions.GetSubmission(ctx, assignmentID, userID)
}

func (f *fakeCourse) URL(a canvas.Assignment) string {
	if a.HTMLURL != "" {
		return a.HTMLURL
	}
	return "https://canvas/courses/1/assignments"
}

type sent struct {
	to      []string
	content string
}

type fakeChat struct {
	mu      sync.Mutex
	members []zulip.User
	sent    []sent
}

func (f *fakeChat) ListUsers(context.Context) ([]zulip.User, error) {
	return f.members, nil
}

func (f *fakeChat) SendPrivate(_ context.Context, to []string, content string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{to: to, content: content})
	return len(f.sent), nil
}

func newFixture(t *testing.T) (*fakeCourse, *fakeChat, *history.Store) {
	t.Helper()
	course := &fakeCourse{
		fakeSubmissions: fakeSubmissions{{1, 101}: true, {6, 101}: true},
		students: []canvas.User{
			{ID: 100, Name: "Ada", Email: "ada@school.edu"},
			{ID: 101, Name: "Bo", Email: "bo@school.edu"},
			{ID: 102, Name: "Cy", Email: "cy@school.edu"},
			{ID: 103, Name: "Di", Email: "di@school.edu"},
			{ID: 104, Name: "Ed"},
		},
	}
	chat := &fakeChat{members: []zulip.User{
		{ID: 1, Email: "prof@school.edu"},
		{ID: 2, Email: "ta@school.edu"},
		{ID: 3, Email: "Ada@School.edu"},
		{ID: 4, Email: "bo@school.edu"},
		{ID: 5, Email: "di@school.edu"},
		{ID: 6, Email: "bot@zulip", IsBot: true},
	}}

	store, err := history.Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.BeginRun(ctx, history.Run{ID: "earlier"}))
	require.NoError(t, store.Record(ctx, history.Entry{RunID: "earlier", Email: "di@school.edu", Day: "2024-02-20", Overdue: 1}))
	return course, chat, store
}

func testOptions() Options {
	return Options{
		MaxDays:        30,
		Location:       newYork,
		VideoModule:    "Video Lectures",
		Groups:         []string{"prof", "ta"},
		Prof:           []string{"prof@school.edu"},
		TA:             []string{"ta@school.edu"},
		NotifyStudents: true,
		Concurrency:    2,
		Resources:      []Resource{{Text: "Office hours", Link: "https://meet/x"}},
		Now:            func() time.Time { return testNow },
	}
}

func statuses(rep *Report) map[string]Status {
	out := make(map[string]Status)
	for _, o := range rep.Outcomes {
		out[o.Student.Email] = o.Status
	}
	return out
}

func TestRunnerRun(t *testing.T) {
	ctx := context.Background()
	course, chat, store := newFixture(t)

	rep, err := NewRunner(course, chat, store, testOptions(), nil).Run(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, "2024-02-20", rep.Day)
	assert.Equal(t, map[string]Status{
		"ada@school.edu": Sent,
		"bo@school.edu":  NothingOverdue,
		"di@school.edu":  AlreadyReminded,
	}, statuses(rep), "students missing from chat or without an email are left out")

	require.Len(t, rep.Outcomes, 3)
	ada := rep.Outcomes[0]
	assert.Equal(t, "ada@school.edu", ada.Student.Email)
	assert.Equal(t, []string{"ada@school.edu", "prof@school.edu", "ta@school.edu"}, ada.Recipients)
	assert.Equal(t, 1, ada.MessageID)

	require.Len(t, chat.sent, 1)
	assert.Equal(t, ada.Recipients, chat.sent[0].to)
	assert.Contains(t, chat.sent[0].content, "### Coursework reminder for Ada")
	assert.Contains(t, chat.sent[0].content, "[Office hours](https://meet/x)")

	ok, err := store.RemindedOn(ctx, "ada@school.edu", "2024-02-20")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, rep.Count(Sent))
}

func TestRunnerOncePerDay(t *testing.T) {
	ctx := context.Background()
	course, chat, store := newFixture(t)

	_, err := NewRunner(course, chat, store, testOptions(), nil).Run(ctx)
	require.NoError(t, err)

	rep, err := NewRunner(course, chat, store, testOptions(), nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, AlreadyReminded, statuses(rep)["ada@school.edu"])
	assert.Len(t, chat.sent, 1)

	opts := testOptions()
	opts.Force = true
	rep, err = NewRunner(course, chat, store, opts, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Sent, statuses(rep)["ada@school.edu"])
	assert.Equal(t, Sent, statuses(rep)["di@school.edu"])
	assert.Len(t, chat.sent, 3)
}

func TestRunnerDryRun(t *testing.T) {
	ctx := context.Background()
	course, chat, store := newFixture(t)

	opts := testOptions()
	opts.DryRun = true
	rep, err := NewRunner(course, chat, store, opts, nil).Run(ctx)
	require.NoError(t, err)

	assert.Empty(t, chat.sent)
	assert.Equal(t, 1, rep.Count(Previewed))
	assert.Contains(t, rep.Outcomes[0].Message, "**Overdue**")

	ok, err := store.RemindedOn(ctx, "ada@school.edu", rep.Day)
	require.NoError(t, err)
	assert.False(t, ok, "previews are not recorded")
}

func TestRunnerStaffOnly(t *testing.T) {
	course, chat, _ := newFixture(t)

	opts := testOptions()
	opts.NotifyStudents = false
	rep, err := NewRunner(course, chat, nil, opts, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Sent, statuses(rep)["di@school.edu"], "without history every student is eligible")
	for _, s := range chat.sent {
		assert.Equal(t, []string{"prof@school.edu", "ta@school.edu"}, s.to)
	}
}

func TestRunnerAllGroup(t *testing.T) {
	course, chat, _ := newFixture(t)

	opts := testOptions()
	opts.Groups = []string{"all", "prof"}
	opts.NotifyStudents = false
	_, err := NewRunner(course, chat, nil, opts, nil).Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, chat.sent)
	assert.Equal(t, []string{"Ada@School.edu", "bo@school.edu", "di@school.edu", "prof@school.edu", "ta@school.edu"}, chat.sent[0].to)
}

func TestRunnerNoRecipients(t *testing.T) {
	course, chat, _ := newFixture(t)

	opts := testOptions()
	opts.Groups = nil
	opts.NotifyStudents = false
	_, err := NewRunner(course, chat, nil, opts, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestRunnerSubmissionError(t *testing.T) {
	course, chat, _ := newFixture(t)
	boom := errors.New("canvas down")
	course.subErr = boom

	_, err := NewRunner(course, chat, nil, testOptions(), nil).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, chat.sent)
}

func TestRunnerMissingVideoModule(t *testing.T) {
	course, chat, _ := newFixture(t)

	opts := testOptions()
	opts.VideoModule = "Recordings"
	_, err := NewRunner(course, chat, nil, opts, nil).Run(context.Background())
	assert.ErrorContains(t, err, `module "Recordings" not found`)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "sent", Sent.String())
	assert.Equal(t, "already reminded", AlreadyReminded.String())
	assert.Equal(t, "Status(9)", Status(9).String())
}
