package highlighter

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"themedmark/markup"
	"themedmark/model"
	"themedmark/scheme"
	"themedmark/storage"
)

var important = model.ColorScheme{Name: "Important", LightColor: "#ff0000", DarkColor: "#aa0000"}

type fixture struct {
	hl      *Highlighter
	store   *storage.FileStore
	mode    model.Mode
	notices []string
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, schemes ...model.ColorScheme) *fixture {
	t.Helper()
	f := &fixture{
		store: storage.NewFileStore(t.TempDir()),
		mode:  model.Light,
		logs:  &bytes.Buffer{},
	}
	require.NoError(t, f.store.EnsureDirs())
	logger := log.NewWithOptions(f.logs, log.Options{Level: log.DebugLevel})
	f.hl = New(scheme.NewRegistry(schemes), f.store,
		func() model.Mode { return f.mode },
		NotifierFunc(func(msg string) { f.notices = append(f.notices, msg) }),
		logger,
	)
	return f
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	s, err := f.store.Read(context.Background(), name)
	require.NoError(t, err)
	return s
}

func TestOpen_NormalizesToCurrentMode(t *testing.T) {
	f := newFixture(t, important)
	ctx := context.Background()
	require.NoError(t, f.store.Write(ctx, "note.md", "Some "+markup.Encode(important, model.Light, "note")+" here."))

	f.mode = model.Dark
	require.NoError(t, f.hl.Open(ctx, "note.md"))

	assert.Equal(t, "note.md", f.hl.Active())
	assert.Equal(t, `Some <mark class="important" style="background: #aa0000">note</mark> here.`, f.read(t, "note.md"))
	assert.Empty(t, f.notices, "opening a document does not notify")
}

func TestOpen_WithoutDocument(t *testing.T) {
	f := newFixture(t, important)
	err := f.hl.Open(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoActiveDocument)
	assert.Contains(t, f.logs.String(), "without a document")
}

func TestOpen_MissingDocumentIsLoggedAndReturned(t *testing.T) {
	f := newFixture(t, important)
	err := f.hl.Open(context.Background(), "missing.md")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, f.logs.String(), "failed to update document")
	assert.Contains(t, f.logs.String(), "missing.md")
	assert.Empty(t, f.hl.Active())
}

func TestOpen_MissingDocumentKeepsActive(t *testing.T) {
	f := newFixture(t, important)
	ctx := context.Background()
	require.NoError(t, f.store.Write(ctx, "note.md", markup.Encode(important, model.Light, "note")))
	require.NoError(t, f.hl.Open(ctx, "note.md"))

	require.ErrorIs(t, f.hl.Open(ctx, "missing.md"), storage.ErrNotFound)
	assert.Equal(t, "note.md", f.hl.Active())

	require.NoError(t, f.hl.ModeChanged(ctx, model.Dark))
	assert.Equal(t, `<mark class="important" style="background: #aa0000">note</mark>`, f.read(t, "note.md"))
	assert.Equal(t, []string{ModeChangedNotice}, f.notices)
}

func TestUpdate_LogsUnresolved(t *testing.T) {
	f := newFixture(t, important)
	ctx := context.Background()
	in := `<mark class="unknown" style="background: #123456">x</mark>`
	require.NoError(t, f.store.Write(ctx, "doc.md", in))

	require.NoError(t, f.hl.Update(ctx, "doc.md", model.Dark))
	assert.Equal(t, in, f.read(t, "doc.md"))

	logs := f.logs.String()
	assert.Contains(t, logs, "failed to match highlight styles")
	assert.Contains(t, logs, "token=unknown")
	assert.Contains(t, logs, "document=doc.md")
}

func TestModeChanged_RewritesActiveAndNotifies(t *testing.T) {
	f := newFixture(t, important)
	ctx := context.Background()
	require.NoError(t, f.store.Write(ctx, "doc.md", markup.Encode(important, model.Light, "x")))
	require.NoError(t, f.hl.Open(ctx, "doc.md"))

	f.mode = model.Dark
	require.NoError(t, f.hl.ModeChanged(ctx, model.Dark))

	assert.Equal(t, markup.Encode(important, model.Dark, "x"), f.read(t, "doc.md"))
	assert.Equal(t, []string{ModeChangedNotice}, f.notices)
}

func TestModeChanged_NoActiveDocument(t *testing.T) {
	f := newFixture(t, important)
	require.NoError(t, f.hl.ModeChanged(context.Background(), model.Dark))
	assert.Empty(t, f.notices)
	assert.Contains(t, f.logs.String(), "without an active document")
}

type failingStore struct{ storage.DocumentStore }

func (failingStore) Process(context.Context, string, storage.TransformFunc) error {
	return errors.New("disk full")
}

func TestModeChanged_WriteFailurePropagates(t *testing.T) {
	f := newFixture(t, important)
	ctx := context.Background()
	require.NoError(t, f.store.Write(ctx, "doc.md", "x"))
	require.NoError(t, f.hl.Open(ctx, "doc.md"))

	f.hl.store = failingStore{f.store}
	err := f.hl.ModeChanged(ctx, model.Dark)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, f.notices)
}

func TestClose(t *testing.T) {
	f := newFixture(t, important)
	ctx := context.Background()
	require.NoError(t, f.store.Write(ctx, "doc.md", "x"))
	require.NoError(t, f.hl.Open(ctx, "doc.md"))

	f.hl.Close("other.md")
	assert.Equal(t, "doc.md", f.hl.Active())
	f.hl.Close("doc.md")
	assert.Empty(t, f.hl.Active())
}

func TestHighlight(t *testing.T) {
	my := model.ColorScheme{Name: "My Scheme", LightColor: "#ffeb3b", DarkColor: "#8d6e00"}
	f := newFixture(t, my)

	got, err := f.hl.Highlight("my scheme", "selected")
	require.NoError(t, err)
	assert.Equal(t, `<mark class="my-scheme" style="background: #ffeb3b">selected</mark>`, got)

	f.mode = model.Dark
	got, err = f.hl.Highlight("My Scheme", "selected")
	require.NoError(t, err)
	assert.Equal(t, `<mark class="my-scheme" style="background: #8d6e00">selected</mark>`, got)

	_, err = f.hl.Highlight("nope", "x")
	assert.ErrorIs(t, err, scheme.ErrNotFound)
}
