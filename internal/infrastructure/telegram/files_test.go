package telegram

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource(uniqueID string) fileSource {
	return fileSource{
		uniqueID: uniqueID,
		remoteID: "remote-" + uniqueID,
		dc:       2,
		location: &tg.InputDocumentFileLocation{ID: 1},
		size:     10,
		dir:      dirDocuments,
		name:     "notes.txt",
		mimeType: "text/plain",
	}
}

func TestFileRegistry_Register(t *testing.T) {
	r := newFileRegistry(t.TempDir())

	first := r.register(testSource("AQAD"))
	assert.Equal(t, int32(1), first.ID)
	assert.Equal(t, "AQAD", first.UniqueID())
	assert.False(t, first.Local.IsDownloadingCompleted)
	assert.Empty(t, first.Local.Path)

	second := r.register(testSource("BQAD"))
	assert.Equal(t, int32(2), second.ID)

	// the same content keeps its id and gets the fresh location
	src := testSource("AQAD")
	src.location = &tg.InputDocumentFileLocation{ID: 1, FileReference: []byte{7}}
	src.chatID, src.messageID = -5, 9
	again := r.register(src)
	assert.Equal(t, first.ID, again.ID)

	entry, ok := r.entry(first.ID)
	require.True(t, ok)
	assert.Equal(t, src.location, entry.location)
	assert.Equal(t, int64(-5), entry.chatID)
	assert.Equal(t, int64(9), entry.messageID)

	_, ok = r.get(99)
	assert.False(t, ok)
}

func TestFileRegistry_Restore(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, dirDocuments)
	require.NoError(t, os.MkdirAll(docs, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(docs, "done_notes.txt"), make([]byte, 10), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "half_notes.txt"+partSuffix), make([]byte, 4), 0o644))

	r := newFileRegistry(dir)

	done := r.register(testSource("done"))
	assert.True(t, done.Local.IsDownloadingCompleted)
	assert.Equal(t, int64(10), done.Local.DownloadedSize)
	assert.Equal(t, filepath.Join(docs, "done_notes.txt"), done.Local.Path)

	half := r.register(testSource("half"))
	assert.False(t, half.Local.IsDownloadingCompleted)
	assert.Equal(t, int64(4), half.Local.DownloadedSize)
}

func TestFileRegistry_SetDir(t *testing.T) {
	r := newFileRegistry(t.TempDir())
	other := t.TempDir()

	r.setDir(other)
	file := r.register(testSource("AQAD"))

	entry, ok := r.entry(file.ID)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(other, dirDocuments, "AQAD_notes.txt"), entry.path)
}

func TestFileRegistry_Summary(t *testing.T) {
	r := newFileRegistry(t.TempDir())

	a := r.register(testSource("a"))
	b := r.register(testSource("b"))
	r.register(testSource("c"))

	r.update(a.ID, func(e *fileEntry) { e.listed = true; e.downloaded = 4 })
	r.update(b.ID, func(e *fileEntry) { e.listed = true; e.downloaded = 10 })

	s := r.summary()
	assert.Equal(t, 2, s.TotalCount)
	assert.Equal(t, int64(20), s.TotalSize)
	assert.Equal(t, int64(14), s.DownloadedSize)
}

func TestLocalName(t *testing.T) {
	tests := []struct {
		name string
		src  fileSource
		want string
	}{
		{name: "file name", src: fileSource{uniqueID: "u1", name: "a.pdf"}, want: "u1_a.pdf"},
		{name: "path separators", src: fileSource{uniqueID: "u2", name: "../x/y.txt"}, want: "u2_.._x_y.txt"},
		{name: "photo", src: fileSource{uniqueID: "u3", dir: dirPhotos, mimeType: "image/jpeg"}, want: "u3.jpg"},
		{name: "mime extension", src: fileSource{uniqueID: "u4", dir: dirVideos, mimeType: "video/mp4"}, want: "u4.mp4"},
		{name: "unknown mime", src: fileSource{uniqueID: "u5", dir: dirDocuments, mimeType: "application/x-unknown-kind"}, want: "u5"},
		{name: "no mime", src: fileSource{uniqueID: "u6", dir: dirPhotos}, want: "u6.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, localName(tt.src))
		})
	}
}

func TestFileEntry_Snapshot(t *testing.T) {
	e := &fileEntry{id: 3, fileSource: fileSource{uniqueID: "u", remoteID: "r", size: 8}, path: "/tmp/u"}

	file := e.snapshot()
	assert.False(t, file.Local.CanBeDownloaded)
	assert.Equal(t, "r", file.Remote.ID)
	assert.Empty(t, file.Local.Path)

	e.completed = true
	e.location = &tg.InputDocumentFileLocation{}
	file = e.snapshot()
	assert.True(t, file.Local.CanBeDownloaded)
	assert.Equal(t, "/tmp/u", file.Local.Path)
}
