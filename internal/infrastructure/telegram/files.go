package telegram

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gotd/td/tg"

	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

const partSuffix = ".part"

// Directories under the files directory, one per kind of file
const (
	dirPhotos     = "photos"
	dirVideos     = "videos"
	dirMusic      = "music"
	dirDocuments  = "documents"
	dirThumbnails = "thumbnails"
)

// fileSource describes a remote file found in a message
type fileSource struct {
	uniqueID string
	remoteID string
	dc       int
	location tg.InputFileLocationClass
	size     int64
	dir      string
	name     string
	mimeType string

	chatID    int64
	messageID int64
}

// fileEntry is a registered file and its local state
type fileEntry struct {
	id int32
	fileSource

	path       string
	downloaded int64
	active     bool
	completed  bool
	// listed files count towards the download list summary
	listed bool
}

func (e *fileEntry) partPath() string {
	return e.path + partSuffix
}

func (e *fileEntry) snapshot() *tdapi.File {
	local := &tdapi.LocalFile{
		CanBeDownloaded:        e.location != nil,
		IsDownloadingActive:    e.active,
		IsDownloadingCompleted: e.completed,
		DownloadedSize:         e.downloaded,
	}
	if e.completed {
		local.Path = e.path
	}

	return &tdapi.File{
		ID:           e.id,
		Size:         e.size,
		ExpectedSize: e.size,
		Local:        local,
		Remote: &tdapi.RemoteFile{
			ID:       e.remoteID,
			UniqueID: e.uniqueID,
		},
	}
}

// fileRegistry hands out session file ids. The same unique id always maps to
// the same file id; the location is refreshed on every registration because
// file references expire.
type fileRegistry struct {
	filesDir string

	mu       sync.Mutex
	nextID   int32
	byID     map[int32]*fileEntry
	byUnique map[string]*fileEntry
}

func newFileRegistry(filesDir string) *fileRegistry {
	return &fileRegistry{
		filesDir: filesDir,
		byID:     make(map[int32]*fileEntry),
		byUnique: make(map[string]*fileEntry),
	}
}

// setDir moves files registered from now on under dir
func (r *fileRegistry) setDir(dir string) {
	r.mu.Lock()
	r.filesDir = dir
	r.mu.Unlock()
}

// register returns the current state of the file described by src
func (r *fileRegistry) register(src fileSource) *tdapi.File {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.byUnique[src.uniqueID]; ok {
		e.location = src.location
		e.dc = src.dc
		if src.chatID != 0 {
			e.chatID, e.messageID = src.chatID, src.messageID
		}
		return e.snapshot()
	}

	r.nextID++
	e := &fileEntry{
		id:         r.nextID,
		fileSource: src,
		path:       filepath.Join(r.filesDir, src.dir, localName(src)),
	}
	e.restore()

	r.byID[e.id] = e
	r.byUnique[e.uniqueID] = e
	return e.snapshot()
}

// restore picks up files downloaded by an earlier session
func (e *fileEntry) restore() {
	if info, err := os.Stat(e.path); err == nil && (e.size == 0 || info.Size() == e.size) {
		e.completed = true
		e.downloaded = info.Size()
		if e.size == 0 {
			e.size = info.Size()
		}
		return
	}
	if info, err := os.Stat(e.partPath()); err == nil {
		e.downloaded = info.Size()
	}
}

func (r *fileRegistry) get(id int32) (*tdapi.File, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.snapshot(), true
}

// update applies fn to the entry under the lock and returns the new state
func (r *fileRegistry) update(id int32, fn func(e *fileEntry)) (*tdapi.File, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	fn(e)
	return e.snapshot(), true
}

// entry returns a copy of the entry for use outside the lock
func (r *fileRegistry) entry(id int32) (fileEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return fileEntry{}, false
	}
	return *e, true
}

// summary totals the download list
func (r *fileRegistry) summary() *tdapi.UpdateFileDownloads {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := &tdapi.UpdateFileDownloads{}
	for _, e := range r.byID {
		if !e.listed {
			continue
		}
		u.TotalCount++
		u.TotalSize += e.size
		u.DownloadedSize += e.downloaded
	}
	return u
}

// localName is <uniqueID>_<name> or <uniqueID><ext>
func localName(src fileSource) string {
	if name := sanitizeName(src.name); name != "" {
		return src.uniqueID + "_" + name
	}

	ext := ".jpg"
	if src.mimeType != "" {
		if mt := mimetype.Lookup(src.mimeType); mt != nil && mt.Extension() != "" {
			ext = mt.Extension()
		} else if src.dir != dirPhotos && src.dir != dirThumbnails {
			ext = ""
		}
	}
	return src.uniqueID + ext
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.NewReplacer("/", "_", "\\", "_", "\x00", "").Replace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
