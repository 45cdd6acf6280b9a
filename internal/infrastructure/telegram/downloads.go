package telegram

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"golang.org/x/time/rate"

	"github.com/Conte777/telegram-files/internal/infrastructure/telegram/tdapi"
)

// chunkSize is the upload.getFile request size. Resumed downloads restart
// from a chunk boundary.
const chunkSize = 512 * 1024

type downloadTask struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

type downloadOptions struct {
	// list adds the file to the download list summary
	list bool
	// whole fetches the file in one go without progress pushes
	whole bool
}

// startDownload starts or resumes the download of a file. A nil task means
// the file is already complete.
func (c *Client) startDownload(id int32, opts downloadOptions) (*downloadTask, error) {
	t, file, err := c.newTask(id, opts)
	if file != nil {
		c.pushFile(file)
	}
	return t, err
}

// newTask returns the started file state only when a new task was launched
func (c *Client) newTask(id int32, opts downloadOptions) (*downloadTask, *tdapi.File, error) {
	c.taskMu.Lock()
	defer c.taskMu.Unlock()

	if c.ctx.Err() != nil {
		return nil, nil, errAborted()
	}

	var entry fileEntry
	_, ok := c.files.update(id, func(e *fileEntry) {
		if opts.list {
			e.listed = true
		}
		entry = *e
	})
	if !ok {
		return nil, nil, tdapi.NewError(404, "File not found")
	}
	if entry.completed {
		return nil, nil, nil
	}
	if t, ok := c.tasks[id]; ok {
		return t, nil, nil
	}
	if entry.location == nil {
		return nil, nil, tdapi.NewError(400, "File can't be downloaded")
	}

	fetch := c.fetchChunks
	if opts.whole && entry.downloaded == 0 {
		fetch = c.fetchWhole
	}

	ctx, cancel := context.WithCancel(c.ctx)
	t := &downloadTask{cancel: cancel, done: make(chan struct{})}
	c.tasks[id] = t

	file, _ := c.files.update(id, func(e *fileEntry) { e.active = true })

	c.wg.Add(1)
	go c.runDownload(ctx, t, id, fetch)
	return t, file, nil
}

func (c *Client) runDownload(ctx context.Context, t *downloadTask, id int32, fetch func(context.Context, int32) error) {
	defer c.wg.Done()
	defer close(t.done)
	defer t.cancel()

	t.err = fetch(ctx, id)

	c.taskMu.Lock()
	delete(c.tasks, id)
	c.taskMu.Unlock()

	// paused, cancelled or closed: whoever stopped the task reports the state
	if ctx.Err() != nil {
		return
	}

	file, _ := c.files.update(id, func(e *fileEntry) { e.active = false })
	if t.err != nil {
		c.logger.Warn().Err(t.err).Int32("file_id", id).Msg("Download failed")
	}
	c.pushFile(file)
	c.pushDownloads()
}

// stopTask cancels the download of id and waits for it
func (c *Client) stopTask(id int32) {
	c.taskMu.Lock()
	t := c.tasks[id]
	c.taskMu.Unlock()

	if t != nil {
		t.cancel()
		<-t.done
	}
}

func (c *Client) pauseDownload(id int32) (*tdapi.File, error) {
	c.stopTask(id)

	file, ok := c.files.update(id, func(e *fileEntry) { e.active = false })
	if !ok {
		return nil, tdapi.NewError(404, "File not found")
	}
	c.pushFile(file)
	c.pushDownloads()
	return file, nil
}

// cancelDownload stops the download and drops the partial data
func (c *Client) cancelDownload(id int32, onlyIfPending bool) error {
	entry, ok := c.files.entry(id)
	if !ok {
		return tdapi.NewError(404, "File not found")
	}
	if onlyIfPending && entry.downloaded > 0 {
		return nil
	}

	c.stopTask(id)

	if !entry.completed {
		if err := os.Remove(entry.partPath()); err != nil && !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Int32("file_id", id).Msg("Failed to remove partial file")
		}
	}

	file, _ := c.files.update(id, func(e *fileEntry) {
		e.active = false
		e.listed = false
		if !e.completed {
			e.downloaded = 0
		}
	})
	c.pushFile(file)
	c.pushDownloads()
	return nil
}

// fetchChunks downloads the rest of a file chunk by chunk into its part
// file, pushing throttled progress
func (c *Client) fetchChunks(ctx context.Context, id int32) error {
	entry, ok := c.files.entry(id)
	if !ok {
		return tdapi.NewError(404, "File not found")
	}

	if err := os.MkdirAll(filepath.Dir(entry.path), 0o755); err != nil {
		return fmt.Errorf("failed to create files directory: %w", err)
	}

	f, err := os.OpenFile(entry.partPath(), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open part file: %w", err)
	}
	defer f.Close()

	offset := entry.downloaded - entry.downloaded%chunkSize
	if err := f.Truncate(offset); err != nil {
		return fmt.Errorf("failed to truncate part file: %w", err)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek part file: %w", err)
	}

	progress := rate.Sometimes{Interval: c.progressInterval}
	refreshed := false

	for {
		chunk, err := c.getChunk(ctx, entry, offset)
		if err != nil {
			if !refreshed && tgerr.Is(err, "FILE_REFERENCE_EXPIRED", "FILE_REFERENCE_INVALID") {
				refreshed = true
				if entry, err = c.refreshLocation(ctx, id); err == nil {
					continue
				}
			}
			return err
		}

		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("failed to write part file: %w", err)
		}
		offset += int64(len(chunk))

		file, _ := c.files.update(id, func(e *fileEntry) { e.downloaded = offset })
		if len(chunk) < chunkSize || (entry.size > 0 && offset >= entry.size) {
			break
		}
		progress.Do(func() { c.pushFile(file) })
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close part file: %w", err)
	}
	return c.complete(id, entry, offset)
}

// fetchWhole downloads a small file without progress
func (c *Client) fetchWhole(ctx context.Context, id int32) error {
	entry, ok := c.files.entry(id)
	if !ok {
		return tdapi.NewError(404, "File not found")
	}

	if err := os.MkdirAll(filepath.Dir(entry.path), 0o755); err != nil {
		return fmt.Errorf("failed to create files directory: %w", err)
	}

	err := c.withFileDC(ctx, entry.dc, func(api *tg.Client) error {
		_, err := downloader.NewDownloader().Download(api, entry.location).ToPath(ctx, entry.partPath())
		return err
	})
	if err != nil {
		return err
	}

	info, err := os.Stat(entry.partPath())
	if err != nil {
		return fmt.Errorf("failed to stat downloaded file: %w", err)
	}
	return c.complete(id, entry, info.Size())
}

func (c *Client) complete(id int32, entry fileEntry, size int64) error {
	if err := os.Rename(entry.partPath(), entry.path); err != nil {
		return fmt.Errorf("failed to move downloaded file: %w", err)
	}

	c.files.update(id, func(e *fileEntry) {
		e.completed = true
		e.downloaded = size
		if e.size == 0 {
			e.size = size
		}
	})
	c.logger.Debug().Int32("file_id", id).Int64("size", size).Msg("Download completed")
	return nil
}

func (c *Client) getChunk(ctx context.Context, entry fileEntry, offset int64) ([]byte, error) {
	var chunk []byte
	err := c.withFileDC(ctx, entry.dc, func(api *tg.Client) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		res, err := api.UploadGetFile(ctx, &tg.UploadGetFileRequest{
			Precise:  true,
			Location: entry.location,
			Offset:   offset,
			Limit:    chunkSize,
		})
		if err != nil {
			return err
		}

		file, ok := res.(*tg.UploadFile)
		if !ok {
			return tdapi.NewError(400, "CDN downloads are not supported")
		}
		chunk = file.Bytes
		return nil
	})
	return chunk, err
}

// refreshLocation fetches the owning message again for a fresh file reference
func (c *Client) refreshLocation(ctx context.Context, id int32) (fileEntry, error) {
	entry, _ := c.files.entry(id)
	if entry.chatID == 0 {
		return entry, tdapi.NewError(400, "File reference expired")
	}
	if _, err := c.getMessage(ctx, entry.chatID, entry.messageID); err != nil {
		return entry, err
	}
	entry, _ = c.files.entry(id)
	return entry, nil
}

func (c *Client) pushFile(file *tdapi.File) {
	if file != nil {
		c.push(&tdapi.UpdateFile{File: file})
	}
}

func (c *Client) pushDownloads() {
	c.push(c.files.summary())
}

func (c *Client) downloadFile(r *tdapi.DownloadFile) (*tdapi.File, error) {
	if !c.isReady() {
		return nil, errUnauthorized()
	}
	t, err := c.startDownload(r.FileID, downloadOptions{whole: r.Synchronous})
	if err != nil {
		return nil, err
	}

	if r.Synchronous && t != nil {
		select {
		case <-t.done:
			if t.err != nil {
				return nil, t.err
			}
		case <-c.ctx.Done():
			return nil, errAborted()
		}
	}

	file, ok := c.files.get(r.FileID)
	if !ok {
		return nil, tdapi.NewError(404, "File not found")
	}
	return file, nil
}

func (c *Client) addToDownloads(r *tdapi.AddFileToDownloads) (*tdapi.File, error) {
	if !c.isReady() {
		return nil, errUnauthorized()
	}
	if _, ok := c.files.update(r.FileID, func(e *fileEntry) {
		if r.ChatID != 0 {
			e.chatID, e.messageID = r.ChatID, r.MessageID
		}
	}); !ok {
		return nil, tdapi.NewError(404, "File not found")
	}

	if _, err := c.startDownload(r.FileID, downloadOptions{list: true}); err != nil {
		return nil, err
	}
	c.pushDownloads()

	file, _ := c.files.get(r.FileID)
	return file, nil
}

func (c *Client) togglePaused(r *tdapi.ToggleDownloadIsPaused) (*tdapi.Ok, error) {
	if r.IsPaused {
		if _, err := c.pauseDownload(r.FileID); err != nil {
			return nil, err
		}
		return &tdapi.Ok{}, nil
	}

	if !c.isReady() {
		return nil, errUnauthorized()
	}
	if _, err := c.startDownload(r.FileID, downloadOptions{list: true}); err != nil {
		return nil, err
	}
	return &tdapi.Ok{}, nil
}
