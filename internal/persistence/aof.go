package persistence

import (
	"bufio"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moonlightdb/moonlight/internal/storage"
	"go.uber.org/zap"
)

type fsyncStrategy int

const (
	fsyncAlways fsyncStrategy = iota + 1
	fsyncEverySec
	fsyncNo
)

// AOF Append Only File persistence
type AOF struct {
	file     *os.File
	writer   *bufio.Writer
	filename string
	strategy fsyncStrategy

	commandsChan chan []byte
	rewriteChan  chan rewriteRequest

	size atomic.Int64 // file size at open/rewrite plus bytes queued since, checked against rewrite_threshold_bytes

	stopChan chan struct{}
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// rewriteRequest asks the listen goroutine (the sole owner of file/writer)
// to swap in a freshly-written replacement log, keeping that ownership
// single-threaded instead of adding a mutex around every write.
type rewriteRequest struct {
	tmpPath string
	done    chan error
}

// NewAOF construct AOF structure
func NewAOF(filename string, strategyStr string, logger *zap.Logger) (*AOF, error) {
	strategy := parseStrategy(strategyStr)

	// open file in Append mode, Create if not exists, Read/Write
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	aof := &AOF{
		file:         f,
		writer:       bufio.NewWriter(f), // default 4KB buffer
		filename:     filename,
		strategy:     strategy,
		commandsChan: make(chan []byte, 10000), // buffer for burst writes
		rewriteChan:  make(chan rewriteRequest),
		stopChan:     make(chan struct{}),
		logger:       logger,
	}

	if info, err := f.Stat(); err == nil {
		aof.size.Store(info.Size())
	}

	// background disk writer
	aof.wg.Add(1)
	go aof.listen()

	return aof, nil
}

// Write send command in channel
func (a *AOF) Write(payload []byte) {
	a.size.Add(int64(len(payload)))
	// if channel is full, this WILL block, providing backpressure
	a.commandsChan <- payload
}

// Size reports the approximate size of the log: its size on disk when it
// was opened or last rewritten, plus the bytes queued for writing since.
// It is used to decide when a rewrite is due.
func (a *AOF) Size() int64 {
	return a.size.Load()
}

// Rewrite compacts the log to a minimal command sequence that reconstructs
// the same state, mirroring RDB.Save's temp-file-then-rename pattern. The
// temp file is built here, off the listen goroutine, since it only reads
// the keyspace; the swap itself is handed to listen() so a.file/a.writer
// stay owned by a single goroutine.
func (a *AOF) Rewrite(ks *storage.ShardedKeyspace) error {
	start := time.Now()
	tmpPath := a.filename + ".rewrite.tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	writer := bufio.NewWriterSize(f, 4*1024*1024)

	if err := ks.DumpCommands(writer); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := writer.Flush(); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	req := rewriteRequest{tmpPath: tmpPath, done: make(chan error, 1)}
	select {
	case a.rewriteChan <- req:
	case <-a.stopChan:
		os.Remove(tmpPath) //nolint:errcheck
		return errors.New("aof closed")
	}

	select {
	case err = <-req.done:
	case <-a.stopChan:
		return errors.New("aof closed")
	}
	if err == nil {
		a.logger.Info("AOF rewritten",
			zap.String("file", a.filename),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return err
}

func (a *AOF) listen() {
	defer a.wg.Done()

	var ticker = time.NewTicker(1 * time.Second)

	switch a.strategy {
	case fsyncAlways, fsyncNo:
		ticker.Stop()
	default:
		defer ticker.Stop()
	}

	for {
		select {
		case p, ok := <-a.commandsChan:
			if !ok {
				return
			}
			if _, err := a.writer.Write(p); err != nil {
				a.logger.Error("AOF write error", zap.Error(err))
				continue
			}

			if a.strategy == fsyncAlways {
				a.flush()
				a.file.Sync() //nolint:errcheck
			}

		case <-ticker.C:
			if a.strategy == fsyncEverySec {
				a.flush()
				a.file.Sync() //nolint:errcheck
			}

		case req := <-a.rewriteChan:
			req.done <- a.swapFile(req.tmpPath)

		case <-a.stopChan:
			a.flush()
			a.file.Sync() //nolint:errcheck
			return
		}
	}
}

// swapFile installs tmpPath as the live log. Only called from listen, so
// a.file/a.writer never need a lock.
func (a *AOF) swapFile(tmpPath string) error {
	a.flush()
	if err := a.file.Sync(); err != nil {
		return err
	}
	if err := a.file.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, a.filename); err != nil {
		return err
	}

	f, err := os.OpenFile(a.filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}

	a.file = f
	a.writer = bufio.NewWriter(f)

	if info, err := f.Stat(); err == nil {
		a.size.Store(info.Size())
	}
	return nil
}

func (a *AOF) flush() {
	if err := a.writer.Flush(); err != nil {
		a.logger.Error("AOF flush error", zap.Error(err))
	}
}

// Close AOF persistence
func (a *AOF) Close() error {
	close(a.stopChan)

	a.wg.Wait() // wait for background routine to finish last flush
	return a.file.Close()
}

func parseStrategy(s string) fsyncStrategy {
	switch s {
	case "always":
		return fsyncAlways
	case "no":
		return fsyncNo
	default:
		return fsyncEverySec
	}
}
