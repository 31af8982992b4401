package wal

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/juju/errors"
	"github.com/pierrec/lz4/v4"

	"github.com/RedRocks911/granitedb/logger"
	"github.com/RedRocks911/granitedb/storage/basic"
	"github.com/RedRocks911/granitedb/util"
)

// Codec selects the block compression applied when the buffer is flushed.
const (
	CodecNone   = "none"
	CodecSnappy = "snappy"
	CodecLZ4    = "lz4"
)

const logFileName = "granite.wal"

type logEntry struct {
	lsn     basic.LSN
	payload []byte
}

// LogManager buffers log records in memory and flushes them to the log file
// in compressed blocks. Records get monotonic LSNs at append time; a flush
// happens when the buffer fills, on the background interval, or on an
// explicit Flush.
type LogManager struct {
	mu sync.Mutex

	logFile    *os.File
	nextLSN    basic.LSN
	bufferSize int
	buffer     []logEntry
	codec      string

	stopChan    chan struct{}
	flushTicker *time.Ticker
	wg          sync.WaitGroup
}

var _ basic.LogManager = (*LogManager)(nil)

// NewLogManager opens (or creates) the log file under logDir.
func NewLogManager(logDir string, bufferSize int, codec string, flushInterval time.Duration) (*LogManager, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, errors.Trace(err)
	}

	logFile, err := os.OpenFile(
		filepath.Join(logDir, logFileName),
		os.O_CREATE|os.O_RDWR|os.O_APPEND,
		0644,
	)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open log file in %s", logDir)
	}

	if codec == "" {
		codec = CodecNone
	}
	switch codec {
	case CodecNone, CodecSnappy, CodecLZ4:
	default:
		logFile.Close()
		return nil, errors.Errorf("unknown wal codec %q", codec)
	}

	m := &LogManager{
		logFile:    logFile,
		nextLSN:    1,
		bufferSize: bufferSize,
		buffer:     make([]logEntry, 0, bufferSize),
		codec:      codec,
		stopChan:   make(chan struct{}),
	}

	if flushInterval > 0 {
		m.flushTicker = time.NewTicker(flushInterval)
		m.wg.Add(1)
		go m.backgroundFlush()
	}

	return m, nil
}

func (m *LogManager) backgroundFlush() {
	defer m.wg.Done()
	for {
		select {
		case <-m.flushTicker.C:
			if err := m.Flush(); err != nil {
				logger.Warnf("wal: background flush failed: %v", err)
			}
		case <-m.stopChan:
			return
		}
	}
}

// Append buffers one record and returns its LSN. A full buffer triggers an
// inline flush.
func (m *LogManager) Append(record []byte) (basic.LSN, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lsn := m.nextLSN
	m.nextLSN++

	payload := make([]byte, len(record))
	copy(payload, record)
	m.buffer = append(m.buffer, logEntry{lsn: lsn, payload: payload})

	if len(m.buffer) >= m.bufferSize {
		if err := m.flushBuffer(); err != nil {
			return basic.InvalidLSN, err
		}
	}

	return lsn, nil
}

// Flush writes the buffered records to the log file.
func (m *LogManager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushBuffer()
}

// flushBuffer frames the buffered records into one block, compresses it
// with the configured codec, and appends it to the log file. Caller holds
// the latch.
//
// Block layout: codec byte, raw length, stored length, stored bytes.
// Record layout inside a block: lsn, payload length, payload.
func (m *LogManager) flushBuffer() error {
	if len(m.buffer) == 0 {
		return nil
	}

	raw := make([]byte, 0, 64*len(m.buffer))
	for _, entry := range m.buffer {
		raw = util.WriteUB8(raw, uint64(entry.lsn))
		raw = util.WriteUB4(raw, uint32(len(entry.payload)))
		raw = append(raw, entry.payload...)
	}

	var stored []byte
	var codecByte byte
	switch m.codec {
	case CodecSnappy:
		stored = snappy.Encode(nil, raw)
		codecByte = 1
	case CodecLZ4:
		stored = make([]byte, lz4.CompressBlockBound(len(raw)))
		var c lz4.Compressor
		n, err := c.CompressBlock(raw, stored)
		if err != nil {
			return errors.Annotate(err, "lz4 compression failed")
		}
		if n == 0 || n >= len(raw) {
			// incompressible block, store raw
			stored = raw
			codecByte = 0
		} else {
			stored = stored[:n]
			codecByte = 2
		}
	default:
		stored = raw
		codecByte = 0
	}

	header := make([]byte, 0, 9)
	header = append(header, codecByte)
	header = util.WriteUB4(header, uint32(len(raw)))
	header = util.WriteUB4(header, uint32(len(stored)))

	if _, err := m.logFile.Write(header); err != nil {
		return errors.Annotate(err, "failed to write wal block header")
	}
	if _, err := m.logFile.Write(stored); err != nil {
		return errors.Annotate(err, "failed to write wal block")
	}
	if err := m.logFile.Sync(); err != nil {
		return errors.Annotate(err, "failed to sync wal")
	}

	m.buffer = m.buffer[:0]
	return nil
}

// NextLSN returns the LSN the next append will receive.
func (m *LogManager) NextLSN() basic.LSN {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextLSN
}

// Close flushes the buffer, stops the background flusher and closes the
// file.
func (m *LogManager) Close() error {
	if m.flushTicker != nil {
		m.flushTicker.Stop()
		close(m.stopChan)
		m.wg.Wait()
	}

	if err := m.Flush(); err != nil {
		logger.Warnf("wal: flush on close failed: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Trace(m.logFile.Close())
}
