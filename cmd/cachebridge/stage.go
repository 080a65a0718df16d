package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachebridge"
	"github.com/unkn0wn-root/cachebridge/event"
	"github.com/unkn0wn-root/cachebridge/value"
)

const defaultMaxLine = 4 << 20

// stage feeds NDJSON records through a processor, one record per line.
type stage struct {
	proc       cachebridge.Processor
	log        *zap.Logger
	failureTag string // appended to "tags" of failed records; "" => untagged
	lineLimit  int    // longer lines are skipped as malformed; 0 => 4MiB
	dropOnMiss bool
}

type stats struct {
	in, out, failed, dropped, malformed int
}

func (s *stage) run(ctx context.Context, r io.Reader, w io.Writer) (stats, error) {
	var st stats
	br := bufio.NewReaderSize(r, 64*1024)
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	for line := 1; ; line++ {
		raw, tooLong, rerr := readLine(br, s.maxLine())
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return st, rerr
		}
		if len(raw) > 0 || tooLong {
			if err := ctx.Err(); err != nil {
				return st, err
			}
			st.in++
			if err := s.handle(ctx, line, raw, tooLong, bw, &st); err != nil {
				return st, err
			}
		}
		if rerr != nil {
			break
		}
	}
	return st, bw.Flush()
}

func (s *stage) handle(ctx context.Context, line int, raw []byte, tooLong bool, w io.Writer, st *stats) error {
	if tooLong {
		st.malformed++
		s.log.Warn("skipping oversized record", zap.Int("line", line), zap.Int("limit", s.maxLine()))
		return nil
	}
	rec := event.NewRecord()
	if err := json.Unmarshal(raw, rec); err != nil {
		st.malformed++
		s.log.Warn("skipping malformed record", zap.Int("line", line), zap.Error(err))
		return nil
	}

	if err := s.proc.Process(ctx, rec); err != nil {
		if s.dropOnMiss && errors.Is(err, cachebridge.ErrCacheMiss) {
			st.dropped++
			return nil
		}
		if errors.Is(err, cachebridge.ErrClosed) {
			return err
		}
		st.failed++
		addTag(rec, s.failureTag)
	}

	out, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("line %d: encode record: %w", line, err)
	}
	out = append(out, '\n')
	if _, err := w.Write(out); err != nil {
		return err
	}
	st.out++
	return nil
}

func (s *stage) maxLine() int {
	if s.lineLimit > 0 {
		return s.lineLimit
	}
	return defaultMaxLine
}

// readLine returns the next line without its terminator. A line longer than
// limit is consumed up to its newline and reported as tooLong with no bytes.
func readLine(br *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > limit+1 {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if tooLong {
			return nil, true, err
		}
		buf = bytes.TrimSuffix(buf, []byte{'\n'})
		buf = bytes.TrimSuffix(buf, []byte{'\r'})
		if len(buf) > limit {
			return nil, true, err
		}
		return buf, false, err
	}
}

// addTag appends tag to the record's "tags" list once. A scalar "tags"
// attribute becomes the first element of the list.
func addTag(rec *event.Record, tag string) {
	if tag == "" {
		return
	}
	cur, ok := rec.Get("tags")
	var items []value.Value
	switch {
	case !ok || cur.IsNull():
	case cur.Kind() == value.KindList:
		items = cur.Items()
	default:
		items = []value.Value{cur}
	}
	for _, it := range items {
		if s, ok := it.AsString(); ok && s == tag {
			return
		}
	}
	rec.Set("tags", value.List(append(items, value.String(tag))...))
}
