package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachebridge"
	"github.com/unkn0wn-root/cachebridge/event"
	"github.com/unkn0wn-root/cachebridge/provider/ristretto"
	"github.com/unkn0wn-root/cachebridge/value"
)

func newBridges(t *testing.T, fields cachebridge.FieldMap) (get, set *cachebridge.Bridge) {
	t.Helper()
	p, err := ristretto.New(ristretto.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	cfg := cachebridge.DefaultConfig()
	cfg.Backend = cachebridge.BackendRistretto
	cfg.Key = "stage"
	cfg.Field = "message"
	cfg.Fields = fields

	get, err = cachebridge.New(cachebridge.Options{Config: cfg, Provider: p})
	require.NoError(t, err)
	cfg.Get = false
	set, err = cachebridge.New(cachebridge.Options{Config: cfg, Provider: p})
	require.NoError(t, err)
	return get, set
}

func runStage(t *testing.T, s *stage, in string) (string, stats) {
	t.Helper()
	var out bytes.Buffer
	st, err := s.run(context.Background(), strings.NewReader(in), &out)
	require.NoError(t, err)
	return out.String(), st
}

func TestStageSetThenGet(t *testing.T) {
	get, set := newBridges(t, cachebridge.FieldMap{{Source: "user", Target: "cached_user"}})

	w := &stage{proc: set, log: zap.NewNop(), failureTag: "_cachebridgefailure"}
	out, st := runStage(t, w, `{"user":"ada","n":1}`+"\n")
	assert.Equal(t, `{"user":"ada","n":1}`+"\n", out)
	assert.Equal(t, 1, st.out)

	r := &stage{proc: get, log: zap.NewNop(), failureTag: "_cachebridgefailure"}
	out, _ = runStage(t, r, `{"message":"x"}`+"\n")
	assert.Equal(t, `{"message":"x","cached_user":"ada"}`+"\n", out)
}

func TestStageTagsFailures(t *testing.T) {
	get, _ := newBridges(t, nil)
	s := &stage{proc: get, log: zap.NewNop(), failureTag: "_cachebridgefailure"}

	in := `{"message":"a"}` + "\n" + `{"message":"b","tags":["keep"]}` + "\n"
	out, st := runStage(t, s, in)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"message":"a","tags":["_cachebridgefailure"]}`, lines[0])
	assert.Equal(t, `{"message":"b","tags":["keep","_cachebridgefailure"]}`, lines[1])
	assert.Equal(t, 2, st.failed)
}

func TestStageDropOnMiss(t *testing.T) {
	get, _ := newBridges(t, nil)
	s := &stage{proc: get, log: zap.NewNop(), dropOnMiss: true}

	out, st := runStage(t, s, `{"message":"a"}`+"\n")
	assert.Empty(t, out)
	assert.Equal(t, 1, st.dropped)
}

func TestStageSkipsMalformedLines(t *testing.T) {
	_, set := newBridges(t, nil)
	s := &stage{proc: set, log: zap.NewNop()}

	in := "not json\n\n[1,2]\n" + `{"message":"ok"}` + "\n"
	out, st := runStage(t, s, in)
	assert.Equal(t, `{"message":"ok"}`+"\n", out)
	assert.Equal(t, 2, st.malformed)
	assert.Equal(t, 3, st.in)
}

func TestStageSkipsOversizedLines(t *testing.T) {
	_, set := newBridges(t, nil)
	s := &stage{proc: set, log: zap.NewNop(), lineLimit: 32}

	big := `{"message":"` + strings.Repeat("x", 200_000) + `"}`
	in := `{"message":"a"}` + "\n" + big + "\n" + `{"message":"b"}` + "\r\n" + `{"message":"c"}`
	out, st := runStage(t, s, in)
	assert.Equal(t, `{"message":"a"}`+"\n"+`{"message":"b"}`+"\n"+`{"message":"c"}`+"\n", out)
	assert.Equal(t, 1, st.malformed)
	assert.Equal(t, 4, st.in)
	assert.Equal(t, 3, st.out)
}

func TestReadLine(t *testing.T) {
	br := bufio.NewReaderSize(strings.NewReader("abc\n"+strings.Repeat("y", 100)+"\nlast"), 16)

	line, tooLong, err := readLine(br, 8)
	require.NoError(t, err)
	assert.False(t, tooLong)
	assert.Equal(t, "abc", string(line))

	line, tooLong, err = readLine(br, 8)
	require.NoError(t, err)
	assert.True(t, tooLong)
	assert.Nil(t, line)

	line, tooLong, err = readLine(br, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, tooLong)
	assert.Equal(t, "last", string(line))
}

func TestStageStopsWhenClosed(t *testing.T) {
	_, set := newBridges(t, nil)
	require.NoError(t, set.Close(context.Background()))
	s := &stage{proc: set, log: zap.NewNop()}

	var out bytes.Buffer
	_, err := s.run(context.Background(), strings.NewReader(`{"message":"x"}`+"\n"), &out)
	assert.ErrorIs(t, err, cachebridge.ErrClosed)
}

func TestAddTag(t *testing.T) {
	rec := event.NewRecord()
	rec.Set("tags", value.String("old"))
	addTag(rec, "t")
	addTag(rec, "t")
	v, _ := rec.Get("tags")
	assert.True(t, value.Equal(value.List(value.String("old"), value.String("t")), v))

	empty := event.NewRecord()
	addTag(empty, "")
	assert.Equal(t, 0, empty.Len())
}
