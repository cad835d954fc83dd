package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/yockii/slide_stream/internal/constant"
)

func collect(t *testing.T, c *StreamClient) ([]Event, error) {
	t.Helper()
	var events []Event
	err := c.Generate(context.Background(), &GenerateRequest{Prompt: "p"}, func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	return events, err
}

func TestGenerate_NDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "m1", gjson.GetBytes(body, "model").String())
		assert.True(t, gjson.GetBytes(body, "stream").Bool())
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"type":"status-update","data":"<SECTION>","metadata":{"author":"Gemini"}}`)
		fmt.Fprintln(w, `not json`)
		fmt.Fprintln(w, `{"type":"log","data":"searching","metadata":{"author":"agent","references":["a","b"]}}`)
		fmt.Fprintln(w, `{"response":"<H1>x","done":false}`)
		fmt.Fprintln(w, `{"response":"","done":true}`)
		fmt.Fprintln(w, `{"type":"status-update","data":"ignored"}`)
	}))
	defer srv.Close()

	events, err := collect(t, NewStreamClient(srv.URL, "key", "m1", time.Second))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, Event{Type: EventStatusUpdate, Data: "<SECTION>", Author: "Gemini"}, events[0])
	assert.Equal(t, "log", events[1].Type)
	assert.Equal(t, []string{"a", "b"}, events[1].References)
	assert.Equal(t, "<H1>x", events[2].Data)
}

func TestGenerate_SSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"<SEC\"}}]}\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: {\"delta\":\"TION>\"}\n\n")
		fmt.Fprint(w, "data: plain text\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"delta\":\"late\"}\n\n")
	}))
	defer srv.Close()

	events, err := collect(t, NewStreamClient(srv.URL, "", "m", time.Second))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "<SEC", events[0].Data)
	assert.Equal(t, "TION>", events[1].Data)
	assert.Equal(t, "plain text", events[2].Data)
	for _, ev := range events {
		assert.Equal(t, EventStatusUpdate, ev.Type)
	}
}

func TestGenerate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := collect(t, NewStreamClient(srv.URL, "", "m", time.Second))
	require.Error(t, err)
	assert.True(t, errors.Is(err, constant.ErrUpstreamStream))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerate_CallbackAbort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(w, "{\"type\":\"status-update\",\"data\":\"%d\"}\n", i)
		}
	}))
	defer srv.Close()

	stop := errors.New("stop")
	n := 0
	err := NewStreamClient(srv.URL, "", "m", time.Second).Generate(context.Background(), &GenerateRequest{}, func(Event) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, n)
}

func TestGenerate_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"status-update","data":"first"}`)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	err := NewStreamClient(srv.URL, "", "m", 0).Generate(ctx, &GenerateRequest{}, func(ev Event) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadSSE_MultiLineData(t *testing.T) {
	var got []Event
	err := ReadSSE(strings.NewReader("event: x\r\ndata: line1\r\ndata: line2\r\n\r\n"), func(ev Event) error {
		got = append(got, ev)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "line1\nline2", got[0].Data)
}

func TestGenerate_LongStreamOutlivesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		for i := 0; i < 4; i++ {
			fmt.Fprintf(w, `{"type":"status-update","data":"part-%d"}`+"\n", i)
			w.(http.Flusher).Flush()
			time.Sleep(40 * time.Millisecond)
		}
	}))
	defer srv.Close()

	// 整个流超过 timeout，但数据一直在到达
	events, err := collect(t, NewStreamClient(srv.URL, "", "m", 60*time.Millisecond))
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, "part-3", events[3].Data)
}

func TestGenerate_ResponseHeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := collect(t, NewStreamClient(srv.URL, "", "m", 50*time.Millisecond))
	assert.Error(t, err)
}
