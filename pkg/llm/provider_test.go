package llm

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func newTestStream(body string, decode func([]byte) (Chunk, error)) Stream {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader(body))}
	return &sseStream{
		resp:   resp,
		reader: bufio.NewReader(resp.Body),
		decode: decode,
	}
}

func passthroughDecode(data []byte) (Chunk, error) {
	return Chunk{Content: string(data)}, nil
}

func TestSSEStreamReadsEvents(t *testing.T) {
	body := "data: hello\n\ndata: world\n\ndata: [DONE]\n\n"
	stream := newTestStream(body, passthroughDecode)
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil || chunk.Content != "hello" {
		t.Fatalf("Recv() = %q, %v", chunk.Content, err)
	}
	chunk, err = stream.Recv()
	if err != nil || chunk.Content != "world" {
		t.Fatalf("Recv() = %q, %v", chunk.Content, err)
	}
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("Recv() after [DONE] = %v, want io.EOF", err)
	}
}

func TestSSEStreamSkipsEmptyChunks(t *testing.T) {
	body := "data: \n\ndata: text\n\ndata: [DONE]\n\n"
	stream := newTestStream(body, passthroughDecode)
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil || chunk.Content != "text" {
		t.Fatalf("Recv() = %q, %v", chunk.Content, err)
	}
}

func TestSSEStreamJoinsMultilineData(t *testing.T) {
	body := "data: first\ndata: second\n\ndata: [DONE]\n\n"
	stream := newTestStream(body, passthroughDecode)
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error: %v", err)
	}
	if chunk.Content != "first\nsecond" {
		t.Fatalf("Recv() = %q, want joined lines", chunk.Content)
	}
}

func TestSSEStreamEOFWithoutDone(t *testing.T) {
	stream := newTestStream("data: tail", passthroughDecode)
	defer stream.Close()

	chunk, err := stream.Recv()
	if err != nil || chunk.Content != "tail" {
		t.Fatalf("Recv() = %q, %v", chunk.Content, err)
	}
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("Recv() at end = %v, want io.EOF", err)
	}
}

func TestCollectText(t *testing.T) {
	stream := newTestStream("data: a\n\ndata: b\n\ndata: [DONE]\n\n", passthroughDecode)
	text, err := CollectText(stream)
	if err != nil {
		t.Fatalf("CollectText error: %v", err)
	}
	if text != "ab" {
		t.Fatalf("CollectText = %q, want %q", text, "ab")
	}
}
