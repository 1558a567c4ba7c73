package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	name string
	vec  []float32
	err  error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return s.vec, s.err
}

func (s *stubEmbedder) ModelName() string {
	return s.name
}

func TestGroupEmbedderFallsBack(t *testing.T) {
	primary := &stubEmbedder{name: "remote", err: errors.New("quota exceeded")}
	fallback := &stubEmbedder{name: "local", vec: []float32{1, 0}}

	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "remote", Embedder: primary},
		{Name: "local", Embedder: fallback},
	})

	vec, err := group.Embed(context.Background(), "q", "")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 0}, vec)
}

func TestGroupEmbedderPrefersPrimary(t *testing.T) {
	primary := &stubEmbedder{name: "remote", vec: []float32{0, 1}}
	fallback := &stubEmbedder{name: "local", vec: []float32{1, 0}}

	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "remote", Embedder: primary},
		{Name: "local", Embedder: fallback},
	})

	vec, err := group.Embed(context.Background(), "q", "")
	require.NoError(t, err)
	require.Equal(t, []float32{0, 1}, vec)
}

func TestGroupEmbedderAllFail(t *testing.T) {
	bad := errors.New("down")
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "a", Embedder: &stubEmbedder{err: errors.New("first")}},
		{Name: "b", Embedder: &stubEmbedder{err: bad}},
	})

	_, err := group.Embed(context.Background(), "q", "")
	require.ErrorIs(t, err, bad)
}

type stubGenerator struct {
	text  string
	err   error
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestGroupGeneratorFallsBack(t *testing.T) {
	group := NewGroupGenerator([]GeneratorEntry{
		{Name: "a", Generator: &stubGenerator{err: errors.New("down")}},
		{Name: "b", Generator: &stubGenerator{text: "answer"}},
	})

	res, err := group.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "answer", res)
}

func TestRetryGeneratorBoundedAttempts(t *testing.T) {
	stub := &stubGenerator{err: errors.New("flaky")}
	gen := WithRetry(stub, 2, 0)

	_, err := gen.Generate(context.Background(), "p")
	require.Error(t, err)
	require.Equal(t, 3, stub.calls) // initial attempt + 2 retries
}

func TestRetryGeneratorNoRetryOnUnavailable(t *testing.T) {
	stub := &stubGenerator{err: ErrUnavailable}
	gen := WithRetry(stub, 3, 0)

	_, err := gen.Generate(context.Background(), "p")
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 1, stub.calls)
}
