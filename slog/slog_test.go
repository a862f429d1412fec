package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/mock"
	casegenslog "github.com/fwojciec/casegen/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRenderer_Render(t *testing.T) {
	t.Parallel()

	t.Run("logs render with status, bytes and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Renderer{
			RenderFn: func(ctx context.Context, url string) (*casegen.RenderResult, error) {
				return &casegen.RenderResult{StatusCode: 200, Content: "<html>content</html>"}, nil
			},
		}

		renderer := casegenslog.NewLoggingRenderer(inner, logger)
		res, err := renderer.Render(context.Background(), "https://app.example.com/login")

		require.NoError(t, err)
		assert.Equal(t, "<html>content</html>", res.Content)
		output := buf.String()
		assert.Contains(t, output, "msg=render")
		assert.Contains(t, output, "url=https://app.example.com/login")
		assert.Contains(t, output, "status=200")
		assert.Contains(t, output, "bytes=20")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Renderer{
			RenderFn: func(ctx context.Context, url string) (*casegen.RenderResult, error) {
				return nil, errors.New("network error")
			},
		}

		renderer := casegenslog.NewLoggingRenderer(inner, logger)
		_, err := renderer.Render(context.Background(), "https://app.example.com/login")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "bytes=0")
		assert.Contains(t, output, "err=\"network error\"")
	})

	t.Run("delegates close", func(t *testing.T) {
		t.Parallel()

		closed := false
		inner := &mock.Renderer{
			CloseFn: func() error {
				closed = true
				return nil
			},
		}

		renderer := casegenslog.NewLoggingRenderer(inner, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

		require.NoError(t, renderer.Close())
		assert.True(t, closed)
	})
}

func TestLoggingExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("logs counts at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.Extractor{
			ExtractFn: func(content, pageURL string) (*casegen.PageData, error) {
				return &casegen.PageData{
					Links:    make([]casegen.Link, 3),
					Forms:    make([]casegen.Form, 1),
					Elements: make([]casegen.Element, 7),
				}, nil
			},
		}

		data, err := casegenslog.NewLoggingExtractor(inner, logger).Extract("<html></html>", "https://app.example.com/")

		require.NoError(t, err)
		assert.Len(t, data.Links, 3)
		output := buf.String()
		assert.Contains(t, output, "msg=extract")
		assert.Contains(t, output, "links=3")
		assert.Contains(t, output, "forms=1")
		assert.Contains(t, output, "elements=7")
	})

	t.Run("is silent at info level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Extractor{
			ExtractFn: func(content, pageURL string) (*casegen.PageData, error) {
				return &casegen.PageData{}, nil
			},
		}

		_, err := casegenslog.NewLoggingExtractor(inner, logger).Extract("", "https://app.example.com/")

		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}

func TestLoggingNarrator_Narrate(t *testing.T) {
	t.Parallel()

	t.Run("logs original and narrated names", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Narrator{
			NarrateFn: func(ctx context.Context, tc *casegen.TestCase) (*casegen.Narrative, error) {
				return &casegen.Narrative{Name: "Sign in"}, nil
			},
		}

		out, err := casegenslog.NewLoggingNarrator(inner, logger).Narrate(context.Background(), &casegen.TestCase{Name: "User login"})

		require.NoError(t, err)
		assert.Equal(t, "Sign in", out.Name)
		output := buf.String()
		assert.Contains(t, output, "msg=narrate")
		assert.Contains(t, output, `case="User login"`)
		assert.Contains(t, output, `name="Sign in"`)
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Narrator{
			NarrateFn: func(ctx context.Context, tc *casegen.TestCase) (*casegen.Narrative, error) {
				return nil, errors.New("quota exceeded")
			},
		}

		_, err := casegenslog.NewLoggingNarrator(inner, logger).Narrate(context.Background(), &casegen.TestCase{Name: "x"})

		require.Error(t, err)
		assert.Contains(t, buf.String(), `err="quota exceeded"`)
	})
}
