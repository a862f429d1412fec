//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	renderer, err := rod.NewRenderer()
	require.NoError(t, err)
	defer renderer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err = renderer.Render(ctx, srv.URL)

	require.Error(t, err)
	assert.Equal(t, casegen.ERENDER, casegen.ErrorCode(err))
}

func TestRenderer_Render_ReturnsRenderedHTML(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body>
<div id="content">Loading...</div>
<script>
document.getElementById('content').textContent = 'JavaScript Rendered';
</script>
</body>
</html>`))
	}))
	defer srv.Close()

	renderer, err := rod.NewRenderer()
	require.NoError(t, err)
	defer renderer.Close()

	res, err := renderer.Render(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Contains(t, res.Content, "JavaScript Rendered")
	assert.NotContains(t, res.Content, "Loading...")
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRenderer_Render_CollectsLinkBoxes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html><body style="margin:0">
<a href="/top" style="display:block;width:200px;height:40px">Top</a>
<a href="/hidden" style="display:none">Hidden</a>
<div style="height:3000px"></div>
<a href="/bottom#anchor">Bottom</a>
</body></html>`))
	}))
	defer srv.Close()

	renderer, err := rod.NewRenderer(rod.WithViewport(casegen.Viewport{Width: 1024, Height: 768}))
	require.NoError(t, err)
	defer renderer.Close()

	res, err := renderer.Render(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, casegen.Viewport{Width: 1024, Height: 768}, res.Viewport)

	top := res.Boxes[srv.URL+"/top"]
	assert.True(t, top.Visible)
	assert.Equal(t, 200.0, top.Width)
	assert.Equal(t, 0.0, top.Y)

	assert.False(t, res.Boxes[srv.URL+"/hidden"].Visible)

	bottom, ok := res.Boxes[srv.URL+"/bottom"]
	require.True(t, ok)
	assert.Greater(t, bottom.Y, 3000.0)
}

func TestRenderer_Render_FollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>new</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	renderer, err := rod.NewRenderer()
	require.NoError(t, err)
	defer renderer.Close()

	res, err := renderer.Render(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", res.FinalURL)
}

func TestRenderer_Render_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	renderer, err := rod.NewRenderer()
	require.NoError(t, err)
	defer renderer.Close()

	_, err = renderer.Render(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, casegen.ERENDER, casegen.ErrorCode(err))
}

func TestRenderer_Render_TimeoutTriggersOnSlowPage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>delayed</body></html>`))
	}))
	defer srv.Close()

	renderer, err := rod.NewRenderer(rod.WithRenderTimeout(100 * time.Millisecond))
	require.NoError(t, err)
	defer renderer.Close()

	_, err = renderer.Render(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, casegen.ETIMEOUT, casegen.ErrorCode(err))
}

func TestRenderer_Close_Idempotent(t *testing.T) {
	t.Parallel()

	renderer, err := rod.NewRenderer()
	require.NoError(t, err)

	require.NoError(t, renderer.Close())
	require.NoError(t, renderer.Close())
}

func TestRenderer_Render_AfterClose_ReturnsError(t *testing.T) {
	t.Parallel()

	renderer, err := rod.NewRenderer()
	require.NoError(t, err)
	require.NoError(t, renderer.Close())

	_, err = renderer.Render(context.Background(), "http://example.com")

	require.Error(t, err)
	assert.Equal(t, casegen.EINVALID, casegen.ErrorCode(err))
	assert.Contains(t, casegen.ErrorMessage(err), "closed")
}

func TestRenderer_Render_SerializesShadowDOMContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Shadow DOM Test</title></head>
<body>
<nav-menu></nav-menu>
<script>
class NavMenu extends HTMLElement {
  constructor() {
    super();
    const shadow = this.attachShadow({mode: 'open'});
    shadow.innerHTML = '<a href="/shadow-link-1" data-shadow-content="true">Shadow Link 1</a><a href="/shadow-link-2" data-shadow-content="true">Shadow Link 2</a>';
  }
}
customElements.define('nav-menu', NavMenu);
</script>
</body>
</html>`))
	}))
	defer srv.Close()

	renderer, err := rod.NewRenderer()
	require.NoError(t, err)
	defer renderer.Close()

	res, err := renderer.Render(context.Background(), srv.URL)

	require.NoError(t, err)
	// The marker appears twice in the script source; serialized shadow
	// roots add two more.
	markerCount := strings.Count(res.Content, `data-shadow-content="true"`)
	assert.Greater(t, markerCount, 2, "shadow DOM content not serialized: marker found %d times (expected >2)", markerCount)
}
