package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/crawl"
	"github.com/fwojciec/casegen/explore"
)

// maxProgressURL bounds URLs in progress lines.
const maxProgressURL = 80

// newProgressPrinter writes one line per processed page to w.
func newProgressPrinter(w io.Writer) explore.ProgressFunc {
	var mu sync.Mutex
	var n int
	return func(e explore.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		switch e.Type {
		case explore.ProgressVisited:
			n++
			fmt.Fprintf(w, "  [%d] %s (depth %d)\n", n, crawl.TruncateURL(e.URL, maxProgressURL), e.Depth)
		case explore.ProgressDuplicate:
			n++
			fmt.Fprintf(w, "  [%d] %s (duplicate content)\n", n, crawl.TruncateURL(e.URL, maxProgressURL))
		case explore.ProgressFailed:
			fmt.Fprintf(w, "  [!] %s: %s\n", crawl.TruncateURL(e.URL, maxProgressURL), casegen.ErrorMessage(e.Error))
		case explore.ProgressFinished:
			fmt.Fprintln(w, "Exploration finished")
		}
	}
}
