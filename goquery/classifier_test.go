package goquery_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/goquery"
	"github.com/stretchr/testify/assert"
)

func links(n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, `<a href="/p/%d">Page %d</a>`, i, i)
	}
	return b.String()
}

func TestClassifier_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want casegen.PageType
	}{
		{
			name: "password field makes a form page",
			html: `<header><form><input name="q"></form></header><form><input type="password" name="p"></form>` + links(30),
			want: casegen.PageTypeForm,
		},
		{
			name: "form in main content",
			html: `<main><form><input name="title"></form></main>`,
			want: casegen.PageTypeForm,
		},
		{
			name: "dashboard marker",
			html: `<header><form><input name="q"></form></header><div id="dashboard-root"></div>`,
			want: casegen.PageTypeDashboard,
		},
		{
			name: "widgets",
			html: `<div class="card">1</div><div class="card">2</div><div class="widget">3</div>`,
			want: casegen.PageTypeDashboard,
		},
		{
			name: "table rows",
			html: `<table><tbody><tr><td>1</td></tr><tr><td>2</td></tr><tr><td>3</td></tr><tr><td>4</td></tr><tr><td>5</td></tr></tbody></table>`,
			want: casegen.PageTypeList,
		},
		{
			name: "list of links in main",
			html: `<main><ul>` + strings.Repeat(`<li><a href="/item">item</a></li>`, 6) + `</ul></main>`,
			want: casegen.PageTypeList,
		},
		{
			name: "header search only",
			html: `<header><form><input name="q"></form></header><p>About us</p>`,
			want: casegen.PageTypeForm,
		},
		{
			name: "many links",
			html: links(25),
			want: casegen.PageTypeDashboard,
		},
		{
			name: "some links",
			html: links(7),
			want: casegen.PageTypeList,
		},
		{
			name: "plain page",
			html: `<p>hello</p>`,
			want: casegen.PageTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, goquery.NewClassifier().Classify(tt.html))
		})
	}
}
