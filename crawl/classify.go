package crawl

import "github.com/fwojciec/casegen"

// Thresholds for ClassifyPage.
const (
	dashboardMinLinks = 20
	listMinLinks      = 6
)

// ClassifyPage guesses the page type from extracted structure. Pages with
// forms are form pages, pages dense with links are dashboards and pages
// with a moderate number of links are lists.
func ClassifyPage(data *casegen.PageData) casegen.PageType {
	if data == nil {
		return casegen.PageTypeUnknown
	}
	switch {
	case len(data.Forms) > 0:
		return casegen.PageTypeForm
	case len(data.Links) > dashboardMinLinks:
		return casegen.PageTypeDashboard
	case len(data.Links) >= listMinLinks:
		return casegen.PageTypeList
	}
	return casegen.PageTypeUnknown
}
