package config

import "sort"

// Viewport is a named browser window size in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Built-in viewport names. These always exist even when the objectives file
// defines no viewports of its own.
const (
	ViewportDesktop = "desktop"
	ViewportMobile  = "mobile"
)

// Built-in viewport sizes: a common desktop resolution and the classic
// iPhone SE portrait size.
var defaultViewports = map[string]Viewport{
	ViewportDesktop: {Width: 1920, Height: 1080},
	ViewportMobile:  {Width: 375, Height: 667},
}

// PageObjective describes one page of the site under test: what it is for
// and what the browser agent should verify on it. Values are immutable after
// load.
type PageObjective struct {
	// Title is the human-readable page name used in tasks and reports.
	Title string `yaml:"title"`

	// Purpose is a one-line statement of what the page is for. It is
	// interpolated into both agent tasks and the vision grading rubric.
	Purpose string `yaml:"purpose"`

	// Path is appended to the base URL to reach the page.
	Path string `yaml:"path"`

	// Objectives are the acceptance criteria the agent checks, one per
	// line in the task instructions.
	Objectives []string `yaml:"objectives"`

	// KeyElements are UI elements that must be present on the page.
	KeyElements []string `yaml:"key_elements,omitempty"`

	// MobileCritical marks pages that must also be tested on the mobile
	// viewport. Nil means true: pages are mobile-critical unless the
	// objectives file says otherwise.
	MobileCritical *bool `yaml:"mobile_critical,omitempty"`

	// APIOnly marks pages with no meaningful UI. They are skipped by --all.
	APIOnly bool `yaml:"api_only,omitempty"`

	// RequiresData marks pages that need pre-seeded server state to render
	// usefully. They are skipped by --all.
	RequiresData bool `yaml:"requires_data,omitempty"`
}

// IsMobileCritical reports whether the page should also run on the mobile
// viewport. Unset defaults to true.
func (p PageObjective) IsMobileCritical() bool {
	if p.MobileCritical == nil {
		return true
	}
	return *p.MobileCritical
}

// File represents the structure of the .widgetuat.yaml objectives file.
type File struct {
	// BaseURL overrides the default site under test. The --base-url flag
	// overrides this in turn.
	BaseURL string `yaml:"base_url,omitempty"`

	// AgentURL is the browser-agent service endpoint.
	AgentURL string `yaml:"agent_url,omitempty"`

	// Model overrides the default LLM identifier.
	Model string `yaml:"model,omitempty"`

	// Viewports maps viewport names to sizes. Entries here override the
	// built-in desktop and mobile sizes.
	Viewports map[string]Viewport `yaml:"viewports,omitempty"`

	// Pages maps page keys to their objectives.
	Pages map[string]PageObjective `yaml:"pages,omitempty"`

	// Workflows maps workflow names to ordered step descriptions,
	// replacing the built-in text for submit/verify when present.
	Workflows map[string][]string `yaml:"workflows,omitempty"`
}

// NewFile returns an empty objectives file with initialized maps.
func NewFile() *File {
	return &File{
		Viewports: make(map[string]Viewport),
		Pages:     make(map[string]PageObjective),
		Workflows: make(map[string][]string),
	}
}

// Viewport returns the size for a viewport name. File entries take
// precedence over the built-in desktop and mobile sizes.
func (f *File) Viewport(name string) (Viewport, bool) {
	if v, ok := f.Viewports[name]; ok {
		return v, true
	}
	v, ok := defaultViewports[name]
	return v, ok
}

// Page returns the objective for a page key.
func (f *File) Page(key string) (PageObjective, bool) {
	p, ok := f.Pages[key]
	return p, ok
}

// PageKeys returns all configured page keys in sorted order.
// Map iteration order is random; sorting keeps run order and report order
// stable across invocations.
func (f *File) PageKeys() []string {
	keys := make([]string, 0, len(f.Pages))
	for k := range f.Pages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
