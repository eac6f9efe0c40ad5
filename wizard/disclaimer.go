package wizard

import (
	"html/template"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

const disclaimerMarkup = `<h3 class="notice-header">🛑 IMPORTANT SAFETY NOTICE! 🛑</h3>
<p>Your health and safety are paramount. <strong>DO NOT rely on this simulation for medical decisions.</strong></p>`

var (
	disclaimerOnce sync.Once
	disclaimerHTML template.HTML
)

// Disclaimer returns the static safety notice shown in the result view.
// The markup is sanitised once and identical on every call.
func Disclaimer() template.HTML {
	disclaimerOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("h3", "p", "strong")
		policy.AllowAttrs("class").OnElements("h3")
		// #nosec G203 -- sanitised above
		disclaimerHTML = template.HTML(policy.Sanitize(disclaimerMarkup))
	})
	return disclaimerHTML
}
