package site

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

const defaultTitle = "MCAT Edge | Smarter MCAT Prep"

// PageView carries the document shell settings.
type PageView struct {
	Title   string
	SiteKey string
	Action  string
	// Events are dispatched on body once the document has loaded.
	Events []string
}

// MessageView is the status element of one form.
type MessageView struct {
	Target     string
	Text       string
	Kind       string
	RefreshURL string
	RefreshMs  int64
	Redirect   string
	RedirectMs int64
}

// FormView binds a signup form to its current message.
type FormView struct {
	ID         string
	MessageID  string
	TokenField string
	Message    MessageView
}

// htmlWriter writes markup and keeps the first error.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (h *htmlWriter) component(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

func render(fn func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

// Layout wraps body in the document shell. An empty title uses the site default.
func Layout(v PageView, body templ.Component) templ.Component {
	return render(func(h *htmlWriter) {
		title := v.Title
		if title == "" {
			title = defaultTitle
		}
		h.raw("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
		h.raw(`    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
`)
		h.raw("    <title>")
		h.text(title)
		h.raw("</title>\n")
		h.raw(`    <meta name="description" content="MCAT Edge is adaptive MCAT prep. Join the waitlist for early access.">
    <link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Inter:wght@400;600;800&amp;display=swap">
    <script src="https://unpkg.com/htmx.org@2.0.4"></script>
`)
		h.raw("    <script")
		h.attr("src", "https://www.google.com/recaptcha/api.js?render="+url.QueryEscape(v.SiteKey))
		h.raw("></script>\n</head>\n<body")
		h.attr("data-site-key", v.SiteKey)
		h.attr("data-recaptcha-action", v.Action)
		h.attr("data-init-events", strings.Join(v.Events, ","))
		h.raw(` hx-history="true">` + "\n")
		h.component(body)
		h.raw("\n<script>" + pageScript + "</script>\n</body>\n</html>")
	})
}

// Message renders the status element of a form. An empty message is hidden;
// a pending clear refetches the element when it is due.
func Message(v MessageView) templ.Component {
	return render(func(h *htmlWriter) {
		class := "form-message"
		if v.Kind != "" {
			class += " " + v.Kind
		}
		h.raw("<div")
		h.attr("id", v.Target)
		h.attr("class", class)
		h.raw(` role="status" aria-live="polite"`)
		if v.RefreshURL != "" {
			h.attr("hx-get", v.RefreshURL)
			h.attr("hx-trigger", "load delay:"+strconv.FormatInt(v.RefreshMs, 10)+"ms")
			h.raw(` hx-swap="outerHTML"`)
		}
		if v.Redirect != "" {
			h.attr("data-redirect-url", v.Redirect)
			h.attr("data-redirect-delay", strconv.FormatInt(v.RedirectMs, 10))
		}
		if v.Text == "" {
			h.raw(` style="display: none;"`)
		}
		h.raw(">")
		h.text(v.Text)
		h.raw("</div>")
	})
}

// WaitlistForm renders one signup form with its hidden token field.
func WaitlistForm(v FormView) templ.Component {
	return render(func(h *htmlWriter) {
		h.raw("<form")
		h.attr("id", v.ID)
		h.raw(` class="waitlist-form" novalidate`)
		h.attr("hx-post", "/waitlist/"+v.ID)
		h.attr("hx-target", "#"+v.MessageID)
		h.raw(` hx-swap="outerHTML"`)
		h.attr("data-token-field", v.TokenField)
		h.raw(`>
    <div class="form-row">
        <input type="text" name="name" placeholder="Full name" autocomplete="name" required>
        <input type="email" name="email" placeholder="Email address" autocomplete="email" required>
        <input type="hidden"`)
		h.attr("name", v.TokenField)
		h.attr("id", v.TokenField)
		h.raw(`>
        <button type="submit" class="cta-button">Join the waitlist</button>
    </div>
    `)
		h.component(Message(v.Message))
		h.raw("\n</form>")
	})
}

// Landing renders the landing page body. A nil form is left out.
func Landing(hero, footer *FormView) templ.Component {
	return render(func(h *htmlWriter) {
		h.raw(landingHeader)
		if hero != nil {
			h.component(WaitlistForm(*hero))
		}
		h.raw(landingSections)
		if footer != nil {
			h.component(WaitlistForm(*footer))
		}
		h.raw(landingFooter)
	})
}

const landingHeader = `<header class="site-header">
    <a class="logo" href="/">MCAT<span>Edge</span></a>
    <nav class="site-nav">
        <a href="#features">Features</a>
        <a href="#how-it-works">How it works</a>
        <a href="#waitlist" class="cta-link">Join waitlist</a>
    </nav>
</header>

<main>
    <section class="hero" id="waitlist">
        <h1>Study smarter for the MCAT.</h1>
        <p class="hero-subtitle">Adaptive practice, explanations that stick, and a plan built around your test date.</p>
        `

const landingSections = `
    </section>

    <section class="features" id="features">
        <article class="feature-card">
            <h3>Adaptive question bank</h3>
            <p>Practice that targets the concepts you miss the most.</p>
        </article>
        <article class="feature-card">
            <h3>Full-length diagnostics</h3>
            <p>Know where you stand with exam-style timing and scoring.</p>
        </article>
        <article class="feature-card">
            <h3>Personal study plan</h3>
            <p>A daily schedule that adjusts as you improve.</p>
        </article>
    </section>

    <section class="how-it-works" id="how-it-works">
        <h2>How it works</h2>
        <ol>
            <li>Take a short diagnostic.</li>
            <li>Get a plan tuned to your strengths and gaps.</li>
            <li>Practice daily and watch your score climb.</li>
        </ol>
    </section>
</main>

<footer class="site-footer">
    <h2>Be first in line</h2>
    `

const landingFooter = `
    <p class="copyright">&copy; MCAT Edge</p>
</footer>`

// pageScript configures htmx response handling, dispatches init events, fills
// the bot-check token before each signup request and follows redirect markers.
const pageScript = `
(function () {
    var body = document.body;
    htmx.config.responseHandling = [
        {code: "204", swap: false},
        {code: "429", swap: true, error: false},
        {code: "[23]..", swap: true},
        {code: "[45]..", swap: false, error: true}
    ];

    function fireInitEvents() {
        (body.dataset.initEvents || "").split(",").forEach(function (name) {
            if (name) { body.dispatchEvent(new CustomEvent(name, {bubbles: true})); }
        });
    }
    document.addEventListener("DOMContentLoaded", fireInitEvents);

    document.addEventListener("htmx:confirm", function (evt) {
        var form = evt.detail.elt;
        if (!form.matches || !form.matches("form[data-token-field]")) { return; }
        evt.preventDefault();
        var field = form.querySelector("[name='" + form.dataset.tokenField + "']");
        var issue = function () { evt.detail.issueRequest(true); };
        if (typeof grecaptcha === "undefined") { field.value = ""; issue(); return; }
        grecaptcha.ready(function () {
            grecaptcha.execute(body.dataset.siteKey, {action: body.dataset.recaptchaAction})
                .then(function (token) { field.value = token; issue(); }, function () { field.value = ""; issue(); });
        });
    });

    document.addEventListener("htmx:afterSwap", function (evt) {
        var el = evt.detail.target;
        var marker = el && el.querySelector ? (el.matches("[data-redirect-url]") ? el : el.querySelector("[data-redirect-url]")) : null;
        if (!marker) { return; }
        setTimeout(function () { window.location.href = marker.dataset.redirectUrl; }, parseInt(marker.dataset.redirectDelay, 10) || 0);
    });
})();
`
