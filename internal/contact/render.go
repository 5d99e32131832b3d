package contact

import "strings"

const (
	namePrefix     = "Name : "
	emailSeparator = "\nEmail : "
	messageHeading = "\n\nMessage :\n"
)

// Body holds the two renderings of a submission.
type Body struct {
	Text string
	HTML string
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes the five HTML-significant characters. Each input
// character is replaced at most once, so existing entities such as "&lt;"
// become "&amp;lt;" and are not escaped again.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Render builds the plain and HTML bodies for a validated submission.
func Render(s Submission) Body {
	text := namePrefix + s.Name + emailSeparator + s.Email + messageHeading + s.Message

	var b strings.Builder
	b.WriteString("<p><strong>Name :</strong> ")
	b.WriteString(EscapeHTML(s.Name))
	b.WriteString("</p><p><strong>Email :</strong> ")
	b.WriteString(EscapeHTML(s.Email))
	b.WriteString("</p><p><strong>Message :</strong></p><p>")
	b.WriteString(strings.ReplaceAll(EscapeHTML(s.Message), "\n", "<br>"))
	b.WriteString("</p>")

	return Body{Text: text, HTML: b.String()}
}

// ParseText recovers the fields from a plain body produced by Render. It
// reports false when text does not have that layout.
func ParseText(text string) (Submission, bool) {
	rest, ok := strings.CutPrefix(text, namePrefix)
	if !ok {
		return Submission{}, false
	}
	name, rest, ok := strings.Cut(rest, emailSeparator)
	if !ok {
		return Submission{}, false
	}
	email, message, ok := strings.Cut(rest, messageHeading)
	if !ok {
		return Submission{}, false
	}
	return Submission{Name: name, Email: email, Message: message}, true
}
