// Package mailtext extracts a readable text body from a raw RFC 2822 email.
//
// Wagering messages often arrive as forwarded mail. ExtractBody prefers the
// decoded text/plain part, falls back to tag-stripped text/html, and returns
// the input unchanged when it does not look like an email at all.
package mailtext

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
)

var (
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
	styleRe  = regexp.MustCompile(`(?is)<(style|script)[^>]*>.*?</(style|script)>`)
	breakRe  = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</tr>`)
	entities = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'")
)

// ExtractBody returns the best plain-text rendering of a raw email. Input
// without parseable headers is returned as-is.
func ExtractBody(raw string) string {
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	plain, html := walk(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if plain != "" {
		return tidy(plain)
	}
	if html != "" {
		return tidy(stripHTML(html))
	}
	return raw
}

// walk descends into multipart bodies collecting the first text/plain and
// text/html parts it finds.
func walk(contentType, encoding string, body io.Reader) (plain, html string) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return "", ""
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err != nil {
				return plain, html
			}
			p, h := walk(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part)
			if plain == "" {
				plain = p
			}
			if html == "" {
				html = h
			}
			if plain != "" && html != "" {
				return plain, html
			}
		}
	}

	data, err := io.ReadAll(decoder(encoding, body))
	if err != nil {
		return "", ""
	}
	switch {
	case strings.HasPrefix(mediaType, "text/plain"):
		return string(data), ""
	case strings.HasPrefix(mediaType, "text/html"):
		return "", string(data)
	}
	return "", ""
}

func decoder(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

func stripHTML(s string) string {
	s = styleRe.ReplaceAllString(s, "")
	s = breakRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	return entities.Replace(s)
}

func tidy(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
