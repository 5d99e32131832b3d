package email

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"
)

// formatAddress renders a mailbox for a header, quoting the display name
// when needed.
func formatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

// buildMIME renders msg as an RFC 5322 message with CRLF line endings.
// Text and HTML bodies become a multipart/alternative; a single body is sent
// as a plain part.
func buildMIME(from string, msg Message, now time.Time) ([]byte, error) {
	headers := []string{
		"From: " + from,
		"To: " + msg.To,
	}
	if msg.ReplyTo != "" {
		headers = append(headers, "Reply-To: "+msg.ReplyTo)
	}
	headers = append(headers,
		"Subject: "+mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date: "+now.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
	)

	var body bytes.Buffer

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		mw := multipart.NewWriter(&body)
		if err := writePart(mw, "text/plain; charset=UTF-8", msg.TextBody); err != nil {
			return nil, err
		}
		if err := writePart(mw, "text/html; charset=UTF-8", msg.HTMLBody); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("close multipart: %w", err)
		}
		headers = append(headers, "Content-Type: multipart/alternative; boundary="+mw.Boundary())
	case msg.HTMLBody != "":
		headers = append(headers, "Content-Type: text/html; charset=UTF-8", "Content-Transfer-Encoding: quoted-printable")
		if err := writeQuotedPrintable(&body, msg.HTMLBody); err != nil {
			return nil, err
		}
	default:
		headers = append(headers, "Content-Type: text/plain; charset=UTF-8", "Content-Transfer-Encoding: quoted-printable")
		if err := writeQuotedPrintable(&body, msg.TextBody); err != nil {
			return nil, err
		}
	}

	var out bytes.Buffer
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType, content string) error {
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	return writeQuotedPrintable(part, content)
}

func writeQuotedPrintable(w io.Writer, content string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(content)); err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	return qp.Close()
}
