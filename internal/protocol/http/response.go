package http

import (
	"fmt"
	"io"
	"strconv"
)

// WriteContent writes a full content response:
//
//	HTTP/1.1 <status>\r\nContent-Length: <n>\r\nContent-Type: <mime>\r\n\r\n<body>
//
// The head and body go out in a single Write.
func WriteContent(w io.Writer, status int, contentType ContentType, body []byte) error {
	head := "HTTP/1.1 " + strconv.Itoa(status) + "\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"Content-Type: " + string(contentType) + "\r\n\r\n"

	buf := make([]byte, 0, len(head)+len(body))
	buf = append(buf, head...)
	buf = append(buf, body...)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write content response: %w", err)
	}
	return nil
}

// WriteText is WriteContent with a text/plain body.
func WriteText(w io.Writer, status int, body string) error {
	return WriteContent(w, status, ContentTypeText, []byte(body))
}

// WriteStatus writes a status-only response whose body is "<status> <reason>":
//
//	HTTP/1.1 <status>\r\n\r\n<status> <reason>
func WriteStatus(w io.Writer, status int) error {
	code := strconv.Itoa(status)
	msg := "HTTP/1.1 " + code + "\r\n\r\n" + code + " " + StatusText(status)

	if _, err := io.WriteString(w, msg); err != nil {
		return fmt.Errorf("write status response: %w", err)
	}
	return nil
}
