// Package http implements the small slice of HTTP/1.1 text framing the server
// speaks: request-line and header parsing, reason phrases, content-type
// guessing and the two response shapes written back to a connection.
//
// It is not an HTTP implementation. There is no chunked encoding, no
// keep-alive and no streaming: a request is whatever fits in one read buffer
// and every response is written in a single shot.
//
// Response shapes:
//
//	HTTP/1.1 <status>\r\nContent-Length: <n>\r\nContent-Type: <mime>\r\n\r\n<body>
//	HTTP/1.1 <status>\r\n\r\n<status> <reason>
//
// No other headers are emitted.
package http
