// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package soap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	envelopeHead = "<?xml version='1.0' encoding='UTF-8'?>" +
		"<soap:Envelope xmlns:soap='http://schemas.xmlsoap.org/soap/envelope/' " +
		"xmlns:xsd='http://www.w3.org/2001/XMLSchema' " +
		"xmlns:xsi='http://www.w3.org/2001/XMLSchema-instance'>" +
		"<soap:Body>"
	envelopeTail = "</soap:Body></soap:Envelope>"

	// FaultFallback is returned by ExtractFaultMessage when the document
	// has no detail element.
	FaultFallback = "Failed to extract error message"
)

// Actions understood by the simulator.
const (
	ActionExchangeData  = "ExchangeData"
	ActionEnableRC      = "RestoreOriginalControllerDevice"
	ActionDisableRC     = "InjectUAVControllerInterface"
	ActionResetAircraft = "ResetAircraft"
)

// StatusOK is the only status code that denotes success.
const StatusOK = 200

var (
	// ErrEmptyResponse is returned when the peer closes without a status line.
	ErrEmptyResponse = errors.New("empty response from simulator")
	// ErrMissingStatusCode is returned for a status line with a single token.
	ErrMissingStatusCode = errors.New("malformed HTTP status line: missing status code")
	// ErrMissingContentLength is returned when the headers end without Content-Length.
	ErrMissingContentLength = errors.New("missing Content-Length header")
)

// Response is a parsed simulator reply.
type Response struct {
	StatusCode int
	Body       string
}

// FaultMessage returns the fault detail carried in the body.
func (r Response) FaultMessage() string {
	return ExtractFaultMessage(r.Body)
}

// EncodeEnvelope wraps body in an element named after action inside the
// fixed SOAP envelope.
func EncodeEnvelope(action, body string) string {
	var b strings.Builder
	b.Grow(len(envelopeHead) + len(envelopeTail) + 2*len(action) + len(body) + 5)
	b.WriteString(envelopeHead)
	b.WriteString("<" + action + ">")
	b.WriteString(body)
	b.WriteString("</" + action + ">")
	b.WriteString(envelopeTail)
	return b.String()
}

// BuildRequest frames envelope as the HTTP request the simulator expects.
func BuildRequest(action, envelope string) []byte {
	head := "POST / HTTP/1.1\r\n" +
		"Soapaction: '" + action + "'\r\n" +
		"Content-Length: " + strconv.Itoa(len(envelope)) + "\r\n" +
		"Content-Type: text/xml;charset=utf-8\r\n" +
		"\r\n"
	req := make([]byte, 0, len(head)+len(envelope))
	req = append(req, head...)
	return append(req, envelope...)
}

// ParseStatusLine returns the status code from an HTTP status line.
func ParseStatusLine(line string) (int, error) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 0:
		return 0, ErrEmptyResponse
	case 1:
		return 0, ErrMissingStatusCode
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("invalid HTTP status code: %q", fields[1])
	}
	return code, nil
}

// ParseContentLength reports the value of a Content-Length header line. The
// header name is matched case-insensitively; ok is false for any other line.
func ParseContentLength(line string) (n int, ok bool) {
	name, value, found := strings.Cut(line, ":")
	if !found || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ReadResponse reads one response: status line, headers up to the blank
// line, then exactly Content-Length body bytes.
func ReadResponse(r *bufio.Reader) (Response, error) {
	line, err := r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return Response{}, ErrEmptyResponse
		}
		return Response{}, err
	}
	code, err := ParseStatusLine(line)
	if err != nil {
		return Response{}, err
	}

	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Response{}, io.ErrUnexpectedEOF
			}
			return Response{}, err
		}
		if strings.TrimRight(line, "\r\n") == "" {
			break
		}
		if n, ok := ParseContentLength(line); ok {
			length = n
		}
	}
	if length < 0 {
		return Response{}, ErrMissingContentLength
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Response{}, fmt.Errorf("reading response body: %w", err)
	}

	return Response{StatusCode: code, Body: string(body)}, nil
}

// ExtractElement returns the text between the first <name> and the
// following </name>. Empty content counts as absent.
func ExtractElement(name, doc string) (string, bool) {
	open := "<" + name + ">"
	i := strings.Index(doc, open)
	if i < 0 {
		return "", false
	}
	start := i + len(open)
	end := strings.Index(doc[start:], "</"+name+">")
	if end <= 0 {
		return "", false
	}
	return doc[start : start+end], true
}

// ExtractElements collects the first occurrence of every named element in
// one pass over doc. Names that are absent or empty are left out of the map.
func ExtractElements(doc string, names []string) map[string]string {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	found := make(map[string]string, len(names))

	pos := 0
	for len(found) < len(wanted) {
		lt := strings.IndexByte(doc[pos:], '<')
		if lt < 0 {
			break
		}
		lt += pos
		gt := strings.IndexByte(doc[lt:], '>')
		if gt < 0 {
			break
		}
		gt += lt
		name := doc[lt+1 : gt]
		pos = gt + 1

		if _, ok := wanted[name]; !ok {
			continue
		}
		if _, done := found[name]; done {
			continue
		}
		end := strings.Index(doc[pos:], "</"+name+">")
		if end <= 0 {
			// Mark as seen so a later occurrence cannot win.
			found[name] = ""
			continue
		}
		found[name] = doc[pos : pos+end]
	}

	for n, v := range found {
		if v == "" {
			delete(found, n)
		}
	}
	return found
}

// ExtractFaultMessage returns the text of the first detail element or
// FaultFallback.
func ExtractFaultMessage(doc string) string {
	if msg, ok := ExtractElement("detail", doc); ok {
		return msg
	}
	return FaultFallback
}
