// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package soap

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wantEnvelope = "<?xml version='1.0' encoding='UTF-8'?>" +
	"<soap:Envelope xmlns:soap='http://schemas.xmlsoap.org/soap/envelope/' " +
	"xmlns:xsd='http://www.w3.org/2001/XMLSchema' " +
	"xmlns:xsi='http://www.w3.org/2001/XMLSchema-instance'>" +
	"<soap:Body><ResetAircraft></ResetAircraft></soap:Body></soap:Envelope>"

func TestEncodeEnvelope(t *testing.T) {
	assert.Equal(t, wantEnvelope, EncodeEnvelope(ActionResetAircraft, ""))

	env := EncodeEnvelope(ActionExchangeData, "<a>1</a>")
	assert.Contains(t, env, "<soap:Body><ExchangeData><a>1</a></ExchangeData></soap:Body>")
}

func TestBuildRequest(t *testing.T) {
	req := string(BuildRequest(ActionResetAircraft, wantEnvelope))

	want := "POST / HTTP/1.1\r\n" +
		"Soapaction: 'ResetAircraft'\r\n" +
		"Content-Length: " + "277" + "\r\n" +
		"Content-Type: text/xml;charset=utf-8\r\n" +
		"\r\n" + wantEnvelope
	require.Len(t, wantEnvelope, 277)
	assert.Equal(t, want, req)
}

func TestParseStatusLine(t *testing.T) {
	cases := []struct {
		desc    string
		line    string
		code    int
		wantErr error
		errText string
	}{
		{desc: "ok", line: "HTTP/1.1 200 OK\r\n", code: 200},
		{desc: "fault", line: "HTTP/1.1 500 Internal Server Error", code: 500},
		{desc: "empty", line: "", wantErr: ErrEmptyResponse},
		{desc: "whitespace only", line: "\r\n", wantErr: ErrEmptyResponse},
		{desc: "missing code", line: "HTTP/1.1", wantErr: ErrMissingStatusCode},
		{desc: "invalid code", line: "HTTP/1.1 abc OK", errText: `invalid HTTP status code: "abc"`},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			code, err := ParseStatusLine(tc.line)
			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.errText != "":
				assert.EqualError(t, err, tc.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.code, code)
			}
		})
	}
}

func TestParseContentLength(t *testing.T) {
	cases := []struct {
		line string
		n    int
		ok   bool
	}{
		{"Content-Length: 42\r\n", 42, true},
		{"content-length:7", 7, true},
		{"CONTENT-LENGTH:   0  ", 0, true},
		{"Content-Type: text/xml", 0, false},
		{"Content-Length: x", 0, false},
		{"no colon here", 0, false},
	}

	for _, tc := range cases {
		n, ok := ParseContentLength(tc.line)
		assert.Equal(t, tc.ok, ok, tc.line)
		assert.Equal(t, tc.n, n, tc.line)
	}
}

func TestReadResponse(t *testing.T) {
	body := "<detail>boom</detail>"
	raw := "HTTP/1.1 500 OK\r\nServer: gSOAP/2.7\r\nContent-Type: text/xml; charset=utf-8\r\n" +
		"Content-Length: 21\r\nConnection: close\r\n\r\n" + body + "trailing"

	resp, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, body, resp.Body)
	assert.Equal(t, "boom", resp.FaultMessage())
}

func TestReadResponseErrors(t *testing.T) {
	cases := []struct {
		desc string
		raw  string
		err  error
	}{
		{desc: "empty", raw: "", err: ErrEmptyResponse},
		{desc: "no content length", raw: "HTTP/1.1 200 OK\r\nServer: x\r\n\r\nbody", err: ErrMissingContentLength},
		{desc: "bad status line", raw: "HTTP/1.1\r\n\r\n", err: ErrMissingStatusCode},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := ReadResponse(bufio.NewReader(strings.NewReader(tc.raw)))
			assert.ErrorIs(t, err, tc.err)
		})
	}

	_, err := ReadResponse(bufio.NewReader(strings.NewReader("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nshort")))
	assert.Error(t, err)
}

func TestExtractElement(t *testing.T) {
	doc := "<a>1</a><b> spaced </b><a>2</a><empty></empty><open>never closed"

	v, ok := ExtractElement("a", doc)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	v, ok = ExtractElement("b", doc)
	assert.True(t, ok)
	assert.Equal(t, " spaced ", v)

	_, ok = ExtractElement("empty", doc)
	assert.False(t, ok)
	_, ok = ExtractElement("open", doc)
	assert.False(t, ok)
	_, ok = ExtractElement("missing", doc)
	assert.False(t, ok)
}

func TestExtractElements(t *testing.T) {
	doc := "<root><a>1</a><list><item>x</item></list><b>2</b><a>3</a><empty></empty></root>"

	got := ExtractElements(doc, []string{"a", "b", "item", "empty", "missing"})
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "item": "x"}, got)

	for _, name := range []string{"a", "b", "item"} {
		want, _ := ExtractElement(name, doc)
		assert.Equal(t, want, got[name])
	}
}

func TestExtractFaultMessage(t *testing.T) {
	doc := "<SOAP-ENV:Fault><faultstring>x</faultstring><detail>Error setting channel values</detail></SOAP-ENV:Fault>"
	assert.Equal(t, "Error setting channel values", ExtractFaultMessage(doc))
	assert.Equal(t, FaultFallback, ExtractFaultMessage("<SOAP-ENV:Fault></SOAP-ENV:Fault>"))
}
