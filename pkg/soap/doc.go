// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package soap implements the fixed SOAP over HTTP/1.1 dialect spoken by the
// RealFlight Link simulator.
//
// # Overview
//
// The simulator accepts exactly one request per TCP connection. Every request
// is a POST to "/" whose body is a SOAP envelope wrapping a single action
// element:
//
//	POST / HTTP/1.1
//	Soapaction: 'ExchangeData'
//	Content-Length: 512
//	Content-Type: text/xml;charset=utf-8
//
//	<?xml version='1.0' encoding='UTF-8'?><soap:Envelope ...><soap:Body><ExchangeData>...</ExchangeData></soap:Body></soap:Envelope>
//
// Responses always carry a Content-Length header; chunked encoding,
// redirects and keep-alive are never used, so this package does not support
// them.
//
// # Element Extraction
//
// The response documents are flat and produced by a single peer, so values
// are pulled out with a substring scanner instead of a full XML parser. The
// first occurrence of an element wins and an element with empty content is
// treated as absent.
//
// Nothing in this package performs I/O beyond reading from the supplied
// bufio.Reader.
package soap
