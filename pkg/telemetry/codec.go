// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	rferrors "github.com/absmach/rflink/pkg/errors"
	"github.com/absmach/rflink/pkg/soap"
)

// SelectedChannels is the channel mask sent with every control frame; all
// twelve channels are driven.
const SelectedChannels = 4095

var (
	errMissing  = errors.New("element not found")
	errBool     = errors.New("expected true or false")
	errChannels = errors.New("malformed channel list")
)

// Field describes one SimulatorState field.
type Field struct {
	Index    int    // Struct field index
	Element  string // XML element name
	Wire     int    // Tunnel field number
	Optional bool
}

var (
	stateFields  = describe(reflect.TypeOf(SimulatorState{}))
	elementNames = func() []string {
		names := make([]string, len(stateFields))
		for i, f := range stateFields {
			names[i] = f.Element
		}
		return names
	}()
)

func describe(t reflect.Type) []Field {
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("soap")
		if !ok {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		wire, err := strconv.Atoi(sf.Tag.Get("wire"))
		if err != nil {
			panic(fmt.Sprintf("telemetry: field %s has no wire number", sf.Name))
		}
		fields = append(fields, Field{
			Index:    i,
			Element:  name,
			Wire:     wire,
			Optional: opts == "optional",
		})
	}
	return fields
}

// Fields returns the SimulatorState field descriptors in declaration order.
func Fields() []Field {
	out := make([]Field, len(stateFields))
	copy(out, stateFields)
	return out
}

// RequiredElements returns the names of the elements every telemetry reply
// must carry.
func RequiredElements() []string {
	var names []string
	for _, f := range stateFields {
		if !f.Optional {
			names = append(names, f.Element)
		}
	}
	return names
}

// EncodeControlInputs renders the pControlInputs fragment of an
// ExchangeData request.
func EncodeControlInputs(in ControlInputs) string {
	var b strings.Builder
	b.Grow(160 + ChannelCount*24)
	b.WriteString("<pControlInputs><m-selectedChannels>")
	b.WriteString(strconv.Itoa(SelectedChannels))
	b.WriteString("</m-selectedChannels><m-channelValues-0to1>")
	for _, v := range in.Channels {
		b.WriteString("<item>")
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
		b.WriteString("</item>")
	}
	b.WriteString("</m-channelValues-0to1></pControlInputs>")
	return b.String()
}

// DecodeSimulatorState decodes an ExchangeData reply body. A missing or
// unparsable required element fails the whole decode with a ParseError
// naming it.
func DecodeSimulatorState(doc string) (SimulatorState, error) {
	raw := soap.ExtractElements(doc, elementNames)

	var state SimulatorState
	v := reflect.ValueOf(&state).Elem()
	for _, f := range stateFields {
		text, ok := raw[f.Element]
		if !ok {
			if f.Optional {
				continue
			}
			return SimulatorState{}, &rferrors.ParseError{Field: f.Element, Err: errMissing}
		}
		if err := setField(v.Field(f.Index), text); err != nil {
			if f.Optional {
				continue
			}
			return SimulatorState{}, &rferrors.ParseError{Field: f.Element, Err: err}
		}
	}

	return state, nil
}

func setField(v reflect.Value, text string) error {
	switch v.Kind() {
	case reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := parseBool(text)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.String:
		v.SetString(text)
	case reflect.Struct:
		in, err := parseChannels(text)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(in))
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}

// parseBool accepts exactly the literals the simulator emits.
func parseBool(text string) (bool, error) {
	switch strings.TrimSpace(text) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errBool
}

func parseChannels(list string) (ControlInputs, error) {
	var in ControlInputs
	rest := list
	for i := range in.Channels {
		item, ok := soap.ExtractElement("item", rest)
		if !ok {
			return ControlInputs{}, errChannels
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(item), 32)
		if err != nil {
			return ControlInputs{}, err
		}
		in.Channels[i] = float32(f)
		rest = rest[strings.Index(rest, "</item>")+len("</item>"):]
	}
	return in, nil
}
