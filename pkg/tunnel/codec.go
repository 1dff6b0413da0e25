// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package tunnel

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	rferrors "github.com/absmach/rflink/pkg/errors"
	"github.com/absmach/rflink/pkg/telemetry"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldKind  protowire.Number = 1 // op or status
	fieldBody  protowire.Number = 2 // inputs or state
	fieldItems protowire.Number = 1 // channels within inputs
)

var stateFields = func() map[protowire.Number]telemetry.Field {
	m := make(map[protowire.Number]telemetry.Field)
	for _, f := range telemetry.Fields() {
		m[protowire.Number(f.Wire)] = f
	}
	return m
}()

func decodeError(msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", rferrors.ErrDecode, msg)
	}
	return fmt.Errorf("%w: %s: %w", rferrors.ErrDecode, msg, err)
}

// MarshalRequest encodes r.
func MarshalRequest(r Request) []byte {
	b := make([]byte, 0, 64)
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Op))
	if r.Inputs != nil {
		b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
		b = protowire.AppendBytes(b, appendInputs(nil, *r.Inputs))
	}
	return b
}

// UnmarshalRequest decodes a request payload.
func UnmarshalRequest(b []byte) (Request, error) {
	var r Request
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			if op := Operation(v); v <= math.MaxUint8 && op.valid() {
				r.Op = op
				return n, nil
			}
			return 0, decodeError(fmt.Sprintf("unknown operation %d", v), nil)
		case num == fieldBody && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			in, err := consumeInputs(v)
			if err != nil {
				return 0, err
			}
			r.Inputs = &in
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return Request{}, err
	}
	return r, nil
}

// MarshalResponse encodes r.
func MarshalResponse(r Response) []byte {
	b := make([]byte, 0, 512)
	b = protowire.AppendTag(b, fieldKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Status))
	if r.State != nil {
		b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
		b = protowire.AppendBytes(b, appendState(nil, r.State))
	}
	return b
}

// UnmarshalResponse decodes a response payload.
func UnmarshalResponse(b []byte) (Response, error) {
	var r Response
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			if v > uint64(StatusError) {
				return 0, decodeError(fmt.Sprintf("unknown status %d", v), nil)
			}
			r.Status = Status(v)
			return n, nil
		case num == fieldBody && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			state, err := consumeState(v)
			if err != nil {
				return 0, err
			}
			r.State = &state
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return Response{}, err
	}
	return r, nil
}

// walk calls field for every tag in b. field returns the number of value
// bytes it consumed or a negative protowire error code.
func walk(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return decodeError("malformed tag", protowire.ParseError(n))
		}
		b = b[n:]

		n, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return decodeError(fmt.Sprintf("malformed field %d", num), protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func appendInputs(b []byte, in telemetry.ControlInputs) []byte {
	packed := make([]byte, 0, 4*telemetry.ChannelCount)
	for _, v := range in.Channels {
		packed = protowire.AppendFixed32(packed, math.Float32bits(v))
	}
	b = protowire.AppendTag(b, fieldItems, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

var errChannelCount = errors.New("wrong channel count")

func consumeInputs(b []byte) (telemetry.ControlInputs, error) {
	var in telemetry.ControlInputs
	seen := false
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != fieldItems || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		if len(packed) != 4*telemetry.ChannelCount {
			return 0, decodeError("control inputs", errChannelCount)
		}
		for i := range in.Channels {
			v, _ := protowire.ConsumeFixed32(packed[4*i:])
			in.Channels[i] = math.Float32frombits(v)
		}
		seen = true
		return n, nil
	})
	if err != nil {
		return telemetry.ControlInputs{}, err
	}
	if !seen {
		return telemetry.ControlInputs{}, decodeError("control inputs", errChannelCount)
	}
	return in, nil
}

func appendState(b []byte, s *telemetry.SimulatorState) []byte {
	v := reflect.ValueOf(s).Elem()
	for _, f := range telemetry.Fields() {
		num := protowire.Number(f.Wire)
		fv := v.Field(f.Index)
		switch fv.Kind() {
		case reflect.Float64:
			bits := math.Float64bits(fv.Float())
			if bits == 0 {
				continue
			}
			b = protowire.AppendTag(b, num, protowire.Fixed64Type)
			b = protowire.AppendFixed64(b, bits)
		case reflect.Bool:
			if !fv.Bool() {
				continue
			}
			b = protowire.AppendTag(b, num, protowire.VarintType)
			b = protowire.AppendVarint(b, 1)
		case reflect.String:
			if fv.Len() == 0 {
				continue
			}
			b = protowire.AppendTag(b, num, protowire.BytesType)
			b = protowire.AppendString(b, fv.String())
		case reflect.Struct:
			in := fv.Interface().(telemetry.ControlInputs)
			if in == (telemetry.ControlInputs{}) {
				continue
			}
			b = protowire.AppendTag(b, num, protowire.BytesType)
			b = protowire.AppendBytes(b, appendInputs(nil, in))
		}
	}
	return b
}

func consumeState(b []byte) (telemetry.SimulatorState, error) {
	var s telemetry.SimulatorState
	v := reflect.ValueOf(&s).Elem()
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		f, ok := stateFields[num]
		if !ok {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		fv := v.Field(f.Index)
		switch {
		case fv.Kind() == reflect.Float64 && typ == protowire.Fixed64Type:
			bits, n := protowire.ConsumeFixed64(b)
			fv.SetFloat(math.Float64frombits(bits))
			return n, nil
		case fv.Kind() == reflect.Bool && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			fv.SetBool(x != 0)
			return n, nil
		case fv.Kind() == reflect.String && typ == protowire.BytesType:
			x, n := protowire.ConsumeString(b)
			fv.SetString(x)
			return n, nil
		case fv.Kind() == reflect.Struct && typ == protowire.BytesType:
			x, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			in, err := consumeInputs(x)
			if err != nil {
				return 0, err
			}
			fv.Set(reflect.ValueOf(in))
			return n, nil
		}
		return 0, decodeError(fmt.Sprintf("field %s has wire type %d", f.Element, typ), nil)
	})
	if err != nil {
		return telemetry.SimulatorState{}, err
	}
	return s, nil
}
