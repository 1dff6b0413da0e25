// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/absmach/rflink/internal/simtest"
	rferrors "github.com/absmach/rflink/pkg/errors"
	"github.com/absmach/rflink/pkg/soap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeControlInputs(t *testing.T) {
	var in ControlInputs
	for i := range in.Channels {
		in.Channels[i] = float32(i) / 12
	}

	want := "<pControlInputs><m-selectedChannels>4095</m-selectedChannels><m-channelValues-0to1>" +
		"<item>0</item><item>0.083333336</item><item>0.16666667</item><item>0.25</item>" +
		"<item>0.33333334</item><item>0.41666666</item><item>0.5</item><item>0.5833333</item>" +
		"<item>0.6666667</item><item>0.75</item><item>0.8333333</item><item>0.9166667</item>" +
		"</m-channelValues-0to1></pControlInputs>"
	assert.Equal(t, want, EncodeControlInputs(in))
}

func TestEncodeControlInputsRoundTrip(t *testing.T) {
	inputs := []ControlInputs{
		{},
		{Channels: [ChannelCount]float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
		{Channels: [ChannelCount]float32{0, 1, 0.5, 1e-7, 0.999999, 0.1, 0.2, 0.3, 0.7, 0.123456789, 0.33, 0.01}},
	}

	for _, in := range inputs {
		encoded := EncodeControlInputs(in)
		list, ok := soap.ExtractElement("m-channelValues-0to1", encoded)
		require.True(t, ok)

		items := strings.Split(strings.TrimSuffix(strings.TrimPrefix(list, "<item>"), "</item>"), "</item><item>")
		require.Len(t, items, ChannelCount)
		for i, item := range items {
			v, err := strconv.ParseFloat(item, 32)
			require.NoError(t, err)
			assert.Equal(t, in.Channels[i], float32(v))
		}
	}
}

func TestDecodeSimulatorState(t *testing.T) {
	state, err := DecodeSimulatorState(simtest.ReturnData)
	require.NoError(t, err)

	assert.Equal(t, Time(72263.411813672516), state.CurrentPhysicsTime)
	assert.Equal(t, 1.0, state.CurrentPhysicsSpeedMultiplier)
	assert.Equal(t, Velocity(0.040872246026992798), state.Airspeed)
	assert.Equal(t, Length(1127.3709716796875), state.AltitudeASL)
	assert.Equal(t, Length(0.26630991697311401), state.AltitudeAGL)
	assert.Equal(t, Velocity(4.6434447540377732e-06), state.Groundspeed)
	assert.Equal(t, AngularVelocity(0.0013803535839542747), state.PitchRate)
	assert.Equal(t, AngularVelocity(-3.222789746359922e-05), state.RollRate)
	assert.Equal(t, AngularVelocity(0.0014737510355189443), state.YawRate)
	assert.Equal(t, Angle(-89.6070556640625), state.Azimuth)
	assert.Equal(t, Angle(1.533278226852417), state.Inclination)
	assert.Equal(t, Angle(-0.74712425470352173), state.Roll)
	assert.Equal(t, 0.0048992796801030636, state.OrientationQuaternionX)
	assert.Equal(t, -0.014053969644010067, state.OrientationQuaternionY)
	assert.Equal(t, -0.7046617865562439, state.OrientationQuaternionZ)
	assert.Equal(t, 0.70938730239868164, state.OrientationQuaternionW)
	assert.Equal(t, Length(5575.680664062), state.AircraftPositionX)
	assert.Equal(t, Length(1715.962158203), state.AircraftPositionY)
	assert.Equal(t, Velocity(-2.005582700e-06), state.VelocityWorldU)
	assert.Equal(t, Velocity(4.187984814e-06), state.VelocityWorldV)
	assert.Equal(t, Velocity(0.040872246), state.VelocityWorldW)
	assert.Equal(t, Velocity(-0.001089469), state.VelocityBodyU)
	assert.Equal(t, Velocity(-0.000530726), state.VelocityBodyV)
	assert.Equal(t, Velocity(0.040854275), state.VelocityBodyW)
	assert.Equal(t, Acceleration(-0.000483050), state.AccelerationWorldAX)
	assert.Equal(t, Acceleration(0.001008689), state.AccelerationWorldAY)
	assert.Equal(t, Acceleration(9.844209671), state.AccelerationWorldAZ)
	assert.Equal(t, Acceleration(-0.000176936), state.AccelerationBodyAX)
	assert.Equal(t, Acceleration(-0.000086620), state.AccelerationBodyAY)
	assert.Equal(t, Acceleration(0.044223785), state.AccelerationBodyAZ)
	assert.Zero(t, state.WindX)
	assert.Zero(t, state.WindY)
	assert.Zero(t, state.WindZ)
	assert.Equal(t, 47.404716491, state.PropRPM)
	assert.Equal(t, -1.0, state.HeliMainRotorRPM)
	assert.Equal(t, ElectricPotential(12.599982261), state.BatteryVoltage)
	assert.Zero(t, state.BatteryCurrentDraw)
	assert.Equal(t, ElectricCharge(3999.990722656), state.BatteryRemainingCapacity)
	assert.Equal(t, Volume(-1), state.FuelRemaining)
	assert.False(t, state.IsLocked)
	assert.False(t, state.HasLostComponents)
	assert.True(t, state.AnEngineIsRunning)
	assert.False(t, state.IsTouchingGround)
	assert.True(t, state.FlightAxisControllerIsActive)
	assert.Equal(t, "CAS-WAITINGTOLAUNCH", state.CurrentAircraftStatus)
	assert.True(t, state.ResetButtonHasBeenPressed)
	assert.Equal(t, [ChannelCount]float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0}, state.PreviousInputs.Channels)
}

func TestDecodeSimulatorStateMissingEachRequired(t *testing.T) {
	required := RequiredElements()
	require.Len(t, required, 45)

	for _, name := range required {
		t.Run(name, func(t *testing.T) {
			re := regexp.MustCompile("<" + regexp.QuoteMeta(name) + ">[^<]*</" + regexp.QuoteMeta(name) + ">")
			loc := re.FindStringIndex(simtest.ReturnData)
			require.NotNil(t, loc)
			doc := simtest.ReturnData[:loc[0]] + simtest.ReturnData[loc[1]:]

			state, err := DecodeSimulatorState(doc)
			assert.ErrorIs(t, err, rferrors.ErrDecode)
			var pe *rferrors.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, name, pe.Field)
			assert.Equal(t, SimulatorState{}, state)
		})
	}
}

func TestDecodeSimulatorStateErrors(t *testing.T) {
	doc := simtest.ReturnData

	cases := []struct {
		desc  string
		doc   string
		field string
	}{
		{
			desc:  "missing required field",
			doc:   strings.Replace(doc, "<m-airspeed-MPS>0.040872246026992798</m-airspeed-MPS>", "", 1),
			field: "m-airspeed-MPS",
		},
		{
			desc:  "unparsable number",
			doc:   strings.Replace(doc, "<m-airspeed-MPS>0.040872246026992798<", "<m-airspeed-MPS>not_a_number<", 1),
			field: "m-airspeed-MPS",
		},
		{
			desc:  "empty element",
			doc:   strings.Replace(doc, "<m-propRPM>47.404716491<", "<m-propRPM><", 1),
			field: "m-propRPM",
		},
		{
			desc:  "non literal bool",
			doc:   strings.Replace(doc, "<m-isLocked>false<", "<m-isLocked>1<", 1),
			field: "m-isLocked",
		},
		{
			desc:  "empty document",
			doc:   "",
			field: "m-currentPhysicsTime-SEC",
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			state, err := DecodeSimulatorState(tc.doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, rferrors.ErrDecode))
			assert.Equal(t, SimulatorState{}, state)

			var pe *rferrors.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tc.field, pe.Field)
		})
	}
}

func TestDecodeSimulatorStateOptionalFields(t *testing.T) {
	doc := simtest.ReturnData
	doc = strings.Replace(doc, "<m-resetButtonHasBeenPressed>true</m-resetButtonHasBeenPressed>", "", 1)
	doc = strings.Replace(doc, "<item>0</item>", "<item>x</item>", 1)

	state, err := DecodeSimulatorState(doc)
	require.NoError(t, err)
	assert.False(t, state.ResetButtonHasBeenPressed)
	assert.Equal(t, ControlInputs{}, state.PreviousInputs)
}

func TestFields(t *testing.T) {
	fields := Fields()
	assert.Len(t, fields, 47)
	assert.Len(t, RequiredElements(), 45)

	seen := make(map[int]bool)
	for _, f := range fields {
		assert.False(t, seen[f.Wire], "duplicate wire number %d", f.Wire)
		seen[f.Wire] = true
	}
}

func TestUnits(t *testing.T) {
	assert.InDelta(t, 1.127, Length(1127).Kilometers(), 1e-12)
	assert.InDelta(t, 3.6, Velocity(1).KilometersPerHour(), 1e-12)
	assert.InDelta(t, 3.141592653589793, Angle(180).Radians(), 1e-12)
	assert.InDelta(t, 1, Acceleration(9.80665).G(), 1e-12)
	assert.InDelta(t, 4, ElectricCharge(4000).AmpereHours(), 1e-12)
	assert.InDelta(t, 0.0295735295625, Volume(1).Liters(), 1e-15)
}
