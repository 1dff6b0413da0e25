// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package telemetry holds the control and telemetry records exchanged with
// the simulator and their XML encodings.
package telemetry

// ChannelCount is the number of RC channels in one control frame.
const ChannelCount = 12

// ControlInputs are the normalized channel values sent on every exchange.
// Values are conventionally in [0, 1].
type ControlInputs struct {
	Channels [ChannelCount]float32
}

// SimulatorState is one telemetry sample.
//
// The soap tag names the element in the simulator reply; fields marked
// optional may be missing without failing the decode. The wire tag is the
// field number used by the tunnel codec.
type SimulatorState struct {
	PreviousInputs                ControlInputs     `soap:"m-channelValues-0to1,optional" wire:"1"`
	CurrentPhysicsTime            Time              `soap:"m-currentPhysicsTime-SEC" wire:"2"`
	CurrentPhysicsSpeedMultiplier float64           `soap:"m-currentPhysicsSpeedMultiplier" wire:"3"`
	Airspeed                      Velocity          `soap:"m-airspeed-MPS" wire:"4"`
	AltitudeASL                   Length            `soap:"m-altitudeASL-MTR" wire:"5"`
	AltitudeAGL                   Length            `soap:"m-altitudeAGL-MTR" wire:"6"`
	Groundspeed                   Velocity          `soap:"m-groundspeed-MPS" wire:"7"`
	PitchRate                     AngularVelocity   `soap:"m-pitchRate-DEGpSEC" wire:"8"`
	RollRate                      AngularVelocity   `soap:"m-rollRate-DEGpSEC" wire:"9"`
	YawRate                       AngularVelocity   `soap:"m-yawRate-DEGpSEC" wire:"10"`
	Azimuth                       Angle             `soap:"m-azimuth-DEG" wire:"11"`
	Inclination                   Angle             `soap:"m-inclination-DEG" wire:"12"`
	Roll                          Angle             `soap:"m-roll-DEG" wire:"13"`
	OrientationQuaternionX        float64           `soap:"m-orientationQuaternion-X" wire:"14"`
	OrientationQuaternionY        float64           `soap:"m-orientationQuaternion-Y" wire:"15"`
	OrientationQuaternionZ        float64           `soap:"m-orientationQuaternion-Z" wire:"16"`
	OrientationQuaternionW        float64           `soap:"m-orientationQuaternion-W" wire:"17"`
	AircraftPositionX             Length            `soap:"m-aircraftPositionX-MTR" wire:"18"`
	AircraftPositionY             Length            `soap:"m-aircraftPositionY-MTR" wire:"19"`
	VelocityWorldU                Velocity          `soap:"m-velocityWorldU-MPS" wire:"20"`
	VelocityWorldV                Velocity          `soap:"m-velocityWorldV-MPS" wire:"21"`
	VelocityWorldW                Velocity          `soap:"m-velocityWorldW-MPS" wire:"22"`
	VelocityBodyU                 Velocity          `soap:"m-velocityBodyU-MPS" wire:"23"`
	VelocityBodyV                 Velocity          `soap:"m-velocityBodyV-MPS" wire:"24"`
	VelocityBodyW                 Velocity          `soap:"m-velocityBodyW-MPS" wire:"25"`
	AccelerationWorldAX           Acceleration      `soap:"m-accelerationWorldAX-MPS2" wire:"26"`
	AccelerationWorldAY           Acceleration      `soap:"m-accelerationWorldAY-MPS2" wire:"27"`
	AccelerationWorldAZ           Acceleration      `soap:"m-accelerationWorldAZ-MPS2" wire:"28"`
	AccelerationBodyAX            Acceleration      `soap:"m-accelerationBodyAX-MPS2" wire:"29"`
	AccelerationBodyAY            Acceleration      `soap:"m-accelerationBodyAY-MPS2" wire:"30"`
	AccelerationBodyAZ            Acceleration      `soap:"m-accelerationBodyAZ-MPS2" wire:"31"`
	WindX                         Velocity          `soap:"m-windX-MPS" wire:"32"`
	WindY                         Velocity          `soap:"m-windY-MPS" wire:"33"`
	WindZ                         Velocity          `soap:"m-windZ-MPS" wire:"34"`
	PropRPM                       float64           `soap:"m-propRPM" wire:"35"`
	HeliMainRotorRPM              float64           `soap:"m-heliMainRotorRPM" wire:"36"`
	BatteryVoltage                ElectricPotential `soap:"m-batteryVoltage-VOLTS" wire:"37"`
	BatteryCurrentDraw            ElectricCurrent   `soap:"m-batteryCurrentDraw-AMPS" wire:"38"`
	BatteryRemainingCapacity      ElectricCharge    `soap:"m-batteryRemainingCapacity-MAH" wire:"39"`
	FuelRemaining                 Volume            `soap:"m-fuelRemaining-OZ" wire:"40"`
	IsLocked                      bool              `soap:"m-isLocked" wire:"41"`
	HasLostComponents             bool              `soap:"m-hasLostComponents" wire:"42"`
	AnEngineIsRunning             bool              `soap:"m-anEngineIsRunning" wire:"43"`
	IsTouchingGround              bool              `soap:"m-isTouchingGround" wire:"44"`
	CurrentAircraftStatus         string            `soap:"m-currentAircraftStatus" wire:"45"`
	ResetButtonHasBeenPressed     bool              `soap:"m-resetButtonHasBeenPressed,optional" wire:"46"`
	FlightAxisControllerIsActive  bool              `soap:"m-flightAxisControllerIsActive" wire:"47"`
}
