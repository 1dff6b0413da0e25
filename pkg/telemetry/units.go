// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "math"

// Time is a duration in seconds.
type Time float64

// Velocity is a speed in meters per second.
type Velocity float64

// Length is a distance in meters.
type Length float64

// AngularVelocity is a rotation rate in degrees per second.
type AngularVelocity float64

// Angle is an angle in degrees.
type Angle float64

// Acceleration is in meters per second squared.
type Acceleration float64

// ElectricPotential is in volts.
type ElectricPotential float64

// ElectricCurrent is in amperes.
type ElectricCurrent float64

// ElectricCharge is in milliampere hours.
type ElectricCharge float64

// Volume is in US fluid ounces.
type Volume float64

const (
	fluidOunceLiters = 0.0295735295625
	standardGravity  = 9.80665
	feetPerMeter     = 1 / 0.3048
	knotsPerMPS      = 3600.0 / 1852.0
)

func (t Time) Seconds() float64 { return float64(t) }

func (t Time) Milliseconds() float64 { return float64(t) * 1e3 }

func (v Velocity) MetersPerSecond() float64 { return float64(v) }

func (v Velocity) KilometersPerHour() float64 { return float64(v) * 3.6 }

func (v Velocity) Knots() float64 { return float64(v) * knotsPerMPS }

func (l Length) Meters() float64 { return float64(l) }

func (l Length) Kilometers() float64 { return float64(l) / 1e3 }

func (l Length) Feet() float64 { return float64(l) * feetPerMeter }

func (w AngularVelocity) DegreesPerSecond() float64 { return float64(w) }

func (w AngularVelocity) RadiansPerSecond() float64 { return float64(w) * math.Pi / 180 }

func (a Angle) Degrees() float64 { return float64(a) }

func (a Angle) Radians() float64 { return float64(a) * math.Pi / 180 }

func (a Acceleration) MetersPerSecondSquared() float64 { return float64(a) }

// G returns the acceleration as a multiple of standard gravity.
func (a Acceleration) G() float64 { return float64(a) / standardGravity }

func (e ElectricPotential) Volts() float64 { return float64(e) }

func (i ElectricCurrent) Amperes() float64 { return float64(i) }

func (i ElectricCurrent) Milliamperes() float64 { return float64(i) * 1e3 }

func (q ElectricCharge) MilliampereHours() float64 { return float64(q) }

func (q ElectricCharge) AmpereHours() float64 { return float64(q) / 1e3 }

// Coulombs converts the charge to SI units.
func (q ElectricCharge) Coulombs() float64 { return float64(q) * 3.6 }

func (v Volume) FluidOunces() float64 { return float64(v) }

func (v Volume) Liters() float64 { return float64(v) * fluidOunceLiters }
