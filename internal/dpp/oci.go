// This file carries the global operating-class table (IEEE 802.11 Table
// E-4, the subset DPP bootstrapping announces channels from) and the
// class/channel to frequency conversion bootstrapping URIs are validated
// through.
package dpp

import "github.com/gowsd/gowsd/internal/wsderr"

// operClass describes one global operating class: the band's base
// frequency in MHz and the primary channel numbers the class admits.
type operClass struct {
	base     uint32
	channels []uint8
}

func span(first, last, step uint8) []uint8 {
	var out []uint8
	for ch := first; ch <= last; ch += step {
		out = append(out, ch)
	}
	return out
}

// operClasses is keyed by the global operating class number. Frequency is
// base + 5*channel for every listed class.
var operClasses = map[uint8]operClass{
	// 2.4 GHz
	81: {base: 2407, channels: span(1, 13, 1)},
	82: {base: 2414, channels: []uint8{14}},
	83: {base: 2407, channels: span(1, 9, 1)},
	84: {base: 2407, channels: span(5, 13, 1)},
	// 5 GHz
	115: {base: 5000, channels: span(36, 48, 4)},
	116: {base: 5000, channels: []uint8{36, 44}},
	117: {base: 5000, channels: []uint8{40, 48}},
	118: {base: 5000, channels: span(52, 64, 4)},
	119: {base: 5000, channels: []uint8{52, 60}},
	120: {base: 5000, channels: []uint8{56, 64}},
	121: {base: 5000, channels: span(100, 144, 4)},
	122: {base: 5000, channels: span(100, 140, 8)},
	123: {base: 5000, channels: span(104, 144, 8)},
	124: {base: 5000, channels: span(149, 161, 4)},
	125: {base: 5000, channels: span(149, 177, 4)},
	126: {base: 5000, channels: span(149, 173, 8)},
	127: {base: 5000, channels: span(153, 177, 8)},
	128: {base: 5000, channels: span(36, 177, 4)},
	129: {base: 5000, channels: span(36, 177, 4)},
	130: {base: 5000, channels: span(36, 177, 4)},
	// 6 GHz
	131: {base: 5950, channels: span(1, 233, 4)},
	132: {base: 5950, channels: span(1, 233, 4)},
	133: {base: 5950, channels: span(1, 233, 4)},
	134: {base: 5950, channels: span(1, 233, 4)},
	135: {base: 5950, channels: span(1, 233, 4)},
	136: {base: 5925, channels: []uint8{2}},
}

// ChannelToFrequency converts a (global operating class, channel) pair to
// its center frequency in MHz, or InvalidArgument when the class is
// unknown or the channel is not admitted by it.
func ChannelToFrequency(class, channel uint8) (uint32, error) {
	const op = "dpp.ChannelToFrequency"
	oc, ok := operClasses[class]
	if !ok {
		return 0, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	for _, ch := range oc.channels {
		if ch == channel {
			return oc.base + 5*uint32(channel), nil
		}
	}
	return 0, wsderr.New(wsderr.KindInvalidArgument, op, nil)
}
