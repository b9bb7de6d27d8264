package featuregrid

import (
	"fmt"
	"strconv"
	"strings"
)

// DimensionKind discriminates the two projectable axis kinds.
type DimensionKind uint8

const (
	// DimChannelFeature selects column (channel, feature) of the tensor.
	DimChannelFeature DimensionKind = iota
	// DimTime selects the normalized spike-time axis.
	DimTime
)

// Dimension is one projectable axis: either elapsed time or a
// (channel, feature) column of the feature tensor. Dimensions are plain
// comparable values; the constructors keep the index fields zeroed for the
// time kind so == behaves as identity.
type Dimension struct {
	Kind    DimensionKind
	Channel int
	Feature int
}

// TimeDim returns the time pseudo-dimension.
func TimeDim() Dimension {
	return Dimension{Kind: DimTime}
}

// ChannelFeature returns the dimension selecting column (channel, feature).
func ChannelFeature(channel, feature int) Dimension {
	return Dimension{Kind: DimChannelFeature, Channel: channel, Feature: feature}
}

// IsTime reports whether d is the time pseudo-dimension.
func (d Dimension) IsTime() bool { return d.Kind == DimTime }

// Validate checks that d is usable against a tensor with the given channel
// and feature counts. Time is always valid.
func (d Dimension) Validate(nChannels, nFeatures int) error {
	if d.Kind == DimTime {
		return nil
	}
	if d.Channel < 0 || d.Channel >= nChannels {
		return fmt.Errorf("%w: channel %d out of range [0, %d)", ErrInvalidDimension, d.Channel, nChannels)
	}
	if d.Feature < 0 || d.Feature >= nFeatures {
		return fmt.Errorf("%w: feature %d out of range [0, %d)", ErrInvalidDimension, d.Feature, nFeatures)
	}
	return nil
}

// String renders d in the request syntax accepted by ParseDimension.
func (d Dimension) String() string {
	if d.Kind == DimTime {
		return "time"
	}
	return fmt.Sprintf("%d:%d", d.Channel, d.Feature)
}

// ParseDimension converts a textual dimension request into a Dimension.
// Accepted forms: "time", a bare channel integer such as "3" (feature 0
// implied), or a "channel:feature" pair such as "3:1". Anything else fails
// with ErrInvalidDimension. Range checking against a tensor happens later,
// via Validate.
func ParseDimension(s string) (Dimension, error) {
	s = strings.TrimSpace(s)
	if s == "time" {
		return TimeDim(), nil
	}
	if c, err := strconv.Atoi(s); err == nil {
		return ChannelFeature(c, 0), nil
	}
	channel, feature, ok := strings.Cut(s, ":")
	if ok {
		c, errC := strconv.Atoi(strings.TrimSpace(channel))
		f, errF := strconv.Atoi(strings.TrimSpace(feature))
		if errC == nil && errF == nil {
			return ChannelFeature(c, f), nil
		}
	}
	return Dimension{}, fmt.Errorf("%w: %q is not \"time\", a channel, or a channel:feature pair", ErrInvalidDimension, s)
}

// ParseDimensions parses a comma-separated dimension request list, e.g.
// "0:0,0:1,time". Empty input yields an empty slice.
func ParseDimensions(s string) ([]Dimension, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	dims := make([]Dimension, 0, len(parts))
	for _, p := range parts {
		d, err := ParseDimension(p)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, nil
}
