// Package gallerydl is an HTTP client for the gallery-dl-server API.
package gallerydl

import (
	"fmt"
	"strings"
)

// VideoOption selects how the server post-processes a submitted URL.
type VideoOption string

const (
	OptionNone  VideoOption = "none-selected"
	OptionVideo VideoOption = "download-video"
	OptionAudio VideoOption = "extract-audio"
)

// VideoOptions lists the options in display order.
var VideoOptions = []VideoOption{OptionNone, OptionVideo, OptionAudio}

func (o VideoOption) Label() string {
	switch o {
	case OptionNone:
		return "Default"
	case OptionVideo:
		return "Download video"
	case OptionAudio:
		return "Extract audio"
	default:
		return string(o)
	}
}

func (o VideoOption) Valid() bool {
	for _, v := range VideoOptions {
		if v == o {
			return true
		}
	}
	return false
}

// Next returns the option after o, wrapping around.
func (o VideoOption) Next() VideoOption {
	return o.shift(1)
}

// Prev returns the option before o, wrapping around.
func (o VideoOption) Prev() VideoOption {
	return o.shift(-1)
}

func (o VideoOption) shift(delta int) VideoOption {
	idx := 0
	for i, v := range VideoOptions {
		if v == o {
			idx = i
			break
		}
	}
	n := len(VideoOptions)
	return VideoOptions[((idx+delta)%n+n)%n]
}

// ParseVideoOption accepts the wire value; empty input means OptionNone.
func ParseVideoOption(s string) (VideoOption, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return OptionNone, nil
	}
	opt := VideoOption(s)
	if !opt.Valid() {
		return "", fmt.Errorf("invalid video option %q (want none-selected|download-video|extract-audio)", s)
	}
	return opt, nil
}
