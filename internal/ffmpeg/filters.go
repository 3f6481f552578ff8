package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterBuilder constructs ffmpeg video filter chains.
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// Scale adds a scale filter
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height))
	return fb
}

// Crop adds a crop filter
func (fb *FilterBuilder) Crop(width, height, x, y int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("crop=%d:%d:%d:%d", width, height, x, y))
	return fb
}

// Format adds a pixel format normalization filter
func (fb *FilterBuilder) Format(pixFmt string) *FilterBuilder {
	if pixFmt == "" {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("format=%s", pixFmt))
	return fb
}

// ResetPTS appends a setpts filter so the output's presentation timestamps
// start at zero. Required for every extracted clip, or concatenation
// inherits the source's timestamps.
func (fb *FilterBuilder) ResetPTS() *FilterBuilder {
	fb.filters = append(fb.filters, "setpts=PTS-STARTPTS")
	return fb
}

// Custom adds a custom filter string
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

// Steps returns the individual filter steps in order.
func (fb *FilterBuilder) Steps() []string {
	return fb.filters
}
