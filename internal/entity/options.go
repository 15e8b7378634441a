package entity

import (
	"fmt"
	"time"
)

// ProcessingOptions configures one extraction run. Not persisted.
type ProcessingOptions struct {
	MinDimension int `json:"min_dimension" yaml:"min_dimension"` // px, per axis
	MaxDimension int `json:"max_dimension" yaml:"max_dimension"` // px, per axis
	TargetWidth  int `json:"target_width" yaml:"target_width"`
	TargetHeight int `json:"target_height" yaml:"target_height"`

	Grayscale  bool `json:"grayscale" yaml:"grayscale"`
	Contrast   int  `json:"contrast" yaml:"contrast"`     // -100..100
	Brightness int  `json:"brightness" yaml:"brightness"` // -100..100
	Denoise    bool `json:"denoise" yaml:"denoise"`
	Sharpen    bool `json:"sharpen" yaml:"sharpen"`

	ConfidenceThreshold float32       `json:"confidence_threshold" yaml:"confidence_threshold"` // low-confidence warning cutoff
	ProcessingTimeout   time.Duration `json:"processing_timeout" yaml:"processing_timeout"`
	MaxInputBytes       int           `json:"max_input_bytes" yaml:"max_input_bytes"`
}

// Hints are optional parse hints forwarded to the structured extractor.
type Hints struct {
	Language string `json:"language,omitempty" yaml:"language"`
	Country  string `json:"country,omitempty" yaml:"country"`
}

const (
	DefaultMinDimension        = 32
	DefaultMaxDimension        = 4000
	DefaultTargetDimension     = 2000
	DefaultConfidenceThreshold = 0.7
	DefaultProcessingTimeout   = 30 * time.Second
	DefaultMaxInputBytes       = 20 << 20 // 20 MB
)

// DefaultProcessingOptions returns the documented defaults.
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		MinDimension:        DefaultMinDimension,
		MaxDimension:        DefaultMaxDimension,
		TargetWidth:         DefaultTargetDimension,
		TargetHeight:        DefaultTargetDimension,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		ProcessingTimeout:   DefaultProcessingTimeout,
		MaxInputBytes:       DefaultMaxInputBytes,
	}
}

// Normalize fills zero values with defaults so partially-populated options
// behave sensibly.
func (o ProcessingOptions) Normalize() ProcessingOptions {
	d := DefaultProcessingOptions()
	if o.MinDimension <= 0 {
		o.MinDimension = d.MinDimension
	}
	if o.MaxDimension <= 0 {
		o.MaxDimension = d.MaxDimension
	}
	if o.TargetWidth <= 0 {
		o.TargetWidth = d.TargetWidth
	}
	if o.TargetHeight <= 0 {
		o.TargetHeight = d.TargetHeight
	}
	if o.ConfidenceThreshold <= 0 {
		o.ConfidenceThreshold = d.ConfidenceThreshold
	}
	if o.ProcessingTimeout <= 0 {
		o.ProcessingTimeout = d.ProcessingTimeout
	}
	if o.MaxInputBytes <= 0 {
		o.MaxInputBytes = d.MaxInputBytes
	}
	return o
}

// Validate rejects option values outside their documented ranges.
func (o ProcessingOptions) Validate() error {
	if o.Contrast < -100 || o.Contrast > 100 {
		return fmt.Errorf("contrast out of range [-100,100]: %d", o.Contrast)
	}
	if o.Brightness < -100 || o.Brightness > 100 {
		return fmt.Errorf("brightness out of range [-100,100]: %d", o.Brightness)
	}
	if o.ConfidenceThreshold < 0 || o.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold out of range [0,1]: %v", o.ConfidenceThreshold)
	}
	if o.MinDimension > 0 && o.MaxDimension > 0 && o.MinDimension > o.MaxDimension {
		return fmt.Errorf("min dimension %d exceeds max dimension %d", o.MinDimension, o.MaxDimension)
	}
	return nil
}
