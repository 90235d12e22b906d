package models

import "math"

// VideoInfo describes an opened video source
type VideoInfo struct {
	Path        string
	FPS         float64
	TotalFrames int
}

// Duration returns the length of the video in seconds
func (v VideoInfo) Duration() float64 {
	if v.FPS <= 0 {
		return 0
	}
	return float64(v.TotalFrames) / v.FPS
}

// SampleTimestamp is a point in time at which a frame is extracted for analysis
type SampleTimestamp struct {
	Index   int
	Seconds float64
}

// Annotation is the structured description produced for one sampled frame
type Annotation struct {
	Timestamp        float64  `json:"timestamp"`
	Title            string   `json:"title"`
	Caption          string   `json:"caption"`
	SceneDescription string   `json:"scene_description"`
	Persons          []string `json:"persons"`
	Objects          []string `json:"objects"`
}

// Row is an Annotation with its list fields flattened for tabular storage
type Row struct {
	Timestamp        float64
	Title            string
	Caption          string
	SceneDescription string
	Persons          string
	Objects          string
}

// RoundTimestamp rounds seconds to two decimal places
func RoundTimestamp(seconds float64) float64 {
	return math.Round(seconds*100) / 100
}
