package constants

// JobState is the canonical state of an extraction job.
type JobState string

const (
	JobStateIdle          JobState = "IDLE"
	JobStatePreprocessing JobState = "PREPROCESSING"
	JobStateRecognizing   JobState = "RECOGNIZING"
	JobStateRecognized    JobState = "RECOGNIZED"
	JobStateExtracting    JobState = "EXTRACTING"
	JobStateDone          JobState = "DONE"
	JobStateError         JobState = "ERROR" // reachable from any non-terminal state
)
