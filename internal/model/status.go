package model

// RunState represents the stage a merge run is in
type RunState string

const (
	// RunStateIdle means the run has not started
	RunStateIdle RunState = "Idle"

	// RunStateEngineLoading means the media engine is being loaded
	RunStateEngineLoading RunState = "EngineLoading"

	// RunStateDownloadingVideo means the video stream is being fetched
	RunStateDownloadingVideo RunState = "DownloadingVideo"

	// RunStateDownloadingAudio means the audio stream is being fetched
	RunStateDownloadingAudio RunState = "DownloadingAudio"

	// RunStateRemuxing means the engine is merging the streams
	RunStateRemuxing RunState = "Remuxing"

	// RunStateExtracting means the output is being read back from the engine
	RunStateExtracting RunState = "Extracting"

	// RunStateDelivering means the output is being handed to the saver
	RunStateDelivering RunState = "Delivering"

	// RunStateDone means the run finished successfully
	RunStateDone RunState = "Done"

	// RunStateFailed means the run aborted with an error
	RunStateFailed RunState = "Failed"
)

// String returns the string representation of RunState
func (rs RunState) String() string {
	return string(rs)
}

// IsActive returns true if the run is in progress
func (rs RunState) IsActive() bool {
	switch rs {
	case RunStateEngineLoading, RunStateDownloadingVideo, RunStateDownloadingAudio,
		RunStateRemuxing, RunStateExtracting, RunStateDelivering:
		return true
	}
	return false
}

// IsFinished returns true if the run is in a terminal state
func (rs RunState) IsFinished() bool {
	return rs == RunStateDone || rs == RunStateFailed
}
