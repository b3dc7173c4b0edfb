// Package models contains shared data models used across the testopsbot codebase.
package models

// Job is a runnable test suite definition owned by a remote project.
type Job struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Parameter is one entry of a job's parameter schema.
// Name is unique within a schema; ID is what the remote API expects on submission.
type Parameter struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DefaultValue string `json:"defaultValue"`
}

// JobDetails is a job together with its ordered parameter schema.
type JobDetails struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
}

// ParamValue is one parameter value in a run submission.
type ParamValue struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
}

// DisplayParam is a human-readable name/value pair shown before and after a launch.
type DisplayParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RunInfo is the subset of a launch's state the bot cares about.
type RunInfo struct {
	ID     int64 `json:"id"`
	Closed bool  `json:"closed"`
}

// StatusCount is one row of a launch's statistic: how many tests ended in a status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// RunReport is the aggregated outcome of a closed launch.
type RunReport struct {
	LaunchID int64
	Passed   int
	Failed   int
	Skipped  int
	Total    int
}
