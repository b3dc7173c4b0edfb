package models

import "time"

// Project is a remote project registered by a chat user.
// (UserID, ProjectID) is unique.
type Project struct {
	UserID      int64     `db:"user_id"      json:"user_id"`
	ProjectID   int64     `db:"project_id"   json:"project_id"`
	ProjectName string    `db:"project_name" json:"project_name"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}

// PendingLaunch is a fully resolved launch awaiting the user's confirmation.
// ParamValues and DisplayParams are derived 1:1, in schema order, from the collected values.
type PendingLaunch struct {
	JobID         int64          `json:"job_id"`
	ProjectID     int64          `json:"project_id"`
	JobName       string         `json:"job_name"`
	LaunchName    string         `json:"launch_name"`
	ParamValues   []ParamValue   `json:"param_values"`
	DisplayParams []DisplayParam `json:"display_params"`
}
