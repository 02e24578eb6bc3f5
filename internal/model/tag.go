package model

// TagDetails summarises a tag shard without its task list.
type TagDetails struct {
	Tag         string `json:"tag"`
	Description string `json:"description,omitempty"`
	TaskCount   int    `json:"task_count"`
	OpenCount   int    `json:"open_count"`
}
