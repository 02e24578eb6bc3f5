package mcp

var statusEnum = []string{"PENDING", "INPROGRESS", "DONE"}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}

func statusProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "enum": statusEnum, "description": description}
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// toolList is returned by tools/list.
var toolList = []Tool{
	{
		Name:        "pulse_add",
		Description: "Create a new task",
		InputSchema: object(map[string]interface{}{
			"title":       stringProp("Task title (required)"),
			"description": stringProp("Task description (optional)"),
			"tag":         stringProp(`Task tag (defaults to "base")`),
		}, "title"),
	},
	{
		Name:        "pulse_list",
		Description: "List tasks with optional filtering",
		InputSchema: object(map[string]interface{}{
			"tag":    stringProp("Filter by tag"),
			"status": statusProp("Filter by status"),
		}),
	},
	{
		Name:        "pulse_update",
		Description: "Update an existing task. Changing the tag moves the task to that tag.",
		InputSchema: object(map[string]interface{}{
			"taskId":      numberProp("Task ID (required)"),
			"title":       stringProp("New task title"),
			"description": stringProp("New task description"),
			"tag":         stringProp("New task tag"),
		}, "taskId"),
	},
	{
		Name:        "pulse_status",
		Description: "Change task status",
		InputSchema: object(map[string]interface{}{
			"taskId": numberProp("Task ID (required)"),
			"status": statusProp("New status (required)"),
			"tag":    stringProp("Task tag (optional, helps with lookup)"),
			"completeSubtasks": map[string]interface{}{
				"type":        "boolean",
				"description": "Also mark every subtask DONE (default: false)",
			},
		}, "taskId", "status"),
	},
	{
		Name:        "pulse_next",
		Description: "Get the next task to work on",
		InputSchema: object(map[string]interface{}{
			"tag": stringProp("Limit search to specific tag"),
		}),
	},
	{
		Name:        "pulse_subtask_add",
		Description: "Add a subtask to an existing task",
		InputSchema: object(map[string]interface{}{
			"parentTaskId": numberProp("Parent task ID (required)"),
			"title":        stringProp("Subtask title (required)"),
			"tag":          stringProp("Parent task tag (optional, helps with lookup)"),
		}, "parentTaskId", "title"),
	},
	{
		Name:        "pulse_subtask_status",
		Description: "Change subtask status",
		InputSchema: object(map[string]interface{}{
			"parentTaskId": numberProp("Parent task ID (required)"),
			"subtaskId":    numberProp("Subtask ID (required)"),
			"status":       statusProp("New status (required)"),
			"tag":          stringProp("Parent task tag (optional, helps with lookup)"),
		}, "parentTaskId", "subtaskId", "status"),
	},
	{
		Name:        "pulse_show",
		Description: "Show detailed task information",
		InputSchema: object(map[string]interface{}{
			"taskId": numberProp("Task ID (required)"),
			"tag":    stringProp("Task tag (optional, helps with lookup)"),
		}, "taskId"),
	},
	{
		Name:        "pulse_delete",
		Description: "Delete a task and its subtasks",
		InputSchema: object(map[string]interface{}{
			"taskId": numberProp("Task ID (required)"),
			"tag":    stringProp("Task tag (optional, helps with lookup)"),
		}, "taskId"),
	},
	{
		Name:        "pulse_tags",
		Description: "List all tags or tags with open tasks",
		InputSchema: object(map[string]interface{}{
			"all": map[string]interface{}{
				"type":        "boolean",
				"description": "Show all tags including empty ones (default: false)",
			},
		}),
	},
	{
		Name:        "pulse_get_directory",
		Description: "Get the full path to the .pulse directory",
		InputSchema: object(map[string]interface{}{}),
	},
}
