package llm

// The two tool input schemas. The model is forced to call the matching tool,
// so its input block is the structured payload.

const createProjectTool = "record_project_plan"

const createProjectSchema = `{
  "type": "object",
  "properties": {
    "project": {
      "type": "object",
      "properties": {
        "projectName": {"type": "string"},
        "projectType": {"type": "string"},
        "projectGoals": {"type": "array", "items": {"type": "string"}},
        "initialTasks": {
          "type": "array",
          "minItems": 3,
          "maxItems": 5,
          "items": {
            "type": "object",
            "properties": {
              "name": {"type": "string"},
              "description": {"type": "string"}
            },
            "required": ["name", "description"]
          }
        }
      },
      "required": ["projectName", "projectType", "projectGoals", "initialTasks"]
    },
    "openingStatement": {"type": "string"},
    "suggestedActions": {
      "type": "array",
      "minItems": 2,
      "maxItems": 3,
      "items": {"type": "string"}
    }
  },
  "required": ["project", "openingStatement", "suggestedActions"]
}`

const nextStepTool = "record_consultancy_update"

const nextStepSchema = `{
  "type": "object",
  "properties": {
    "consultancyUpdate": {
      "type": "object",
      "properties": {
        "responseText": {"type": "string"},
        "suggestedActions": {"type": "array", "items": {"type": "string"}},
        "progressUpdate": {"type": "integer"},
        "priorityUpdate": {
          "type": "object",
          "properties": {
            "speed": {"type": "integer"},
            "scope": {"type": "integer"}
          }
        },
        "blockers": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {"description": {"type": "string"}},
            "required": ["description"]
          }
        },
        "taskUpdates": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "taskId": {"type": "string"},
              "name": {"type": "string"},
              "description": {"type": "string"},
              "status": {"type": "string", "enum": ["NotStarted", "InProgress", "Completed", "Blocked"]},
              "action": {"type": "string", "enum": ["add", "remove", "update", "complete"]}
            },
            "required": ["name", "action"]
          }
        }
      },
      "required": ["responseText", "suggestedActions", "progressUpdate"]
    }
  },
  "required": ["consultancyUpdate"]
}`
