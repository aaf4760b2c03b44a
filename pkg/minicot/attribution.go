package minicot

import "strings"

// Attribute classifies a candidate's origin by priority: explicit
// memoryRole, then a role:* tag, then the user-code/generated tag
// family, else unknown.
func Attribute(c Candidate) Attribution {
	switch c.MemoryRole {
	case string(AttributionUser):
		return AttributionUser
	case string(AttributionAssistant):
		return AttributionAssistant
	}

	for _, tag := range c.MemoryTags {
		switch tag {
		case "role:user":
			return AttributionUser
		case "role:assistant":
			return AttributionAssistant
		}
	}

	for _, tag := range c.MemoryTags {
		lower := strings.ToLower(tag)
		switch {
		case lower == "user-code" || lower == "user_code":
			return AttributionUserCode
		case lower == "generated" || lower == "ai-generated" || lower == "ai_generated":
			return AttributionGenerated
		}
	}

	return AttributionUnknown
}
