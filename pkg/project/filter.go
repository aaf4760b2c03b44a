package project

import (
	"context"
	"fmt"
	"log/slog"
)

// Filter is a SQL fragment suitable for appending to an existing WHERE,
// plus the positional parameter it references.
type Filter struct {
	SQL       string
	Param     any
	NextIndex int
}

// BuildDynamicProjectFilter emits the project-scoping fragment for table,
// resolving a project_id-gated table's UUID via RegisterProject. A
// column-detection error is logged and returns an empty fragment: the
// query must be neither over-restricted (silently dropping all rows) nor
// silently global.
func BuildDynamicProjectFilter(ctx context.Context, detector *ColumnDetector, registry *Registry, activePath, table string, paramIndex int) Filter {
	kind, err := detector.DetectProjectColumn(ctx, table)
	if err != nil {
		slog.Warn("project column detection failed, filter left empty", "table", table, "error", err)
		return Filter{SQL: "", Param: nil, NextIndex: paramIndex}
	}

	switch kind {
	case ColumnProjectPath:
		return Filter{
			SQL:       fmt.Sprintf("project_path = $%d", paramIndex),
			Param:     activePath,
			NextIndex: paramIndex + 1,
		}
	case ColumnProjectID:
		id, err := registry.RegisterProject(ctx, activePath)
		if err != nil {
			slog.Warn("project_id resolution failed, filter left empty", "table", table, "error", err)
			return Filter{SQL: "", Param: nil, NextIndex: paramIndex}
		}
		return Filter{
			SQL:       fmt.Sprintf("project_id = $%d", paramIndex),
			Param:     id,
			NextIndex: paramIndex + 1,
		}
	default:
		return Filter{SQL: "", Param: nil, NextIndex: paramIndex}
	}
}
