package models

import "github.com/google/uuid"

// CodeDefinition is a single named symbol (function, type, method, ...)
// extracted from a source file.
type CodeDefinition struct {
	FilePath       string
	Name           string
	DefinitionType string
	Language       string
	StartLine      int
	EndLine        int
	Content        string
	Signature      string
	Docstring      string
	IsExported     bool
}

// CodebaseFile is a whole tracked source file, independent of any
// definitions extracted from it.
type CodebaseFile struct {
	FilePath   string
	FileName   string
	LanguageID string
	Content    string
	LineCount  int
}

// CodebasePointer links a Memory to a region of a source file, e.g. "this
// note is about lines 12-40 of internal/foo.go, function Bar".
type CodebasePointer struct {
	MemoryID     uuid.UUID
	FilePath     string
	LineStart    int
	LineEnd      int
	FunctionName string
}
