// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time so they can be edited without touching Go code.
package assets

import (
	_ "embed"
)

// ClassifySystemPrompt frames the model as a marine debris analyst.
//
//go:embed prompts/classify-system.txt
var ClassifySystemPrompt string

// ClassifyPrompt asks for a structured JSON analysis of one cropped object.
//
//go:embed prompts/classify.txt
var ClassifyPrompt string
