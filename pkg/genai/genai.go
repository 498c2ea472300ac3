// Package genai talks to the Gemini API in the two modes the vehicle
// supports: one-shot generateContent calls per camera frame (batch) and
// a persistent BidiGenerateContent WebSocket session (live).
//
// Both modes instruct the model to answer by calling set_rc_controls.
// The package hands raw tool calls back to the caller; validation and
// safety defaults live in pkg/command.
package genai

import "github.com/gemobotics/gemo/pkg/command"

// BasePrompt is the standing instruction for the driving model.
const BasePrompt = "You are an autonomous RC car controller. " +
	"Analyze the front camera image and decide the safest drive/steer. " +
	"If uncertain, choose STOP and CENTER. " +
	"You MUST respond by calling function set_rc_controls. " +
	"The reason must be a short noun phrase, no punctuation."

// Default models per mode.
const (
	DefaultBatchModel = "gemini-3-flash-preview"
	DefaultLiveModel  = "gemini-2.5-flash-native-audio-preview-12-2025"
)

// toolDeclarations returns the function declarations advertised to the
// model. Kept as plain maps because both the REST payload and the live
// setup message embed them verbatim.
func toolDeclarations() []map[string]any {
	return []map[string]any{
		{
			"name":        command.ToolName,
			"description": "Return RC car control commands.",
			"parameters": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"drive": map[string]any{
						"type": "string",
						"enum": []string{"FORWARD", "STOP", "REVERSE"},
					},
					"steer": map[string]any{
						"type": "string",
						"enum": []string{"LEFT", "CENTER", "RIGHT"},
					},
					"power": map[string]any{
						"type":        "number",
						"description": "Motor power 0..1, optional",
					},
					"reason": map[string]any{"type": "string"},
				},
				"required": []string{"drive", "steer"},
			},
		},
	}
}
