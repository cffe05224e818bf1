package video

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workflow is a ComfyUI node graph keyed by node id.
type Workflow map[string]map[string]any

// LoadWorkflow reads the node graph template for a model from dir.
func LoadWorkflow(dir, model string) (Workflow, error) {
	path := filepath.Join(dir, model+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load workflow %s: %w", model, err)
	}
	var wf Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow %s: %w", model, err)
	}
	if len(wf) == 0 {
		return nil, fmt.Errorf("workflow %s is empty", model)
	}
	return wf, nil
}

// ApplyPrompt writes the prompt into every text-encode node and reports
// whether any node accepted it.
func (wf Workflow) ApplyPrompt(prompt string) bool {
	updated := false
	for _, node := range wf {
		inputs, ok := node["inputs"].(map[string]any)
		if !ok {
			continue
		}
		switch node["class_type"] {
		case "CLIPTextEncode":
			if _, ok := inputs["text"]; ok {
				inputs["text"] = prompt
				updated = true
			}
		case "WanVideoTextEncode":
			if _, ok := inputs["positive_prompt"]; ok {
				inputs["positive_prompt"] = prompt
				updated = true
			}
		}
	}
	return updated
}

// ApplySeed writes seed into every node that has a seed input and reports
// whether any node accepted it.
func (wf Workflow) ApplySeed(seed uint32) bool {
	updated := false
	for _, node := range wf {
		inputs, ok := node["inputs"].(map[string]any)
		if !ok {
			continue
		}
		if _, ok := inputs["seed"]; ok {
			inputs["seed"] = seed
			updated = true
		}
	}
	return updated
}

// ExtractPrompt pulls the prompt text back out of a node graph fetched from
// the server queue or history.
func ExtractPrompt(nodes map[string]json.RawMessage) string {
	for _, raw := range nodes {
		var node struct {
			ClassType string         `json:"class_type"`
			Inputs    map[string]any `json:"inputs"`
		}
		if err := json.Unmarshal(raw, &node); err != nil {
			continue
		}
		switch node.ClassType {
		case "CLIPTextEncode":
			if text, ok := node.Inputs["text"].(string); ok && text != "" {
				return text
			}
		case "WanVideoTextEncode":
			if text, ok := node.Inputs["positive_prompt"].(string); ok && text != "" {
				return text
			}
		}
	}
	return ""
}

// ExtractModel reads the model name from a fetched node graph. Paths keep
// only their first segment.
func ExtractModel(nodes map[string]json.RawMessage) string {
	for _, raw := range nodes {
		var node struct {
			ClassType string         `json:"class_type"`
			Inputs    map[string]any `json:"inputs"`
		}
		if err := json.Unmarshal(raw, &node); err != nil {
			continue
		}
		if node.ClassType != "WanVideoModelLoader" {
			continue
		}
		name, ok := node.Inputs["model"].(string)
		if !ok || name == "" {
			continue
		}
		if i := strings.Index(name, "/"); i >= 0 {
			name = name[:i]
		}
		return name
	}
	return ""
}
