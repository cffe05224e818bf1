package video

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWorkflow(t *testing.T) {
	dir := t.TempDir()
	graph := `{"6": {"class_type": "CLIPTextEncode", "inputs": {"text": ""}}}`
	if err := os.WriteFile(filepath.Join(dir, "wan21.json"), []byte(graph), 0o644); err != nil {
		t.Fatal(err)
	}

	wf, err := LoadWorkflow(dir, "wan21")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := wf["6"]; !ok {
		t.Fatalf("workflow = %+v", wf)
	}

	if _, err := LoadWorkflow(dir, "missing"); err == nil {
		t.Fatal("expected error for missing workflow")
	}
}

func TestApplyPrompt(t *testing.T) {
	wf := Workflow{
		"3": {"class_type": "KSampler", "inputs": map[string]any{"seed": float64(1)}},
		"6": {"class_type": "CLIPTextEncode", "inputs": map[string]any{"text": "old"}},
		"7": {"class_type": "WanVideoTextEncode", "inputs": map[string]any{"positive_prompt": "old"}},
	}

	if !wf.ApplyPrompt("一只猫在花园里") {
		t.Fatal("prompt not applied")
	}
	if got := wf["6"]["inputs"].(map[string]any)["text"]; got != "一只猫在花园里" {
		t.Fatalf("clip text = %v", got)
	}
	if got := wf["7"]["inputs"].(map[string]any)["positive_prompt"]; got != "一只猫在花园里" {
		t.Fatalf("wan prompt = %v", got)
	}
}

func TestApplyPromptNoTextNodes(t *testing.T) {
	wf := Workflow{"1": {"class_type": "LoadImage", "inputs": map[string]any{"image": "a.png"}}}
	if wf.ApplyPrompt("x") {
		t.Fatal("applied to workflow without text nodes")
	}
}

func TestApplySeed(t *testing.T) {
	wf := Workflow{
		"3": {"class_type": "KSampler", "inputs": map[string]any{"seed": float64(1)}},
		"6": {"class_type": "CLIPTextEncode", "inputs": map[string]any{"text": ""}},
	}
	if !wf.ApplySeed(42) {
		t.Fatal("seed not applied")
	}
	if got := wf["3"]["inputs"].(map[string]any)["seed"]; got != uint32(42) {
		t.Fatalf("seed = %v", got)
	}
	if _, ok := wf["6"]["inputs"].(map[string]any)["seed"]; ok {
		t.Fatal("seed injected into node without seed input")
	}
}

func TestExtractPromptAndModel(t *testing.T) {
	nodes := map[string]json.RawMessage{
		"6":  json.RawMessage(`{"class_type": "WanVideoTextEncode", "inputs": {"positive_prompt": "海边日落"}}`),
		"12": json.RawMessage(`{"class_type": "WanVideoModelLoader", "inputs": {"model": "Wan2_1/wan2.1_t2v_1.3B.safetensors"}}`),
	}

	if got := ExtractPrompt(nodes); got != "海边日落" {
		t.Fatalf("prompt = %q", got)
	}
	if got := ExtractModel(nodes); got != "Wan2_1" {
		t.Fatalf("model = %q", got)
	}
}

func TestExtractFromEmptyGraph(t *testing.T) {
	if got := ExtractPrompt(nil); got != "" {
		t.Fatalf("prompt = %q", got)
	}
	if got := ExtractModel(nil); got != "" {
		t.Fatalf("model = %q", got)
	}
}
