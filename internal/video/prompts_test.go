package video

import (
	"context"
	"testing"

	"videowall/internal/ai"
)

type scriptedProvider struct {
	reply string
	last  []ai.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	p.last = append([]ai.Message(nil), messages...)
	return p.reply, nil
}

const longScene = "古色古香的庭院里，一位身着长衫的老者在竹影下挥毫泼墨，红灯笼映照青砖古墙"

func TestGenerateParsesCleanJSON(t *testing.T) {
	prov := &scriptedProvider{reply: `{"prompts": ["` + longScene + `a", "` + longScene + `b"], "success": true}`}
	g := NewPromptGenerator(prov)

	prompts, err := g.Generate(context.Background(), "书法之美", "ancient", "default", 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("got %d prompts", len(prompts))
	}
	if len(prov.last) != 1 || prov.last[0].Role != "user" {
		t.Fatalf("messages = %+v", prov.last)
	}
}

func TestParsePromptReplyStripsCodeFences(t *testing.T) {
	reply := "```json\n{\"prompts\": [\"" + longScene + "\"], \"success\": true}\n```"
	prompts := ParsePromptReply(reply, 3)
	if len(prompts) != 1 || prompts[0] != longScene {
		t.Fatalf("prompts = %+v", prompts)
	}
}

func TestParsePromptReplySalvagesWrappedJSON(t *testing.T) {
	reply := "好的，以下是结果：\n{\"prompts\": [\"" + longScene + "\"], \"success\": true}\n希望对你有帮助。"
	prompts := ParsePromptReply(reply, 3)
	if len(prompts) != 1 || prompts[0] != longScene {
		t.Fatalf("prompts = %+v", prompts)
	}
}

func TestParsePromptReplyLineFallback(t *testing.T) {
	reply := "{\n\"prompts\": [\n\"" + longScene + "1\",\n\"" + longScene + "2\",\n短\n}"
	prompts := ParsePromptReply(reply, 3)
	if len(prompts) != 2 {
		t.Fatalf("prompts = %+v", prompts)
	}
}

func TestParsePromptReplyClipsToSegmentCount(t *testing.T) {
	reply := `{"prompts": ["` + longScene + `1", "` + longScene + `2", "` + longScene + `3"], "success": true}`
	prompts := ParsePromptReply(reply, 2)
	if len(prompts) != 2 {
		t.Fatalf("prompts = %+v", prompts)
	}
}

func TestGenerateEmptyReplyErrors(t *testing.T) {
	g := NewPromptGenerator(&scriptedProvider{reply: "无"})
	if _, err := g.Generate(context.Background(), "内容", "modern", "", 3); err == nil {
		t.Fatal("expected error for unusable reply")
	}
}
