package video

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"videowall/internal/ai"
)

var stylePrompts = map[string]string{
	"ancient": "使用中国传统古风元素,如水墨画风格、古代建筑、古装人物、青砖古墙、翠竹幽径、红色灯笼、古代家具、书法字画等",
	"anime":   "使用日本动漫风格,明亮的色彩、夸张的表情、简洁的线条、动漫人物特征、大眼睛、华丽的发型、校园场景等",
	"cute":    "使用可爱萌系风格,圆润的造型、柔和的色彩、温馨的氛围、萌宠元素、粉色系、毛绒玩具、甜点、花朵等",
	"modern":  "使用现代都市风格,时尚的场景、现代建筑、写实风格、城市元素、高楼大厦、咖啡厅、商场、地铁等",
	"nature":  "使用自然风光风格,壮丽的景色、自然元素、光影效果、山水画卷、森林、湖泊、瀑布、日出日落等",
}

// PromptGenerator turns a piece of copy into per-segment video prompts.
type PromptGenerator struct {
	provider ai.Provider
}

func NewPromptGenerator(provider ai.Provider) *PromptGenerator {
	return &PromptGenerator{provider: provider}
}

// Generate asks the model for numSegments scene prompts. The model is asked
// for JSON but responses are salvaged when it strays from the format.
func (g *PromptGenerator) Generate(ctx context.Context, content, style, model string, numSegments int) ([]string, error) {
	if numSegments <= 0 {
		numSegments = 3
	}

	modelPrefix := ""
	if model != "" && model != "default" {
		modelPrefix = fmt.Sprintf("使用%s模型生成。", model)
	}

	prompt := fmt.Sprintf(`%s请根据以下文案内容，创造性地拆分为%d个连续且各不相同的场景，并为每个场景生成详细的文生视频提示词。

文案内容:
%s

风格要求:
%s

要求:
1. 直接生成%d个详细且各不相同的视频生成提示词，每个提示词不少于100字
2. 每个提示词必须紧密围绕文案内容展开，确保场景与文案主题高度相关
3. 每个提示词要包含具体的视觉元素描述，如场景、人物、动作、表情、光线、色彩等细节
4. 场景之间要保持连贯性和故事性，但每个场景必须有明显的区别
5. 提示词要充分体现选定的风格特点，融入该风格的独特视觉元素
6. 避免生成重复或相似的场景描述，确保每个场景都有独特的视觉表现
7. 使用丰富的形容词和具体的名词，确保AI能生成高质量、细节丰富的视频画面

请直接返回一个JSON格式，格式如下：
{
  "prompts": [
    "第一个场景的详细描述...",
    "第二个场景的详细描述...",
    "第三个场景的详细描述..."
  ],
  "success": true
}`, modelPrefix, numSegments, content, stylePrompts[style], numSegments)

	reply, err := g.provider.Chat(ctx, []ai.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, err
	}

	prompts := ParsePromptReply(reply, numSegments)
	if len(prompts) == 0 {
		return nil, fmt.Errorf("no prompts in model reply")
	}
	return prompts, nil
}

// ParsePromptReply extracts scene prompts from a model reply. It tries the
// expected JSON shape first, then the outermost {...} slice of the text,
// then falls back to keeping substantial lines.
func ParsePromptReply(reply string, numSegments int) []string {
	cleaned := strings.ReplaceAll(reply, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if prompts := parsePromptJSON(cleaned); len(prompts) > 0 {
		return clipPrompts(prompts, numSegments)
	}

	// salvage: the JSON may be wrapped in prose
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if prompts := parsePromptJSON(cleaned[start : end+1]); len(prompts) > 0 {
			return clipPrompts(prompts, numSegments)
		}
	}

	// last resort: keep lines long enough to be scene descriptions
	var prompts []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, `",`)
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "{") || strings.HasPrefix(line, "}") {
			continue
		}
		if strings.HasPrefix(line, `"prompts":`) || strings.HasPrefix(line, `"success":`) {
			continue
		}
		if len([]rune(line)) > 20 {
			prompts = append(prompts, line)
		}
	}
	return clipPrompts(prompts, numSegments)
}

func parsePromptJSON(s string) []string {
	var decoded struct {
		Prompts []string `json:"prompts"`
	}
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil
	}
	var prompts []string
	for _, p := range decoded.Prompts {
		if p = strings.TrimSpace(p); p != "" {
			prompts = append(prompts, p)
		}
	}
	return prompts
}

func clipPrompts(prompts []string, n int) []string {
	if len(prompts) > n {
		return prompts[:n]
	}
	return prompts
}
