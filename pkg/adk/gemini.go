package adk

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiProvider(ctx context.Context, apiKey string, modelName string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-pro"
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) ListModels(ctx context.Context) ([]string, error) {
	iter := g.client.ListModels(ctx)
	var names []string
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		// Only list models that support content generation (rough filter)
		if strings.Contains(m.Name, "gemini") {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	return names, nil
}

// functionDeclarations converts tools into Gemini function declarations
func functionDeclarations(tools []Tool) []*genai.FunctionDeclaration {
	var decls []*genai.FunctionDeclaration
	for _, t := range tools {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{},
		}
		for _, p := range t.Parameters() {
			schema.Properties[p.Name] = &genai.Schema{Type: genai.TypeString, Description: p.Description}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  schema,
		})
	}
	return decls
}

// toContents maps history onto Gemini roles. System messages become the
// system instruction; tool output is sent back as user text.
func toContents(history []Message) (system *genai.Content, cs []*genai.Content) {
	for _, msg := range history {
		switch msg.Role {
		case "system":
			system = &genai.Content{Parts: []genai.Part{genai.Text(msg.Content)}}
			continue
		case "model":
			cs = append(cs, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			cs = append(cs, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	return system, cs
}

func (g *GeminiProvider) GenerateResponse(ctx context.Context, history []Message, tools []Tool) (string, *ToolCall, error) {
	if decls := functionDeclarations(tools); len(decls) > 0 {
		g.model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	system, cs := toContents(history)
	if len(cs) == 0 {
		return "", nil, fmt.Errorf("empty history")
	}
	g.model.SystemInstruction = system

	session := g.model.StartChat()
	session.History = cs[:len(cs)-1]
	lastMsg := cs[len(cs)-1]

	resp, err := session.SendMessage(ctx, lastMsg.Parts...)
	if err != nil {
		return "", nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil, fmt.Errorf("no response candidates")
	}

	var responseText string
	var toolCall *ToolCall
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			toolCall = &ToolCall{ToolName: p.Name, Args: p.Args}
		case genai.Text:
			responseText += string(p)
		}
	}

	if toolCall != nil || responseText != "" {
		return responseText, toolCall, nil
	}
	return "", nil, fmt.Errorf("empty response")
}

func (g *GeminiProvider) Close() {
	g.client.Close()
}
