// Package chat implements the collection assistant: a Gemini-backed chat
// endpoint grounded in the user's collection, with tools that let the model
// add, update, and delete cards on the user's behalf.
package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/cardstoard/cardstoard-api/internal/logger"
	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
	"github.com/cardstoard/cardstoard-api/internal/valuation"
)

// Tool names exposed to the model
const (
	toolAddCard    = "add_card"
	toolUpdateCard = "update_card"
	toolDeleteCard = "delete_card"
)

// maxToolRounds bounds the generate/execute loop so a misbehaving model
// cannot spin forever.
const maxToolRounds = 4

const systemPrompt = `You are the CardStoard collection assistant. You help a
sports card collector understand and manage their collection. Answer from the
collection context you are given; do not invent cards or prices. When the user
asks you to change the collection, use the provided tools. Confirm what you
did in plain language. Valid grades are 3.0 (mint), 1.5 (excellent),
1.0 (very good), 0.8 (good), 0.4 (fair), 0.2 (poor).`

// Message is one prior chat turn supplied by the client
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// Action records one tool call the assistant executed during a turn
type Action struct {
	Tool   string `json:"tool"`
	CardID int64  `json:"card_id,omitempty"`
	Status string `json:"status"`
}

// Assistant answers chat turns for one configured model
type Assistant struct {
	client    *genai.Client
	model     string
	maxTokens int32
	store     store.Store
}

// NewAssistant creates the chat assistant. The API key is required; model
// and maxTokens fall back to config defaults upstream.
func NewAssistant(ctx context.Context, apiKey, model string, maxTokens int, st store.Store) (*Assistant, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("chat API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Assistant{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
		store:     st,
	}, nil
}

// Chat answers one user turn. The full collection is loaded fresh so tool
// effects from earlier turns are visible, and tool calls run against the
// store before the final reply is generated.
func (a *Assistant) Chat(ctx context.Context, userID int64, message string, history []Message) (string, []Action, error) {
	cards, err := a.store.ListAllUserCards(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load collection: %w", err)
	}
	settings, err := a.store.GetSettings(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load settings: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromText("Collection context:\n"+BuildCollectionContext(cards, settings), genai.RoleUser),
	}
	for _, m := range history {
		var role genai.Role = genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   a.maxTokens,
		Tools:             []*genai.Tool{{FunctionDeclarations: toolDeclarations()}},
	}

	var actions []Action
	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
		if err != nil {
			return "", nil, fmt.Errorf("generate failed: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", nil, fmt.Errorf("empty response from model")
		}

		candidate := resp.Candidates[0].Content
		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return resp.Text(), actions, nil
		}

		contents = append(contents, candidate)
		var responseParts []*genai.Part
		for _, call := range calls {
			result, action := a.execute(ctx, userID, settings, call)
			actions = append(actions, action)
			responseParts = append(responseParts, genai.NewPartFromFunctionResponse(call.Name, result))
		}
		contents = append(contents, genai.NewContentFromParts(responseParts, genai.RoleUser))
	}

	return "", actions, fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
}

func (a *Assistant) execute(ctx context.Context, userID int64, settings *schema.Settings, call *genai.FunctionCall) (map[string]any, Action) {
	action := Action{Tool: call.Name}

	var cardID int64
	var err error
	switch call.Name {
	case toolAddCard:
		cardID, err = a.addCard(ctx, userID, settings, call.Args)
	case toolUpdateCard:
		cardID, err = a.updateCard(ctx, userID, settings, call.Args)
	case toolDeleteCard:
		cardID, err = a.deleteCard(ctx, userID, call.Args)
	default:
		err = fmt.Errorf("unknown tool %q", call.Name)
	}

	action.CardID = cardID
	if err != nil {
		logger.WarnCtx(ctx, "chat tool call failed",
			zap.String("tool", call.Name), zap.Error(err))
		action.Status = "error"
		return map[string]any{"error": err.Error()}, action
	}

	action.Status = "ok"
	return map[string]any{"ok": true, "card_id": cardID}, action
}

func (a *Assistant) addCard(ctx context.Context, userID int64, settings *schema.Settings, args map[string]any) (int64, error) {
	card := schema.Card{UserID: userID}

	var err error
	if card.FirstName, err = stringArg(args, "first_name", true); err != nil {
		return 0, err
	}
	if card.LastName, err = stringArg(args, "last_name", true); err != nil {
		return 0, err
	}
	if card.Brand, err = stringArg(args, "brand", false); err != nil {
		return 0, err
	}
	if card.CardNumber, err = stringArg(args, "card_number", false); err != nil {
		return 0, err
	}

	year, err := intArg(args, "year", true)
	if err != nil {
		return 0, err
	}
	card.Year = year

	card.Rookie = boolArg(args, "rookie")
	if err := applyCardNumbers(&card, args); err != nil {
		return 0, err
	}

	valuation.Revalue(&card, settings)
	if err := a.store.CreateCard(ctx, &card); err != nil {
		return 0, err
	}
	return card.ID, nil
}

func (a *Assistant) updateCard(ctx context.Context, userID int64, settings *schema.Settings, args map[string]any) (int64, error) {
	cardID, err := int64Arg(args, "card_id")
	if err != nil {
		return 0, err
	}

	card, err := a.store.GetCard(ctx, userID, cardID)
	if err != nil {
		return cardID, err
	}
	if card == nil {
		return cardID, fmt.Errorf("card %d not found", cardID)
	}

	if v, ok := args["first_name"]; ok {
		card.FirstName = fmt.Sprint(v)
	}
	if v, ok := args["last_name"]; ok {
		card.LastName = fmt.Sprint(v)
	}
	if v, ok := args["brand"]; ok {
		card.Brand = fmt.Sprint(v)
	}
	if v, ok := args["card_number"]; ok {
		card.CardNumber = fmt.Sprint(v)
	}
	if _, ok := args["year"]; ok {
		if card.Year, err = intArg(args, "year", true); err != nil {
			return cardID, err
		}
	}
	if _, ok := args["rookie"]; ok {
		card.Rookie = boolArg(args, "rookie")
	}
	if err := applyCardNumbers(card, args); err != nil {
		return cardID, err
	}

	valuation.Revalue(card, settings)
	if err := a.store.UpdateCard(ctx, card); err != nil {
		return cardID, err
	}
	return cardID, nil
}

func (a *Assistant) deleteCard(ctx context.Context, userID int64, args map[string]any) (int64, error) {
	cardID, err := int64Arg(args, "card_id")
	if err != nil {
		return 0, err
	}

	card, err := a.store.GetCard(ctx, userID, cardID)
	if err != nil {
		return cardID, err
	}
	if card == nil {
		return cardID, fmt.Errorf("card %d not found", cardID)
	}
	return cardID, a.store.DeleteCard(ctx, userID, cardID)
}

// applyCardNumbers sets grade and book values from tool args, validating the
// grade against the fixed scale.
func applyCardNumbers(card *schema.Card, args map[string]any) error {
	if v, ok := args["grade"]; ok {
		grade, err := toFloat(v)
		if err != nil {
			return fmt.Errorf("invalid grade: %w", err)
		}
		if !schema.GradeValid(grade) {
			return fmt.Errorf("grade %v is not on the grading scale", grade)
		}
		card.Grade = &grade
	}

	books := map[string]**float64{
		"book_high":     &card.BookHigh,
		"book_high_mid": &card.BookHighMid,
		"book_mid":      &card.BookMid,
		"book_low_mid":  &card.BookLowMid,
		"book_low":      &card.BookLow,
	}
	for name, dst := range books {
		if v, ok := args[name]; ok {
			val, err := toFloat(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = &val
		}
	}
	return nil
}

func toolDeclarations() []*genai.FunctionDeclaration {
	bookProps := func() map[string]*genai.Schema {
		return map[string]*genai.Schema{
			"first_name":    {Type: genai.TypeString},
			"last_name":     {Type: genai.TypeString},
			"year":          {Type: genai.TypeInteger},
			"brand":         {Type: genai.TypeString},
			"card_number":   {Type: genai.TypeString},
			"rookie":        {Type: genai.TypeBoolean},
			"grade":         {Type: genai.TypeNumber, Description: "One of 3.0, 1.5, 1.0, 0.8, 0.4, 0.2"},
			"book_high":     {Type: genai.TypeNumber},
			"book_high_mid": {Type: genai.TypeNumber},
			"book_mid":      {Type: genai.TypeNumber},
			"book_low_mid":  {Type: genai.TypeNumber},
			"book_low":      {Type: genai.TypeNumber},
		}
	}

	addProps := bookProps()
	updateProps := bookProps()
	updateProps["card_id"] = &genai.Schema{Type: genai.TypeInteger}

	return []*genai.FunctionDeclaration{
		{
			Name:        toolAddCard,
			Description: "Add a new card to the user's collection",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: addProps,
				Required:   []string{"first_name", "last_name", "year"},
			},
		},
		{
			Name:        toolUpdateCard,
			Description: "Update fields of an existing card identified by card_id",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: updateProps,
				Required:   []string{"card_id"},
			},
		},
		{
			Name:        toolDeleteCard,
			Description: "Delete a card from the user's collection",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"card_id": {Type: genai.TypeInteger},
				},
				Required: []string{"card_id"},
			},
		},
	}
}

func stringArg(args map[string]any, name string, required bool) (string, error) {
	v, ok := args[name]
	if !ok {
		if required {
			return "", fmt.Errorf("missing %s", name)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	return s, nil
}

func intArg(args map[string]any, name string, required bool) (int, error) {
	v, ok := args[name]
	if !ok {
		if required {
			return 0, fmt.Errorf("missing %s", name)
		}
		return 0, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return int(f), nil
}

func int64Arg(args map[string]any, name string) (int64, error) {
	f, err := toFloat(args[name])
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return int64(f), nil
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}

// toFloat accepts the numeric shapes JSON decoding produces
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
